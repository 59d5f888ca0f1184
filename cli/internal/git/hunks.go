package git

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
)

const contextLines = 3

const noNewlineText = " No newline at end of file\n"

// text is a file's content split into lines, each keeping its newline.
type text struct {
	lines []string
	// noEOL is set when the last line has no trailing newline.
	noEOL bool
}

func splitText(s string) text {
	if s == "" {
		return text{}
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return text{lines: lines, noEOL: !strings.HasSuffix(s, "\n")}
}

// whitespaceKey drops every whitespace rune, so lines that differ only in
// spacing, indentation or line endings compare equal.
func whitespaceKey(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func keys(t text) []string {
	out := make([]string, len(t.lines))
	for i, l := range t.lines {
		out[i] = whitespaceKey(l)
	}
	return out
}

// hunks diffs a against b ignoring whitespace and returns hunk headers and
// content lines. The matcher runs without the auto-junk heuristic, which
// otherwise treats frequent lines as noise and yields larger hunks.
func hunks(a, b text) []Line {
	ka, kb := keys(a), keys(b)
	if slices.Equal(ka, kb) {
		return nil
	}
	m := difflib.NewMatcherWithJunk(ka, kb, false, nil)
	var out []Line
	for _, group := range m.GetGroupedOpCodes(contextLines) {
		first, last := group[0], group[len(group)-1]
		out = append(out, Line{
			Origin:  OriginHunkHeader,
			Content: fmt.Sprintf("@@ -%s +%s @@\n", unifiedRange(first.I1, last.I2), unifiedRange(first.J1, last.J2)),
		})
		for _, op := range group {
			switch op.Tag {
			case 'e':
				out = appendSide(out, OriginContext, b, op.J1, op.J2)
			case 'r':
				out = appendSide(out, OriginDeletion, a, op.I1, op.I2)
				out = appendSide(out, OriginAddition, b, op.J1, op.J2)
			case 'd':
				out = appendSide(out, OriginDeletion, a, op.I1, op.I2)
			case 'i':
				out = appendSide(out, OriginAddition, b, op.J1, op.J2)
			}
		}
	}
	return out
}

func appendSide(out []Line, origin Origin, t text, from, to int) []Line {
	for i := from; i < to; i++ {
		line := t.lines[i]
		last := i == len(t.lines)-1
		if last && t.noEOL {
			out = append(out, Line{Origin: origin, Content: line + "\n"})
			out = append(out, Line{Origin: OriginNoNewline, Content: noNewlineText})
			continue
		}
		out = append(out, Line{Origin: origin, Content: line})
	}
	return out
}

// unifiedRange formats a half-open line range the way unified diff headers do.
func unifiedRange(start, stop int) string {
	beginning := start + 1
	length := stop - start
	if length == 1 {
		return fmt.Sprintf("%d", beginning)
	}
	if length == 0 {
		beginning--
	}
	return fmt.Sprintf("%d,%d", beginning, length)
}
