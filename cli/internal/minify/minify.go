// Package minify compacts the whitespace of a file's diff before it is sent
// to the model. Only languages where indentation carries no meaning are
// touched; the diff headers and each line's origin character are kept, so
// line counts and paths read the same afterwards.
package minify

import (
	"path/filepath"
	"regexp"
	"strings"
)

var hunkHeaderRegex = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+\d+(?:,\d+)? @@`)

// braceLanguages are extensions whose meaning survives indentation loss.
var braceLanguages = map[string]bool{
	".go": true, ".rs": true, ".c": true, ".h": true, ".cc": true, ".cpp": true,
	".hpp": true, ".java": true, ".kt": true, ".scala": true, ".swift": true,
	".cs": true, ".js": true, ".jsx": true, ".ts": true, ".tsx": true,
	".php": true, ".css": true, ".scss": true, ".json": true, ".sql": true,
}

// Eligible reports whether the file at path may be minified.
func Eligible(path string) bool {
	return braceLanguages[strings.ToLower(filepath.Ext(path))]
}

// Diff returns one file's diff with hunk bodies compacted when path is
// Eligible, and text unchanged otherwise.
func Diff(path, text string) string {
	if !Eligible(path) {
		return text
	}
	lines := strings.Split(text, "\n")
	inHunk := false
	for i, line := range lines {
		switch {
		case hunkHeaderRegex.MatchString(line):
			inHunk = true
		case strings.HasPrefix(line, "diff --git "):
			inHunk = false
		case inHunk:
			lines[i] = minifyLine(line)
		}
	}
	return strings.Join(lines, "\n")
}

// minifyLine keeps the origin character (space, -, +) and, for the rest of
// the line, trims leading whitespace and collapses runs of spaces to one.
// The "\ No newline at end of file" marker is left alone.
func minifyLine(line string) string {
	if line == "" || line[0] == '\\' {
		return line
	}
	rest := strings.TrimLeft(line[1:], " \t")
	return line[:1] + collapseSpaces(rest)
}

// collapseSpaces replaces runs of spaces (and tabs) with a single space.
func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	wasSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
			continue
		}
		wasSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
