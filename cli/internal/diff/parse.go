package diff

import (
	"bufio"
	"strings"
)

const (
	gitHeaderPrefix = "diff --git "
	// binaryMarker is the prefix git uses when a file is binary.
	binaryMarker = "Binary files "
)

// FilePath returns the path of the file a segment describes. The ---/+++
// lines win when present since they carry the path unambiguously; otherwise
// the "diff --git" line is used. It prefers the b side (the post-image);
// deleted files report the a side. Returns "" when the text has no header.
func FilePath(segment string) string {
	scanner := bufio.NewScanner(strings.NewReader(segment))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var hdrA, hdrB, lineA, lineB string
	seenHeader := false
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, gitHeaderPrefix):
			if !seenHeader {
				hdrA, hdrB = parseDiffGitLine(line)
				seenHeader = true
			}
		case strings.HasPrefix(line, "--- "):
			if p := parsePathLine(line, "--- "); p != "/dev/null" {
				lineA = p
			}
		case strings.HasPrefix(line, "+++ "):
			if p := parsePathLine(line, "+++ "); p != "/dev/null" {
				lineB = p
			}
			return choosePath(lineA, lineB)
		case strings.HasPrefix(line, "@@"):
			return choosePath(hdrA, hdrB)
		}
	}
	return choosePath(hdrA, hdrB)
}

func choosePath(a, b string) string {
	if b != "" {
		return b
	}
	return a
}

// Stats counts added and removed content lines, ignoring the ---/+++ headers.
func (s Segment) Stats() (added, removed int) {
	inHunk := false
	for _, line := range strings.Split(s.Text, "\n") {
		if strings.HasPrefix(line, "@@") {
			inHunk = true
			continue
		}
		if strings.HasPrefix(line, gitHeaderPrefix) {
			inHunk = false
			continue
		}
		if !inHunk || line == "" {
			continue
		}
		switch line[0] {
		case '+':
			added++
		case '-':
			removed++
		}
	}
	return added, removed
}

// Binary reports whether git summarized the segment as a binary change.
func (s Segment) Binary() bool {
	for _, line := range strings.Split(s.Text, "\n") {
		if strings.HasPrefix(line, binaryMarker) && strings.HasSuffix(line, " differ") {
			return true
		}
	}
	return false
}

// parseDiffGitLine splits "diff --git a/P b/Q". When both sides name the same
// path, the line is split at its middle so paths containing " b/" or spaces
// survive; renames fall back to splitting on whitespace.
func parseDiffGitLine(line string) (a, b string) {
	rest := strings.TrimPrefix(line, gitHeaderPrefix)
	if n := len(rest); n > 5 && n%2 == 1 && strings.HasPrefix(rest, "a/") {
		half := (n - 5) / 2
		if rest[2+half:5+half] == " b/" && rest[2:2+half] == rest[5+half:] {
			return rest[2 : 2+half], rest[5+half:]
		}
	}
	parts := strings.Fields(rest)
	if len(parts) >= 2 {
		a = trimDiffPath(parts[0])
		b = trimDiffPath(parts[len(parts)-1])
	}
	return a, b
}

func trimDiffPath(s string) string {
	if len(s) >= 2 && (s[0] == 'a' || s[0] == 'b') && s[1] == '/' {
		return s[2:]
	}
	return s
}

func parsePathLine(line, prefix string) string {
	s := strings.TrimPrefix(line, prefix)
	// "/dev/null" or "a/path" or "b/path", optionally followed by a tab and timestamp
	if idx := strings.Index(s, "\t"); idx >= 0 {
		s = s[:idx]
	}
	return trimDiffPath(s)
}
