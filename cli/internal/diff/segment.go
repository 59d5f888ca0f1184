package diff

import (
	"iter"
	"strings"
)

// Marker separates file sections in git's patch output. The leading newline
// means only a line that starts with "diff --git " can open a segment.
const Marker = "\ndiff --git "

// Segment is one file's slice of a unified diff.
type Segment struct {
	Index int    // position in the diff, starting at 0
	Path  string // b-side path from the "diff --git" line; empty if the segment has no header
	Text  string
}

// SplitPrefixInclusive yields the pieces of s split at each occurrence of
// sep, keeping sep as the prefix of the piece it starts. A match at the very
// start of s does not produce an empty leading piece, and an empty s yields a
// single empty piece, so the sequence is never empty and its pieces always
// concatenate back to s. The sequence may be ranged over repeatedly.
func SplitPrefixInclusive(s, sep string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if sep == "" {
			yield(s)
			return
		}
		start, from := 0, 0
		for {
			i := strings.Index(s[from:], sep)
			if i < 0 {
				yield(s[start:])
				return
			}
			at := from + i
			if at != start {
				if !yield(s[start:at]) {
					return
				}
				start = at
			}
			from = at + len(sep)
		}
	}
}

// Segments yields s split into per-file segments.
func Segments(s string) iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		i := 0
		for text := range SplitPrefixInclusive(s, Marker) {
			if !yield(Segment{Index: i, Path: FilePath(text), Text: text}) {
				return
			}
			i++
		}
	}
}

// Split is the collected form of Segments.
func Split(s string) []Segment {
	var out []Segment
	for seg := range Segments(s) {
		out = append(out, seg)
	}
	return out
}

// Blank reports whether the segment holds nothing but whitespace.
func (s Segment) Blank() bool {
	return strings.TrimSpace(s.Text) == ""
}
