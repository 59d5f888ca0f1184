package git

import "strings"

// Origin tags one line of rendered patch output.
type Origin byte

// Line origins. Header and binary notices are whole lines of their own and
// carry no diff marker of their own.
const (
	OriginContext    Origin = ' '
	OriginAddition   Origin = '+'
	OriginDeletion   Origin = '-'
	OriginNoNewline  Origin = '\\'
	OriginFileHeader Origin = 'F'
	OriginHunkHeader Origin = 'H'
	OriginBinary     Origin = 'B'
)

// Line is one line of patch output. Content includes its trailing newline.
type Line struct {
	Origin  Origin
	Content string
}

// prefix returns what is written before Content. Header origins must stay
// unprefixed: a leading space before "diff --git" would stop segments from
// splitting on "\ndiff --git ".
func (o Origin) prefix() string {
	switch o {
	case OriginFileHeader, OriginHunkHeader, OriginBinary:
		return ""
	default:
		return string(o)
	}
}

// Render writes lines as unified patch text.
func Render(lines []Line) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l.Origin.prefix())
		b.WriteString(l.Content)
	}
	return b.String()
}
