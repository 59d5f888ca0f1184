// Package hook decides whether a prepare-commit-msg invocation should generate
// a message, based on the commit source git passes as the hook's second argument.
package hook

import (
	"errors"
	"fmt"
)

// ErrUnknownSource is returned by ParseSource for a value git never passes.
var ErrUnknownSource = errors.New("unknown commit source")

// Source describes why git invoked the prepare-commit-msg hook.
type Source int

const (
	// SourceEmpty means no message was supplied (plain `git commit`).
	SourceEmpty Source = iota
	// SourceMessage means -m or -F supplied the message.
	SourceMessage
	// SourceTemplate means -t or commit.template supplied the message.
	SourceTemplate
	// SourceMerge means the commit is a merge or .git/MERGE_MSG exists.
	SourceMerge
	// SourceSquash means .git/SQUASH_MSG exists.
	SourceSquash
	// SourceCommit means -c, -C or --amend reused an existing commit.
	SourceCommit
)

var sourceNames = map[Source]string{
	SourceEmpty:    "",
	SourceMessage:  "message",
	SourceTemplate: "template",
	SourceMerge:    "merge",
	SourceSquash:   "squash",
	SourceCommit:   "commit",
}

// String returns the spelling git uses for s; SourceEmpty is "".
func (s Source) String() string {
	if name, ok := sourceNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Source(%d)", int(s))
}

// ParseSource maps git's commit-source argument to a Source.
func ParseSource(s string) (Source, error) {
	for src, name := range sourceNames {
		if name == s {
			return src, nil
		}
	}
	return SourceEmpty, fmt.Errorf("%w: %q", ErrUnknownSource, s)
}

// ShouldRun reports whether a message should be generated for src.
// Template, merge and squash commits already carry a message git wrote for a
// reason, so they are left alone.
func ShouldRun(src Source) bool {
	switch src {
	case SourceEmpty, SourceMessage, SourceCommit:
		return true
	default:
		return false
	}
}

// SkipReason explains why src is skipped. It is empty when ShouldRun(src).
func SkipReason(src Source) string {
	if ShouldRun(src) {
		return ""
	}
	return fmt.Sprintf("the hook is not set up for the %q commit mode", src.String())
}
