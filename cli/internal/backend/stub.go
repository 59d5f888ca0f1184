package backend

import (
	"context"
	"fmt"

	"gitscribe/cli/internal/diff"
)

// StubFunc produces a summary for a segment without a model.
type StubFunc func(diff.Segment) (string, error)

// Stub is a deterministic backend for tests and dry runs.
type Stub struct {
	fn StubFunc
}

// NewStub returns a Stub using fn, or DefaultStub when fn is nil.
func NewStub(fn StubFunc) *Stub {
	if fn == nil {
		fn = DefaultStub
	}
	return &Stub{fn: fn}
}

// DefaultStub returns "Update <path> (+A -R)".
func DefaultStub(seg diff.Segment) (string, error) {
	added, removed := seg.Stats()
	return fmt.Sprintf("Update %s (+%d -%d)", seg.Path, added, removed), nil
}

func (s *Stub) Summarize(ctx context.Context, seg diff.Segment) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", callErr("stub", err)
	}
	out, err := s.fn(seg)
	if err != nil {
		return "", callErr("stub", err)
	}
	return out, nil
}

// String is used in doctor output.
func (s *Stub) String() string { return "stub" }
