package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitscribe/cli/internal/diff"
)

func TestStub_customFunc(t *testing.T) {
	t.Parallel()
	s := NewStub(func(seg diff.Segment) (string, error) { return "foo bar " + seg.Path, nil })
	out, err := s.Summarize(context.Background(), segment(t))
	require.NoError(t, err)
	assert.Equal(t, "foo bar main.go", out)
}

func TestStub_errorWrapsErrCall(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	s := NewStub(func(diff.Segment) (string, error) { return "", boom })
	_, err := s.Summarize(context.Background(), segment(t))
	assert.ErrorIs(t, err, ErrCall)
	assert.ErrorIs(t, err, boom)
}

func TestStub_canceledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewStub(nil).Summarize(ctx, segment(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultStub_emptySegment(t *testing.T) {
	t.Parallel()
	out, err := DefaultStub(diff.Segment{})
	require.NoError(t, err)
	assert.Equal(t, "Update  (+0 -0)", out)
}
