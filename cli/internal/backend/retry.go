package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"gitscribe/cli/internal/diff"
	"gitscribe/cli/internal/ollama"
)

const (
	_defaultBaseDelay = 500 * time.Millisecond
	_defaultMaxDelay  = 8 * time.Second
)

// timeAfter is time.After, replaced in tests.
//
//nolint:gochecknoglobals // test seam
var timeAfter = time.After

// Policy configures Retry. Zero delays use the defaults.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Logger     zerolog.Logger
}

type retrying struct {
	next Backend
	pol  Policy
}

// Retry wraps b so transient failures are retried up to MaxRetries times
// with exponential backoff. Context cancellation and client errors are
// returned at once.
func Retry(b Backend, pol Policy) Backend {
	if pol.BaseDelay <= 0 {
		pol.BaseDelay = _defaultBaseDelay
	}
	if pol.MaxDelay <= 0 {
		pol.MaxDelay = _defaultMaxDelay
	}
	return &retrying{next: b, pol: pol}
}

func (r *retrying) Summarize(ctx context.Context, seg diff.Segment) (string, error) {
	delay := r.pol.BaseDelay
	for attempt := 0; ; attempt++ {
		out, err := r.next.Summarize(ctx, seg)
		if err == nil {
			return out, nil
		}
		if attempt >= r.pol.MaxRetries || !isRetryable(err) {
			return "", err
		}
		r.pol.Logger.Warn().Err(err).Str("path", seg.Path).
			Int("attempt", attempt+1).Dur("backoff", delay).Msg("retrying summarization")
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %w", ErrCall, ctx.Err())
		case <-timeAfter(delay):
		}
		delay = min(delay*2, r.pol.MaxDelay)
	}
}

// String reports the wrapped backend.
func (r *retrying) String() string {
	return fmt.Sprint(r.next)
}

// isRetryable reports whether err is worth another attempt. Context errors,
// construction errors and 4xx responses other than 429 are final.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrConstruction) || errors.Is(err, ollama.ErrBadRequest) {
		return false
	}
	if code := openAIStatus(err); code >= 400 && code < 500 && code != http.StatusTooManyRequests {
		return false
	}
	return true
}
