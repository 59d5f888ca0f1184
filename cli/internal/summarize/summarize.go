// Package summarize runs a Backend over every diff segment and assembles the
// per-file summaries into a commit message body.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"gitscribe/cli/internal/backend"
	"gitscribe/cli/internal/diff"
	"gitscribe/cli/internal/erruser"
)

// ErrBackendFailed wraps the first backend error of a run. No partial
// message is returned with it.
var ErrBackendFailed = errors.New("backend failed")

// Options configures an Orchestrator.
type Options struct {
	// Concurrency is the number of segments summarized at once. Values
	// below 2 run sequentially.
	Concurrency int
	// Ignore lists path patterns (see diff.Ignored) that are never sent.
	Ignore []string
	Logger zerolog.Logger
}

// Orchestrator summarizes segments with one backend.
type Orchestrator struct {
	backend backend.Backend
	opts    Options
}

// New returns an Orchestrator that sends segments to b.
func New(b backend.Backend, opts Options) *Orchestrator {
	return &Orchestrator{backend: b, opts: opts}
}

// CommitMessage summarizes every segment in segs and returns the assembled
// body. Blank segments and ignored paths are skipped; if nothing remains the
// result is "" and the backend is not called.
func (o *Orchestrator) CommitMessage(ctx context.Context, segs iter.Seq[diff.Segment]) (string, error) {
	var work []diff.Segment
	skipped := 0
	for seg := range segs {
		switch {
		case seg.Blank():
			skipped++
		case seg.Path != "" && diff.Ignored(seg.Path, o.opts.Ignore):
			o.opts.Logger.Debug().Str("path", seg.Path).Msg("skipping ignored path")
			skipped++
		default:
			work = append(work, seg)
		}
	}
	if len(work) == 0 {
		o.opts.Logger.Debug().Int("skipped", skipped).Msg("no segments to summarize")
		return "", nil
	}

	fragments := make([]string, len(work))
	var err error
	if o.opts.Concurrency > 1 && len(work) > 1 {
		err = o.parallel(ctx, work, fragments)
	} else {
		err = o.sequential(ctx, work, fragments)
	}
	if err != nil {
		return "", err
	}
	o.opts.Logger.Info().Int("summarized", len(work)).Int("skipped", skipped).Msg("segments summarized")
	return Assemble(fragments), nil
}

func (o *Orchestrator) sequential(ctx context.Context, work []diff.Segment, fragments []string) error {
	for i, seg := range work {
		out, err := o.backend.Summarize(ctx, seg)
		if err != nil {
			return failed(seg, err)
		}
		fragments[i] = out
	}
	return nil
}

// parallel fans out with a bounded errgroup. The first failure cancels the
// group context; each result lands at its segment's position.
func (o *Orchestrator) parallel(ctx context.Context, work []diff.Segment, fragments []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Concurrency)
	for i, seg := range work {
		g.Go(func() error {
			out, err := o.backend.Summarize(gctx, seg)
			if err != nil {
				return failed(seg, err)
			}
			fragments[i] = out
			return nil
		})
	}
	return g.Wait()
}

func failed(seg diff.Segment, err error) error {
	name := seg.Path
	if name == "" {
		name = fmt.Sprintf("segment %d", seg.Index)
	}
	return erruser.New(
		"Could not summarize changes to "+name+".",
		fmt.Errorf("%w: segment %d (%s): %w", ErrBackendFailed, seg.Index, seg.Path, err),
	)
}

// Assemble trims each fragment, drops empty ones and joins the rest with
// newlines, in order.
func Assemble(fragments []string) string {
	kept := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if f = strings.TrimSpace(f); f != "" {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, "\n")
}
