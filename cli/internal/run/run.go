// Package run implements the prepare-commit-msg flow: gate on the commit
// source, build the backend, read the staged diff, summarize each file and
// write the result into git's message file. Used by the CLI and by tests.
package run

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"gitscribe/cli/internal/backend"
	"gitscribe/cli/internal/commitmsg"
	"gitscribe/cli/internal/diff"
	"gitscribe/cli/internal/erruser"
	"gitscribe/cli/internal/hook"
	"gitscribe/cli/internal/summarize"
)

// Reporter receives the user-facing progress of a run.
type Reporter interface {
	Skipped(src hook.Source, reason string)
	Summarizing(provider string)
	Generated(message string)
}

// Options are the hook arguments plus the summarization settings.
type Options struct {
	// CommitMsgFile is the message file git passes as the hook's first argument.
	CommitMsgFile string
	Source        hook.Source
	// CommitSHA is the amended commit for SourceCommit; informational only.
	CommitSHA string
	// DiffFile, when set, is read verbatim instead of the repository.
	DiffFile string
	// Provider names the backend in progress output.
	Provider    string
	Concurrency int
	Ignore      []string
}

// Deps are the collaborators of a run.
type Deps struct {
	// NewBackend is called once, after the gate and before any diff work.
	NewBackend func(ctx context.Context) (backend.Backend, error)
	// Source provides the staged diff when Options.DiffFile is empty.
	Source   diff.Source
	Reporter Reporter
	Logger   zerolog.Logger
}

// Result describes what a run did.
type Result struct {
	Skipped bool
	Reason  string
	// Message is the full text written to CommitMsgFile.
	Message string
	// Written is false when the run was skipped or found nothing to summarize.
	Written bool
}

// PrepareCommitMsg runs the hook. A skipped source returns a Result with
// Skipped set and a nil error; no backend is built and no diff is read.
func PrepareCommitMsg(ctx context.Context, opts Options, deps Deps) (*Result, error) {
	rep := deps.Reporter
	if rep == nil {
		rep = nopReporter{}
	}
	log := deps.Logger.With().Str("commit_source", opts.Source.String()).Logger()

	if !hook.ShouldRun(opts.Source) {
		reason := hook.SkipReason(opts.Source)
		log.Debug().Msg("skipping commit source")
		rep.Skipped(opts.Source, reason)
		return &Result{Skipped: true, Reason: reason}, nil
	}
	if opts.CommitMsgFile == "" {
		return nil, erruser.New("No commit message file given.", errors.New("missing --commit-msg-file"))
	}
	if deps.NewBackend == nil {
		return nil, errors.New("run: nil backend constructor")
	}

	b, err := deps.NewBackend(ctx)
	if err != nil {
		return nil, err
	}
	rep.Summarizing(opts.Provider)

	src := deps.Source
	if opts.DiffFile != "" {
		src = diff.FileSource{Path: opts.DiffFile}
	}
	if src == nil {
		return nil, errors.New("run: nil diff source")
	}
	text, err := src.Diff(ctx)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("diff_bytes", len(text)).Str("commit_sha", opts.CommitSHA).Msg("diff loaded")

	orch := summarize.New(b, summarize.Options{
		Concurrency: opts.Concurrency,
		Ignore:      opts.Ignore,
		Logger:      log,
	})
	body, err := orch.CommitMessage(ctx, diff.Segments(text))
	if err != nil {
		return nil, err
	}
	if body == "" {
		log.Warn().Msg("nothing to summarize; leaving the commit message untouched")
		return &Result{}, nil
	}

	msg, err := commitmsg.Prepare(opts.CommitMsgFile, body)
	if err != nil {
		return nil, erruser.New("Could not read the commit message file.", err)
	}
	rep.Generated(msg)
	if err := commitmsg.Write(opts.CommitMsgFile, msg); err != nil {
		return nil, erruser.New("Could not write the commit message file.", err)
	}
	return &Result{Message: msg, Written: true}, nil
}

type nopReporter struct{}

func (nopReporter) Skipped(hook.Source, string) {}
func (nopReporter) Summarizing(string)          {}
func (nopReporter) Generated(string)            {}
