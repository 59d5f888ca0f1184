// Package backend turns one file's diff segment into a short summary using a
// language model. The provider is chosen once from configuration by New;
// callers only see the Backend interface.
package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"gitscribe/cli/internal/config"
	"gitscribe/cli/internal/diff"
	"gitscribe/cli/internal/erruser"
	"gitscribe/cli/internal/prompt"
	"gitscribe/cli/internal/trace"
)

var (
	// ErrConstruction means a backend could not be built from configuration
	// (missing credentials, unreachable server, unknown provider).
	ErrConstruction = errors.New("backend construction failed")
	// ErrCall means a summarization request failed.
	ErrCall = errors.New("summarization call failed")
)

// Backend summarizes a single diff segment.
type Backend interface {
	Summarize(ctx context.Context, seg diff.Segment) (string, error)
}

// Kind identifies a provider variant.
type Kind string

const (
	KindOpenAI Kind = config.ProviderOpenAI
	KindOllama Kind = config.ProviderOllama
	KindStub   Kind = config.ProviderStub
)

// ParseKind maps a provider name to its Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindOpenAI, KindOllama, KindStub:
		return k, nil
	}
	return "", erruser.WithHint(
		fmt.Sprintf("Could not load a model provider for %q.", s),
		"Set provider to openai, ollama, or stub in .gitscribe.toml or GITSCRIBE_PROVIDER.",
		fmt.Errorf("%w: unknown provider %q", ErrConstruction, s),
	)
}

// Options carries the collaborators shared by every variant. The zero value
// is usable: no logging, no tracing, built-in prompts.
type Options struct {
	Logger  zerolog.Logger
	Tracer  *trace.Tracer
	Prompts *prompt.Set
	// Stub replaces the default stub output; used only by KindStub.
	Stub StubFunc
}

// New builds the backend selected by cfg.Provider, wrapped in Retry when
// cfg.MaxRetries > 0. Construction failures wrap ErrConstruction and carry
// an erruser hint.
func New(ctx context.Context, cfg *config.Config, opts Options) (Backend, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrConstruction)
	}
	kind, err := ParseKind(cfg.Provider)
	if err != nil {
		return nil, err
	}
	if opts.Prompts == nil {
		opts.Prompts = prompt.Default()
	}
	pol := policy{
		prompts:  opts.Prompts,
		maxChars: cfg.MaxSegmentChars,
		minify:   cfg.Minify,
		log:      opts.Logger.With().Str("provider", string(kind)).Logger(),
		tracer:   opts.Tracer,
	}

	var b Backend
	switch kind {
	case KindOpenAI:
		b, err = newOpenAI(cfg, pol)
	case KindOllama:
		b, err = newOllama(ctx, cfg, pol)
	case KindStub:
		b = NewStub(opts.Stub)
	}
	if err != nil {
		return nil, err
	}
	if cfg.MaxRetries > 0 {
		b = Retry(b, Policy{MaxRetries: cfg.MaxRetries, Logger: pol.log})
	}
	return b, nil
}

func callErr(provider string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrCall, provider, err)
}
