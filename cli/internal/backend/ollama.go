package backend

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"gitscribe/cli/internal/config"
	"gitscribe/cli/internal/diff"
	"gitscribe/cli/internal/erruser"
	"gitscribe/cli/internal/ollama"
)

// Ollama summarizes with a local Ollama server.
type Ollama struct {
	client *ollama.Client
	model  string
	opts   *ollama.GenerateOptions
	policy
}

// newOllama checks that the server answers and has the model, so a broken
// setup fails before any diff work.
func newOllama(ctx context.Context, cfg *config.Config, pol policy) (*Ollama, error) {
	oc := cfg.Ollama
	client := ollama.NewClient(oc.BaseURL, &http.Client{Timeout: cfg.Timeout})
	res, err := client.Check(ctx, oc.Model)
	if err != nil {
		return nil, erruser.WithHint(
			"Ollama is not reachable at "+oc.BaseURL+".",
			"Start it with `ollama serve`, or set base_url under [ollama].",
			fmt.Errorf("%w: %w", ErrConstruction, err),
		)
	}
	if !res.ModelPresent {
		return nil, erruser.WithHint(
			fmt.Sprintf("Ollama model %q is not installed.", oc.Model),
			fmt.Sprintf("Run `ollama pull %s`, or pick one of: %s.", oc.Model, strings.Join(res.ModelNames, ", ")),
			ErrConstruction,
		)
	}
	pol.contextLimit = oc.NumCtx
	return &Ollama{
		client: client,
		model:  oc.Model,
		opts:   &ollama.GenerateOptions{Temperature: oc.Temperature, NumCtx: oc.NumCtx},
		policy: pol,
	}, nil
}

// Summarize calls /api/generate for one segment.
func (o *Ollama) Summarize(ctx context.Context, seg diff.Segment) (string, error) {
	system, user, err := o.render(seg)
	if err != nil {
		return "", callErr("ollama", err)
	}
	res, err := o.client.Generate(ctx, o.model, system, user, o.opts)
	if err != nil {
		return "", callErr("ollama", err)
	}
	o.log.Debug().
		Str("path", seg.Path).
		Int("prompt_eval_count", res.PromptEvalCount).
		Int("eval_count", res.EvalCount).
		Msg("ollama response")
	o.trace(seg, system, user, res.Response)
	return res.Response, nil
}

// String is used in doctor output.
func (o *Ollama) String() string {
	return fmt.Sprintf("ollama (%s)", o.model)
}
