package backend

import (
	"github.com/rs/zerolog"

	"gitscribe/cli/internal/diff"
	"gitscribe/cli/internal/minify"
	"gitscribe/cli/internal/prompt"
	"gitscribe/cli/internal/tokens"
	"gitscribe/cli/internal/trace"
)

// policy holds the prompt handling shared by the model-backed variants.
type policy struct {
	prompts      *prompt.Set
	maxChars     int
	minify       bool
	contextLimit int
	reserve      int
	log          zerolog.Logger
	tracer       *trace.Tracer
}

// render builds the prompts for seg and logs the token estimate, warning when
// it approaches the context window.
func (p policy) render(seg diff.Segment) (system, user string, err error) {
	if p.minify {
		seg.Text = minify.Diff(seg.Path, seg.Text)
	}
	user, err = p.prompts.User(seg, p.maxChars)
	if err != nil {
		return "", "", err
	}
	system = p.prompts.System
	est := tokens.EstimateAll(system, user)
	p.log.Debug().Str("path", seg.Path).Int("segment", seg.Index).Int("est_tokens", est).Msg("summarizing segment")
	reserve := p.reserve
	if reserve <= 0 {
		reserve = tokens.DefaultResponseReserve
	}
	if w := tokens.WarnIfOver(est, reserve, p.contextLimit, tokens.DefaultWarnThreshold); w != "" {
		p.log.Warn().Str("path", seg.Path).Msg(w)
	}
	return system, user, nil
}

func (p policy) trace(seg diff.Segment, system, user, response string) {
	p.tracer.Exchange(seg.Path, system, user, response)
}
