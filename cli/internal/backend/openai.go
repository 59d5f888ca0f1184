package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"gitscribe/cli/internal/config"
	"gitscribe/cli/internal/diff"
	"gitscribe/cli/internal/erruser"
)

const openAIKeyHint = "Set OPENAI_API_KEY in your environment, or add api_key under [openai] in ~/.config/gitscribe/config.toml. " +
	"To use a local model instead, set provider = \"ollama\"."

// OpenAI summarizes with the chat completions API.
type OpenAI struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	policy
}

func newOpenAI(cfg *config.Config, pol policy) (*OpenAI, error) {
	oc := cfg.OpenAI
	if oc.APIKey == "" {
		return nil, erruser.WithHint("OpenAI API key not found in config or environment.", openAIKeyHint, ErrConstruction)
	}
	if oc.Model == "" {
		return nil, erruser.WithHint("No OpenAI model configured.", "Set model under [openai] or GITSCRIBE_OPENAI_MODEL.", ErrConstruction)
	}
	cc := openai.DefaultConfig(oc.APIKey)
	if oc.APIBase != "" {
		cc.BaseURL = oc.APIBase
	}
	cc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	pol.reserve = oc.MaxTokens
	return &OpenAI{
		client:      openai.NewClientWithConfig(cc),
		model:       oc.Model,
		temperature: float32(oc.Temperature),
		maxTokens:   oc.MaxTokens,
		policy:      pol,
	}, nil
}

// Summarize sends the system prompt and the segment's user prompt and
// returns the first choice's content.
func (o *OpenAI) Summarize(ctx context.Context, seg diff.Segment) (string, error) {
	system, user, err := o.render(seg)
	if err != nil {
		return "", callErr("openai", err)
	}
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature:         o.temperature,
		MaxCompletionTokens: o.maxTokens,
	})
	if err != nil {
		return "", callErr("openai", err)
	}
	if len(resp.Choices) == 0 {
		return "", callErr("openai", errors.New("response has no choices"))
	}
	out := resp.Choices[0].Message.Content
	o.log.Debug().
		Str("path", seg.Path).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Msg("openai response")
	o.trace(seg, system, user, out)
	return out, nil
}

// openAIStatus returns the HTTP status carried by a go-openai error, or 0.
func openAIStatus(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

// String is used in doctor output.
func (o *OpenAI) String() string {
	return fmt.Sprintf("openai (%s)", o.model)
}
