// Package ollama provides an HTTP client for the Ollama API (health check, model list, generate).
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const _defaultTimeout = 10 * time.Second

// ErrUnreachable indicates the Ollama server could not be reached (connection refused, timeout, or 5xx).
var ErrUnreachable = errors.New("ollama server unreachable")

// ErrBadRequest indicates Ollama rejected the request (4xx, e.g. unknown model).
// Retrying the same request will not help.
var ErrBadRequest = errors.New("ollama rejected request")

// Client calls the Ollama API. Zero value is not valid; use NewClient.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// CheckResult is the result of a health/model check.
type CheckResult struct {
	Reachable    bool     // Server responded with 200.
	ModelPresent bool     // Requested model name appears in the tags list.
	ModelNames   []string // All model names from /api/tags (for diagnostics).
}

// GenerateOptions are model runtime options passed to /api/generate.
type GenerateOptions struct {
	Temperature float64
	NumCtx      int
}

// GenerateResult is the decoded non-streaming /api/generate response.
type GenerateResult struct {
	Response        string
	PromptEvalCount int
	EvalCount       int
}

// NewClient builds an Ollama client. baseURL is the API root (e.g. http://localhost:11434).
// If httpClient is nil, a default client with a 10s timeout is used.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: _defaultTimeout}
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// Check verifies the server is reachable and whether the given model is present.
// It GETs /api/tags and parses the response. On connection/HTTP error returns ErrUnreachable (via %w).
func (c *Client) Check(ctx context.Context, model string) (*CheckResult, error) {
	url := c.baseURL + "/api/tags"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ollama tags request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama tags: %w", errors.Join(ErrUnreachable, err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama tags: %w: HTTP %d", ErrUnreachable, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ollama tags: read response: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("ollama tags: parse response: invalid JSON")
	}
	names := []string{}
	for _, n := range gjson.GetBytes(body, "models.#.name").Array() {
		names = append(names, n.String())
	}
	return &CheckResult{
		Reachable:    true,
		ModelPresent: slices.Contains(names, model),
		ModelNames:   names,
	}, nil
}

type generateRequest struct {
	Model   string         `json:"model"`
	System  string         `json:"system,omitempty"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

// Generate POSTs a non-streaming completion request to /api/generate.
// opts may be nil to use the model's defaults.
func (c *Client) Generate(ctx context.Context, model, systemPrompt, userPrompt string, opts *GenerateOptions) (*GenerateResult, error) {
	reqBody := generateRequest{Model: model, System: systemPrompt, Prompt: userPrompt}
	if opts != nil {
		reqBody.Options = map[string]any{"temperature": opts.Temperature}
		if opts.NumCtx > 0 {
			reqBody.Options["num_ctx"] = opts.NumCtx
		}
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("ollama generate: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ollama generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("ollama generate: %w", ctxErr)
		}
		return nil, fmt.Errorf("ollama generate: %w", errors.Join(ErrUnreachable, err))
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ollama generate: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		kind := ErrUnreachable
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			kind = ErrBadRequest
		}
		if msg := gjson.GetBytes(body, "error").String(); msg != "" {
			return nil, fmt.Errorf("ollama generate: %w: HTTP %d: %s", kind, resp.StatusCode, msg)
		}
		return nil, fmt.Errorf("ollama generate: %w: HTTP %d", kind, resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("ollama generate: parse response: invalid JSON")
	}
	res := gjson.GetManyBytes(body, "response", "prompt_eval_count", "eval_count")
	return &GenerateResult{
		Response:        res[0].String(),
		PromptEvalCount: int(res[1].Int()),
		EvalCount:       int(res[2].Int()),
	}, nil
}
