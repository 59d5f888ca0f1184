// Package tokens estimates prompt sizes so a segment that will not fit the
// model's context window is flagged in the log before the call is made.
// Estimation uses a byte-based chars/4 heuristic.
package tokens

import (
	"fmt"
	"math"
)

// charsPerToken is the divisor for the simple byte-based estimator
// (roughly 4 bytes per token for typical English/code).
const charsPerToken = 4

// DefaultResponseReserve is the number of tokens kept free for the model's
// summary when the configured max_tokens is unset.
const DefaultResponseReserve = 512

// DefaultWarnThreshold is the fraction of the context window at which
// WarnIfOver starts warning.
const DefaultWarnThreshold = 0.9

// Estimate returns an estimated token count for the given prompt text:
// (len(prompt)+3)/4 bytes, so 1–4 bytes map to 1 token, 5–8 to 2, and
// the empty string to 0.
func Estimate(prompt string) int {
	n := len(prompt)
	if n == 0 {
		return 0
	}
	return (n + charsPerToken - 1) / charsPerToken
}

// EstimateAll sums Estimate over each part.
func EstimateAll(parts ...string) int {
	total := 0
	for _, p := range parts {
		total += Estimate(p)
	}
	return total
}

// WarnIfOver returns a non-empty warning when promptTokens + responseReserve
// meets or exceeds warnThreshold of contextLimit (e.g. the Ollama num_ctx).
// contextLimit <= 0 means unknown and never warns.
func WarnIfOver(promptTokens, responseReserve, contextLimit int, warnThreshold float64) string {
	if contextLimit <= 0 {
		return ""
	}
	if promptTokens < 0 || responseReserve < 0 {
		return ""
	}
	if responseReserve > math.MaxInt-promptTokens {
		return fmt.Sprintf("token estimate overflow (prompt %d + reserve %d)", promptTokens, responseReserve)
	}
	total := promptTokens + responseReserve
	limit := float64(contextLimit) * warnThreshold
	threshold := int(limit)
	if limit > float64(threshold) {
		threshold++
	}
	if total < threshold {
		return ""
	}
	return fmt.Sprintf("estimated tokens %d (prompt %d + reserve %d) exceeds %.0f%% of context limit %d",
		total, promptTokens, responseReserve, warnThreshold*100, contextLimit)
}
