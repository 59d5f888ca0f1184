package logging

import (
	"io"
	"regexp"
)

// RedactedValue replaces secrets in log output.
const RedactedValue = "[REDACTED]"

var sensitivePatterns = []*regexp.Regexp{ //nolint:gochecknoglobals // compiled once
	// OpenAI keys, including project keys (sk-proj-...).
	regexp.MustCompile(`sk-[a-zA-Z0-9_-]{20,}`),
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9._-]{20,}`),
	regexp.MustCompile(`(?i)(api[_-]?key|apikey)(["']?\s*[:=]\s*)(["']?)[a-zA-Z0-9_-]{16,}(["']?)`),
	regexp.MustCompile(`(?i)authorization\s*[:=]\s*["']?[a-zA-Z0-9_-]{20,}["']?`),
}

// Redact replaces every secret-looking substring of s with RedactedValue.
func Redact(s string) string {
	for i, p := range sensitivePatterns {
		if i == 2 {
			// keep the key name and any quotes so JSON log lines stay valid
			s = p.ReplaceAllString(s, "${1}${2}${3}"+RedactedValue+"${4}")
			continue
		}
		s = p.ReplaceAllString(s, RedactedValue)
	}
	return s
}

// FilteringWriter redacts secrets from everything written through it.
type FilteringWriter struct {
	w io.Writer
}

// NewFilteringWriter wraps w.
func NewFilteringWriter(w io.Writer) *FilteringWriter {
	return &FilteringWriter{w: w}
}

// Write writes the redacted form of p. It reports len(p) on success so
// callers never see a short write.
func (fw *FilteringWriter) Write(p []byte) (int, error) {
	if _, err := io.WriteString(fw.w, Redact(string(p))); err != nil {
		return 0, err
	}
	return len(p), nil
}
