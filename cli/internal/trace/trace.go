// Package trace writes the prompts and model responses of a run to stderr
// when --trace is set. A Tracer with a nil writer is a no-op.
package trace

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Tracer writes sectioned trace output. Safe for concurrent use; each call
// is written as one block so parallel summaries do not interleave.
type Tracer struct {
	mu sync.Mutex
	w  io.Writer
}

// New returns a Tracer that writes to w. If w is nil, all methods no-op.
func New(w io.Writer) *Tracer {
	return &Tracer{w: w}
}

// Enabled returns true if the tracer has a non-nil writer.
func (t *Tracer) Enabled() bool {
	return t != nil && t.w != nil
}

// Section writes a section header: "\n[gitscribe:trace] === name ===\n"
func (t *Tracer) Section(name string) {
	if !t.Enabled() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, "\n[gitscribe:trace] === %s ===\n", name)
}

// Printf writes to the trace writer when enabled.
func (t *Tracer) Printf(format string, args ...any) {
	if !t.Enabled() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, format, args...)
}

// Exchange writes one model call: the prompts sent and the response received,
// under a section named after the segment path.
func (t *Tracer) Exchange(path, system, user, response string) {
	if !t.Enabled() {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "\n[gitscribe:trace] === %s ===\n", path)
	b.WriteString("--- system ---\n")
	b.WriteString(ensureNewline(system))
	b.WriteString("--- user ---\n")
	b.WriteString(ensureNewline(user))
	b.WriteString("--- response ---\n")
	b.WriteString(ensureNewline(response))
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = io.WriteString(t.w, b.String())
}

func ensureNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
