// Package console prints gitscribe's user-facing output from the hook: the
// start banner, skip explanations and the final message.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"gitscribe/cli/internal/hook"
)

const prefix = "🤖 "

var (
	colorSuccess = lipgloss.AdaptiveColor{Light: "#008700", Dark: "#00FF87"}
	colorWarning = lipgloss.AdaptiveColor{Light: "#AF8700", Dark: "#FFD700"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#585858", Dark: "#6C6C6C"}
)

// Printer writes styled lines to w. Colors are dropped when w is not a
// terminal, NO_COLOR is set or TERM=dumb.
type Printer struct {
	w       io.Writer
	heading lipgloss.Style
	warn    lipgloss.Style
	muted   lipgloss.Style
}

// New returns a Printer for w.
func New(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	if !hasColorSupport() {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Printer{
		w:       w,
		heading: r.NewStyle().Bold(true).Foreground(colorSuccess),
		warn:    r.NewStyle().Foreground(colorWarning),
		muted:   r.NewStyle().Foreground(colorMuted),
	}
}

func hasColorSupport() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// Skipped explains why the hook did nothing for this commit.
func (p *Printer) Skipped(src hook.Source, reason string) {
	fmt.Fprintln(p.w, p.warn.Render(prefix+"Skipping gitscribe because "+reason+"."))
}

// Summarizing announces the model call.
func (p *Printer) Summarizing(provider string) {
	fmt.Fprintln(p.w, p.heading.Render(prefix+"Asking "+provider+" to summarize the staged changes..."))
}

// Generated echoes the message that is about to be written.
func (p *Printer) Generated(message string) {
	fmt.Fprintln(p.w, p.heading.Render(prefix+"Commit message:"))
	fmt.Fprintln(p.w, strings.TrimRight(message, "\n"))
}

// Note prints a secondary line.
func (p *Printer) Note(msg string) {
	fmt.Fprintln(p.w, p.muted.Render(msg))
}

// Field prints an aligned "name: value" line, used by doctor.
func (p *Printer) Field(name, value string) {
	fmt.Fprintf(p.w, "%s %s\n", p.muted.Render(fmt.Sprintf("%-10s", name+":")), value)
}
