// Package prompt builds the system and user prompts sent to the model for one
// file's diff, with optional overrides loaded from a YAML file.
package prompt

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"gitscribe/cli/internal/diff"
	"gitscribe/cli/internal/erruser"
)

// TruncationMarker is appended to a diff cut down to the configured size.
const TruncationMarker = "\n\n[truncated for context]"

// DefaultSystemPrompt asks for a short summary of a single file's changes.
const DefaultSystemPrompt = `You are an expert programmer writing part of a git commit message.
You are given the diff of a single file. Summarize what changed in that file.
Output one to three lines, each starting with "- " and at most 72 characters.
Use imperative mood (e.g. "Add retry to client" not "Added retry").
Describe intent, not line numbers. Do not repeat the file path on every line.
Do not use markdown headings, code blocks, or quotes. Output only the summary.`

// DefaultUserTemplate renders the per-file user prompt.
const DefaultUserTemplate = `File: {{.Path}} {{if .Binary}}(binary){{else}}(+{{.Added}} -{{.Removed}}){{end}}

{{.Diff}}`

// Data is the value the user template is executed with.
type Data struct {
	Path    string
	Diff    string
	Added   int
	Removed int
	// Binary is set when git reported the change as binary; Diff then has no content lines.
	Binary bool
}

// Set holds the system prompt and the parsed user template.
type Set struct {
	System string
	user   *template.Template
}

type fileSet struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

// Default returns the built-in prompts.
func Default() *Set {
	return &Set{
		System: DefaultSystemPrompt,
		user:   template.Must(template.New("user").Option("missingkey=error").Parse(DefaultUserTemplate)),
	}
}

// Load returns Default when path is empty, otherwise LoadFile(path).
func Load(path string) (*Set, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a YAML file with optional "system" and "user" keys. Keys
// that are absent or blank keep the built-in prompt.
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, erruser.WithHint("Could not read prompt file "+path+".", "Fix or unset prompt_file in .gitscribe.toml.", err)
	}
	var fs fileSet
	if err := yaml.Unmarshal(data, &fs); err != nil {
		return nil, erruser.WithHint("Invalid prompt file "+path+".", "The file must be YAML with \"system\" and \"user\" string keys.", err)
	}
	set := Default()
	if s := strings.TrimSpace(fs.System); s != "" {
		set.System = s
	}
	if u := strings.TrimSpace(fs.User); u != "" {
		tmpl, err := template.New("user").Option("missingkey=error").Parse(u)
		if err != nil {
			return nil, erruser.New("Invalid user template in prompt file "+path+".", err)
		}
		set.user = tmpl
	}
	return set, nil
}

// User renders the user prompt for seg, truncating the diff to maxChars
// bytes (0 means no limit).
func (s *Set) User(seg diff.Segment, maxChars int) (string, error) {
	if s == nil || s.user == nil {
		return "", errors.New("prompt: nil set")
	}
	added, removed := seg.Stats()
	d := Data{
		Path:    seg.Path,
		Diff:    Truncate(seg.Text, maxChars),
		Added:   added,
		Removed: removed,
		Binary:  seg.Binary(),
	}
	var buf bytes.Buffer
	if err := s.user.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("render user prompt: %w", err)
	}
	return buf.String(), nil
}

// Truncate cuts s to at most maxChars bytes on a rune boundary and appends
// TruncationMarker. maxChars <= 0 or a short s returns s unchanged.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}
	return truncateUTF8(s, maxChars) + TruncationMarker
}

func truncateUTF8(s string, n int) string {
	if n >= len(s) {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
