package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"gitscribe/cli/internal/erruser"
)

func ptrStr(s string) *string { return &s }

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()
	c := DefaultConfig()
	if c.Provider != ProviderOpenAI {
		t.Errorf("Provider = %q, want %q", c.Provider, ProviderOpenAI)
	}
	if c.Timeout != _defaultTimeout {
		t.Errorf("Timeout = %v, want %v", c.Timeout, _defaultTimeout)
	}
	if c.Concurrency != 1 {
		t.Errorf("Concurrency = %d, want 1", c.Concurrency)
	}
	if c.OpenAI.Model != _defaultOpenAIModel || c.Ollama.BaseURL != _defaultOllamaBaseURL {
		t.Errorf("provider defaults wrong: %+v %+v", c.OpenAI, c.Ollama)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_defaultsOnly(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfg, err := Load(context.Background(), LoadOptions{
		RepoRoot:         dir,
		GlobalConfigPath: filepath.Join(dir, "nonexistent.toml"),
		Env:              []string{},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := DefaultConfig(); !reflect.DeepEqual(*cfg, want) {
		t.Errorf("got %+v, want defaults %+v", *cfg, want)
	}
}

func TestLoad_repoOverridesGlobal(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	globalPath := filepath.Join(dir, "global.toml")
	repoRoot := filepath.Join(dir, "repo")
	writeFile(t, globalPath, "provider = \"ollama\"\n[ollama]\nmodel = \"global-model\"\nnum_ctx = 8192\n")
	writeFile(t, filepath.Join(repoRoot, RepoFileName), "[ollama]\nmodel = \"repo-model\"\n")

	cfg, err := Load(context.Background(), LoadOptions{
		RepoRoot:         repoRoot,
		GlobalConfigPath: globalPath,
		Env:              []string{},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != ProviderOllama {
		t.Errorf("Provider = %q, want ollama", cfg.Provider)
	}
	if cfg.Ollama.Model != "repo-model" {
		t.Errorf("Ollama.Model = %q, want repo-model (repo overrides global)", cfg.Ollama.Model)
	}
	if cfg.Ollama.NumCtx != 8192 {
		t.Errorf("Ollama.NumCtx = %d, want 8192 from global", cfg.Ollama.NumCtx)
	}
	if cfg.Model() != "repo-model" {
		t.Errorf("Model() = %q", cfg.Model())
	}
}

func TestLoad_fileKeys(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, RepoFileName), `
provider = "stub"
timeout = "90"
max_retries = 0
concurrency = 4
max_segment_chars = 1000
file_ignore = ["*.lock", "dist/*"]
prompt_file = "prompts.yaml"
log_file = "/tmp/gitscribe.log"

[openai]
api_key = "sk-file"
api_base = "http://proxy/v1"
temperature = 0.1
max_tokens = 64
`)
	cfg, err := Load(context.Background(), LoadOptions{
		RepoRoot:         dir,
		GlobalConfigPath: filepath.Join(dir, "none.toml"),
		Env:              []string{},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != ProviderStub || cfg.Timeout != 90*time.Second || cfg.MaxRetries != 0 ||
		cfg.Concurrency != 4 || cfg.MaxSegmentChars != 1000 {
		t.Errorf("scalar keys not applied: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.FileIgnore, []string{"*.lock", "dist/*"}) {
		t.Errorf("FileIgnore = %v", cfg.FileIgnore)
	}
	if cfg.PromptFile != "prompts.yaml" || cfg.LogFile != "/tmp/gitscribe.log" {
		t.Errorf("PromptFile/LogFile = %q/%q", cfg.PromptFile, cfg.LogFile)
	}
	if cfg.OpenAI.APIKey != "sk-file" || cfg.OpenAI.APIBase != "http://proxy/v1" ||
		cfg.OpenAI.Temperature != 0.1 || cfg.OpenAI.MaxTokens != 64 {
		t.Errorf("OpenAI = %+v", cfg.OpenAI)
	}
	if cfg.OpenAI.Model != _defaultOpenAIModel {
		t.Errorf("OpenAI.Model should stay default, got %q", cfg.OpenAI.Model)
	}
}

func TestLoad_envOverridesRepo(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, RepoFileName), "[openai]\nmodel = \"repo-model\"\napi_key = \"sk-file\"\n")
	cfg, err := Load(context.Background(), LoadOptions{
		RepoRoot:         dir,
		GlobalConfigPath: filepath.Join(dir, "nonexistent.toml"),
		Env: []string{
			"GITSCRIBE_OPENAI_MODEL=env-model",
			"OPENAI_API_KEY=sk-env",
			"GITSCRIBE_FILE_IGNORE= a.txt, ,b/* ",
			"GITSCRIBE_TIMEOUT=2m",
		},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OpenAI.Model != "env-model" {
		t.Errorf("Model = %q, want env-model", cfg.OpenAI.Model)
	}
	if cfg.OpenAI.APIKey != "sk-env" {
		t.Errorf("APIKey = %q, want sk-env", cfg.OpenAI.APIKey)
	}
	if !reflect.DeepEqual(cfg.FileIgnore, []string{"a.txt", "b/*"}) {
		t.Errorf("FileIgnore = %v", cfg.FileIgnore)
	}
	if cfg.Timeout != 2*time.Minute {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
}

func TestLoad_prefixedKeyWinsOverStandardKey(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfg, err := Load(context.Background(), LoadOptions{
		GlobalConfigPath: filepath.Join(dir, "none.toml"),
		Env:              []string{"GITSCRIBE_OPENAI_API_KEY=sk-mine", "OPENAI_API_KEY=sk-shared"},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OpenAI.APIKey != "sk-mine" {
		t.Errorf("APIKey = %q, want sk-mine", cfg.OpenAI.APIKey)
	}
}

func TestLoad_overridesOverrideEnv(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	conc := 3
	cfg, err := Load(context.Background(), LoadOptions{
		RepoRoot:         dir,
		GlobalConfigPath: filepath.Join(dir, "nope.toml"),
		Env:              []string{"GITSCRIBE_PROVIDER=openai", "GITSCRIBE_OLLAMA_MODEL=env-model"},
		Overrides:        &Overrides{Provider: ptrStr("ollama"), Model: ptrStr("flag-model"), Concurrency: &conc},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != ProviderOllama || cfg.Ollama.Model != "flag-model" || cfg.Concurrency != 3 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestLoad_invalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		file    string
		env     []string
		wantMsg string
	}{
		{name: "bad toml", file: "provider = ", wantMsg: "Invalid configuration in"},
		{name: "unknown provider in file", file: `provider = "bard"`, wantMsg: `Unknown provider "bard".`},
		{name: "unknown provider in env", env: []string{"GITSCRIBE_PROVIDER=nope"}, wantMsg: `Unknown provider "nope".`},
		{name: "bad timeout", file: `timeout = "soon"`, wantMsg: "Configuration timeout is invalid."},
		{name: "bad env timeout", env: []string{"GITSCRIBE_TIMEOUT=x"}, wantMsg: "GITSCRIBE_TIMEOUT must be a valid duration."},
		{name: "bad retries", env: []string{"GITSCRIBE_MAX_RETRIES=-1"}, wantMsg: "GITSCRIBE_MAX_RETRIES must be non-negative."},
		{name: "zero concurrency", env: []string{"GITSCRIBE_CONCURRENCY=0"}, wantMsg: "GITSCRIBE_CONCURRENCY must be at least 1."},
		{name: "non-numeric", env: []string{"GITSCRIBE_MAX_SEGMENT_CHARS=lots"}, wantMsg: "GITSCRIBE_MAX_SEGMENT_CHARS must be a valid number."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			if tt.file != "" {
				writeFile(t, filepath.Join(dir, RepoFileName), tt.file)
			}
			env := tt.env
			if env == nil {
				env = []string{}
			}
			_, err := Load(context.Background(), LoadOptions{
				RepoRoot:         dir,
				GlobalConfigPath: filepath.Join(dir, "none.toml"),
				Env:              env,
			})
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.HasPrefix(err.Error(), tt.wantMsg) {
				t.Errorf("err = %q, want prefix %q", err.Error(), tt.wantMsg)
			}
			var ue *erruser.Err
			if !errors.As(err, &ue) {
				t.Errorf("want *erruser.Err, got %T", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "defaults", mutate: func(*Config) {}, ok: true},
		{name: "unknown provider", mutate: func(c *Config) { c.Provider = "x" }},
		{name: "zero timeout", mutate: func(c *Config) { c.Timeout = 0 }},
		{name: "negative retries", mutate: func(c *Config) { c.MaxRetries = -1 }},
		{name: "zero concurrency", mutate: func(c *Config) { c.Concurrency = 0 }},
		{name: "hot temperature", mutate: func(c *Config) { c.OpenAI.Temperature = 3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := DefaultConfig()
			tt.mutate(&c)
			if err := c.Validate(); (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, ok=%v", err, tt.ok)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "30s", want: 30 * time.Second},
		{in: "45", want: 45 * time.Second},
		{in: " 1m ", want: time.Minute},
		{in: "", wantErr: true},
		{in: "abc", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseDuration(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseDuration(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoad_minify(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, RepoFileName), "minify = true\n")
	tests := []struct {
		name string
		env  []string
		want bool
	}{
		{name: "from file", env: []string{}, want: true},
		{name: "env disables", env: []string{"GITSCRIBE_MINIFY=false"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg, err := Load(context.Background(), LoadOptions{
				RepoRoot:         dir,
				GlobalConfigPath: filepath.Join(dir, "none.toml"),
				Env:              tt.env,
			})
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.Minify != tt.want {
				t.Errorf("Minify = %v, want %v", cfg.Minify, tt.want)
			}
		})
	}

	_, err := Load(context.Background(), LoadOptions{
		GlobalConfigPath: filepath.Join(dir, "none.toml"),
		Env:              []string{"GITSCRIBE_MINIFY=sometimes"},
	})
	if err == nil || !strings.HasPrefix(err.Error(), "GITSCRIBE_MINIFY must be true or false.") {
		t.Errorf("err = %v", err)
	}
}

func TestRangeErrors_carryHint(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	for _, env := range [][]string{
		{"GITSCRIBE_CONCURRENCY=0"},
		{"GITSCRIBE_MAX_RETRIES=-1"},
		{"GITSCRIBE_MAX_SEGMENT_CHARS=-5"},
	} {
		_, err := Load(context.Background(), LoadOptions{
			GlobalConfigPath: filepath.Join(dir, "none.toml"),
			Env:              env,
		})
		var ue *erruser.Err
		if !errors.As(err, &ue) {
			t.Errorf("%v: want *erruser.Err, got %T (%v)", env, err, err)
			continue
		}
		if erruser.HintOf(err) == "" {
			t.Errorf("%v: missing hint on %q", env, err)
		}
	}

	c := DefaultConfig()
	c.Concurrency = 0
	err := c.Validate()
	var ue *erruser.Err
	if !errors.As(err, &ue) || erruser.HintOf(err) == "" {
		t.Errorf("Validate() = %#v, want *erruser.Err with hint", err)
	}
}

func TestLoad_fileTimeout(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		file    string
		want    time.Duration
		wantErr bool
	}{
		{name: "integer seconds", file: "timeout = 30\n", want: 30 * time.Second},
		{name: "duration string", file: "timeout = \"2m\"\n", want: 2 * time.Minute},
		{name: "seconds string", file: "timeout = \"45\"\n", want: 45 * time.Second},
		{name: "empty keeps default", file: "timeout = \"\"\n", want: _defaultTimeout},
		{name: "float rejected", file: "timeout = 1.5\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, RepoFileName), tt.file)
			cfg, err := Load(context.Background(), LoadOptions{
				RepoRoot:         dir,
				GlobalConfigPath: filepath.Join(dir, "none.toml"),
				Env:              []string{},
			})
			if tt.wantErr {
				if err == nil || !strings.HasPrefix(err.Error(), "Configuration timeout is invalid.") {
					t.Errorf("err = %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.Timeout != tt.want {
				t.Errorf("Timeout = %v, want %v", cfg.Timeout, tt.want)
			}
		})
	}
}
