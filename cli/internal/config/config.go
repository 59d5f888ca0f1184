// Package config provides gitscribe configuration with a defined load order:
// CLI flags > environment variables > repo config > global config > defaults.
//
// Paths:
//   - Repo: .gitscribe.toml (relative to repo root)
//   - Global: XDG config dir, e.g. ~/.config/gitscribe/config.toml (see os.UserConfigDir)
//
// Environment variables (override config files when set):
//   - GITSCRIBE_PROVIDER (openai, ollama, stub)
//   - GITSCRIBE_TIMEOUT (Go duration string or integer seconds; the TOML
//     timeout key takes either a duration string or an integer), GITSCRIBE_MAX_RETRIES,
//     GITSCRIBE_CONCURRENCY, GITSCRIBE_MAX_SEGMENT_CHARS, GITSCRIBE_MINIFY (true/false)
//   - GITSCRIBE_FILE_IGNORE (comma-separated glob patterns)
//   - GITSCRIBE_PROMPT_FILE, GITSCRIBE_LOG_FILE
//   - OPENAI_API_KEY, GITSCRIBE_OPENAI_API_KEY (wins over OPENAI_API_KEY),
//     GITSCRIBE_OPENAI_API_BASE, GITSCRIBE_OPENAI_MODEL
//   - GITSCRIBE_OLLAMA_BASE_URL, GITSCRIBE_OLLAMA_MODEL
package config

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"gitscribe/cli/internal/erruser"
)

// Provider names accepted in the provider key.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderStub   = "stub"
)

// RepoFileName is the per-repository config file, relative to the repo root.
const RepoFileName = ".gitscribe.toml"

// OpenAI holds the [openai] table.
type OpenAI struct {
	APIKey      string  `toml:"api_key"`
	APIBase     string  `toml:"api_base"`
	Model       string  `toml:"model"`
	Temperature float64 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
}

// Ollama holds the [ollama] table. Temperature and NumCtx are passed to
// /api/generate options.
type Ollama struct {
	BaseURL     string  `toml:"base_url"`
	Model       string  `toml:"model"`
	Temperature float64 `toml:"temperature"`
	NumCtx      int     `toml:"num_ctx"`
}

// Config holds all gitscribe configuration.
type Config struct {
	Provider        string        `toml:"provider"`
	Timeout         time.Duration `toml:"timeout"`
	MaxRetries      int           `toml:"max_retries"`
	Concurrency     int           `toml:"concurrency"`
	MaxSegmentChars int           `toml:"max_segment_chars"`
	// Minify compacts indentation in diffs of brace languages before prompting.
	Minify bool `toml:"minify"`
	// FileIgnore lists glob patterns for paths that are never summarized.
	FileIgnore []string `toml:"file_ignore"`
	// PromptFile is an optional YAML file overriding the system and user prompts.
	PromptFile string `toml:"prompt_file"`
	// LogFile, when set, receives a rotating JSON log in addition to stderr.
	LogFile string `toml:"log_file"`
	OpenAI  OpenAI `toml:"openai"`
	Ollama  Ollama `toml:"ollama"`
}

// Overrides represents optional CLI flag overrides. Non-nil pointer means
// "override with this value".
type Overrides struct {
	Provider    *string
	Model       *string
	Timeout     *time.Duration
	Concurrency *int
	LogFile     *string
}

// LoadOptions configures Load. All fields are optional.
type LoadOptions struct {
	// RepoRoot is the repository root; if set, repo config is RepoRoot/.gitscribe.toml.
	RepoRoot string
	// GlobalConfigPath is the global config file path; if empty, XDG path is used.
	GlobalConfigPath string
	// Env is the environment key=value slice; if nil, os.Environ() is used.
	Env []string
	// Overrides are applied last (highest precedence).
	Overrides *Overrides
}

const (
	_defaultProvider        = ProviderOpenAI
	_defaultTimeout         = 60 * time.Second
	_defaultMaxRetries      = 2
	_defaultConcurrency     = 1
	_defaultMaxSegmentChars = 32 * 1024
	_defaultOpenAIBase      = "https://api.openai.com/v1"
	_defaultOpenAIModel     = "gpt-4o-mini"
	_defaultOpenAITemp      = 0.5
	_defaultOpenAIMaxTokens = 512
	_defaultOllamaBaseURL   = "http://localhost:11434"
	_defaultOllamaModel     = "qwen2.5-coder:7b"
	_defaultOllamaTemp      = 0.2
	_defaultNumCtx          = 32768
)

var validProviders = map[string]struct{}{
	ProviderOpenAI: {}, ProviderOllama: {}, ProviderStub: {},
}

func validateProvider(s string) (string, error) {
	norm := strings.TrimSpace(strings.ToLower(s))
	if _, ok := validProviders[norm]; !ok {
		return "", erruser.WithHint(
			fmt.Sprintf("Unknown provider %q.", s),
			"Set provider to openai, ollama, or stub.",
			nil,
		)
	}
	return norm, nil
}

// errIntOverflow is returned when an int64 value does not fit in int (e.g. on 32-bit or huge TOML/env values).
var errIntOverflow = errors.New("value out of range for int")

func int64ToInt(n int64) (int, error) {
	if n < int64(math.MinInt) || n > int64(math.MaxInt) {
		return 0, errIntOverflow
	}
	return int(n), nil
}

// DefaultConfig returns the default configuration (no I/O).
func DefaultConfig() Config {
	return Config{
		Provider:        _defaultProvider,
		Timeout:         _defaultTimeout,
		MaxRetries:      _defaultMaxRetries,
		Concurrency:     _defaultConcurrency,
		MaxSegmentChars: _defaultMaxSegmentChars,
		OpenAI: OpenAI{
			APIBase:     _defaultOpenAIBase,
			Model:       _defaultOpenAIModel,
			Temperature: _defaultOpenAITemp,
			MaxTokens:   _defaultOpenAIMaxTokens,
		},
		Ollama: Ollama{
			BaseURL:     _defaultOllamaBaseURL,
			Model:       _defaultOllamaModel,
			Temperature: _defaultOllamaTemp,
			NumCtx:      _defaultNumCtx,
		},
	}
}

// Model returns the model name of the selected provider.
func (c Config) Model() string {
	switch c.Provider {
	case ProviderOpenAI:
		return c.OpenAI.Model
	case ProviderOllama:
		return c.Ollama.Model
	}
	return ""
}

// Validate checks the provider name and value ranges.
func (c Config) Validate() error {
	if _, err := validateProvider(c.Provider); err != nil {
		return err
	}
	if c.Timeout <= 0 {
		return erruser.WithHint("Configuration timeout must be positive.", "Set timeout to a duration such as \"60s\".", nil)
	}
	if c.MaxRetries < 0 {
		return erruser.WithHint("Configuration max_retries must be non-negative.", "Use 0 to disable retries.", nil)
	}
	if c.Concurrency < 1 {
		return erruser.WithHint("Configuration concurrency must be at least 1.", "Use 1 to summarize files one at a time.", nil)
	}
	if c.MaxSegmentChars < 0 {
		return erruser.WithHint("Configuration max_segment_chars must be non-negative.", "Use 0 to send each file's diff untruncated.", nil)
	}
	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > 2 || c.Ollama.Temperature < 0 || c.Ollama.Temperature > 2 {
		return erruser.WithHint("Temperature must be between 0 and 2.", "Check temperature in the [openai] and [ollama] tables.", nil)
	}
	return nil
}

// Load loads configuration with precedence: defaults < global file < repo file < env < overrides.
// Missing config files are ignored. Invalid TOML or invalid env values return an error.
func Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	if opts.Env == nil {
		opts.Env = os.Environ()
	}
	cfg := DefaultConfig()

	globalPath := opts.GlobalConfigPath
	if globalPath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, erruser.New("Could not determine config directory.", err)
		}
		globalPath = filepath.Join(dir, "gitscribe", "config.toml")
	}
	if err := mergeFile(&cfg, globalPath); err != nil {
		return nil, err
	}

	if opts.RepoRoot != "" {
		if err := mergeFile(&cfg, filepath.Join(opts.RepoRoot, RepoFileName)); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(&cfg, opts.Env); err != nil {
		return nil, err
	}

	if err := applyOverrides(&cfg, opts.Overrides); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type fileOpenAI struct {
	APIKey      *string  `toml:"api_key"`
	APIBase     *string  `toml:"api_base"`
	Model       *string  `toml:"model"`
	Temperature *float64 `toml:"temperature"`
	MaxTokens   *int64   `toml:"max_tokens"`
}

type fileOllama struct {
	BaseURL     *string  `toml:"base_url"`
	Model       *string  `toml:"model"`
	Temperature *float64 `toml:"temperature"`
	NumCtx      *int64   `toml:"num_ctx"`
}

// mergeFile reads path and merges into cfg. Only overwrites fields that are
// present in the file; empty strings keep the previous value.
// A missing file is skipped (no error).
func mergeFile(cfg *Config, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return erruser.New("Invalid configuration file.", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return erruser.New("Could not read configuration file.", err)
	}
	var file struct {
		Provider        *string     `toml:"provider"`
		Timeout         any         `toml:"timeout"`
		MaxRetries      *int64      `toml:"max_retries"`
		Concurrency     *int64      `toml:"concurrency"`
		MaxSegmentChars *int64      `toml:"max_segment_chars"`
		Minify          *bool       `toml:"minify"`
		FileIgnore      []string    `toml:"file_ignore"`
		PromptFile      *string     `toml:"prompt_file"`
		LogFile         *string     `toml:"log_file"`
		OpenAI          *fileOpenAI `toml:"openai"`
		Ollama          *fileOllama `toml:"ollama"`
	}
	if _, err := toml.Decode(string(data), &file); err != nil {
		return erruser.WithHint("Invalid configuration in "+path+".", "Fix the TOML syntax or remove the file.", err)
	}
	if file.Provider != nil && *file.Provider != "" {
		p, err := validateProvider(*file.Provider)
		if err != nil {
			return err
		}
		cfg.Provider = p
	}
	if file.Timeout != nil {
		d, ok, err := tomlDuration(file.Timeout)
		if err != nil {
			return erruser.WithHint("Configuration timeout is invalid.", "Set timeout to a duration such as \"60s\" or to whole seconds.", err)
		}
		if ok {
			cfg.Timeout = d
		}
	}
	if file.MaxRetries != nil && *file.MaxRetries >= 0 {
		v, err := int64ToInt(*file.MaxRetries)
		if err != nil {
			return erruser.New("Configuration max_retries value out of range.", err)
		}
		cfg.MaxRetries = v
	}
	if file.Concurrency != nil && *file.Concurrency > 0 {
		v, err := int64ToInt(*file.Concurrency)
		if err != nil {
			return erruser.New("Configuration concurrency value out of range.", err)
		}
		cfg.Concurrency = v
	}
	if file.MaxSegmentChars != nil && *file.MaxSegmentChars >= 0 {
		v, err := int64ToInt(*file.MaxSegmentChars)
		if err != nil {
			return erruser.New("Configuration max_segment_chars value out of range.", err)
		}
		cfg.MaxSegmentChars = v
	}
	if file.Minify != nil {
		cfg.Minify = *file.Minify
	}
	if file.FileIgnore != nil {
		cfg.FileIgnore = file.FileIgnore
	}
	if file.PromptFile != nil {
		cfg.PromptFile = *file.PromptFile
	}
	if file.LogFile != nil {
		cfg.LogFile = *file.LogFile
	}
	if o := file.OpenAI; o != nil {
		if o.APIKey != nil && *o.APIKey != "" {
			cfg.OpenAI.APIKey = *o.APIKey
		}
		if o.APIBase != nil && *o.APIBase != "" {
			cfg.OpenAI.APIBase = *o.APIBase
		}
		if o.Model != nil && *o.Model != "" {
			cfg.OpenAI.Model = *o.Model
		}
		if o.Temperature != nil && *o.Temperature >= 0 && *o.Temperature <= 2 {
			cfg.OpenAI.Temperature = *o.Temperature
		}
		if o.MaxTokens != nil && *o.MaxTokens >= 0 {
			v, err := int64ToInt(*o.MaxTokens)
			if err != nil {
				return erruser.New("Configuration openai.max_tokens value out of range.", err)
			}
			cfg.OpenAI.MaxTokens = v
		}
	}
	if o := file.Ollama; o != nil {
		if o.BaseURL != nil && *o.BaseURL != "" {
			cfg.Ollama.BaseURL = *o.BaseURL
		}
		if o.Model != nil && *o.Model != "" {
			cfg.Ollama.Model = *o.Model
		}
		if o.Temperature != nil && *o.Temperature >= 0 && *o.Temperature <= 2 {
			cfg.Ollama.Temperature = *o.Temperature
		}
		if o.NumCtx != nil && *o.NumCtx > 0 {
			v, err := int64ToInt(*o.NumCtx)
			if err != nil {
				return erruser.New("Configuration ollama.num_ctx value out of range.", err)
			}
			cfg.Ollama.NumCtx = v
		} else if o.NumCtx != nil && *o.NumCtx == 0 {
			cfg.Ollama.NumCtx = _defaultNumCtx
		}
	}
	return nil
}

// tomlDuration converts a TOML timeout value: a duration string or integer
// seconds. ok is false for an empty string, which keeps the previous value.
func tomlDuration(v any) (d time.Duration, ok bool, err error) {
	switch v := v.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, false, nil
		}
		d, err = parseDuration(v)
		return d, err == nil, err
	case int64:
		if v > math.MaxInt64/int64(time.Second) || v < math.MinInt64/int64(time.Second) {
			return 0, false, errIntOverflow
		}
		return time.Duration(v) * time.Second, true, nil
	default:
		return 0, false, fmt.Errorf("timeout must be a string or integer, got %T", v)
	}
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	// Try Go duration first (e.g. "5m", "30s")
	d, err := time.ParseDuration(s)
	if err == nil {
		return d, nil
	}
	// Try integer seconds
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return time.Duration(n) * time.Second, nil
}

// env key names for config
const (
	envProvider        = "GITSCRIBE_PROVIDER"
	envTimeout         = "GITSCRIBE_TIMEOUT"
	envMaxRetries      = "GITSCRIBE_MAX_RETRIES"
	envConcurrency     = "GITSCRIBE_CONCURRENCY"
	envMaxSegmentChars = "GITSCRIBE_MAX_SEGMENT_CHARS"
	envMinify          = "GITSCRIBE_MINIFY"
	envFileIgnore      = "GITSCRIBE_FILE_IGNORE"
	envPromptFile      = "GITSCRIBE_PROMPT_FILE"
	envLogFile         = "GITSCRIBE_LOG_FILE"
	envOpenAIKeyStd    = "OPENAI_API_KEY"
	envOpenAIKey       = "GITSCRIBE_OPENAI_API_KEY"
	envOpenAIBase      = "GITSCRIBE_OPENAI_API_BASE"
	envOpenAIModel     = "GITSCRIBE_OPENAI_MODEL"
	envOllamaBaseURL   = "GITSCRIBE_OLLAMA_BASE_URL"
	envOllamaModel     = "GITSCRIBE_OLLAMA_MODEL"
)

func applyEnv(cfg *Config, env []string) error {
	vals := make(map[string]string)
	for _, e := range env {
		idx := strings.Index(e, "=")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(e[:idx])
		val := strings.TrimSpace(e[idx+1:])
		vals[key] = val
	}
	if v, ok := vals[envProvider]; ok && v != "" {
		p, err := validateProvider(v)
		if err != nil {
			return err
		}
		cfg.Provider = p
	}
	if v, ok := vals[envTimeout]; ok && v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return erruser.New("GITSCRIBE_TIMEOUT must be a valid duration.", err)
		}
		cfg.Timeout = d
	}
	if v, ok := vals[envMaxRetries]; ok && v != "" {
		n, err := parseNonNegative(envMaxRetries, v)
		if err != nil {
			return err
		}
		cfg.MaxRetries = n
	}
	if v, ok := vals[envConcurrency]; ok && v != "" {
		n, err := parseNonNegative(envConcurrency, v)
		if err != nil {
			return err
		}
		if n == 0 {
			return erruser.WithHint("GITSCRIBE_CONCURRENCY must be at least 1.", "Unset it or use 1 to summarize files one at a time.", nil)
		}
		cfg.Concurrency = n
	}
	if v, ok := vals[envMaxSegmentChars]; ok && v != "" {
		n, err := parseNonNegative(envMaxSegmentChars, v)
		if err != nil {
			return err
		}
		cfg.MaxSegmentChars = n
	}
	if v, ok := vals[envMinify]; ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return erruser.New("GITSCRIBE_MINIFY must be true or false.", err)
		}
		cfg.Minify = b
	}
	if v, ok := vals[envFileIgnore]; ok {
		cfg.FileIgnore = splitList(v)
	}
	if v, ok := vals[envPromptFile]; ok {
		cfg.PromptFile = v
	}
	if v, ok := vals[envLogFile]; ok {
		cfg.LogFile = v
	}
	if v, ok := vals[envOpenAIKeyStd]; ok && v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v, ok := vals[envOpenAIKey]; ok && v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v, ok := vals[envOpenAIBase]; ok && v != "" {
		cfg.OpenAI.APIBase = v
	}
	if v, ok := vals[envOpenAIModel]; ok && v != "" {
		cfg.OpenAI.Model = v
	}
	if v, ok := vals[envOllamaBaseURL]; ok && v != "" {
		cfg.Ollama.BaseURL = v
	}
	if v, ok := vals[envOllamaModel]; ok && v != "" {
		cfg.Ollama.Model = v
	}
	return nil
}

func parseNonNegative(key, v string) (int, error) {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, erruser.New(key+" must be a valid number.", err)
	}
	if n < 0 {
		return 0, erruser.WithHint(key+" must be non-negative.", "Unset "+key+" or set it to 0 or more.", nil)
	}
	out, err := int64ToInt(n)
	if err != nil {
		return 0, erruser.New(key+" value out of range.", err)
	}
	return out, nil
}

// splitList splits a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func applyOverrides(cfg *Config, o *Overrides) error {
	if o == nil {
		return nil
	}
	if o.Provider != nil && *o.Provider != "" {
		p, err := validateProvider(*o.Provider)
		if err != nil {
			return err
		}
		cfg.Provider = p
	}
	if o.Model != nil && *o.Model != "" {
		switch cfg.Provider {
		case ProviderOpenAI:
			cfg.OpenAI.Model = *o.Model
		case ProviderOllama:
			cfg.Ollama.Model = *o.Model
		}
	}
	if o.Timeout != nil {
		cfg.Timeout = *o.Timeout
	}
	if o.Concurrency != nil {
		v := *o.Concurrency
		if v < 1 {
			v = 1
		}
		cfg.Concurrency = v
	}
	if o.LogFile != nil {
		cfg.LogFile = *o.LogFile
	}
	return nil
}
