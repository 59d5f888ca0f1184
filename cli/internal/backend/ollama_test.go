package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitscribe/cli/internal/config"
	"gitscribe/cli/internal/ollama"
)

func TestOllama_Summarize(t *testing.T) {
	t.Parallel()
	var gen map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[{"name":"qwen2.5-coder:7b"}]}`))
		case "/api/generate":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&gen))
			_, _ = w.Write([]byte(`{"response":"- Print from main\n","done":true,"prompt_eval_count":42,"eval_count":6}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	cfg := testConfig(config.ProviderOllama)
	cfg.Ollama.BaseURL = srv.URL
	cfg.Ollama.NumCtx = 8192
	b, err := New(context.Background(), cfg, Options{})
	require.NoError(t, err)

	out, err := b.Summarize(context.Background(), segment(t))
	require.NoError(t, err)
	assert.Equal(t, "- Print from main\n", out)
	assert.Equal(t, "qwen2.5-coder:7b", gen["model"])
	assert.NotEmpty(t, gen["system"])
	opts, ok := gen["options"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(8192), opts["num_ctx"])
}

func TestOllama_Summarize_badRequestNotRetried(t *testing.T) {
	stubSleep(t)
	generates := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			_, _ = w.Write([]byte(`{"models":[{"name":"qwen2.5-coder:7b"}]}`))
			return
		}
		generates++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid options"}`))
	}))
	defer srv.Close()

	cfg := testConfig(config.ProviderOllama)
	cfg.Ollama.BaseURL = srv.URL
	cfg.MaxRetries = 3
	b, err := New(context.Background(), cfg, Options{})
	require.NoError(t, err)

	_, err = b.Summarize(context.Background(), segment(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCall)
	assert.ErrorIs(t, err, ollama.ErrBadRequest)
	assert.Equal(t, 1, generates)
}
