package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectLevel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, zerolog.DebugLevel, selectLevel(true, false))
	assert.Equal(t, zerolog.DebugLevel, selectLevel(true, true))
	assert.Equal(t, zerolog.WarnLevel, selectLevel(false, true))
	assert.Equal(t, zerolog.InfoLevel, selectLevel(false, false))
}

func TestNew_levelsAndJSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger, closer := New(Options{Quiet: true, Console: &buf})
	defer closer.Close()

	logger.Info().Msg("hidden")
	logger.Warn().Str("path", "a.go").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"message":"shown"`)
	assert.Contains(t, out, `"path":"a.go"`)
}

func TestNew_redactsConsole(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger, closer := New(Options{Console: &buf})
	defer closer.Close()

	logger.Info().Str("auth", "Bearer abcdefghijklmnopqrstuvwxyz0123").Msg("request")
	assert.NotContains(t, buf.String(), "abcdefghijklmnopqrstuvwxyz0123")
	assert.Contains(t, buf.String(), RedactedValue)
}

func TestNew_logFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "logs", "gitscribe.log")
	var buf bytes.Buffer
	logger, closer := New(Options{Verbose: true, File: path, Console: &buf})

	logger.Debug().Msg("key sk-abcdefghijklmnopqrstuvwx")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), RedactedValue)
	assert.NotContains(t, string(data), "sk-abcdefghijklmnopqrstuvwx")
	assert.Contains(t, buf.String(), RedactedValue)
}

func TestNew_badLogFileFallsBack(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	var buf bytes.Buffer
	logger, closer := New(Options{File: dir, Console: &buf})
	defer closer.Close()

	logger.Info().Msg("still logging")
	out := buf.String()
	assert.Contains(t, out, "continuing without log file")
	assert.True(t, strings.Contains(out, "still logging"))
}
