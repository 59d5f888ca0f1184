package commitmsg

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		existing  string
		generated string
		want      string
	}{
		{name: "empty_existing", existing: "", generated: "- Add x", want: "- Add x"},
		{name: "appends_after_blank_line", existing: "feat: x", generated: "- Add x", want: "feat: x\n\n- Add x"},
		{name: "git_comment_template", existing: "\n# Please enter the commit message\n", generated: "- y", want: "\n# Please enter the commit message\n\n\n- y"},
		{name: "whitespace_existing_is_not_empty", existing: " ", generated: "g", want: " \n\ng"},
		{name: "empty_generated", existing: "msg", generated: "", want: "msg\n\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Merge(tt.existing, tt.generated))
		})
	}
}

func TestRead_missingFileIsEmpty(t *testing.T) {
	t.Parallel()
	got, err := Read(filepath.Join(t.TempDir(), "COMMIT_EDITMSG"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRead_directoryFails(t *testing.T) {
	t.Parallel()
	_, err := Read(t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIO)
}

func TestPrepareAndWrite(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "COMMIT_EDITMSG")
	require.NoError(t, os.WriteFile(path, []byte("Initial"), 0o600))

	msg, err := Prepare(path, "- Add parser\n- Fix lexer")
	require.NoError(t, err)
	assert.Equal(t, "Initial\n\n- Add parser\n- Fix lexer", msg)

	require.NoError(t, Write(path, msg))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, msg, string(data))

	if runtime.GOOS != "windows" {
		fi, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
	}
}

func TestWrite_createsMissingFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "MSG")
	require.NoError(t, Write(path, "hello"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestWrite_overwritesLongerContent(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "MSG")
	require.NoError(t, os.WriteFile(path, []byte("a much longer previous message"), 0o644))
	require.NoError(t, Write(path, "short"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "short", string(data))
}

func TestWrite_failures(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	err := Write(filepath.Join(dir, "missing", "MSG"), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIO)

	err = Write(dir, "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIO)
}
