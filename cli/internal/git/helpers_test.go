package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

type testRepo struct {
	t   *testing.T
	dir string
	wt  *gogit.Worktree
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()
	dir := t.TempDir()
	r, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := r.Worktree()
	require.NoError(t, err)
	return &testRepo{t: t, dir: dir, wt: wt}
}

func (r *testRepo) write(name, content string) {
	r.t.Helper()
	path := filepath.Join(r.dir, name)
	require.NoError(r.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(r.t, os.WriteFile(path, []byte(content), 0o644))
}

func (r *testRepo) stage(name string) {
	r.t.Helper()
	_, err := r.wt.Add(name)
	require.NoError(r.t, err)
}

func (r *testRepo) remove(name string) {
	r.t.Helper()
	_, err := r.wt.Remove(name)
	require.NoError(r.t, err)
}

func (r *testRepo) commit(msg string) {
	r.t.Helper()
	_, err := r.wt.Commit(msg, &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@gitscribe.local", When: time.Unix(1700000000, 0)},
	})
	require.NoError(r.t, err)
}

func (r *testRepo) stagedDiff() string {
	r.t.Helper()
	repo, err := Open(r.dir)
	require.NoError(r.t, err)
	out, err := repo.StagedDiff(r.t.Context())
	require.NoError(r.t, err)
	return out
}
