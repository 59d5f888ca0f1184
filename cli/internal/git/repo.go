// Package git (repo.go) opens the repository the hook runs in.
package git

import (
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"

	"gitscribe/cli/internal/erruser"
)

var (
	// ErrNoRepository means neither the directory nor any ancestor is a git repository.
	ErrNoRepository = errors.New("no git repository found")
	// ErrGitOperation wraps any failure while reading HEAD, the index or objects.
	ErrGitOperation = errors.New("git operation failed")
)

// Repo is an opened repository.
type Repo struct {
	repo *gogit.Repository
	root string
}

// Open finds the repository containing dir (dir itself or an ancestor).
// An empty dir means the current directory.
func Open(dir string) (*Repo, error) {
	if dir == "" {
		dir = "."
	}
	r, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, erruser.New("This directory is not inside a Git repository.", fmt.Errorf("%w: %s", ErrNoRepository, dir))
		}
		return nil, erruser.New("Could not open the Git repository.", fmt.Errorf("%w: open: %w", ErrGitOperation, err))
	}
	root := ""
	if wt, err := r.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}
	return &Repo{repo: r, root: root}, nil
}

// Root returns the worktree root, or "" for a bare repository.
func (r *Repo) Root() string {
	return r.root
}

// RepoRoot returns the worktree root of the repository containing dir.
func RepoRoot(dir string) (string, error) {
	r, err := Open(dir)
	if err != nil {
		return "", err
	}
	root := r.Root()
	if root == "" {
		return "", erruser.New("This repository has no working tree.", ErrNoRepository)
	}
	return root, nil
}
