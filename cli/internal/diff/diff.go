// Package diff splits a unified diff into per-file segments and supplies the
// raw diff text the rest of the pipeline works on.
//
// # Segments
// The first segment starts at the input's first "diff --git " line. Every later
// segment starts with the newline that ends the previous file's last line, so
// a segment other than the last does not end in "\n". Concatenating all
// segments in order reproduces the input exactly; nothing is trimmed or
// normalized.
//
// # Sources
// The live source is git.Extractor (staged index against HEAD). FileSource
// reads a pre-captured diff verbatim and never touches a repository, which is
// how the hook is exercised offline and in tests.
//
// # Ignored files
// Lockfiles and vendored trees carry no intent worth summarizing. Ignored
// reports whether a path matches the configured patterns; DefaultIgnore is
// used when none are configured.
package diff

import (
	"context"
	"os"

	"gitscribe/cli/internal/erruser"
)

// Source produces the raw unified diff for one invocation.
type Source interface {
	Diff(ctx context.Context) (string, error)
}

// FileSource reads a pre-captured diff from Path.
type FileSource struct {
	Path string
}

// Diff returns the file contents unchanged.
func (f FileSource) Diff(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", erruser.New("Could not read diff file "+f.Path+".", err)
	}
	return string(data), nil
}
