// Package commitmsg reads, merges and writes the commit message file git
// passes to the prepare-commit-msg hook.
package commitmsg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrIO wraps every filesystem failure from this package.
var ErrIO = errors.New("commit message file I/O failed")

// Merge appends generated to existing with one blank line between them.
// An empty existing message yields generated unchanged.
func Merge(existing, generated string) string {
	if existing == "" {
		return generated
	}
	return existing + "\n\n" + generated
}

// Read returns the file's contents. A missing file reads as "".
func Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("%w: read %s: %w", ErrIO, path, err)
	}
	return string(data), nil
}

// Prepare reads the current message and merges generated into it. The
// result is returned so it can be shown before Write.
func Prepare(path, generated string) (string, error) {
	existing, err := Read(path)
	if err != nil {
		return "", err
	}
	return Merge(existing, generated), nil
}

// Write replaces the file with content. It writes a temp file in the same
// directory and renames it over path, so a failed write leaves the old
// message in place. An existing file keeps its permissions.
func Write(path, content string) error {
	dir := filepath.Dir(path)
	mode := fs.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		if !fi.Mode().IsRegular() {
			return fmt.Errorf("%w: %s is not a regular file", ErrIO, path)
		}
		mode = fi.Mode().Perm()
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp in %s: %w", ErrIO, dir, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()
	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: write %s: %w", ErrIO, tmpName, err)
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: chmod %s: %w", ErrIO, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrIO, tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: rename to %s: %w", ErrIO, path, err)
	}
	tmpName = ""
	return nil
}
