package diff

import (
	"path/filepath"
	"strings"
)

// DefaultIgnore lists lockfiles whose diffs are always skipped. Configured
// file_ignore patterns are added to it, never substituted for it.
var DefaultIgnore = []string{
	"package-lock.json",
	"yarn.lock",
	"pnpm-lock.yaml",
	"Cargo.lock",
	"poetry.lock",
	"Gemfile.lock",
	"composer.lock",
	"go.sum",
	"*.min.js",
	"vendor/*",
}

// Ignored reports whether path matches any of patterns. Patterns are
// filepath.Match globs tried against the full slash-separated path and its
// base name. A pattern ending in "/*" also matches anything below that
// directory, since filepath.Match has no "**". Malformed patterns never match.
func Ignored(path string, patterns []string) bool {
	if path == "" {
		return false
	}
	path = filepath.ToSlash(path)
	base := filepath.Base(path)
	for _, p := range patterns {
		p = filepath.ToSlash(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if dir, ok := strings.CutSuffix(p, "/*"); ok && !strings.ContainsAny(dir, "*?[") {
			if path == dir || strings.HasPrefix(path, dir+"/") {
				return true
			}
			continue
		}
		if ok, err := filepath.Match(p, path); err == nil && ok {
			return true
		}
		if ok, err := filepath.Match(p, base); err == nil && ok {
			return true
		}
	}
	return false
}
