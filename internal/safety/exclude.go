package safety

import (
	"os"
	"path/filepath"
	"strings"
)

// NormalizePath converts path to absolute, cleaned form
func NormalizePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", ErrInvalidPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", ErrInvalidPath
	}
	return filepath.Clean(abs), nil
}

// Excluder holds the prefixes under which files are never shredded
// (pseudo filesystems, device trees, operator-chosen locations).
type Excluder struct {
	Prefixes []string
}

// NewExcluder normalizes prefixes; empty or unresolvable entries are dropped.
func NewExcluder(prefixes []string) *Excluder {
	return &Excluder{Prefixes: normalizeRoots(prefixes)}
}

// IsExcluded reports whether path lies under any excluded prefix.
// Paths that cannot be normalized are not excluded; the classifier will
// reject them on its own.
func (e *Excluder) IsExcluded(path string) bool {
	if e == nil || len(e.Prefixes) == 0 {
		return false
	}
	p, err := NormalizePath(path)
	if err != nil {
		return false
	}
	return IsWithinRoots(p, e.Prefixes)
}

// IsWithinRoots checks if path is within any of roots
func IsWithinRoots(path string, roots []string) bool {
	p := filepath.Clean(path)
	for _, r := range roots {
		if hasPathPrefix(p, r) {
			return true
		}
	}
	return false
}

// hasPathPrefix checks if path has the given prefix
func hasPathPrefix(path, prefix string) bool {
	path = filepath.Clean(path)
	prefix = filepath.Clean(prefix)

	if prefix == string(os.PathSeparator) {
		return strings.HasPrefix(path, prefix)
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+string(os.PathSeparator))
}

// normalizeRoots converts slice of roots to absolute, cleaned paths
func normalizeRoots(roots []string) []string {
	out := make([]string, 0, len(roots))
	for _, r := range roots {
		if strings.TrimSpace(r) == "" {
			continue
		}
		abs, err := filepath.Abs(r)
		if err != nil {
			continue
		}
		out = append(out, filepath.Clean(abs))
	}
	return out
}
