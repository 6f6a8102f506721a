package utils

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// IsGlobPattern reports whether pattern contains glob metacharacters
func IsGlobPattern(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// ExpandPattern resolves a path relative to root. Plain paths are returned as is;
// glob patterns (including **) are expanded to the matching regular files, sorted.
func ExpandPattern(root, pattern string) ([]string, error) {
	pattern = filepath.ToSlash(pattern)
	if !IsGlobPattern(pattern) {
		return []string{pattern}, nil
	}

	if !doublestar.ValidatePattern(pattern) {
		return nil, doublestar.ErrBadPattern
	}

	var matches []string
	err := doublestar.GlobWalk(os.DirFS(root), pattern, func(path string, d os.DirEntry) error {
		if d.Type().IsRegular() {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(matches)
	return matches, nil
}
