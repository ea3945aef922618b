package gitwalk

import (
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// MatchesInclude returns true if the given path matches any of the include
// patterns. If patterns is empty, everything is included.
func MatchesInclude(path string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	return matchesAny(path, patterns)
}

// MatchesExclude returns true if the given path matches any of the exclude
// patterns. If patterns is empty, nothing is excluded.
func MatchesExclude(path string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	return matchesAny(path, patterns)
}

// matchesAny checks if path matches any of the given glob patterns.
// doublestar is used for ** support; patterns are also tried against the
// bare filename so "*.lock" excludes lockfiles anywhere in the tree.
func matchesAny(path string, patterns []string) bool {
	normalized := filepath.ToSlash(path)

	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)

		if matched, err := doublestar.PathMatch(pattern, normalized); err == nil && matched {
			return true
		}

		base := filepath.Base(normalized)
		if matched, err := doublestar.PathMatch(pattern, base); err == nil && matched {
			return true
		}
	}
	return false
}
