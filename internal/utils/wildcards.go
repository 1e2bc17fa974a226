package utils // nolint:revive // utils is an acceptable name for internal utility package

import (
	"fmt"
	"path"
	"strings"
)

// MatchesPattern reports whether name matches a shell-style wildcard pattern
// (*, ?, [a-z]). A malformed pattern never matches.
func MatchesPattern(name, pattern string) bool {
	matched, err := path.Match(pattern, name)
	return err == nil && matched
}

// MatchesAnyPattern reports whether name equals or matches any of the patterns.
// Blank patterns are ignored.
func MatchesAnyPattern(name string, patterns []string) bool {
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if p == name || MatchesPattern(name, p) {
			return true
		}
	}
	return false
}

// ValidatePatterns rejects malformed wildcard patterns up front so that a typo
// does not silently match nothing.
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, err := path.Match(p, ""); err != nil {
			return fmt.Errorf("%w: bad table pattern %q: %v", ErrInvalidConfig, p, err)
		}
	}
	return nil
}
