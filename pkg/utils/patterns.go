package utils

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

type compiledPattern struct {
	pattern  string
	glob     glob.Glob
	basename bool
}

// PatternMatcher matches slash-separated relative paths against glob
// patterns. A pattern without a slash is matched against the base name at
// any depth; a pattern with a slash is matched against the whole path and
// may use ** to cross directories.
type PatternMatcher struct {
	patterns []compiledPattern
}

// NewPatternMatcher compiles patterns
func NewPatternMatcher(patterns []string) (*PatternMatcher, error) {
	pm := &PatternMatcher{patterns: make([]compiledPattern, 0, len(patterns))}
	for _, p := range patterns {
		p = NormalizePattern(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		pm.patterns = append(pm.patterns, compiledPattern{
			pattern:  p,
			glob:     g,
			basename: !strings.Contains(p, "/"),
		})
	}
	return pm, nil
}

// MustPatternMatcher is NewPatternMatcher for patterns known at compile time.
func MustPatternMatcher(patterns ...string) *PatternMatcher {
	pm, err := NewPatternMatcher(patterns)
	if err != nil {
		panic(err)
	}
	return pm
}

// Match checks if a path matches any pattern
func (pm *PatternMatcher) Match(p string) bool {
	if pm == nil {
		return false
	}
	p = strings.TrimPrefix(filepath.ToSlash(p), "./")
	base := path.Base(p)
	for _, cp := range pm.patterns {
		if cp.basename {
			if cp.glob.Match(base) {
				return true
			}
			continue
		}
		if cp.glob.Match(p) {
			return true
		}
	}
	return false
}

// Empty reports whether the matcher has no patterns
func (pm *PatternMatcher) Empty() bool {
	return pm == nil || len(pm.patterns) == 0
}

// Patterns returns the normalized source patterns
func (pm *PatternMatcher) Patterns() []string {
	if pm == nil {
		return nil
	}
	out := make([]string, len(pm.patterns))
	for i, cp := range pm.patterns {
		out[i] = cp.pattern
	}
	return out
}

// GetMatchingPaths returns all paths that match any pattern
func (pm *PatternMatcher) GetMatchingPaths(paths []string) []string {
	var matches []string
	for _, p := range paths {
		if pm.Match(p) {
			matches = append(matches, p)
		}
	}
	return matches
}

// ExclusionMatcher answers whether a path is excluded. A directory that is
// excluded takes its whole subtree with it.
type ExclusionMatcher struct {
	matcher *PatternMatcher
}

// NewExclusionMatcher creates a new exclusion matcher
func NewExclusionMatcher(patterns []string) (*ExclusionMatcher, error) {
	matcher, err := NewPatternMatcher(patterns)
	if err != nil {
		return nil, err
	}
	return &ExclusionMatcher{matcher: matcher}, nil
}

// IsExcluded checks if a path should be excluded
func (em *ExclusionMatcher) IsExcluded(p string) bool {
	if em == nil {
		return false
	}
	return em.matcher.Match(p)
}

// FilterPaths removes excluded paths from a list
func (em *ExclusionMatcher) FilterPaths(paths []string) []string {
	var filtered []string
	for _, p := range paths {
		if !em.IsExcluded(p) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// IsGlobPattern checks if a string contains glob wildcards
func IsGlobPattern(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// NormalizePattern normalizes a file pattern
func NormalizePattern(pattern string) string {
	pattern = strings.ReplaceAll(pattern, "\\", "/")
	pattern = strings.TrimPrefix(pattern, "./")
	return strings.TrimSuffix(pattern, "/")
}

// MatchGlob matches a path against a single glob pattern
func MatchGlob(pattern, p string) (bool, error) {
	matcher, err := NewPatternMatcher([]string{pattern})
	if err != nil {
		return false, err
	}
	return matcher.Match(p), nil
}
