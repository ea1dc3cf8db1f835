package sync

import (
	"fmt"

	"github.com/gobwas/glob"

	"github.com/sidkik/reverso/pkg/errors"
)

// rootPattern is the pattern that only matches the root of a tree.
const rootPattern = "."

// Pattern is a compiled glob pattern that's matched against relative paths.
// Paths are always matched in their slash separated form, and wildcards may
// match across slashes.
type Pattern struct {
	raw  string
	glob glob.Glob
}

// CompilePattern parses `raw` into a Pattern.
func CompilePattern(raw string) (Pattern, error) {
	if raw == rootPattern {
		return Pattern{raw: raw}, nil
	}

	g, err := glob.Compile(raw)
	if err != nil {
		return Pattern{}, errors.WithContext(err, fmt.Sprintf("compile pattern %q", raw))
	}
	return Pattern{raw: raw, glob: g}, nil
}

// String returns the pattern as it was written in the configuration.
func (p Pattern) String() string {
	return p.raw
}

// Matches returns whether `path` matches the pattern.
func (p Pattern) Matches(path string) bool {
	if p.raw == rootPattern {
		return path == ""
	}
	return p.glob.Match(path)
}

// Patterns is an ordered list of patterns.
type Patterns []Pattern

// CompilePatterns compiles each of the given patterns, preserving their order.
func CompilePatterns(raw []string) (Patterns, error) {
	var patterns Patterns
	for _, r := range raw {
		p, err := CompilePattern(r)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	return patterns, nil
}

// MustCompilePatterns is like CompilePatterns, but panics if a pattern is
// malformed. It's meant for patterns that are hardcoded.
func MustCompilePatterns(raw ...string) Patterns {
	patterns, err := CompilePatterns(raw)
	if err != nil {
		panic(err)
	}
	return patterns
}

// Match returns the first pattern that matches `path`.
func (patterns Patterns) Match(path string) (Pattern, bool) {
	for _, p := range patterns {
		if p.Matches(path) {
			return p, true
		}
	}
	return Pattern{}, false
}

// Strings returns the source strings of the patterns.
func (patterns Patterns) Strings() []string {
	var strs []string
	for _, p := range patterns {
		strs = append(strs, p.raw)
	}
	return strs
}
