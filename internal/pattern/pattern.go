// Package pattern compiles the glob and content patterns that drive file
// selection during a scan.
//
// Name matchers test bare file or directory names (never full paths) against
// shell-style globs (*, ?, [...]). Content matchers test raw file data
// against regular expressions. Both are pure and reusable across any number
// of inputs.
package pattern

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

// neverMatch is a regular expression that cannot match any input: it
// requires a literal character before the start of the text. Used as the
// sentinel for empty skip-pattern lists so that matcher construction stays
// uniform instead of branching on emptiness at match time.
const neverMatch = `-^`

// NameMatcher tests a bare file or directory name against a set of glob
// patterns combined with logical OR.
type NameMatcher struct {
	patterns []string
	globs    []glob.Glob
}

// NewNameMatcher compiles an include matcher. An empty pattern list means
// "match every name", represented by the single pattern "*" rather than a
// special case in Match.
func NewNameMatcher(patterns []string) (*NameMatcher, error) {
	if len(patterns) == 0 {
		patterns = []string{"*"}
	}
	return compileNames(patterns)
}

// NewSkipNameMatcher compiles a skip matcher. An empty pattern list means
// "match no name": with nothing compiled, the OR over zero globs is false.
func NewSkipNameMatcher(patterns []string) (*NameMatcher, error) {
	return compileNames(patterns)
}

func compileNames(patterns []string) (*NameMatcher, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return &NameMatcher{patterns: patterns, globs: globs}, nil
}

// Match reports whether any pattern matches name.
func (m *NameMatcher) Match(name string) bool {
	for _, g := range m.globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Patterns returns the pattern strings the matcher was compiled from.
func (m *NameMatcher) Patterns() []string {
	return m.patterns
}

// ContentMatcher tests raw file data for the presence of any of a set of
// regular expressions, combined with alternation into a single compiled
// pattern.
type ContentMatcher struct {
	re *regexp.Regexp
}

// NewContentMatcher compiles a content matcher from regular expression
// strings. An empty list compiles the never-matching sentinel, so "no skip
// rule" and "skip rule that hits nothing" are the same object shape.
// Patterns must be pure ASCII: content is matched as raw bytes.
func NewContentMatcher(patterns []string) (*ContentMatcher, error) {
	expr := neverMatch
	if len(patterns) > 0 {
		for _, p := range patterns {
			if !isASCII(p) {
				return nil, fmt.Errorf("content pattern %q is not ASCII", p)
			}
		}
		expr = strings.Join(patterns, "|")
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid content pattern: %w", err)
	}
	return &ContentMatcher{re: re}, nil
}

// Match reports whether the pattern occurs anywhere in data.
func (m *ContentMatcher) Match(data []byte) bool {
	return m.re.Match(data)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return false
		}
	}
	return true
}
