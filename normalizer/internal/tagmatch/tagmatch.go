// Package tagmatch matches dot-segmented routing tags against glob patterns.
//
// A pattern list is space separated. Within a pattern, `*` matches exactly one
// tag segment (or part of one), `**` as a whole segment matches zero or more
// segments and `{a,b}` matches either alternative. Patterns are tried in
// declaration order and the first match wins.
package tagmatch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrBadPattern is returned for pattern lists that cannot be compiled.
var ErrBadPattern = errors.New("bad tag pattern")

// Matcher is an immutable, compiled pattern list.
type Matcher struct {
	source   string
	patterns []string
}

// Compile parses a space-separated pattern list.
func Compile(patterns string) (*Matcher, error) {
	fields := strings.Fields(patterns)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty pattern list", ErrBadPattern)
	}

	m := &Matcher{source: patterns, patterns: make([]string, 0, len(fields))}
	for _, f := range fields {
		p := toPath(f)
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("%w: %q", ErrBadPattern, f)
		}
		m.patterns = append(m.patterns, p)
	}
	return m, nil
}

// MustCompile is Compile for static pattern lists.
func MustCompile(patterns string) *Matcher {
	m, err := Compile(patterns)
	if err != nil {
		panic(err)
	}
	return m
}

// Match reports whether tag matches any pattern in the list.
func (m *Matcher) Match(tag string) bool {
	if m == nil {
		return false
	}
	path := toPath(tag)
	for _, p := range m.patterns {
		// Patterns were validated in Compile, so the only error is ErrBadPattern.
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}

// String returns the pattern list as configured.
func (m *Matcher) String() string {
	if m == nil {
		return ""
	}
	return m.source
}

// toPath maps tag segments onto path segments so doublestar's `*` stops at
// segment boundaries.
func toPath(s string) string {
	return strings.ReplaceAll(s, ".", "/")
}
