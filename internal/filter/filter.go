// Package filter classifies raw log lines against the configured error and
// ignore patterns. Patterns are compiled once at startup; classification is
// case-insensitive and the ignore pattern always wins.
package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// Class is the outcome of classifying one raw line.
type Class int

const (
	// ClassIgnored means the ignore pattern matched; the line is dropped
	// even if the error pattern would also match.
	ClassIgnored Class = iota

	// ClassNotMatching means the line is not error-like.
	ClassNotMatching

	// ClassQualifying means the line should enter the alert pipeline.
	ClassQualifying
)

func (c Class) String() string {
	switch c {
	case ClassIgnored:
		return "ignored"
	case ClassNotMatching:
		return "not-matching"
	case ClassQualifying:
		return "qualifying"
	default:
		return "unknown"
	}
}

// Filter holds the compiled error and ignore patterns.
type Filter struct {
	errorRe  *regexp.Regexp
	ignoreRe *regexp.Regexp // nil = ignore disabled
}

// New compiles the error and ignore patterns case-insensitively. An empty
// ignore pattern disables ignoring. A malformed pattern is a configuration
// error, reported here so startup can fail before any streaming begins.
func New(errorPattern, ignorePattern string) (*Filter, error) {
	if strings.TrimSpace(errorPattern) == "" {
		return nil, fmt.Errorf("error pattern must not be empty")
	}
	errorRe, err := regexp.Compile("(?i)" + errorPattern)
	if err != nil {
		return nil, fmt.Errorf("compiling error pattern: %w", err)
	}

	var ignoreRe *regexp.Regexp
	if strings.TrimSpace(ignorePattern) != "" {
		ignoreRe, err = regexp.Compile("(?i)" + ignorePattern)
		if err != nil {
			return nil, fmt.Errorf("compiling ignore pattern: %w", err)
		}
	}

	return &Filter{errorRe: errorRe, ignoreRe: ignoreRe}, nil
}

// Classify maps a raw line to its class. Ignore takes precedence over
// error detection.
func (f *Filter) Classify(line string) Class {
	if f.ignoreRe != nil && f.ignoreRe.MatchString(line) {
		return ClassIgnored
	}
	if !f.errorRe.MatchString(line) {
		return ClassNotMatching
	}
	return ClassQualifying
}

// ErrorPattern returns the configured error pattern source text.
func (f *Filter) ErrorPattern() string { return strings.TrimPrefix(f.errorRe.String(), "(?i)") }

// IgnorePattern returns the ignore pattern source text, or "" when disabled.
func (f *Filter) IgnorePattern() string {
	if f.ignoreRe == nil {
		return ""
	}
	return strings.TrimPrefix(f.ignoreRe.String(), "(?i)")
}
