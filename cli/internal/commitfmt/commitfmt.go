// Package commitfmt validates Conventional Commits formatting:
// type(scope)?: description, with the type drawn from a fixed vocabulary.
// This is a format-only gate on the first line; body, footers, and
// breaking-change markers are not checked, nor is description quality.
package commitfmt

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Types is the allowed commit type vocabulary, lowercase. Matching is
// case-sensitive: "FEAT:" is invalid.
var Types = []string{"feat", "fix", "docs", "style", "refactor", "test", "chore", "perf", "build", "ci"}

// formatRe anchors at the start: a known type, an optional free-form scope
// in parentheses, a colon, and at least one non-whitespace description
// character. Anything after the first line (body, footers) is not examined.
var formatRe = regexp.MustCompile(`^(feat|fix|docs|style|refactor|test|chore|perf|build|ci)(\(.+\))?:\s*\S+`)

// IsValid reports whether message starts with type(scope)?: description.
func IsValid(message string) bool {
	return formatRe.MatchString(message)
}

// Validate returns nil when message passes IsValid, and an error naming the
// offending first line otherwise.
func Validate(message string) error {
	if strings.TrimSpace(message) == "" {
		return errors.New("invalid conventional commit format: empty message")
	}
	if !IsValid(message) {
		return fmt.Errorf("invalid conventional commit format: %q", FirstLine(message))
	}
	return nil
}

// TypeOf returns the commit type of a valid message ("feat", "fix", ...)
// and true, or "" and false when the message does not validate.
func TypeOf(message string) (string, bool) {
	m := formatRe.FindStringSubmatch(message)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// FirstLine returns message up to the first newline, trimmed.
func FirstLine(message string) string {
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		message = message[:i]
	}
	return strings.TrimSpace(message)
}
