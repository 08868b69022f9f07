// Package failure classifies errors from the generation pipeline into a
// closed set of kinds used for attempt records and reports.
//
// Categorize matches case-insensitive substrings of the error text in a
// strict priority order: api_error, then cleaning, then validation, with
// generation as the catch-all. Priority matters because cleaning and
// availability failures are often worded ambiguously ("failed to clean:
// invalid format") and must not be misread as validation failures. A
// missing executable (exec.ErrNotFound, fs.ErrNotExist) counts as
// api_error regardless of wording.
package failure

import (
	"errors"
	"io/fs"
	"os/exec"
	"strings"
)

// Kind is a failure category. The set is closed; Valid reports membership.
type Kind string

const (
	// APIError: the external tool or service is unreachable or missing
	// (CLI not on PATH, connection refused, network failure).
	APIError Kind = "api_error"
	// Cleaning: response cleaning left unresolved artifacts behind
	// (thinking leakage, unbalanced code fences).
	Cleaning Kind = "cleaning"
	// Validation: the cleaned text is not a conventional commit.
	Validation Kind = "validation"
	// Generation: process failures, timeouts, malformed output, and
	// anything unrecognized.
	Generation Kind = "generation"
)

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	switch k {
	case APIError, Cleaning, Validation, Generation:
		return true
	default:
		return false
	}
}

// Pattern lists are matched in order within each kind; kinds are tried in
// priority order. All matching is on the lowercased error text.
var (
	apiErrorPatterns = []string{
		"command not found",
		"not found",
		"network error",
		"enoent",
		"econnrefused",
	}
	cleaningPatterns = []string{
		"failed to clean",
		"thinking",
		"cot",
		"markdown code block",
	}
	validationPatterns = []string{
		"invalid conventional commit",
		"does not follow conventional",
		"missing type",
		"invalid format",
	}
)

// Categorize maps err to a Kind. It is total: nil and unrecognized errors
// return Generation.
func Categorize(err error) Kind {
	if err == nil {
		return Generation
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return APIError
	}
	msg := strings.ToLower(err.Error())
	if matchesAny(msg, apiErrorPatterns) {
		return APIError
	}
	if matchesAny(msg, cleaningPatterns) {
		return Cleaning
	}
	if matchesAny(msg, validationPatterns) {
		return Validation
	}
	return Generation
}

func matchesAny(msg string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
