// Package cleaner normalizes raw AI agent output into a bare commit message.
//
// Clean applies a fixed sequence of steps: sentinel markers, then markdown
// code fences, then recognized preamble phrases, then thinking sections,
// then whitespace collapse and trim. The order matters: fences are removed
// before preambles because preamble stripping slices from the start of the
// string and would otherwise orphan a closing fence. Clean is total and
// idempotent; it never fails, and cleaning already-clean text is a no-op.
// The output may be empty when the input was pure noise; callers must
// validate the result.
package cleaner

import (
	"regexp"
	"strings"
)

// StartMarker and EndMarker wrap the commit message in agent prompts so the
// response can be located inside surrounding chatter.
const (
	StartMarker = "<<<COMMIT_MESSAGE_START>>>"
	EndMarker   = "<<<COMMIT_MESSAGE_END>>>"
)

var (
	startMarkerRe = regexp.MustCompile(`[ \t]*` + regexp.QuoteMeta(StartMarker) + `[ \t]*\n?`)
	endMarkerRe   = regexp.MustCompile(`\n?[ \t]*` + regexp.QuoteMeta(EndMarker) + `[ \t]*`)

	// Opening fence with optional language tag, lazy body, closing fence.
	fenceRe = regexp.MustCompile("(?s)```[a-zA-Z0-9_+-]*\n?(.*?)```")

	thinkingBlockRe  = regexp.MustCompile(`(?is)<thinking>.*?</thinking>`)
	thinkingPrefixRe = regexp.MustCompile(`(?ims)^thinking\b.*?(?:</thinking>|\z)`)

	blankRunRe = regexp.MustCompile(`\n{3,}`)
)

// preamblePhrases are the only lead-ins stripped from the front of a
// response, longest first. Anything else ("here is some other text") is
// real content and stays.
var preamblePhrases = []string{
	"here is the commit message:",
	"here's the commit message:",
	"here is a commit message:",
	"here's a commit message:",
	"commit message:",
}

// Clean strips agent chatter from raw output and returns the remaining
// text, trimmed. Steps run in a fixed order; see the package comment.
func Clean(raw string) string {
	s := raw

	// 1. Sentinel markers, including the whitespace around them.
	s = startMarkerRe.ReplaceAllString(s, "\n")
	s = endMarkerRe.ReplaceAllString(s, "\n")

	// 2. Fenced code blocks: keep the body, drop fence and language tag.
	s = fenceRe.ReplaceAllString(s, "$1")

	// 3. Recognized preambles anchored at the start.
	s = stripPreambles(s)

	// 4. Thinking sections: explicit <thinking> blocks, then a bare
	// "thinking" line-prefix running to the closing tag or end of text.
	// Applied to a fixpoint so removal cannot expose a fresh prefix.
	for {
		next := thinkingBlockRe.ReplaceAllString(s, "\n")
		next = thinkingPrefixRe.ReplaceAllString(next, "")
		if next == s {
			break
		}
		s = next
	}

	// 5. Collapse runs of 3+ newlines to exactly 2.
	s = blankRunRe.ReplaceAllString(s, "\n\n")

	// 6. Trim.
	return strings.TrimSpace(s)
}

// stripPreambles removes recognized preamble phrases from the start of s,
// skipping leading whitespace, until none match. Unrecognized leading text
// is left alone.
func stripPreambles(s string) string {
	for {
		i := 0
		for i < len(s) {
			switch s[i] {
			case ' ', '\t', '\n', '\r':
				i++
				continue
			}
			break
		}
		rest := s[i:]
		lower := strings.ToLower(rest)
		matched := ""
		for _, p := range preamblePhrases {
			if strings.HasPrefix(lower, p) {
				matched = p
				break
			}
		}
		if matched == "" {
			return s
		}
		s = rest[len(matched):]
	}
}
