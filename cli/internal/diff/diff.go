// Package diff parses unified git diff output into per-file change
// summaries and bounds raw diff text for prompt embedding.
//
// # Binary files
// Binary files produce a summary with Binary set and zero line counts; git
// reports "Binary files ... differ" without unified diff content.
//
// # Renames
// Renames detected by git ("rename from"/"rename to") set Renamed and
// OldPath. Line counts cover only the content edits, if any.
//
// # Empty diff
// Empty or whitespace-only input produces a nil slice and no error.
package diff

import (
	"fmt"
	"strings"
)

// DefaultTruncateLimit bounds how much raw diff is embedded in a prompt.
// Large diffs blow the model's context window without improving the message.
const DefaultTruncateLimit = 32 * 1024

// FileChange summarizes one file's part of a changeset.
type FileChange struct {
	Path      string // path relative to repo root (new side)
	OldPath   string // previous path; set only when Renamed
	Additions int
	Deletions int
	New       bool
	Deleted   bool
	Renamed   bool
	Binary    bool
}

// Stat aggregates line counts across a changeset.
type Stat struct {
	Files     int
	Additions int
	Deletions int
}

// Summarize totals the per-file counts.
func Summarize(changes []FileChange) Stat {
	var s Stat
	s.Files = len(changes)
	for _, c := range changes {
		s.Additions += c.Additions
		s.Deletions += c.Deletions
	}
	return s
}

// String renders the stat in git shortstat style, e.g.
// "2 files changed, 10 insertions(+), 3 deletions(-)".
func (s Stat) String() string {
	parts := []string{fmt.Sprintf("%d file%s changed", s.Files, plural(s.Files))}
	if s.Additions > 0 {
		parts = append(parts, fmt.Sprintf("%d insertion%s(+)", s.Additions, plural(s.Additions)))
	}
	if s.Deletions > 0 {
		parts = append(parts, fmt.Sprintf("%d deletion%s(-)", s.Deletions, plural(s.Deletions)))
	}
	return strings.Join(parts, ", ")
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// Paths returns the changed paths in diff order.
func Paths(changes []FileChange) []string {
	if len(changes) == 0 {
		return nil
	}
	out := make([]string, 0, len(changes))
	for _, c := range changes {
		out = append(out, c.Path)
	}
	return out
}

// Truncate returns diff unchanged when it fits within maxChars. Otherwise it
// cuts at the last full line before the limit and appends a truncation
// notice. maxChars <= 0 disables truncation.
func Truncate(diff string, maxChars int) string {
	if maxChars <= 0 || len(diff) <= maxChars {
		return diff
	}
	cut := diff[:maxChars]
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		cut = cut[:i]
	}
	return cut + "\n\n[truncated for context]"
}
