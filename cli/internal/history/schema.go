// Package history keeps an append-only log of generated commit messages
// in <stateDir>/history.jsonl. Each line is one JSON Record. The log is
// bounded: once it exceeds the record cap the oldest lines rotate into
// gzipped archives, of which a handful are kept.
package history

import "time"

// SchemaVersion is written into every record so future readers can
// migrate old lines.
const SchemaVersion = 1

// Record is one line in history.jsonl: a single generation, whether an
// agent or the rule-based fallback produced the message.
type Record struct {
	Schema    int      `json:"schema"`
	Timestamp string   `json:"timestamp"` // RFC3339, UTC
	Branch    string   `json:"branch,omitempty"`
	Agent     string   `json:"agent,omitempty"` // empty when the fallback produced the message
	Fallback  bool     `json:"fallback,omitempty"`
	Reason    string   `json:"reason,omitempty"` // why the fallback was used
	Message   string   `json:"message"`
	Files     []string `json:"files,omitempty"`
}

// NewRecord stamps a record with the current schema version and time.
func NewRecord(now time.Time) Record {
	return Record{Schema: SchemaVersion, Timestamp: now.UTC().Format(time.RFC3339)}
}
