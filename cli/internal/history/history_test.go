package history

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func record(msg string) Record {
	r := NewRecord(time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC))
	r.Agent = "claude"
	r.Message = msg
	return r
}

func TestNewRecord(t *testing.T) {
	t.Parallel()
	r := NewRecord(time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC))
	if r.Schema != SchemaVersion {
		t.Errorf("Schema = %d, want %d", r.Schema, SchemaVersion)
	}
	if r.Timestamp != "2026-08-30T10:00:00Z" {
		t.Errorf("Timestamp = %q", r.Timestamp)
	}
}

func TestAppendAndReadRecords(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "state")
	for _, msg := range []string{"feat: one", "fix: two", "docs: three"} {
		if err := Append(dir, record(msg), DefaultMaxRecords); err != nil {
			t.Fatalf("Append(%q): %v", msg, err)
		}
	}
	recs, err := ReadRecords(dir)
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("len = %d, want 3", len(recs))
	}
	if recs[0].Message != "feat: one" || recs[2].Message != "docs: three" {
		t.Errorf("order wrong: %q ... %q", recs[0].Message, recs[2].Message)
	}
	if recs[0].Schema != SchemaVersion || recs[0].Agent != "claude" {
		t.Errorf("record fields lost: %+v", recs[0])
	}
}

func TestReadRecords_missingDir(t *testing.T) {
	t.Parallel()
	recs, err := ReadRecords(filepath.Join(t.TempDir(), "nope"))
	if err != nil || recs != nil {
		t.Errorf("got %v, %v; want nil, nil", recs, err)
	}
}

func TestReadRecords_invalidLine(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "history.jsonl"), []byte("not json\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadRecords(dir); err == nil {
		t.Error("ReadRecords accepted a corrupt line")
	}
}

func TestAppend_rotation(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	const max = 5
	for i := 0; i < max+3; i++ {
		if err := Append(dir, record("feat: change "+strings.Repeat("x", i+1)), max); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	// Active file keeps only the newest max lines.
	data, err := os.ReadFile(filepath.Join(dir, "history.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(data), "\n"); got != max {
		t.Errorf("active lines = %d, want %d", got, max)
	}
	if _, err := os.Stat(filepath.Join(dir, "history.jsonl.1.gz")); err != nil {
		t.Errorf("missing rotated archive: %v", err)
	}

	// The rotated head still reads back, oldest first.
	recs, err := ReadRecords(dir)
	if err != nil {
		t.Fatalf("ReadRecords after rotation: %v", err)
	}
	if len(recs) != max+3 {
		t.Errorf("total records = %d, want %d", len(recs), max+3)
	}
	if recs[0].Message != "feat: change x" {
		t.Errorf("oldest record = %q", recs[0].Message)
	}
}

func TestAppend_prunesOldArchives(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	const max = 1
	for i := 0; i < 10; i++ {
		if err := Append(dir, record("feat: n"), max); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	archives := 0
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".gz") {
			archives++
		}
	}
	if archives > maxRotatedArchives {
		t.Errorf("archives = %d, want <= %d", archives, maxRotatedArchives)
	}
}

func TestRecent(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	for _, msg := range []string{"feat: a", "feat: b", "feat: c"} {
		if err := Append(dir, record(msg), 0); err != nil {
			t.Fatal(err)
		}
	}
	recs, err := Recent(dir, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recs) != 2 || recs[0].Message != "feat: b" || recs[1].Message != "feat: c" {
		t.Errorf("Recent(2) = %+v", recs)
	}
	all, err := Recent(dir, 0)
	if err != nil || len(all) != 3 {
		t.Errorf("Recent(0) = %d records, %v; want 3, nil", len(all), err)
	}
}
