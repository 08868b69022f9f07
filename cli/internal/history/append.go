// Append and rotation for <stateDir>/history.jsonl.

package history

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/arittr/commitment/cli/internal/erruser"
)

const (
	historyFilename    = "history.jsonl"
	historyGzPrefix    = "history.jsonl."
	historyGzSuffix    = ".gz"
	DefaultMaxRecords  = 500
	maxRotatedArchives = 3
)

// maxLineSize bounds a single history line. Commit messages are short;
// 1MB leaves plenty of headroom for pathological diff-derived file lists.
const maxLineSize = 1024 * 1024

// Append writes one record as a single JSON line to stateDir/history.jsonl.
// Creates stateDir and the file if missing. If maxRecords > 0 and the file
// has more than maxRecords lines after appending, the oldest lines rotate
// into a gzipped archive and the active file keeps only the newest
// maxRecords lines (atomic write via temp + rename).
func Append(stateDir string, record Record, maxRecords int) error {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return erruser.New("Could not create the state directory for history.", err)
	}
	path := filepath.Join(stateDir, historyFilename)
	line, err := json.Marshal(record)
	if err != nil {
		return erruser.New("Could not record generation history.", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return erruser.New("Could not record generation history.", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		_ = f.Close()
		return erruser.New("Could not record generation history.", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return erruser.New("Could not record generation history.", err)
	}
	if err := f.Close(); err != nil {
		return erruser.New("Could not record generation history.", err)
	}

	if maxRecords > 0 {
		return rotateIfNeeded(path, maxRecords)
	}
	return nil
}

// ReadRecords reads all history records from stateDir: rotated archives
// (history.jsonl.N.gz) in ascending order by N, then the active
// history.jsonl, so the result is oldest first. Missing files are skipped.
func ReadRecords(stateDir string) ([]Record, error) {
	entries, err := os.ReadDir(stateDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, erruser.New("Could not read the history directory.", err)
	}
	var out []Record
	for _, a := range sortedArchives(entries) {
		recs, err := readRecordsFromGzip(filepath.Join(stateDir, a.name))
		if err != nil {
			return nil, erruser.New("Could not read a rotated history archive.", err)
		}
		out = append(out, recs...)
	}
	recs, err := readRecordsFromFile(filepath.Join(stateDir, historyFilename))
	if err != nil && !os.IsNotExist(err) {
		return nil, erruser.New("Could not read the history file.", err)
	}
	return append(out, recs...), nil
}

// Recent returns the newest n records, newest last. n <= 0 returns all.
func Recent(stateDir string, n int) ([]Record, error) {
	recs, err := ReadRecords(stateDir)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(recs) > n {
		recs = recs[len(recs)-n:]
	}
	return recs, nil
}

type numberedArchive struct {
	n    int
	name string
}

func sortedArchives(entries []os.DirEntry) []numberedArchive {
	var archives []numberedArchive
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, historyGzPrefix) || !strings.HasSuffix(name, historyGzSuffix) {
			continue
		}
		mid := name[len(historyGzPrefix) : len(name)-len(historyGzSuffix)]
		n, err := strconv.Atoi(mid)
		if err != nil || n < 1 {
			continue
		}
		archives = append(archives, numberedArchive{n: n, name: name})
	}
	sort.Slice(archives, func(i, j int) bool { return archives[i].n < archives[j].n })
	return archives
}

func readRecordsFromGzip(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	gr, err := gzip.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer func() { _ = gr.Close() }()
	lines, err := readLinesFromReader(gr)
	if err != nil {
		return nil, err
	}
	return parseRecordLines(lines)
}

func readRecordsFromFile(path string) ([]Record, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}
	return parseRecordLines(lines)
}

func parseRecordLines(lines []string) ([]Record, error) {
	var out []Record
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("invalid history line: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// rotateIfNeeded reads path, and when it holds more than maxRecords
// lines, gzips the dropped head into history.jsonl.N.gz and rewrites the
// active file with only the newest maxRecords lines. At most
// maxRotatedArchives archives are kept; the oldest is pruned first.
func rotateIfNeeded(path string, maxRecords int) error {
	lines, err := readLines(path)
	if err != nil {
		return erruser.New("Could not read history for rotation.", err)
	}
	if len(lines) <= maxRecords {
		return nil
	}
	dropped := lines[:len(lines)-maxRecords]
	keep := lines[len(lines)-maxRecords:]
	dir := filepath.Dir(path)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return erruser.New("Could not rotate the history file.", err)
	}
	archives := sortedArchives(entries)
	next := 1
	if len(archives) > 0 {
		next = archives[len(archives)-1].n + 1
	}
	archivePath := filepath.Join(dir, historyGzPrefix+strconv.Itoa(next)+historyGzSuffix)
	if err := writeGzippedLines(archivePath, dropped); err != nil {
		return erruser.New("Could not write the rotated history archive.", err)
	}
	for len(archives)+1 > maxRotatedArchives {
		if err := os.Remove(filepath.Join(dir, archives[0].name)); err != nil {
			return erruser.New("Could not prune old history archives.", err)
		}
		archives = archives[1:]
	}

	f, err := os.CreateTemp(dir, "history.*.tmp")
	if err != nil {
		return erruser.New("Could not rotate the history file.", err)
	}
	tmpPath := f.Name()
	defer func() { _ = os.Remove(tmpPath) }()
	for _, l := range keep {
		if _, err := f.WriteString(l); err != nil {
			_ = f.Close()
			return erruser.New("Could not rotate the history file.", err)
		}
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return erruser.New("Could not rotate the history file.", err)
	}
	if err := f.Close(); err != nil {
		return erruser.New("Could not rotate the history file.", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return erruser.New("Could not rotate the history file.", err)
	}
	return nil
}

func writeGzippedLines(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	gw := gzip.NewWriter(f)
	for _, l := range lines {
		if _, err := gw.Write([]byte(l)); err != nil {
			_ = gw.Close()
			return err
		}
	}
	if err := gw.Close(); err != nil {
		return err
	}
	return f.Sync()
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readLinesFromReader(f)
}

func readLinesFromReader(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		lines = append(lines, sc.Text()+"\n")
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
