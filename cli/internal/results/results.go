// Package results persists evaluation output: one timestamped JSON file
// per run, a latest-<fixture>.json symlink pointing at the newest run,
// and comparison files when both agents were evaluated.
package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/arittr/commitment/cli/internal/erruser"
	"github.com/arittr/commitment/cli/internal/evaluate"
)

const stampLayout = "20060102-150405"

// Envelope kinds; persisted so readers can tell run files from
// comparison files without parsing names.
const (
	kindResult     = "result"
	kindComparison = "comparison"
)

// Run is the persisted envelope for one agent's evaluation on a fixture.
type Run struct {
	Kind      string          `json:"kind"`
	Fixture   string          `json:"fixture"`
	Agent     string          `json:"agent"`
	Mode      string          `json:"mode"`
	Timestamp time.Time       `json:"timestamp"`
	Result    evaluate.Result `json:"result"`
}

// ComparisonRun is the persisted envelope for a two-agent run.
type ComparisonRun struct {
	Kind       string              `json:"kind"`
	Mode       string              `json:"mode"`
	Timestamp  time.Time           `json:"timestamp"`
	Comparison evaluate.Comparison `json:"comparison"`
}

// Store reads and writes evaluation artifacts under one directory.
type Store struct {
	Dir string
}

// SaveRun writes the run to <fixture>-<agent>-<stamp>.json and repoints
// latest-<fixture>.json at it. Returns the run file path.
func (s *Store) SaveRun(run Run) (string, error) {
	run.Kind = kindResult
	name := fmt.Sprintf("%s-%s-%s.json", run.Fixture, run.Agent, run.Timestamp.Format(stampLayout))
	path, err := s.write(name, run)
	if err != nil {
		return "", err
	}
	if err := s.pointLatest(run.Fixture, name); err != nil {
		return "", err
	}
	return path, nil
}

// SaveComparison writes the comparison to
// <fixture>-comparison-<stamp>.json and repoints latest-<fixture>.json
// at it, making the comparison the canonical artifact of a both-agents
// run. Returns the comparison file path.
func (s *Store) SaveComparison(c ComparisonRun) (string, error) {
	c.Kind = kindComparison
	name := fmt.Sprintf("%s-comparison-%s.json", c.Comparison.Fixture, c.Timestamp.Format(stampLayout))
	path, err := s.write(name, c)
	if err != nil {
		return "", err
	}
	if err := s.pointLatest(c.Comparison.Fixture, name); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Store) write(name string, v any) (string, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", erruser.New("Could not create the results directory.", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", erruser.New("Could not save the evaluation result.", err)
	}
	path := filepath.Join(s.Dir, name)
	if err := writeFileAtomic(path, append(data, '\n')); err != nil {
		return "", erruser.New("Could not save the evaluation result.", err)
	}
	return path, nil
}

// pointLatest repoints latest-<fixture>.json at target (a name within
// the results directory). Symlink when the filesystem supports it; a
// plain copy otherwise.
func (s *Store) pointLatest(fixture, target string) error {
	link := filepath.Join(s.Dir, LatestName(fixture))
	if err := os.Remove(link); err != nil && !os.IsNotExist(err) {
		return erruser.New("Could not update the latest-result link.", err)
	}
	if err := os.Symlink(target, link); err != nil {
		data, rerr := os.ReadFile(filepath.Join(s.Dir, target))
		if rerr != nil {
			return erruser.New("Could not update the latest-result link.", errors.Join(err, rerr))
		}
		if werr := writeFileAtomic(link, data); werr != nil {
			return erruser.New("Could not update the latest-result link.", errors.Join(err, werr))
		}
	}
	return nil
}

// LatestName returns the latest-link filename for a fixture.
func LatestName(fixture string) string {
	return "latest-" + fixture + ".json"
}

// ReadRun decodes one run file.
func ReadRun(path string) (Run, error) {
	var run Run
	data, err := os.ReadFile(path)
	if err != nil {
		return Run{}, erruser.New("Could not read the result file.", err)
	}
	if err := json.Unmarshal(data, &run); err != nil {
		return Run{}, erruser.New("Result file is invalid or corrupted.", err)
	}
	return run, nil
}

// ListRuns returns all persisted runs, oldest first. Latest links and
// comparison files are skipped. A missing directory yields an empty list.
func (s *Store) ListRuns() ([]Run, error) {
	var runs []Run
	err := s.walk(func(path string, kind string) error {
		if kind != kindResult {
			return nil
		}
		run, err := ReadRun(path)
		if err != nil {
			return err
		}
		runs = append(runs, run)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

// ListComparisons returns all persisted comparisons, oldest first.
func (s *Store) ListComparisons() ([]ComparisonRun, error) {
	var comps []ComparisonRun
	err := s.walk(func(path string, kind string) error {
		if kind != kindComparison {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return erruser.New("Could not read the result file.", err)
		}
		var c ComparisonRun
		if err := json.Unmarshal(data, &c); err != nil {
			return erruser.New("Result file is invalid or corrupted.", err)
		}
		comps = append(comps, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(comps, func(i, j int) bool { return comps[i].Timestamp.Before(comps[j].Timestamp) })
	return comps, nil
}

func (s *Store) walk(visit func(path, kind string) error) error {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return erruser.New("Could not read the results directory.", err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, "latest-") {
			continue
		}
		path := filepath.Join(s.Dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return erruser.New("Could not read the result file.", err)
		}
		var probe struct {
			Kind string `json:"kind"`
		}
		if err := json.Unmarshal(data, &probe); err != nil {
			continue // not an artifact of ours
		}
		if err := visit(path, probe.Kind); err != nil {
			return err
		}
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := f.Name()
	defer func() { _ = os.Remove(tmpPath) }()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
