package results

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/arittr/commitment/cli/internal/evaluate"
)

func testRun(fixture, agent string, score float64, ts time.Time) Run {
	return Run{
		Fixture:   fixture,
		Agent:     agent,
		Mode:      "mocked",
		Timestamp: ts,
		Result: evaluate.Result{
			FinalScore:  score,
			SuccessRate: "3/3",
			Reasoning:   "solid",
		},
	}
}

func TestSaveRun(t *testing.T) {
	t.Parallel()

	store := &Store{Dir: t.TempDir()}
	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	path, err := store.SaveRun(testRun("simple-feature", "claude", 8.5, ts))
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	wantName := "simple-feature-claude-20250314-092653.json"
	if got := filepath.Base(path); got != wantName {
		t.Errorf("run file = %q, want %q", got, wantName)
	}

	run, err := ReadRun(path)
	if err != nil {
		t.Fatalf("ReadRun() error = %v", err)
	}
	if run.Agent != "claude" || run.Result.FinalScore != 8.5 {
		t.Errorf("ReadRun() = agent %q score %v, want claude 8.5", run.Agent, run.Result.FinalScore)
	}

	latest, err := ReadRun(filepath.Join(store.Dir, LatestName("simple-feature")))
	if err != nil {
		t.Fatalf("read latest link: %v", err)
	}
	if latest.Result.FinalScore != 8.5 {
		t.Errorf("latest FinalScore = %v, want 8.5", latest.Result.FinalScore)
	}
}

func TestLatestFollowsNewestRun(t *testing.T) {
	t.Parallel()

	store := &Store{Dir: t.TempDir()}
	base := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

	if _, err := store.SaveRun(testRun("bugfix", "claude", 6.0, base)); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if _, err := store.SaveRun(testRun("bugfix", "codex", 7.5, base.Add(time.Minute))); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	latest, err := ReadRun(filepath.Join(store.Dir, LatestName("bugfix")))
	if err != nil {
		t.Fatalf("read latest link: %v", err)
	}
	if latest.Agent != "codex" {
		t.Errorf("latest agent = %q, want codex", latest.Agent)
	}
}

func TestSaveComparisonRepointsLatest(t *testing.T) {
	t.Parallel()

	store := &Store{Dir: t.TempDir()}
	ts := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

	if _, err := store.SaveRun(testRun("refactor", "claude", 8.0, ts)); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	claude := evaluate.Result{FinalScore: 8.0}
	codex := evaluate.Result{FinalScore: 6.5}
	path, err := store.SaveComparison(ComparisonRun{
		Mode:      "mocked",
		Timestamp: ts.Add(time.Second),
		Comparison: evaluate.Comparison{
			Fixture:      "refactor",
			ClaudeResult: &claude,
			CodexResult:  &codex,
			Winner:       "claude",
		},
	})
	if err != nil {
		t.Fatalf("SaveComparison() error = %v", err)
	}
	if !strings.Contains(filepath.Base(path), "refactor-comparison-") {
		t.Errorf("comparison file = %q, want refactor-comparison-<stamp>.json", filepath.Base(path))
	}

	data, err := os.ReadFile(filepath.Join(store.Dir, LatestName("refactor")))
	if err != nil {
		t.Fatalf("read latest link: %v", err)
	}
	if !strings.Contains(string(data), `"winner": "claude"`) {
		t.Errorf("latest link does not point at the comparison:\n%s", data)
	}

	comps, err := store.ListComparisons()
	if err != nil {
		t.Fatalf("ListComparisons() error = %v", err)
	}
	if len(comps) != 1 || comps[0].Comparison.Winner != "claude" {
		t.Errorf("ListComparisons() = %+v, want one comparison won by claude", comps)
	}
}

func TestListRuns(t *testing.T) {
	t.Parallel()

	store := &Store{Dir: t.TempDir()}
	base := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

	// Saved newest first to prove ListRuns sorts by timestamp.
	if _, err := store.SaveRun(testRun("bugfix", "codex", 7.0, base.Add(time.Hour))); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if _, err := store.SaveRun(testRun("simple-feature", "claude", 8.5, base)); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if _, err := store.SaveComparison(ComparisonRun{
		Timestamp:  base.Add(2 * time.Hour),
		Comparison: evaluate.Comparison{Fixture: "bugfix", Winner: "tie"},
	}); err != nil {
		t.Fatalf("SaveComparison() error = %v", err)
	}
	// Foreign files in the directory are ignored.
	if err := os.WriteFile(filepath.Join(store.Dir, "notes.txt"), []byte("scratch"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(store.Dir, "foreign.json"), []byte(`{"hello":1}`), 0644); err != nil {
		t.Fatal(err)
	}

	runs, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("ListRuns() returned %d runs, want 2", len(runs))
	}
	if runs[0].Fixture != "simple-feature" || runs[1].Fixture != "bugfix" {
		t.Errorf("ListRuns() order = %q, %q, want oldest first", runs[0].Fixture, runs[1].Fixture)
	}
}

func TestListRuns_missingDir(t *testing.T) {
	t.Parallel()

	store := &Store{Dir: filepath.Join(t.TempDir(), "never-created")}
	runs, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("ListRuns() = %v, want empty", runs)
	}
}
