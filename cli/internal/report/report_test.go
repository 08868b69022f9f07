package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/arittr/commitment/cli/internal/attempt"
	"github.com/arittr/commitment/cli/internal/evaluate"
)

func TestMain(m *testing.M) {
	color.NoColor = true // keep console output assertable
	os.Exit(m.Run())
}

func sampleResult() *evaluate.Result {
	return &evaluate.Result{
		Attempts: []attempt.Outcome{
			{Status: attempt.StatusSuccess, AttemptNumber: 1, CommitMessage: "feat: add parser\n\nbody", OverallScore: 8.0, ResponseTimeMs: 1200},
			{Status: attempt.StatusFailure, AttemptNumber: 2, FailureType: "validation", FailureReason: "invalid conventional commit format", ResponseTimeMs: 900},
			{Status: attempt.StatusSuccess, AttemptNumber: 3, CommitMessage: "feat: add diff parser", OverallScore: 9.3, ResponseTimeMs: 1100},
		},
		FinalScore:       8.4,
		ConsistencyScore: 7.0,
		ErrorRateImpact:  -1.0,
		SuccessRate:      "2/3",
		BestAttempt:      3,
		Reasoning:        "Two strong attempts with one format slip.",
	}
}

func TestConsole_attemptLines(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	r := sampleResult()

	c.FixtureStarted("feature-add", []string{"claude"})
	c.AttemptStarted("claude", 1, attempt.PerRun)
	for _, o := range r.Attempts {
		c.AttemptFinished("claude", o)
	}
	c.AgentEvaluated("claude", *r)

	out := buf.String()
	for _, want := range []string{
		"== feature-add ==",
		"attempt 1/3",
		"attempt 1 ok (8.0, 1200ms): feat: add parser",
		"attempt 2 failed (validation, 900ms)",
		"final 8.4",
		"success 2/3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("console output missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "body") {
		t.Error("console printed the message body; want first line only")
	}
}

func TestConsole_winner(t *testing.T) {
	cases := []struct {
		winner string
		want   string
	}{
		{"claude", "winner: claude"},
		{"tie", "result: tie"},
		{"", ""},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		NewConsole(&buf).WinnerDecided(evaluate.Comparison{Fixture: "f", Winner: tc.winner})
		if tc.want == "" {
			if buf.Len() != 0 {
				t.Errorf("winner %q: got output %q, want none", tc.winner, buf.String())
			}
			continue
		}
		if !strings.Contains(buf.String(), tc.want) {
			t.Errorf("winner %q: output %q missing %q", tc.winner, buf.String(), tc.want)
		}
	}
}

func TestMarkdown_comparison(t *testing.T) {
	t.Parallel()
	comp := evaluate.Comparison{
		Fixture:      "feature-add",
		ClaudeResult: sampleResult(),
		CodexResult: &evaluate.Result{
			Attempts: []attempt.Outcome{
				{Status: attempt.StatusFailure, AttemptNumber: 1, FailureType: "api_error", FailureReason: "codex: CLI not found | in PATH", ResponseTimeMs: 10},
				{Status: attempt.StatusFailure, AttemptNumber: 2, FailureType: "api_error", FailureReason: "codex: CLI not found in PATH", ResponseTimeMs: 8},
				{Status: attempt.StatusFailure, AttemptNumber: 3, FailureType: "api_error", FailureReason: "codex: CLI not found in PATH", ResponseTimeMs: 9},
			},
			FinalScore:  0,
			SuccessRate: "0/3",
			Reasoning:   "[FALLBACK] Judge unavailable; finalScore is the mean of successful attempt scores.",
		},
		Winner: "claude",
	}
	md := Markdown(comp, "mocked", time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))

	for _, want := range []string{
		"# Evaluation Report: feature-add",
		"- Mode: mocked",
		"- Winner: **claude**",
		"## claude",
		"## codex",
		"| 3 | success (best) | 9.3 |",
		"| 1 | api_error | - |",
		"## Comparison",
		"| claude | 8.4 | 7.0 | -1.0 | 2/3 |",
		"[FALLBACK]",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
	if strings.Contains(md, "found | in") {
		t.Error("pipe in failure reason not escaped")
	}
}

func TestMarkdown_singleAgentHasNoComparison(t *testing.T) {
	t.Parallel()
	md := Markdown(evaluate.Comparison{Fixture: "f", ClaudeResult: sampleResult()}, "live", time.Now())
	if strings.Contains(md, "## Comparison") {
		t.Error("single-agent report contains a comparison section")
	}
	if strings.Contains(md, "Winner") {
		t.Error("single-agent report names a winner")
	}
}

func TestWriteMarkdown(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "results")
	ts := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	path, err := WriteMarkdown(dir, "# report\n", ts)
	if err != nil {
		t.Fatalf("WriteMarkdown: %v", err)
	}
	if got, want := filepath.Base(path), "report-20260830-120000.md"; got != want {
		t.Errorf("path = %q, want %q", got, want)
	}
	for _, p := range []string{path, filepath.Join(dir, LatestReportName)} {
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("read %s: %v", p, err)
		}
		if string(data) != "# report\n" {
			t.Errorf("%s content = %q", p, data)
		}
	}
}
