package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arittr/commitment/cli/internal/attempt"
	"github.com/arittr/commitment/cli/internal/erruser"
	"github.com/arittr/commitment/cli/internal/evaluate"
)

const stampLayout = "20060102-150405"

// LatestReportName is the stable filename repointed at every run.
const LatestReportName = "latest-report.md"

// Markdown renders the full evaluation summary for one comparison.
func Markdown(comp evaluate.Comparison, mode string, ts time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Evaluation Report: %s\n\n", comp.Fixture)
	fmt.Fprintf(&b, "- Mode: %s\n", mode)
	fmt.Fprintf(&b, "- Generated: %s\n", ts.Format(time.RFC3339))
	if comp.Winner != "" {
		fmt.Fprintf(&b, "- Winner: **%s**\n", comp.Winner)
	}
	b.WriteString("\n")

	if comp.ClaudeResult != nil {
		writeAgentSection(&b, "claude", comp.ClaudeResult)
	}
	if comp.CodexResult != nil {
		writeAgentSection(&b, "codex", comp.CodexResult)
	}

	if comp.ClaudeResult != nil && comp.CodexResult != nil {
		b.WriteString("## Comparison\n\n")
		b.WriteString("| Agent | Final | Consistency | Error impact | Success |\n")
		b.WriteString("|---|---|---|---|---|\n")
		writeComparisonRow(&b, "claude", comp.ClaudeResult)
		writeComparisonRow(&b, "codex", comp.CodexResult)
		b.WriteString("\n")
		if comp.Winner == "tie" {
			fmt.Fprintf(&b, "Final scores are within %.1f points of each other.\n", evaluate.TieThreshold)
		}
	}
	return b.String()
}

func writeAgentSection(b *strings.Builder, agent string, r *evaluate.Result) {
	fmt.Fprintf(b, "## %s\n\n", agent)
	fmt.Fprintf(b, "Final score %.1f | consistency %.1f | error impact %.1f | success %s\n\n",
		r.FinalScore, r.ConsistencyScore, r.ErrorRateImpact, r.SuccessRate)

	b.WriteString("| # | Status | Score | Time | Message / failure |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, o := range r.Attempts {
		marker := ""
		if o.AttemptNumber == r.BestAttempt {
			marker = " (best)"
		}
		if o.Status == attempt.StatusSuccess {
			fmt.Fprintf(b, "| %d | success%s | %.1f | %dms | %s |\n",
				o.AttemptNumber, marker, o.OverallScore, o.ResponseTimeMs, mdCell(firstLine(o.CommitMessage)))
		} else {
			fmt.Fprintf(b, "| %d | %s | - | %dms | %s |\n",
				o.AttemptNumber, o.FailureType, o.ResponseTimeMs, mdCell(o.FailureReason))
		}
	}
	fmt.Fprintf(b, "\n%s\n\n", r.Reasoning)
}

func writeComparisonRow(b *strings.Builder, agent string, r *evaluate.Result) {
	fmt.Fprintf(b, "| %s | %.1f | %.1f | %.1f | %s |\n",
		agent, r.FinalScore, r.ConsistencyScore, r.ErrorRateImpact, r.SuccessRate)
}

// mdCell escapes pipes so free text cannot break the table.
func mdCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

// WriteMarkdown stores content as report-<stamp>.md under dir and
// rewrites latest-report.md with the same content. Returns the stamped
// file path.
func WriteMarkdown(dir, content string, ts time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", erruser.New("Could not create the results directory.", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("report-%s.md", ts.Format(stampLayout)))
	for _, p := range []string{path, filepath.Join(dir, LatestReportName)} {
		if err := writeFileAtomic(p, []byte(content)); err != nil {
			return "", erruser.New("Could not write the evaluation report.", err)
		}
	}
	return path, nil
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
