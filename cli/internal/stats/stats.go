// Package stats aggregates stored evaluation results into per-agent
// summaries: mean final score, attempt reliability, and head-to-head
// win/loss/tie tallies.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/arittr/commitment/cli/internal/attempt"
	"github.com/arittr/commitment/cli/internal/results"
)

// Summary is one agent's aggregate over all stored runs.
type Summary struct {
	Agent          string
	Runs           int
	MeanFinalScore float64
	// Attempts and Successes count individual generation attempts
	// across all runs.
	Attempts  int
	Successes int
	Wins      int
	Losses    int
	Ties      int
}

// SuccessRate formats attempt reliability as a percentage.
func (s Summary) SuccessRate() string {
	if s.Attempts == 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", 100*float64(s.Successes)/float64(s.Attempts))
}

// Aggregate folds runs and comparisons into per-agent summaries, sorted
// by agent name.
func Aggregate(runs []results.Run, comps []results.ComparisonRun) []Summary {
	byAgent := make(map[string]*Summary)
	get := func(agent string) *Summary {
		s, ok := byAgent[agent]
		if !ok {
			s = &Summary{Agent: agent}
			byAgent[agent] = s
		}
		return s
	}

	for _, run := range runs {
		s := get(run.Agent)
		s.Runs++
		s.MeanFinalScore += run.Result.FinalScore
		for _, o := range run.Result.Attempts {
			s.Attempts++
			if o.Status == attempt.StatusSuccess {
				s.Successes++
			}
		}
	}
	for _, s := range byAgent {
		if s.Runs > 0 {
			s.MeanFinalScore = round1(s.MeanFinalScore / float64(s.Runs))
		}
	}

	for _, c := range comps {
		switch c.Comparison.Winner {
		case "claude":
			get("claude").Wins++
			get("codex").Losses++
		case "codex":
			get("codex").Wins++
			get("claude").Losses++
		case "tie":
			get("claude").Ties++
			get("codex").Ties++
		}
	}

	out := make([]Summary, 0, len(byAgent))
	for _, s := range byAgent {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Agent < out[j].Agent })
	return out
}

// Render writes a plain-text table of summaries to w.
func Render(w io.Writer, summaries []Summary) {
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No evaluation results yet. Run: commitment eval")
		return
	}
	fmt.Fprintf(w, "%-10s %5s %6s %9s %5s %6s %5s\n", "AGENT", "RUNS", "FINAL", "ATTEMPTS", "WINS", "LOSSES", "TIES")
	for _, s := range summaries {
		fmt.Fprintf(w, "%-10s %5d %6.1f %9s %5d %6d %5d\n",
			s.Agent, s.Runs, s.MeanFinalScore,
			attemptsCell(s), s.Wins, s.Losses, s.Ties)
	}
}

func attemptsCell(s Summary) string {
	if s.Attempts == 0 {
		return "-"
	}
	return fmt.Sprintf("%d/%d", s.Successes, s.Attempts)
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
