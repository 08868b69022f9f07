// Package report renders evaluation output: a colored console reporter
// for live progress and a markdown summary written next to the JSON
// results.
package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/arittr/commitment/cli/internal/attempt"
	"github.com/arittr/commitment/cli/internal/evaluate"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	failureColor = color.New(color.FgRed)
	dimColor     = color.New(color.Faint)
	winnerColor  = color.New(color.FgYellow, color.Bold)
)

// Console prints evaluation progress to a terminal. It implements
// attempt.Reporter. Color handling follows the fatih/color global
// NoColor switch, so piped output stays plain.
type Console struct {
	Out io.Writer
}

// NewConsole returns a Console writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{Out: out}
}

// FixtureStarted announces an evaluation run for one fixture.
func (c *Console) FixtureStarted(fixture string, agents []string) {
	headerColor.Fprintf(c.Out, "== %s ==\n", fixture)
	dimColor.Fprintf(c.Out, "agents: %v, %d attempts each\n", agents, attempt.PerRun)
}

// AttemptStarted implements attempt.Reporter.
func (c *Console) AttemptStarted(agent string, number, total int) {
	fmt.Fprintf(c.Out, "[%s] attempt %d/%d...\n", agent, number, total)
}

// AttemptFinished implements attempt.Reporter.
func (c *Console) AttemptFinished(agent string, o attempt.Outcome) {
	if o.Status == attempt.StatusSuccess {
		successColor.Fprintf(c.Out, "[%s] attempt %d ok (%.1f, %dms): %s\n",
			agent, o.AttemptNumber, o.OverallScore, o.ResponseTimeMs, firstLine(o.CommitMessage))
		return
	}
	failureColor.Fprintf(c.Out, "[%s] attempt %d failed (%s, %dms): %s\n",
		agent, o.AttemptNumber, o.FailureType, o.ResponseTimeMs, o.FailureReason)
}

// AgentEvaluated prints the meta-evaluation summary for one agent.
func (c *Console) AgentEvaluated(agent string, r evaluate.Result) {
	fmt.Fprintf(c.Out, "[%s] final %.1f, consistency %.1f, error impact %.1f, success %s\n",
		agent, r.FinalScore, r.ConsistencyScore, r.ErrorRateImpact, r.SuccessRate)
	dimColor.Fprintf(c.Out, "[%s] %s\n", agent, r.Reasoning)
}

// WinnerDecided prints the comparison outcome. A single-agent run (empty
// winner) prints nothing.
func (c *Console) WinnerDecided(comp evaluate.Comparison) {
	switch comp.Winner {
	case "":
	case "tie":
		winnerColor.Fprintf(c.Out, "result: tie (within %.1f points)\n", evaluate.TieThreshold)
	default:
		winnerColor.Fprintf(c.Out, "winner: %s\n", comp.Winner)
	}
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
