// Package evaluate scores generation attempts with an LLM judge: a
// per-attempt evaluator for the four quality dimensions and a meta
// evaluator that synthesizes one result across a full attempt run.
package evaluate

import (
	"context"
	"fmt"
	"math"

	"github.com/arittr/commitment/cli/internal/attempt"
	"github.com/arittr/commitment/cli/internal/judge"
)

// Completer is the judge call used by the evaluators; *judge.Client
// implements it. Tests pass doubles.
type Completer interface {
	Complete(ctx context.Context, messages []judge.Message) (string, error)
}

// Result is the judged summary of one agent's attempts on a fixture.
// SuccessRate and BestAttempt are derived from the attempts themselves;
// the judged fields are FinalScore, ConsistencyScore, ErrorRateImpact
// and Reasoning. BestAttempt is 0 when no attempt succeeded.
type Result struct {
	Attempts         []attempt.Outcome `json:"attempts"`
	FinalScore       float64           `json:"finalScore"`
	ConsistencyScore float64           `json:"consistencyScore"`
	ErrorRateImpact  float64           `json:"errorRateImpact"`
	SuccessRate      string            `json:"successRate"`
	BestAttempt      int               `json:"bestAttempt,omitempty"`
	Reasoning        string            `json:"reasoning"`
}

// Comparison pairs both agents' results on one fixture. Winner is empty
// when only one agent was run.
type Comparison struct {
	Fixture      string  `json:"fixture"`
	ClaudeResult *Result `json:"claudeResult,omitempty"`
	CodexResult  *Result `json:"codexResult,omitempty"`
	Winner       string  `json:"winner,omitempty"`
}

// TieThreshold is the final-score difference at or below which two
// agents tie.
const TieThreshold = 0.5

// DetermineWinner compares final scores. Returns "claude", "codex",
// "tie", or "" when either side is missing.
func DetermineWinner(claude, codex *Result) string {
	if claude == nil || codex == nil {
		return ""
	}
	diff := claude.FinalScore - codex.FinalScore
	if math.Abs(diff) <= TieThreshold {
		return "tie"
	}
	if diff > 0 {
		return "claude"
	}
	return "codex"
}

// FallbackResult builds the result used when the judge call fails: the
// mean of successful overall scores (0 when none succeeded), one point
// of error rate impact per failure, zero consistency, and reasoning
// tagged [FALLBACK] so reports show the score was computed locally.
func FallbackResult(attempts []attempt.Outcome, judgeErr error) Result {
	succ := attempt.Successes(attempts)
	final := 0.0
	if len(succ) > 0 {
		sum := 0.0
		for _, o := range succ {
			sum += o.OverallScore
		}
		final = round1(sum / float64(len(succ)))
	}
	reason := "[FALLBACK] Judge unavailable; finalScore is the mean of successful attempt scores."
	if judgeErr != nil {
		reason = fmt.Sprintf("[FALLBACK] Judge call failed (%v); finalScore is the mean of successful attempt scores.", judgeErr)
	}
	return Result{
		Attempts:         attempts,
		FinalScore:       final,
		ConsistencyScore: 0,
		ErrorRateImpact:  -1.0 * float64(attempt.FailureCount(attempts)),
		SuccessRate:      attempt.SuccessRate(attempts),
		BestAttempt:      attempt.Best(attempts),
		Reasoning:        reason,
	}
}

// round1 rounds to one decimal place, half away from zero.
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
