package evaluate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/arittr/commitment/cli/internal/attempt"
	"github.com/arittr/commitment/cli/internal/diff"
	"github.com/arittr/commitment/cli/internal/judge"
)

const metaSystemPrompt = "You are an expert evaluator judging an AI agent's commit message generation across multiple attempts. Output only valid JSON."

// Meta synthesizes one Result from a complete attempt run. Agent names
// the agent under evaluation in the judge prompt; empty reads as
// "the agent".
type Meta struct {
	Judge Completer
	Agent string
}

// Evaluate judges all attempts together. It fails before any judge call
// unless exactly attempt.PerRun outcomes are supplied; a judge failure
// propagates unchanged so the caller can apply FallbackResult.
// SuccessRate and BestAttempt come from the attempts, not the judge.
func (m *Meta) Evaluate(ctx context.Context, attempts []attempt.Outcome, diffText, fixtureName string) (Result, error) {
	if len(attempts) != attempt.PerRun {
		return Result{}, fmt.Errorf("meta evaluation requires exactly %d attempts, got %d", attempt.PerRun, len(attempts))
	}

	raw, err := m.Judge.Complete(ctx, []judge.Message{
		{Role: "system", Content: metaSystemPrompt},
		{Role: "user", Content: m.buildPrompt(attempts, diffText, fixtureName)},
	})
	if err != nil {
		return Result{}, err
	}

	obj, err := judge.ExtractJSON(raw)
	if err != nil {
		return Result{}, fmt.Errorf("malformed judge response: %w", err)
	}
	var parsed struct {
		FinalScore       *float64 `json:"finalScore"`
		ConsistencyScore *float64 `json:"consistencyScore"`
		ErrorRateImpact  *float64 `json:"errorRateImpact"`
		Reasoning        string   `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
		return Result{}, fmt.Errorf("malformed judge response: %w", err)
	}

	final, err := scoreField("finalScore", parsed.FinalScore)
	if err != nil {
		return Result{}, err
	}
	consistency, err := scoreField("consistencyScore", parsed.ConsistencyScore)
	if err != nil {
		return Result{}, err
	}
	if parsed.ErrorRateImpact == nil {
		return Result{}, fmt.Errorf("malformed judge response: missing %q", "errorRateImpact")
	}
	if *parsed.ErrorRateImpact > 0 {
		return Result{}, fmt.Errorf("malformed judge response: errorRateImpact = %v, must be <= 0", *parsed.ErrorRateImpact)
	}
	reasoning := strings.TrimSpace(parsed.Reasoning)
	if reasoning == "" {
		return Result{}, fmt.Errorf("malformed judge response: empty reasoning")
	}

	// Consistency across fewer than two successes carries no signal.
	if len(attempt.Successes(attempts)) < 2 {
		consistency = 0
	}

	return Result{
		Attempts:         attempts,
		FinalScore:       final,
		ConsistencyScore: consistency,
		ErrorRateImpact:  *parsed.ErrorRateImpact,
		SuccessRate:      attempt.SuccessRate(attempts),
		BestAttempt:      attempt.Best(attempts),
		Reasoning:        reasoning,
	}, nil
}

func (m *Meta) buildPrompt(attempts []attempt.Outcome, diffText, fixtureName string) string {
	agent := m.Agent
	if agent == "" {
		agent = "the agent"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Judge %d independent commit message generation attempts by %s for the %q change.\n\n",
		len(attempts), agent, fixtureName)
	for _, o := range attempts {
		fmt.Fprintf(&b, "Attempt %d (%s, %dms):\n", o.AttemptNumber, o.Status, o.ResponseTimeMs)
		if o.Status == attempt.StatusSuccess {
			fmt.Fprintf(&b, "  message: %s\n", indentContinuation(o.CommitMessage))
			if o.Metrics != nil {
				fmt.Fprintf(&b, "  scores: clarity %.1f, specificity %.1f, conventionalFormat %.1f, scope %.1f (overall %.1f)\n",
					o.Metrics.Clarity, o.Metrics.Specificity, o.Metrics.ConventionalFormat, o.Metrics.Scope, o.OverallScore)
			}
		} else {
			fmt.Fprintf(&b, "  failureType: %s\n  failureReason: %s\n", o.FailureType, o.FailureReason)
		}
	}
	b.WriteString("\nDiff:\n```\n")
	b.WriteString(diff.Truncate(diffText, maxJudgeDiffChars))
	b.WriteString("\n```\n\nJudge the agent across all attempts:\n")
	b.WriteString("- finalScore (0-10): overall quality weighing both message quality and reliability.\n")
	b.WriteString("- consistencyScore (0-10): how similar the successful messages are to each other.\n")
	b.WriteString("- errorRateImpact (<= 0): penalty for failed attempts; more failures must mean a more negative value, 0 when none failed.\n")
	b.WriteString("- reasoning: a brief explanation, never empty.\n")
	b.WriteString("\nAnswer with a JSON object only: {\"finalScore\": 0-10, \"consistencyScore\": 0-10, \"errorRateImpact\": <=0, \"reasoning\": \"...\"}. No other text.")
	return b.String()
}

// indentContinuation keeps multi-line commit messages aligned under the
// "message:" label in the prompt.
func indentContinuation(s string) string {
	return strings.ReplaceAll(s, "\n", "\n    ")
}
