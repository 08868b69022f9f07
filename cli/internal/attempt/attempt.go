// Package attempt runs the fixed three-attempt generation loop that
// feeds evaluation. Attempts are independent: a failure is recorded as
// data and the loop continues, so an agent's reliability is measured
// alongside its best-case quality.
package attempt

import (
	"context"
	"fmt"
	"time"

	"github.com/arittr/commitment/cli/internal/failure"
)

// PerRun is the number of generation attempts per agent and fixture.
const PerRun = 3

// Status tags an Outcome.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Metrics holds the four judged dimensions, each in [0,10].
type Metrics struct {
	Clarity            float64 `json:"clarity"`
	Specificity        float64 `json:"specificity"`
	ConventionalFormat float64 `json:"conventionalFormat"`
	Scope              float64 `json:"scope"`
}

// Outcome records one attempt. Success populates CommitMessage, Metrics
// and OverallScore; Failure populates FailureType and FailureReason.
// AttemptNumber runs 1..PerRun and is unique within a run.
type Outcome struct {
	Status         Status       `json:"status"`
	AttemptNumber  int          `json:"attemptNumber"`
	CommitMessage  string       `json:"commitMessage,omitempty"`
	Metrics        *Metrics     `json:"metrics,omitempty"`
	OverallScore   float64      `json:"overallScore,omitempty"`
	FailureType    failure.Kind `json:"failureType,omitempty"`
	FailureReason  string       `json:"failureReason,omitempty"`
	ResponseTimeMs int64        `json:"responseTimeMs"`
}

// Reporter observes attempt progress. Implementations print progress or
// collect events; a nil Reporter on the Runner disables notifications.
type Reporter interface {
	AttemptStarted(agent string, number, total int)
	AttemptFinished(agent string, outcome Outcome)
}

// Runner executes the attempt loop for one agent and fixture pair.
// Generate produces a commit message and Evaluate scores it; both are
// called once per attempt, sequentially, to keep API load predictable.
type Runner struct {
	Agent    string
	Generate func(ctx context.Context) (string, error)
	Evaluate func(ctx context.Context, commitMessage string) (Metrics, float64, error)
	Reporter Reporter
}

// Run performs exactly PerRun attempts and returns one Outcome per
// attempt, numbered contiguously from 1. Failures from generation or
// evaluation never abort the loop; each is categorized and recorded.
func (r *Runner) Run(ctx context.Context) []Outcome {
	outcomes := make([]Outcome, 0, PerRun)
	for n := 1; n <= PerRun; n++ {
		if r.Reporter != nil {
			r.Reporter.AttemptStarted(r.Agent, n, PerRun)
		}
		start := time.Now()
		o := r.attempt(ctx)
		o.AttemptNumber = n
		o.ResponseTimeMs = time.Since(start).Milliseconds()
		if r.Reporter != nil {
			r.Reporter.AttemptFinished(r.Agent, o)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes
}

func (r *Runner) attempt(ctx context.Context) Outcome {
	msg, err := r.Generate(ctx)
	if err != nil {
		return failureOutcome(err)
	}
	metrics, score, err := r.Evaluate(ctx, msg)
	if err != nil {
		return failureOutcome(err)
	}
	return Outcome{
		Status:        StatusSuccess,
		CommitMessage: msg,
		Metrics:       &metrics,
		OverallScore:  score,
	}
}

func failureOutcome(err error) Outcome {
	return Outcome{
		Status:        StatusFailure,
		FailureType:   failure.Categorize(err),
		FailureReason: err.Error(),
	}
}

// Successes returns the success outcomes in attempt order.
func Successes(outcomes []Outcome) []Outcome {
	var ok []Outcome
	for _, o := range outcomes {
		if o.Status == StatusSuccess {
			ok = append(ok, o)
		}
	}
	return ok
}

// FailureCount returns the number of failed outcomes.
func FailureCount(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Status == StatusFailure {
			n++
		}
	}
	return n
}

// SuccessRate formats the success count as "N/M" over all outcomes.
func SuccessRate(outcomes []Outcome) string {
	return fmt.Sprintf("%d/%d", len(Successes(outcomes)), len(outcomes))
}

// Best returns the attempt number of the highest-scoring success, the
// first on ties, or 0 when no attempt succeeded.
func Best(outcomes []Outcome) int {
	best := 0
	bestScore := -1.0
	for _, o := range outcomes {
		if o.Status != StatusSuccess {
			continue
		}
		if o.OverallScore > bestScore {
			best = o.AttemptNumber
			bestScore = o.OverallScore
		}
	}
	return best
}
