// Package evalrun orchestrates an evaluation run: load a fixture, run
// the attempt loop for each agent, meta-evaluate, decide the winner, and
// persist JSON results plus a markdown report. Fixtures and agents are
// processed strictly in sequence to keep API load and cost predictable.
package evalrun

import (
	"context"
	"errors"
	"time"

	"github.com/arittr/commitment/cli/internal/agent"
	"github.com/arittr/commitment/cli/internal/attempt"
	"github.com/arittr/commitment/cli/internal/diff"
	"github.com/arittr/commitment/cli/internal/evaluate"
	"github.com/arittr/commitment/cli/internal/fixture"
	"github.com/arittr/commitment/cli/internal/prompt"
	"github.com/arittr/commitment/cli/internal/report"
	"github.com/arittr/commitment/cli/internal/results"
)

// Reporter observes run progress. All methods are optional in the sense
// that a nil Runner.Reporter disables every notification.
type Reporter interface {
	attempt.Reporter
	FixtureStarted(fixture string, agents []string)
	AgentEvaluated(agent string, r evaluate.Result)
	WinnerDecided(c evaluate.Comparison)
}

// Runner coordinates one or more evaluation runs.
type Runner struct {
	FixturesDir string
	// RepoDir is the directory agents execute in, and the source of the
	// changeset in live mode.
	RepoDir string
	Mode    fixture.Mode
	// Judge scores single attempts and the meta evaluation.
	Judge evaluate.Completer
	// Store persists run and comparison JSON; its directory also
	// receives the markdown reports.
	Store    *results.Store
	Reporter Reporter
	// StateDir locates the optional commit prompt override file.
	StateDir string
	// AgentTimeout bounds one CLI invocation. Zero leaves only the
	// caller's context.
	AgentTimeout time.Duration

	// generate is the per-attempt generation step; tests replace it.
	generate func(ctx context.Context, agentName string, fx *fixture.Fixture) (string, error)
	now      func() time.Time
}

// New returns a Runner wired to the real agents.
func New() *Runner {
	r := &Runner{now: time.Now}
	r.generate = r.agentGenerate
	return r
}

// Run evaluates every named agent on one fixture and returns the
// comparison. Per-attempt failures and judge failures are absorbed into
// the results; only fixture loading and persistence can fail the run.
func (r *Runner) Run(ctx context.Context, fixtureName string, agents []string) (evaluate.Comparison, error) {
	fx, err := fixture.Load(ctx, r.FixturesDir, fixtureName, r.Mode, r.RepoDir)
	if err != nil {
		return evaluate.Comparison{}, err
	}
	r.notifyFixture(fx.Name, agents)

	comp := evaluate.Comparison{Fixture: fx.Name}
	ts := r.timestamp()
	for _, name := range agents {
		res := r.evaluateAgent(ctx, name, fx)
		r.notifyAgent(name, res)
		if _, err := r.Store.SaveRun(results.Run{
			Fixture:   fx.Name,
			Agent:     name,
			Mode:      string(r.Mode),
			Timestamp: ts,
			Result:    res,
		}); err != nil {
			return evaluate.Comparison{}, err
		}
		switch name {
		case agent.NameClaude:
			comp.ClaudeResult = &res
		case agent.NameCodex:
			comp.CodexResult = &res
		}
	}

	comp.Winner = evaluate.DetermineWinner(comp.ClaudeResult, comp.CodexResult)
	if comp.ClaudeResult != nil && comp.CodexResult != nil {
		if _, err := r.Store.SaveComparison(results.ComparisonRun{
			Mode:       string(r.Mode),
			Timestamp:  ts,
			Comparison: comp,
		}); err != nil {
			return evaluate.Comparison{}, err
		}
	}
	if _, err := report.WriteMarkdown(r.Store.Dir, report.Markdown(comp, string(r.Mode), ts), ts); err != nil {
		return evaluate.Comparison{}, err
	}
	r.notifyWinner(comp)
	return comp, nil
}

// RunAll evaluates every fixture under FixturesDir in name order.
func (r *Runner) RunAll(ctx context.Context, agents []string) ([]evaluate.Comparison, error) {
	fixtures, err := fixture.List(r.FixturesDir)
	if err != nil {
		return nil, err
	}
	if len(fixtures) == 0 {
		return nil, errors.New("no fixtures found in " + r.FixturesDir)
	}
	var comps []evaluate.Comparison
	for _, md := range fixtures {
		comp, err := r.Run(ctx, md.Name, agents)
		if err != nil {
			return comps, err
		}
		comps = append(comps, comp)
	}
	return comps, nil
}

// evaluateAgent runs the attempt loop and the meta evaluation for one
// agent, applying the local fallback when the judge cannot score the
// run. It never fails: a broken judge degrades the result, it does not
// abort the evaluation.
func (r *Runner) evaluateAgent(ctx context.Context, name string, fx *fixture.Fixture) evaluate.Result {
	single := &evaluate.Single{Judge: r.Judge}
	runner := &attempt.Runner{
		Agent: name,
		Generate: func(ctx context.Context) (string, error) {
			return r.generateFor(ctx, name, fx)
		},
		Evaluate: func(ctx context.Context, msg string) (attempt.Metrics, float64, error) {
			return single.Evaluate(ctx, msg, fx.Diff, fx.Name)
		},
		Reporter: r.attemptReporter(),
	}
	outcomes := runner.Run(ctx)

	meta := &evaluate.Meta{Judge: r.Judge, Agent: name}
	res, err := meta.Evaluate(ctx, outcomes, fx.Diff, fx.Name)
	if err != nil {
		return evaluate.FallbackResult(outcomes, err)
	}
	return res
}

func (r *Runner) generateFor(ctx context.Context, name string, fx *fixture.Fixture) (string, error) {
	if r.generate == nil {
		r.generate = r.agentGenerate
	}
	return r.generate(ctx, name, fx)
}

// agentGenerate is the real generation step: build the commit prompt
// from the fixture's changeset and run the named agent's pipeline.
func (r *Runner) agentGenerate(ctx context.Context, name string, fx *fixture.Fixture) (string, error) {
	a, err := agent.New(name, agent.Options{Timeout: r.AgentTimeout})
	if err != nil {
		return "", err
	}
	sys, err := prompt.SystemPrompt(r.StateDir)
	if err != nil {
		return "", err
	}
	// The expected type stays out of the prompt; it would tip the agent
	// off about the answer the judge is looking for.
	user := prompt.User(prompt.Input{
		Title:  fx.Description,
		Status: fx.Status,
		Diff:   diff.Truncate(fx.Diff, diff.DefaultTruncateLimit),
	})
	return agent.Generate(ctx, a, sys+"\n\n"+user, r.RepoDir)
}

func (r *Runner) attemptReporter() attempt.Reporter {
	if r.Reporter == nil {
		return nil
	}
	return r.Reporter
}

func (r *Runner) notifyFixture(name string, agents []string) {
	if r.Reporter != nil {
		r.Reporter.FixtureStarted(name, agents)
	}
}

func (r *Runner) notifyAgent(name string, res evaluate.Result) {
	if r.Reporter != nil {
		r.Reporter.AgentEvaluated(name, res)
	}
}

func (r *Runner) notifyWinner(comp evaluate.Comparison) {
	if r.Reporter != nil {
		r.Reporter.WinnerDecided(comp)
	}
}

func (r *Runner) timestamp() time.Time {
	if r.now == nil {
		r.now = time.Now
	}
	return r.now()
}
