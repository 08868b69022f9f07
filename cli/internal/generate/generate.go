// Package generate produces conventional commit messages for staged
// changes, preferring the configured AI providers and degrading to a
// rule-based message when none can serve.
package generate

import (
	"context"
	"fmt"

	"github.com/arittr/commitment/cli/internal/agent"
	"github.com/arittr/commitment/cli/internal/diff"
	"github.com/arittr/commitment/cli/internal/git"
	"github.com/arittr/commitment/cli/internal/prompt"
	"github.com/arittr/commitment/cli/internal/provider"
	"github.com/arittr/commitment/cli/internal/tokens"
	"github.com/arittr/commitment/cli/internal/trace"
)

// Task names the change being committed. All fields are optional; an
// empty Task still yields a message from the changeset alone.
type Task struct {
	Title       string
	Description string
	Files       []string
}

// Changeset is the git context embedded in the prompt.
type Changeset struct {
	Status string
	Diff   string
}

// Options control a single generation run.
type Options struct {
	// Dir is the repository directory. The changeset is collected from
	// it unless Changeset is set.
	Dir string
	// Agent restricts generation to the named agent instead of the
	// full provider chain.
	Agent string
	// DisableAI skips providers entirely and uses the rule-based message.
	DisableAI bool
	// Changeset supplies pre-recorded git context (mocked fixtures).
	Changeset *Changeset
}

// Result describes how a message was produced.
type Result struct {
	Message string
	// Agent is the provider that produced Message; empty when Fallback.
	Agent string
	// Fallback reports that the rule-based path produced Message.
	Fallback bool
	// FallbackReason explains why providers were skipped or failed.
	FallbackReason string
}

// GeneratorError wraps failures that prevent producing any message at
// all. With the rule-based fallback in place this is reachable only
// through construction errors such as an unknown agent name.
type GeneratorError struct {
	Err error
}

func (e *GeneratorError) Error() string { return "generate commit message: " + e.Err.Error() }

func (e *GeneratorError) Unwrap() error { return e.Err }

// Generator holds the provider chain and prompt settings for one run.
// The zero value generates rule-based messages only.
type Generator struct {
	// Providers is the fallback order. Empty means rule-based only.
	Providers []provider.Config
	// StateDir locates the optional commit prompt override file.
	StateDir string
	// ContextLimit and WarnThreshold trace a warning when the prompt
	// approaches the model context budget. Zero limit disables.
	ContextLimit  int
	WarnThreshold float64
	// TruncateLimit caps the diff embedded in the prompt. Zero means
	// diff.DefaultTruncateLimit.
	TruncateLimit int
	// Trace receives step output; nil disables tracing.
	Trace *trace.Tracer

	chain     *provider.Chain
	changeset func(ctx context.Context, dir string) (Changeset, error)
}

// New returns a Generator over the given provider order.
func New(providers []provider.Config) *Generator {
	return &Generator{
		Providers: providers,
		chain:     provider.NewChain(),
		changeset: liveChangeset,
	}
}

// Message produces a commit message for task. Providers are tried in
// order; when none is configured, none is available, or every attempt
// fails, the rule-based message is returned instead so callers always
// get something committable. Only changeset collection and construction
// errors (unknown agent) fail the call.
func (g *Generator) Message(ctx context.Context, task Task, opts Options) (Result, error) {
	var cs Changeset
	switch {
	case opts.Changeset != nil:
		cs = *opts.Changeset
	case opts.Dir != "":
		collected, err := g.collect(ctx, opts.Dir)
		if err != nil {
			return Result{}, err
		}
		cs = collected
	}
	task = fillFiles(task, cs)

	configs, err := g.resolveProviders(opts.Agent)
	if err != nil {
		return Result{}, err
	}
	if opts.DisableAI || len(configs) == 0 {
		g.Trace.Printf("[commitment:trace] AI generation disabled, using rule-based message\n")
		return fallbackResult(task, "AI generation disabled"), nil
	}

	p, err := g.buildPrompt(task, cs)
	if err != nil {
		return Result{}, err
	}

	g.Trace.Section("generate")
	msg, name, err := g.chainFor().Generate(ctx, configs, p, opts.Dir)
	if err != nil {
		g.Trace.Printf("[commitment:trace] AI generation failed, using rule-based message: %v\n", err)
		return fallbackResult(task, err.Error()), nil
	}
	g.Trace.Printf("[commitment:trace] message generated by %s\n", name)
	return Result{Message: msg, Agent: name}, nil
}

// Available reports the configured providers that can currently serve
// requests, with the reasons the rest cannot.
func (g *Generator) Available(ctx context.Context, dir string) ([]provider.Config, []provider.Failure) {
	return g.chainFor().Available(ctx, g.Providers, dir)
}

func (g *Generator) resolveProviders(agentName string) ([]provider.Config, error) {
	if agentName == "" {
		return g.Providers, nil
	}
	for _, cfg := range g.Providers {
		if cfg.Name == agentName {
			return []provider.Config{cfg}, nil
		}
	}
	if agent.Known(agentName) {
		return []provider.Config{{Type: provider.TypeCLI, Name: agentName}}, nil
	}
	return nil, &GeneratorError{Err: fmt.Errorf("unknown agent %q", agentName)}
}

func (g *Generator) buildPrompt(task Task, cs Changeset) (string, error) {
	sys, err := prompt.SystemPrompt(g.StateDir)
	if err != nil {
		return "", err
	}
	limit := g.TruncateLimit
	if limit == 0 {
		limit = diff.DefaultTruncateLimit
	}
	user := prompt.User(prompt.Input{
		Title:       task.Title,
		Description: task.Description,
		Files:       task.Files,
		Status:      cs.Status,
		Diff:        diff.Truncate(cs.Diff, limit),
	})
	full := sys + "\n\n" + user
	if warn := tokens.WarnIfOver(tokens.Estimate(full), tokens.DefaultResponseReserve, g.ContextLimit, g.WarnThreshold); warn != "" {
		g.Trace.Printf("[commitment:trace] %s\n", warn)
	}
	return full, nil
}

func (g *Generator) chainFor() *provider.Chain {
	if g.chain == nil {
		g.chain = provider.NewChain()
	}
	return g.chain
}

func (g *Generator) collect(ctx context.Context, dir string) (Changeset, error) {
	if g.changeset == nil {
		g.changeset = liveChangeset
	}
	return g.changeset(ctx, dir)
}

func liveChangeset(ctx context.Context, dir string) (Changeset, error) {
	root, err := git.Root(dir)
	if err != nil {
		return Changeset{}, err
	}
	status, err := git.StatusPorcelain(ctx, root)
	if err != nil {
		return Changeset{}, err
	}
	staged, err := git.StagedDiff(ctx, root)
	if err != nil {
		return Changeset{}, err
	}
	return Changeset{Status: status, Diff: staged}, nil
}

// fillFiles derives the file list from the diff when the task has none.
func fillFiles(task Task, cs Changeset) Task {
	if len(task.Files) > 0 {
		return task
	}
	changes, err := diff.Parse(cs.Diff)
	if err != nil || len(changes) == 0 {
		return task
	}
	task.Files = diff.Paths(changes)
	return task
}

func fallbackResult(task Task, reason string) Result {
	return Result{Message: RuleBased(task), Fallback: true, FallbackReason: reason}
}
