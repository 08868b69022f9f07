package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arittr/commitment/cli/internal/cleaner"
	"github.com/arittr/commitment/cli/internal/commitfmt"
)

// Codex invokes the Codex CLI in exec mode with the prompt on stdin. Codex
// output leaks fences and reasoning more often than Claude's, so its Clean
// rejects responses the shared cleaner could not fully resolve.
type Codex struct {
	command string
	args    []string
	timeout time.Duration
}

// NewCodex returns a Codex agent. Zero-value opts select the defaults:
// command "codex" with args ["exec"].
func NewCodex(opts Options) *Codex {
	c := &Codex{
		command: opts.Command,
		args:    opts.Args,
		timeout: opts.Timeout,
	}
	if c.command == "" {
		c.command = "codex"
	}
	if c.args == nil {
		c.args = []string{"exec"}
	}
	return c
}

func (c *Codex) Name() string { return NameCodex }

func (c *Codex) CheckAvailability(ctx context.Context, dir string) error {
	return probe(ctx, c.command, dir)
}

func (c *Codex) Execute(ctx context.Context, prompt, dir string) (string, error) {
	return runCLI(ctx, dir, c.timeout, prompt, c.command, c.args...)
}

// Clean applies the shared cleaner, then fails on artifacts that survived:
// marker debris (truncated or unpaired markers), an unbalanced code fence,
// or an unterminated thinking tag.
func (c *Codex) Clean(raw string) (string, error) {
	out := cleaner.Clean(raw)
	switch {
	case strings.Contains(out, "COMMIT_MESSAGE"):
		return "", fmt.Errorf("failed to clean response: commit message marker left in output")
	case strings.Contains(out, "```"):
		return "", fmt.Errorf("failed to clean response: markdown code block left in output")
	case strings.Contains(strings.ToLower(out), "<thinking>"):
		return "", fmt.Errorf("failed to clean response: thinking section left in output")
	}
	return out, nil
}

func (c *Codex) Validate(message string) error {
	return commitfmt.Validate(message)
}
