package agent

import (
	"context"
	"time"

	"github.com/arittr/commitment/cli/internal/cleaner"
	"github.com/arittr/commitment/cli/internal/commitfmt"
)

// Claude invokes the Claude CLI in print mode, passing the prompt as the
// final argument after -p.
type Claude struct {
	command string
	args    []string
	timeout time.Duration
}

// NewClaude returns a Claude agent. Zero-value opts select the defaults:
// command "claude" with args ["-p"].
func NewClaude(opts Options) *Claude {
	c := &Claude{
		command: opts.Command,
		args:    opts.Args,
		timeout: opts.Timeout,
	}
	if c.command == "" {
		c.command = "claude"
	}
	if c.args == nil {
		c.args = []string{"-p"}
	}
	return c
}

func (c *Claude) Name() string { return NameClaude }

func (c *Claude) CheckAvailability(ctx context.Context, dir string) error {
	return probe(ctx, c.command, dir)
}

func (c *Claude) Execute(ctx context.Context, prompt, dir string) (string, error) {
	args := make([]string, 0, len(c.args)+1)
	args = append(args, c.args...)
	args = append(args, prompt)
	return runCLI(ctx, dir, c.timeout, "", c.command, args...)
}

func (c *Claude) Clean(raw string) (string, error) {
	return cleaner.Clean(raw), nil
}

func (c *Claude) Validate(message string) error {
	return commitfmt.Validate(message)
}
