// Package agent defines the contract for one external AI CLI tool (Claude,
// Codex) and the fixed generation pipeline every variant runs through.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrCLINotFound indicates the agent's CLI binary is not on PATH. The
// message wording is part of the failure taxonomy; failure.Categorize maps
// it to an API error.
var ErrCLINotFound = errors.New("CLI not found in PATH")

// Built-in agent names, as accepted by --agent flags and config.
const (
	NameClaude = "claude"
	NameCodex  = "codex"
)

// Agent wraps one external AI CLI tool. Implementations differ in how the
// prompt is delivered (argument vs stdin) and how strictly responses are
// cleaned; the pipeline order is fixed by Generate.
type Agent interface {
	// Name returns the agent's short name (e.g. "claude").
	Name() string
	// CheckAvailability reports whether the underlying CLI can be invoked
	// from dir. Returns an error wrapping ErrCLINotFound when the binary is
	// not on PATH; other probe failures surface unchanged.
	CheckAvailability(ctx context.Context, dir string) error
	// Execute spawns the CLI with the prompt in dir and returns raw stdout.
	Execute(ctx context.Context, prompt, dir string) (string, error)
	// Clean normalizes a raw response into a candidate commit message.
	// Variants may fail when cleaning leaves unresolved artifacts.
	Clean(raw string) (string, error)
	// Validate rejects messages that do not match the Conventional Commits
	// format.
	Validate(message string) error
}

// Generate runs the fixed pipeline for one agent: Execute, then Clean, then
// Validate, returning the cleaned message. The order is load-bearing:
// cleaning only sees raw output and validation only sees cleaned output.
// Any step's failure propagates unchanged.
func Generate(ctx context.Context, a Agent, prompt, dir string) (string, error) {
	raw, err := a.Execute(ctx, prompt, dir)
	if err != nil {
		return "", err
	}
	msg, err := a.Clean(raw)
	if err != nil {
		return "", err
	}
	if err := a.Validate(msg); err != nil {
		return "", err
	}
	return msg, nil
}

// Options carries per-agent invocation settings from config. Zero values
// select the variant's defaults.
type Options struct {
	Command string        // CLI binary; default per variant
	Args    []string      // arguments before the prompt; default per variant
	Timeout time.Duration // per-invocation limit; 0 = caller's context only
}

// New returns the named built-in agent configured with opts.
func New(name string, opts Options) (Agent, error) {
	switch name {
	case NameClaude:
		return NewClaude(opts), nil
	case NameCodex:
		return NewCodex(opts), nil
	default:
		return nil, fmt.Errorf("unknown agent %q (supported: %s, %s)", name, NameClaude, NameCodex)
	}
}

// Known reports whether name is a built-in agent name.
func Known(name string) bool {
	return name == NameClaude || name == NameCodex
}

// Names returns the built-in agent names in display order.
func Names() []string {
	return []string{NameClaude, NameCodex}
}
