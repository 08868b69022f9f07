// Package provider implements the ordered fallback chain across commit
// message backends: CLI agents and OpenAI-compatible HTTP APIs.
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/arittr/commitment/cli/internal/agent"
)

// Type discriminates the two provider kinds.
type Type string

const (
	// TypeCLI spawns an installed AI CLI (claude, codex).
	TypeCLI Type = "cli"
	// TypeAPI posts to an OpenAI-compatible chat completions endpoint.
	TypeAPI Type = "api"
)

// Config describes one provider in the chain. Type selects which fields
// apply: CLI providers use Command/Args, API providers use
// APIKey/Endpoint/Model. Timeout applies to both.
type Config struct {
	Type     Type
	Name     string // e.g. "claude", "codex", "openai"
	Command  string
	Args     []string
	APIKey   string
	Endpoint string
	Model    string
	Timeout  time.Duration
}

// Provider generates a validated commit message from a prompt.
type Provider interface {
	Name() string
	// CheckAvailability reports whether the backend can serve requests:
	// binary on PATH for CLI providers, API key configured for API ones.
	CheckAvailability(ctx context.Context, dir string) error
	// Generate produces a cleaned, format-validated commit message.
	Generate(ctx context.Context, prompt, dir string) (string, error)
}

// New constructs the concrete provider for cfg.
func New(cfg Config) (Provider, error) {
	switch cfg.Type {
	case TypeCLI:
		a, err := agent.New(cfg.Name, agent.Options{
			Command: cfg.Command,
			Args:    cfg.Args,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return &cliProvider{agent: a}, nil
	case TypeAPI:
		return newAPIProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown provider type %q", cfg.Type)
	}
}

// cliProvider adapts an agent to the Provider interface.
type cliProvider struct {
	agent agent.Agent
}

func (p *cliProvider) Name() string { return p.agent.Name() }

func (p *cliProvider) CheckAvailability(ctx context.Context, dir string) error {
	return p.agent.CheckAvailability(ctx, dir)
}

func (p *cliProvider) Generate(ctx context.Context, prompt, dir string) (string, error) {
	return agent.Generate(ctx, p.agent, prompt, dir)
}
