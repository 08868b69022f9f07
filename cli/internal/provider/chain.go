package provider

import (
	"context"
	"errors"
	"strings"
)

// Failure records why one provider in the chain did not produce a message.
type Failure struct {
	Provider string
	Reason   string
}

// ChainError reports that every provider in the chain failed. Failures
// holds the per-provider reasons in chain order.
type ChainError struct {
	Failures []Failure
}

func (e *ChainError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Provider+": "+f.Reason)
	}
	return "all providers failed: " + strings.Join(parts, "; ")
}

// Chain tries providers in order and returns the first success. A provider
// that cannot be constructed, is unavailable, or fails to generate is
// recorded and the next one is tried. There is no per-provider retry.
type Chain struct {
	build func(Config) (Provider, error)
}

// NewChain returns a chain backed by the real provider constructors.
func NewChain() *Chain {
	return &Chain{build: New}
}

// Generate walks configs in order. The first provider that is available
// and produces a valid message wins; its message and name are returned
// and later providers are never constructed. If all fail, the returned
// error is a *ChainError enumerating each provider's failure reason.
func (c *Chain) Generate(ctx context.Context, configs []Config, prompt, dir string) (string, string, error) {
	if len(configs) == 0 {
		return "", "", errors.New("provider chain is empty")
	}
	var failures []Failure
	for _, cfg := range configs {
		p, err := c.build(cfg)
		if err != nil {
			failures = append(failures, Failure{Provider: cfg.Name, Reason: err.Error()})
			continue
		}
		if err := p.CheckAvailability(ctx, dir); err != nil {
			failures = append(failures, Failure{Provider: p.Name(), Reason: err.Error()})
			continue
		}
		msg, err := p.Generate(ctx, prompt, dir)
		if err != nil {
			failures = append(failures, Failure{Provider: p.Name(), Reason: err.Error()})
			continue
		}
		return msg, p.Name(), nil
	}
	return "", "", &ChainError{Failures: failures}
}

// Available reports which of configs can currently serve requests,
// preserving order, along with the reasons the rest cannot.
func (c *Chain) Available(ctx context.Context, configs []Config, dir string) ([]Config, []Failure) {
	var ready []Config
	var failures []Failure
	for _, cfg := range configs {
		p, err := c.build(cfg)
		if err != nil {
			failures = append(failures, Failure{Provider: cfg.Name, Reason: err.Error()})
			continue
		}
		if err := p.CheckAvailability(ctx, dir); err != nil {
			failures = append(failures, Failure{Provider: p.Name(), Reason: err.Error()})
			continue
		}
		ready = append(ready, cfg)
	}
	return ready, failures
}
