package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// fakeProvider scripts availability and generation outcomes and records
// whether Generate was reached.
type fakeProvider struct {
	name         string
	availErr     error
	generateMsg  string
	generateErr  error
	generateRuns int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) CheckAvailability(ctx context.Context, dir string) error {
	return f.availErr
}

func (f *fakeProvider) Generate(ctx context.Context, prompt, dir string) (string, error) {
	f.generateRuns++
	return f.generateMsg, f.generateErr
}

func chainOf(fakes ...*fakeProvider) (*Chain, []Config) {
	byName := make(map[string]*fakeProvider, len(fakes))
	configs := make([]Config, 0, len(fakes))
	for _, f := range fakes {
		byName[f.name] = f
		configs = append(configs, Config{Type: TypeCLI, Name: f.name})
	}
	c := &Chain{build: func(cfg Config) (Provider, error) {
		p, ok := byName[cfg.Name]
		if !ok {
			return nil, fmt.Errorf("no fake for %q", cfg.Name)
		}
		return p, nil
	}}
	return c, configs
}

func TestChainGenerate_firstSuccessWins(t *testing.T) {
	t.Parallel()
	a := &fakeProvider{name: "a", generateMsg: "feat: from a"}
	b := &fakeProvider{name: "b", generateMsg: "feat: from b"}
	c, configs := chainOf(a, b)

	got, name, err := c.Generate(context.Background(), configs, "prompt", ".")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "feat: from a" {
		t.Errorf("message = %q, want %q", got, "feat: from a")
	}
	if name != "a" {
		t.Errorf("winner = %q, want a", name)
	}
	if b.generateRuns != 0 {
		t.Errorf("second provider ran %d times, want 0", b.generateRuns)
	}
}

func TestChainGenerate_fallsBackAfterFailure(t *testing.T) {
	t.Parallel()
	a := &fakeProvider{name: "a", generateErr: errors.New("claude execution failed")}
	b := &fakeProvider{name: "b", generateMsg: "fix: from b"}
	c, configs := chainOf(a, b)

	got, name, err := c.Generate(context.Background(), configs, "prompt", ".")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "fix: from b" {
		t.Errorf("message = %q, want %q", got, "fix: from b")
	}
	if name != "b" {
		t.Errorf("winner = %q, want b", name)
	}
}

func TestChainGenerate_skipsUnavailableProvider(t *testing.T) {
	t.Parallel()
	a := &fakeProvider{name: "a", availErr: errors.New("CLI not found in PATH")}
	b := &fakeProvider{name: "b", generateMsg: "chore: from b"}
	c, configs := chainOf(a, b)

	got, name, err := c.Generate(context.Background(), configs, "prompt", ".")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "chore: from b" {
		t.Errorf("message = %q, want %q", got, "chore: from b")
	}
	if name != "b" {
		t.Errorf("winner = %q, want b", name)
	}
	if a.generateRuns != 0 {
		t.Errorf("unavailable provider ran Generate %d times, want 0", a.generateRuns)
	}
}

func TestChainGenerate_allFailEnumeratesReasonsInOrder(t *testing.T) {
	t.Parallel()
	a := &fakeProvider{name: "a", availErr: errors.New("CLI not found in PATH")}
	b := &fakeProvider{name: "b", generateErr: errors.New("codex timed out after 30s")}
	c, configs := chainOf(a, b)

	_, _, err := c.Generate(context.Background(), configs, "prompt", ".")
	if err == nil {
		t.Fatal("Generate succeeded, want error")
	}
	var chainErr *ChainError
	if !errors.As(err, &chainErr) {
		t.Fatalf("error type %T, want *ChainError", err)
	}
	if len(chainErr.Failures) != 2 {
		t.Fatalf("recorded %d failures, want 2", len(chainErr.Failures))
	}
	if chainErr.Failures[0].Provider != "a" || chainErr.Failures[1].Provider != "b" {
		t.Errorf("failure order = %q, %q; want a, b", chainErr.Failures[0].Provider, chainErr.Failures[1].Provider)
	}
	msg := err.Error()
	for _, want := range []string{"all providers failed", "a: CLI not found in PATH", "b: codex timed out after 30s"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q missing %q", msg, want)
		}
	}
	if strings.Index(msg, "a: ") > strings.Index(msg, "b: ") {
		t.Errorf("error %q lists providers out of order", msg)
	}
}

func TestChainGenerate_successAfterFailureDoesNotRaiseEarlierReasons(t *testing.T) {
	t.Parallel()
	a := &fakeProvider{name: "a", generateErr: errors.New("invalid conventional commit format")}
	b := &fakeProvider{name: "b", generateMsg: "docs: from b"}
	c, configs := chainOf(a, b)

	got, name, err := c.Generate(context.Background(), configs, "prompt", ".")
	if err != nil {
		t.Fatalf("Generate returned error despite later success: %v", err)
	}
	if got != "docs: from b" {
		t.Errorf("message = %q, want %q", got, "docs: from b")
	}
	if name != "b" {
		t.Errorf("winner = %q, want b", name)
	}
}

func TestChainGenerate_buildFailureRecordedAndSkipped(t *testing.T) {
	t.Parallel()
	b := &fakeProvider{name: "b", generateMsg: "test: from b"}
	c, configs := chainOf(b)
	configs = append([]Config{{Type: TypeCLI, Name: "mystery"}}, configs...)

	got, name, err := c.Generate(context.Background(), configs, "prompt", ".")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "test: from b" {
		t.Errorf("message = %q, want %q", got, "test: from b")
	}
	if name != "b" {
		t.Errorf("winner = %q, want b", name)
	}
}

func TestChainAvailable(t *testing.T) {
	t.Parallel()
	a := &fakeProvider{name: "a", availErr: errors.New("CLI not found in PATH")}
	b := &fakeProvider{name: "b"}
	c, configs := chainOf(a, b)

	ready, failures := c.Available(context.Background(), configs, ".")
	if len(ready) != 1 || ready[0].Name != "b" {
		t.Fatalf("ready = %+v, want only b", ready)
	}
	if len(failures) != 1 || failures[0].Provider != "a" {
		t.Fatalf("failures = %+v, want only a", failures)
	}
}

func TestChainGenerate_emptyChain(t *testing.T) {
	t.Parallel()
	c := NewChain()
	_, _, err := c.Generate(context.Background(), nil, "prompt", ".")
	if err == nil {
		t.Fatal("Generate on empty chain succeeded, want error")
	}
	if !strings.Contains(err.Error(), "empty") {
		t.Errorf("error %q does not mention empty chain", err)
	}
}
