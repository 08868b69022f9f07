package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/arittr/commitment/cli/internal/provider"
)

func ptrStr(s string) *string { return &s }

func TestDefaultConfig(t *testing.T) {
	t.Parallel()
	c := DefaultConfig()
	if got, want := strings.Join(c.Agents, ","), "claude,codex"; got != want {
		t.Errorf("Agents = %q, want %q", got, want)
	}
	if c.Timeout != _defaultTimeout {
		t.Errorf("Timeout = %v, want %v", c.Timeout, _defaultTimeout)
	}
	if c.FixturesDir != _defaultFixturesDir {
		t.Errorf("FixturesDir = %q, want %q", c.FixturesDir, _defaultFixturesDir)
	}
	if c.ResultsDir != _defaultResultsDir {
		t.Errorf("ResultsDir = %q, want %q", c.ResultsDir, _defaultResultsDir)
	}
	if c.ContextLimit != _defaultContextLimit {
		t.Errorf("ContextLimit = %d, want %d", c.ContextLimit, _defaultContextLimit)
	}
	if c.WarnThreshold != _defaultWarnThreshold {
		t.Errorf("WarnThreshold = %f, want %f", c.WarnThreshold, _defaultWarnThreshold)
	}
	if c.StateDir != "" {
		t.Errorf("StateDir = %q, want empty", c.StateDir)
	}
	if c.DisableAI || c.APIFallback {
		t.Errorf("DisableAI/APIFallback = %v/%v, want false/false", c.DisableAI, c.APIFallback)
	}
}

func TestLoad_defaultsOnly(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfg, err := Load(context.Background(), LoadOptions{
		RepoRoot:         dir,
		GlobalConfigPath: filepath.Join(dir, "nonexistent.toml"),
		Env:              []string{},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := DefaultConfig()
	if cfg.Timeout != want.Timeout || cfg.ContextLimit != want.ContextLimit ||
		cfg.FixturesDir != want.FixturesDir || cfg.ResultsDir != want.ResultsDir {
		t.Errorf("got %+v, want defaults %+v", cfg, want)
	}
}

func TestLoad_repoOverridesGlobal(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	globalPath := filepath.Join(dir, "global.toml")
	writeConfig(t, globalPath, "agents = [\"codex\"]\ntimeout = \"1m\"\njudge_model = \"gpt-4o\"\n")
	repoRoot := filepath.Join(dir, "repo")
	if err := os.MkdirAll(repoRoot, 0755); err != nil {
		t.Fatal(err)
	}
	writeConfig(t, filepath.Join(repoRoot, ".commitment.toml"), "agents = [\"claude\"]\n")

	cfg, err := Load(context.Background(), LoadOptions{
		RepoRoot:         repoRoot,
		GlobalConfigPath: globalPath,
		Env:              []string{},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, want := strings.Join(cfg.Agents, ","), "claude"; got != want {
		t.Errorf("Agents = %q, want %q (repo wins)", got, want)
	}
	if cfg.Timeout != time.Minute {
		t.Errorf("Timeout = %v, want 1m (global kept)", cfg.Timeout)
	}
	if cfg.JudgeModel != "gpt-4o" {
		t.Errorf("JudgeModel = %q, want gpt-4o", cfg.JudgeModel)
	}
}

func TestLoad_envOverridesFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	repoRoot := filepath.Join(dir, "repo")
	if err := os.MkdirAll(repoRoot, 0755); err != nil {
		t.Fatal(err)
	}
	writeConfig(t, filepath.Join(repoRoot, ".commitment.toml"), "timeout = \"1m\"\ndisable_ai = false\n")

	cfg, err := Load(context.Background(), LoadOptions{
		RepoRoot:         repoRoot,
		GlobalConfigPath: filepath.Join(dir, "nonexistent.toml"),
		Env: []string{
			"COMMITMENT_TIMEOUT=90",
			"COMMITMENT_AGENTS=codex , claude",
			"COMMITMENT_DISABLE_AI=yes",
			"OPENAI_API_KEY=sk-test",
		},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timeout != 90*time.Second {
		t.Errorf("Timeout = %v, want 90s (integer seconds)", cfg.Timeout)
	}
	if got, want := strings.Join(cfg.Agents, ","), "codex,claude"; got != want {
		t.Errorf("Agents = %q, want %q", got, want)
	}
	if !cfg.DisableAI {
		t.Error("DisableAI = false, want true from env")
	}
	if cfg.APIKey != "sk-test" {
		t.Errorf("APIKey = %q, want sk-test", cfg.APIKey)
	}
}

func TestLoad_overridesWin(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	to := 10 * time.Second
	cfg, err := Load(context.Background(), LoadOptions{
		RepoRoot:         dir,
		GlobalConfigPath: filepath.Join(dir, "nonexistent.toml"),
		Env:              []string{"COMMITMENT_TIMEOUT=90"},
		Overrides: &Overrides{
			Timeout:  &to,
			StateDir: ptrStr("/tmp/state"),
		},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timeout != to {
		t.Errorf("Timeout = %v, want %v (override wins over env)", cfg.Timeout, to)
	}
	if cfg.StateDir != "/tmp/state" {
		t.Errorf("StateDir = %q, want /tmp/state", cfg.StateDir)
	}
}

func TestLoad_rejectsUnknownAgent(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	_, err := Load(context.Background(), LoadOptions{
		RepoRoot:         dir,
		GlobalConfigPath: filepath.Join(dir, "nonexistent.toml"),
		Env:              []string{"COMMITMENT_AGENTS=gemini"},
	})
	if err == nil {
		t.Fatal("Load accepted unknown agent name")
	}
}

func TestLoad_invalidEnvValues(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		env  string
	}{
		{"bad timeout", "COMMITMENT_TIMEOUT=soon"},
		{"bad context limit", "COMMITMENT_CONTEXT_LIMIT=many"},
		{"bad threshold", "COMMITMENT_WARN_THRESHOLD=high"},
		{"bad bool", "COMMITMENT_DISABLE_AI=maybe"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			_, err := Load(context.Background(), LoadOptions{
				RepoRoot:         dir,
				GlobalConfigPath: filepath.Join(dir, "nonexistent.toml"),
				Env:              []string{tc.env},
			})
			if err == nil {
				t.Errorf("Load accepted %q", tc.env)
			}
		})
	}
}

func TestEffectiveStateDir(t *testing.T) {
	t.Parallel()
	c := Config{}
	if got, want := c.EffectiveStateDir("/repo"), filepath.Join("/repo", ".commitment"); got != want {
		t.Errorf("EffectiveStateDir = %q, want %q", got, want)
	}
	c.StateDir = "/custom"
	if got := c.EffectiveStateDir("/repo"); got != "/custom" {
		t.Errorf("EffectiveStateDir = %q, want /custom", got)
	}
}

func TestProviders_cliOnly(t *testing.T) {
	t.Parallel()
	c := DefaultConfig()
	got := c.Providers()
	if len(got) != 2 {
		t.Fatalf("len(Providers) = %d, want 2", len(got))
	}
	for i, name := range []string{"claude", "codex"} {
		if got[i].Type != provider.TypeCLI || got[i].Name != name {
			t.Errorf("Providers[%d] = %+v, want cli %s", i, got[i], name)
		}
		if got[i].Timeout != c.Timeout {
			t.Errorf("Providers[%d].Timeout = %v, want %v", i, got[i].Timeout, c.Timeout)
		}
	}
}

func TestProviders_apiFallbackNeedsKey(t *testing.T) {
	t.Parallel()
	c := DefaultConfig()
	c.APIFallback = true
	if got := c.Providers(); len(got) != 2 {
		t.Fatalf("len(Providers) = %d without key, want 2", len(got))
	}
	c.APIKey = "sk-test"
	got := c.Providers()
	if len(got) != 3 {
		t.Fatalf("len(Providers) = %d with key, want 3", len(got))
	}
	last := got[2]
	if last.Type != provider.TypeAPI || last.Name != "openai" || last.APIKey != "sk-test" {
		t.Errorf("api provider = %+v", last)
	}
}

func TestParseDuration(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"2m", 2 * time.Minute, false},
		{"30s", 30 * time.Second, false},
		{"45", 45 * time.Second, false},
		{" 5 ", 5 * time.Second, false},
		{"", 0, true},
		{"soon", 0, true},
	}
	for _, tc := range cases {
		got, err := parseDuration(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseDuration(%q) accepted", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseDuration(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseDuration(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
