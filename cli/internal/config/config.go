// Package config provides commitment configuration with a defined load
// order: CLI flags > environment variables > repo config > global config
// > defaults.
//
// Paths:
//   - Repo: .commitment.toml (at the repo root)
//   - Global: XDG config dir, e.g. ~/.config/commitment/config.toml (see os.UserConfigDir)
//
// Environment variables (override config files when set):
//   - COMMITMENT_AGENTS (comma-separated provider order, e.g. "claude,codex"),
//   - COMMITMENT_TIMEOUT (Go duration string or integer seconds),
//   - COMMITMENT_STATE_DIR, COMMITMENT_FIXTURES_DIR, COMMITMENT_RESULTS_DIR,
//   - COMMITMENT_CONTEXT_LIMIT, COMMITMENT_WARN_THRESHOLD,
//   - COMMITMENT_DISABLE_AI (1/true/yes/on = true, 0/false/no/off = false),
//   - COMMITMENT_API_FALLBACK (append the OpenAI API provider to the chain),
//   - COMMITMENT_OPENAI_BASE_URL, COMMITMENT_OPENAI_MODEL, COMMITMENT_JUDGE_MODEL,
//   - OPENAI_API_KEY (API provider and eval judge credential; never read from files).
package config

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/arittr/commitment/cli/internal/agent"
	"github.com/arittr/commitment/cli/internal/erruser"
	"github.com/arittr/commitment/cli/internal/judge"
	"github.com/arittr/commitment/cli/internal/provider"
)

// Config holds all commitment configuration. Empty string or zero values
// for the directory fields mean "use default behavior" (e.g. .commitment
// in the repo root for StateDir).
type Config struct {
	// Agents is the provider fallback order; each entry is a built-in
	// agent name. Default: claude, codex.
	Agents []string `toml:"agents"`
	// Timeout bounds one agent or API invocation.
	Timeout time.Duration `toml:"timeout"`
	// StateDir holds the prompt override file and generation history.
	StateDir string `toml:"state_dir"`
	// FixturesDir is where eval fixtures live. Default eval/fixtures.
	FixturesDir string `toml:"fixtures_dir"`
	// ResultsDir is where eval results are written. Default eval/results.
	ResultsDir string `toml:"results_dir"`
	// ContextLimit and WarnThreshold control the prompt-size warning.
	ContextLimit  int     `toml:"context_limit"`
	WarnThreshold float64 `toml:"warn_threshold"`
	// DisableAI skips providers entirely and always uses the rule-based
	// message.
	DisableAI bool `toml:"disable_ai"`
	// APIFallback appends the OpenAI API provider after the CLI agents
	// when an API key is configured.
	APIFallback bool `toml:"api_fallback"`
	// OpenAIBaseURL is the endpoint for the API provider and the judge.
	OpenAIBaseURL string `toml:"openai_base_url"`
	// OpenAIModel is the model for the API fallback provider.
	OpenAIModel string `toml:"openai_model"`
	// JudgeModel is the model used to score eval runs.
	JudgeModel string `toml:"judge_model"`
	// APIKey comes from OPENAI_API_KEY only; config files never carry it.
	APIKey string `toml:"-"`
}

// Overrides represents optional CLI flag overrides. Non-nil pointer means
// "override with this value".
type Overrides struct {
	Agents        *[]string
	Timeout       *time.Duration
	StateDir      *string
	FixturesDir   *string
	ResultsDir    *string
	ContextLimit  *int
	WarnThreshold *float64
	DisableAI     *bool
	APIFallback   *bool
	OpenAIBaseURL *string
	OpenAIModel   *string
	JudgeModel    *string
}

// LoadOptions configures Load. All fields are optional.
type LoadOptions struct {
	// RepoRoot is the repository root; if set, repo config is RepoRoot/.commitment.toml.
	RepoRoot string
	// GlobalConfigPath is the global config file path; if empty, the XDG path is used.
	GlobalConfigPath string
	// Env is the environment key=value slice; if nil, os.Environ() is used.
	Env []string
	// Overrides are applied last (highest precedence).
	Overrides *Overrides
}

const (
	_defaultTimeout       = 2 * time.Minute
	_defaultFixturesDir   = "eval/fixtures"
	_defaultResultsDir    = "eval/results"
	_defaultContextLimit  = 32768
	_defaultWarnThreshold = 0.9
)

// errIntOverflow is returned when an int64 value does not fit in int.
var errIntOverflow = errors.New("value out of range for int")

func int64ToInt(n int64) (int, error) {
	if n < int64(math.MinInt) || n > int64(math.MaxInt) {
		return 0, errIntOverflow
	}
	return int(n), nil
}

// DefaultConfig returns the default configuration (no I/O).
func DefaultConfig() Config {
	return Config{
		Agents:        agent.Names(),
		Timeout:       _defaultTimeout,
		StateDir:      "",
		FixturesDir:   _defaultFixturesDir,
		ResultsDir:    _defaultResultsDir,
		ContextLimit:  _defaultContextLimit,
		WarnThreshold: _defaultWarnThreshold,
		OpenAIBaseURL: judge.DefaultBaseURL,
		OpenAIModel:   judge.DefaultModel,
		JudgeModel:    judge.DefaultModel,
	}
}

// EffectiveStateDir returns the directory used for the prompt override
// file and generation history. If StateDir is set, it is returned as-is;
// otherwise repoRoot/.commitment is returned.
func (c Config) EffectiveStateDir(repoRoot string) string {
	if c.StateDir != "" {
		return c.StateDir
	}
	return filepath.Join(repoRoot, ".commitment")
}

// Providers returns the provider chain in fallback order: one CLI config
// per agent name, plus the OpenAI API provider when APIFallback is set
// and an API key is present.
func (c Config) Providers() []provider.Config {
	var out []provider.Config
	for _, name := range c.Agents {
		out = append(out, provider.Config{
			Type:    provider.TypeCLI,
			Name:    name,
			Timeout: c.Timeout,
		})
	}
	if c.APIFallback && c.APIKey != "" {
		out = append(out, provider.Config{
			Type:     provider.TypeAPI,
			Name:     "openai",
			APIKey:   c.APIKey,
			Endpoint: c.OpenAIBaseURL,
			Model:    c.OpenAIModel,
			Timeout:  c.Timeout,
		})
	}
	return out
}

// Load loads configuration with precedence: defaults < global file < repo
// file < env < overrides. Missing config files are ignored. Invalid TOML
// or invalid env values return an error.
func Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	if opts.Env == nil {
		opts.Env = os.Environ()
	}
	cfg := DefaultConfig()

	globalPath := opts.GlobalConfigPath
	if globalPath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, erruser.New("Could not determine config directory.", err)
		}
		globalPath = filepath.Join(dir, "commitment", "config.toml")
	}
	if err := mergeFile(&cfg, globalPath); err != nil {
		return nil, err
	}

	if opts.RepoRoot != "" {
		if err := mergeFile(&cfg, filepath.Join(opts.RepoRoot, ".commitment.toml")); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(&cfg, opts.Env); err != nil {
		return nil, err
	}

	applyOverrides(&cfg, opts.Overrides)

	if err := validateAgents(cfg.Agents); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateAgents(names []string) error {
	for _, n := range names {
		if !agent.Known(n) {
			return erruser.New("Unknown agent \""+n+"\" in the agents list; use claude or codex.", nil)
		}
	}
	return nil
}

// mergeFile reads path and merges into cfg. Only overwrites fields that
// are present and non-zero in the file, so explicit empty values in TOML
// keep the previous value. A missing file is skipped.
func mergeFile(cfg *Config, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return erruser.New("Invalid configuration file.", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return erruser.New("Could not read configuration file.", err)
	}
	var file struct {
		Agents        *[]string `toml:"agents"`
		Timeout       *string   `toml:"timeout"`
		StateDir      *string   `toml:"state_dir"`
		FixturesDir   *string   `toml:"fixtures_dir"`
		ResultsDir    *string   `toml:"results_dir"`
		ContextLimit  *int64    `toml:"context_limit"`
		WarnThreshold *float64  `toml:"warn_threshold"`
		DisableAI     *bool     `toml:"disable_ai"`
		APIFallback   *bool     `toml:"api_fallback"`
		OpenAIBaseURL *string   `toml:"openai_base_url"`
		OpenAIModel   *string   `toml:"openai_model"`
		JudgeModel    *string   `toml:"judge_model"`
	}
	if _, err := toml.Decode(string(data), &file); err != nil {
		return erruser.New("Invalid configuration in "+filepath.Base(path)+".", err)
	}
	if file.Agents != nil && len(*file.Agents) > 0 {
		cfg.Agents = *file.Agents
	}
	if file.Timeout != nil && *file.Timeout != "" {
		d, err := parseDuration(*file.Timeout)
		if err != nil {
			return erruser.New("Configuration timeout is invalid.", err)
		}
		cfg.Timeout = d
	}
	if file.StateDir != nil {
		cfg.StateDir = *file.StateDir
	}
	if file.FixturesDir != nil && *file.FixturesDir != "" {
		cfg.FixturesDir = *file.FixturesDir
	}
	if file.ResultsDir != nil && *file.ResultsDir != "" {
		cfg.ResultsDir = *file.ResultsDir
	}
	if file.ContextLimit != nil && *file.ContextLimit > 0 {
		v, err := int64ToInt(*file.ContextLimit)
		if err != nil {
			return erruser.New("Configuration context_limit value out of range.", err)
		}
		cfg.ContextLimit = v
	}
	if file.WarnThreshold != nil && *file.WarnThreshold >= 0 {
		cfg.WarnThreshold = *file.WarnThreshold
	}
	if file.DisableAI != nil {
		cfg.DisableAI = *file.DisableAI
	}
	if file.APIFallback != nil {
		cfg.APIFallback = *file.APIFallback
	}
	if file.OpenAIBaseURL != nil && *file.OpenAIBaseURL != "" {
		cfg.OpenAIBaseURL = *file.OpenAIBaseURL
	}
	if file.OpenAIModel != nil && *file.OpenAIModel != "" {
		cfg.OpenAIModel = *file.OpenAIModel
	}
	if file.JudgeModel != nil && *file.JudgeModel != "" {
		cfg.JudgeModel = *file.JudgeModel
	}
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty duration")
	}
	// Go duration first (e.g. "2m", "30s"), then integer seconds.
	d, err := time.ParseDuration(s)
	if err == nil {
		return d, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.New("invalid duration " + strconv.Quote(s))
	}
	return time.Duration(n) * time.Second, nil
}

// env key names for config
const (
	envAgents        = "COMMITMENT_AGENTS"
	envTimeout       = "COMMITMENT_TIMEOUT"
	envStateDir      = "COMMITMENT_STATE_DIR"
	envFixturesDir   = "COMMITMENT_FIXTURES_DIR"
	envResultsDir    = "COMMITMENT_RESULTS_DIR"
	envContextLimit  = "COMMITMENT_CONTEXT_LIMIT"
	envWarnThreshold = "COMMITMENT_WARN_THRESHOLD"
	envDisableAI     = "COMMITMENT_DISABLE_AI"
	envAPIFallback   = "COMMITMENT_API_FALLBACK"
	envOpenAIBaseURL = "COMMITMENT_OPENAI_BASE_URL"
	envOpenAIModel   = "COMMITMENT_OPENAI_MODEL"
	envJudgeModel    = "COMMITMENT_JUDGE_MODEL"
	envAPIKey        = "OPENAI_API_KEY"
)

func applyEnv(cfg *Config, env []string) error {
	vals := make(map[string]string)
	for _, e := range env {
		idx := strings.Index(e, "=")
		if idx <= 0 {
			continue
		}
		vals[strings.TrimSpace(e[:idx])] = strings.TrimSpace(e[idx+1:])
	}
	if v, ok := vals[envAgents]; ok && v != "" {
		cfg.Agents = splitAgents(v)
	}
	if v, ok := vals[envTimeout]; ok && v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return erruser.New("COMMITMENT_TIMEOUT must be a valid duration.", err)
		}
		cfg.Timeout = d
	}
	if v, ok := vals[envStateDir]; ok {
		cfg.StateDir = v
	}
	if v, ok := vals[envFixturesDir]; ok && v != "" {
		cfg.FixturesDir = v
	}
	if v, ok := vals[envResultsDir]; ok && v != "" {
		cfg.ResultsDir = v
	}
	if v, ok := vals[envContextLimit]; ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return erruser.New("COMMITMENT_CONTEXT_LIMIT must be a valid number.", err)
		}
		cfg.ContextLimit, err = int64ToInt(n)
		if err != nil {
			return erruser.New("COMMITMENT_CONTEXT_LIMIT value out of range.", err)
		}
	}
	if v, ok := vals[envWarnThreshold]; ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return erruser.New("COMMITMENT_WARN_THRESHOLD must be a valid number.", err)
		}
		cfg.WarnThreshold = f
	}
	if v, ok := vals[envDisableAI]; ok && v != "" {
		b, err := parseBool(v)
		if err != nil {
			return erruser.New("COMMITMENT_DISABLE_AI must be 1/true/yes/on or 0/false/no/off.", err)
		}
		cfg.DisableAI = b
	}
	if v, ok := vals[envAPIFallback]; ok && v != "" {
		b, err := parseBool(v)
		if err != nil {
			return erruser.New("COMMITMENT_API_FALLBACK must be 1/true/yes/on or 0/false/no/off.", err)
		}
		cfg.APIFallback = b
	}
	if v, ok := vals[envOpenAIBaseURL]; ok && v != "" {
		cfg.OpenAIBaseURL = v
	}
	if v, ok := vals[envOpenAIModel]; ok && v != "" {
		cfg.OpenAIModel = v
	}
	if v, ok := vals[envJudgeModel]; ok && v != "" {
		cfg.JudgeModel = v
	}
	if v, ok := vals[envAPIKey]; ok {
		cfg.APIKey = v
	}
	return nil
}

func splitAgents(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseBool parses common boolean env values: 1/true/yes/on = true,
// 0/false/no/off = false (case-insensitive).
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, errors.New("invalid boolean " + strconv.Quote(s))
	}
}

func applyOverrides(cfg *Config, o *Overrides) {
	if o == nil {
		return
	}
	if o.Agents != nil && len(*o.Agents) > 0 {
		cfg.Agents = *o.Agents
	}
	if o.Timeout != nil {
		cfg.Timeout = *o.Timeout
	}
	if o.StateDir != nil {
		cfg.StateDir = *o.StateDir
	}
	if o.FixturesDir != nil && *o.FixturesDir != "" {
		cfg.FixturesDir = *o.FixturesDir
	}
	if o.ResultsDir != nil && *o.ResultsDir != "" {
		cfg.ResultsDir = *o.ResultsDir
	}
	if o.ContextLimit != nil {
		cfg.ContextLimit = *o.ContextLimit
	}
	if o.WarnThreshold != nil {
		cfg.WarnThreshold = *o.WarnThreshold
	}
	if o.DisableAI != nil {
		cfg.DisableAI = *o.DisableAI
	}
	if o.APIFallback != nil {
		cfg.APIFallback = *o.APIFallback
	}
	if o.OpenAIBaseURL != nil && *o.OpenAIBaseURL != "" {
		cfg.OpenAIBaseURL = *o.OpenAIBaseURL
	}
	if o.OpenAIModel != nil && *o.OpenAIModel != "" {
		cfg.OpenAIModel = *o.OpenAIModel
	}
	if o.JudgeModel != nil && *o.JudgeModel != "" {
		cfg.JudgeModel = *o.JudgeModel
	}
}
