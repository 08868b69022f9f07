package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/arittr/commitment/cli/internal/agent"
	"github.com/arittr/commitment/cli/internal/config"
	"github.com/arittr/commitment/cli/internal/erruser"
	"github.com/arittr/commitment/cli/internal/evalrun"
	"github.com/arittr/commitment/cli/internal/fixture"
	"github.com/arittr/commitment/cli/internal/generate"
	"github.com/arittr/commitment/cli/internal/git"
	"github.com/arittr/commitment/cli/internal/history"
	"github.com/arittr/commitment/cli/internal/hook"
	"github.com/arittr/commitment/cli/internal/judge"
	"github.com/arittr/commitment/cli/internal/report"
	"github.com/arittr/commitment/cli/internal/results"
	"github.com/arittr/commitment/cli/internal/stats"
	"github.com/arittr/commitment/cli/internal/trace"
	"github.com/arittr/commitment/cli/internal/version"
)

// errExit is an error that carries an exit code for the CLI. Use
// errors.As to detect it.
type errExit int

func (e errExit) Error() string {
	return "exit " + strconv.Itoa(int(e))
}

func main() {
	os.Exit(Run())
}

// Run is the entry point for the CLI, exported for testing.
func Run() int {
	return runCLI(os.Args[1:], os.Stdout, os.Stderr)
}

func runCLI(args []string, stdout, stderr io.Writer) int {
	rootCmd := &cobra.Command{
		Use:     "commitment",
		Short:   "AI-assisted conventional commit messages",
		Version: version.String(),
	}
	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newEvalCmd())
	rootCmd.AddCommand(newAgentsCmd())
	rootCmd.AddCommand(newFixtureCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newHookCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	if err := rootCmd.Execute(); err != nil {
		var exitErr errExit
		if errors.As(err, &exitErr) {
			return int(exitErr)
		}
		fmt.Fprintln(stderr, "Error:", err)
		if u := errors.Unwrap(err); u != nil {
			fmt.Fprintf(stderr, "Details: %v\n", u)
		}
		return 1
	}
	return 0
}

// loadConfig resolves the repo root from dir and loads layered config.
func loadConfig(cmd *cobra.Command, dir string, overrides *config.Overrides) (*config.Config, string, error) {
	root, err := git.Root(dir)
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(cmd.Context(), config.LoadOptions{
		RepoRoot:  root,
		Overrides: overrides,
	})
	if err != nil {
		return nil, "", err
	}
	return cfg, root, nil
}

// resolveDir anchors a relative configured path at the repo root.
func resolveDir(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a commit message for the staged changes",
		RunE:  runGenerate,
	}
	cmd.Flags().String("agent", "", "Use only this agent (claude or codex) instead of the fallback chain")
	cmd.Flags().String("dir", ".", "Repository directory")
	cmd.Flags().Bool("no-ai", false, "Skip AI providers and use the rule-based message")
	cmd.Flags().String("hook", "", "Write the message into FILE (used by the prepare-commit-msg hook)")
	cmd.Flags().String("title", "", "Short description of the change to guide generation")
	cmd.Flags().String("description", "", "Longer change description embedded in the prompt")
	cmd.Flags().Bool("trace", false, "Write generation trace output to stderr")
	return cmd
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	dir, _ := flags.GetString("dir")
	agentName, _ := flags.GetString("agent")
	noAI, _ := flags.GetBool("no-ai")
	hookFile, _ := flags.GetString("hook")
	title, _ := flags.GetString("title")
	description, _ := flags.GetString("description")
	traceOn, _ := flags.GetBool("trace")

	cfg, root, err := loadConfig(cmd, dir, nil)
	if err != nil {
		return err
	}
	var tracer *trace.Tracer
	if traceOn {
		tracer = trace.New(cmd.ErrOrStderr())
	} else {
		tracer = trace.New(nil)
	}

	stateDir := cfg.EffectiveStateDir(root)
	gen := generate.New(cfg.Providers())
	gen.StateDir = stateDir
	gen.ContextLimit = cfg.ContextLimit
	gen.WarnThreshold = cfg.WarnThreshold
	gen.Trace = tracer

	res, err := gen.Message(cmd.Context(), generate.Task{
		Title:       title,
		Description: description,
	}, generate.Options{
		Dir:       root,
		Agent:     agentName,
		DisableAI: noAI || cfg.DisableAI,
	})
	if err != nil {
		return err
	}

	if hookFile != "" {
		if err := writeHookMessage(hookFile, res.Message); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), res.Message)
	}

	rec := history.NewRecord(time.Now())
	rec.Agent = res.Agent
	rec.Fallback = res.Fallback
	rec.Reason = res.FallbackReason
	rec.Message = res.Message
	if branch, berr := git.Branch(root); berr == nil {
		rec.Branch = branch
	}
	if herr := history.Append(stateDir, rec, history.DefaultMaxRecords); herr != nil {
		// History is advisory; never fail a generation over it.
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", herr)
	}
	return nil
}

// writeHookMessage puts the generated message at the top of the commit
// message file, keeping git's commented template below it.
func writeHookMessage(path, message string) error {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return erruser.New("Could not read the commit message file.", err)
	}
	content := message + "\n"
	if len(existing) > 0 {
		content += "\n" + string(existing)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return erruser.New("Could not write the commit message file.", err)
	}
	return nil
}

func newEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate agents against recorded fixtures with an LLM judge",
		RunE:  runEval,
	}
	cmd.Flags().String("agent", "both", "Agent to evaluate: claude, codex, or both")
	cmd.Flags().String("fixture", "", "Evaluate a single fixture (default: all fixtures)")
	cmd.Flags().String("mode", string(fixture.ModeMocked), "Changeset source: mocked or live")
	cmd.Flags().String("dir", ".", "Repository directory")
	cmd.Flags().String("fixtures-dir", "", "Fixtures directory (default from config)")
	cmd.Flags().String("results-dir", "", "Results directory (default from config)")
	return cmd
}

func runEval(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	dir, _ := flags.GetString("dir")
	agentFlag, _ := flags.GetString("agent")
	fixtureName, _ := flags.GetString("fixture")
	modeFlag, _ := flags.GetString("mode")
	fixturesDir, _ := flags.GetString("fixtures-dir")
	resultsDir, _ := flags.GetString("results-dir")

	var ovr config.Overrides
	if fixturesDir != "" {
		ovr.FixturesDir = &fixturesDir
	}
	if resultsDir != "" {
		ovr.ResultsDir = &resultsDir
	}
	cfg, root, err := loadConfig(cmd, dir, &ovr)
	if err != nil {
		return err
	}
	if cfg.APIKey == "" {
		return erruser.New("OPENAI_API_KEY is required for evaluation runs.", nil)
	}
	agents, err := parseAgentFlag(agentFlag)
	if err != nil {
		return err
	}
	mode, err := fixture.ParseMode(modeFlag)
	if err != nil {
		return err
	}

	runner := evalrun.New()
	runner.FixturesDir = resolveDir(root, cfg.FixturesDir)
	runner.RepoDir = root
	runner.Mode = mode
	runner.Judge = judge.NewClient(cfg.OpenAIBaseURL, cfg.APIKey, cfg.JudgeModel, nil)
	runner.Store = &results.Store{Dir: resolveDir(root, cfg.ResultsDir)}
	runner.Reporter = report.NewConsole(cmd.OutOrStdout())
	runner.StateDir = cfg.EffectiveStateDir(root)
	runner.AgentTimeout = cfg.Timeout

	if fixtureName != "" {
		_, err = runner.Run(cmd.Context(), fixtureName, agents)
		return err
	}
	_, err = runner.RunAll(cmd.Context(), agents)
	return err
}

func parseAgentFlag(s string) ([]string, error) {
	switch s {
	case "both", "":
		return agent.Names(), nil
	default:
		if !agent.Known(s) {
			return nil, erruser.New("Unknown agent \""+s+"\"; use claude, codex, or both.", nil)
		}
		return []string{s}, nil
	}
}

func newAgentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Show which configured providers are available",
		RunE:  runAgents,
	}
	cmd.Flags().String("dir", ".", "Repository directory")
	return cmd
}

func runAgents(cmd *cobra.Command, _ []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	cfg, root, err := loadConfig(cmd, dir, nil)
	if err != nil {
		return err
	}
	gen := generate.New(cfg.Providers())
	ready, failures := gen.Available(cmd.Context(), root)

	out := cmd.OutOrStdout()
	for _, p := range ready {
		fmt.Fprintf(out, "%-10s available\n", p.Name)
	}
	for _, f := range failures {
		fmt.Fprintf(out, "%-10s unavailable: %s\n", f.Provider, f.Reason)
	}
	if len(ready) == 0 {
		fmt.Fprintln(out, "No providers available; generate will use the rule-based fallback.")
	}
	return nil
}

func newFixtureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixture",
		Short: "Manage evaluation fixtures",
	}
	cmd.AddCommand(newFixtureListCmd())
	cmd.AddCommand(newFixtureRecordCmd())
	return cmd
}

func newFixtureListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded fixtures",
		RunE:  runFixtureList,
	}
	cmd.Flags().String("dir", ".", "Repository directory")
	cmd.Flags().String("fixtures-dir", "", "Fixtures directory (default from config)")
	return cmd
}

func runFixtureList(cmd *cobra.Command, _ []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	fixturesDir, _ := cmd.Flags().GetString("fixtures-dir")
	var ovr config.Overrides
	if fixturesDir != "" {
		ovr.FixturesDir = &fixturesDir
	}
	cfg, root, err := loadConfig(cmd, dir, &ovr)
	if err != nil {
		return err
	}
	list, err := fixture.List(resolveDir(root, cfg.FixturesDir))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No fixtures recorded. Create one with: commitment fixture record --name <name>")
		return nil
	}
	for _, md := range list {
		fmt.Fprintf(out, "%-20s %-8s %s\n", md.Name, md.ExpectedType, md.Description)
	}
	return nil
}

func newFixtureRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record the staged changes as a new fixture",
		RunE:  runFixtureRecord,
	}
	cmd.Flags().String("dir", ".", "Repository directory")
	cmd.Flags().String("fixtures-dir", "", "Fixtures directory (default from config)")
	cmd.Flags().String("name", "", "Fixture name (required)")
	cmd.Flags().String("description", "", "What the change does")
	cmd.Flags().String("expected-type", "", "Commit type a good message should use (e.g. feat)")
	return cmd
}

func runFixtureRecord(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	dir, _ := flags.GetString("dir")
	fixturesDir, _ := flags.GetString("fixtures-dir")
	name, _ := flags.GetString("name")
	description, _ := flags.GetString("description")
	expectedType, _ := flags.GetString("expected-type")

	var ovr config.Overrides
	if fixturesDir != "" {
		ovr.FixturesDir = &fixturesDir
	}
	cfg, root, err := loadConfig(cmd, dir, &ovr)
	if err != nil {
		return err
	}
	md := fixture.Metadata{Name: name, Description: description, ExpectedType: expectedType}
	if err := fixture.Record(cmd.Context(), resolveDir(root, cfg.FixturesDir), md, root); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Recorded fixture %q.\n", name)
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize stored evaluation results per agent",
		RunE:  runStats,
	}
	cmd.Flags().String("dir", ".", "Repository directory")
	cmd.Flags().String("results-dir", "", "Results directory (default from config)")
	return cmd
}

func runStats(cmd *cobra.Command, _ []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	resultsDir, _ := cmd.Flags().GetString("results-dir")
	var ovr config.Overrides
	if resultsDir != "" {
		ovr.ResultsDir = &resultsDir
	}
	cfg, root, err := loadConfig(cmd, dir, &ovr)
	if err != nil {
		return err
	}
	store := &results.Store{Dir: resolveDir(root, cfg.ResultsDir)}
	runs, err := store.ListRuns()
	if err != nil {
		return err
	}
	comps, err := store.ListComparisons()
	if err != nil {
		return err
	}
	stats.Render(cmd.OutOrStdout(), stats.Aggregate(runs, comps))
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently generated commit messages",
		RunE:  runHistory,
	}
	cmd.Flags().String("dir", ".", "Repository directory")
	cmd.Flags().Int("limit", 10, "Number of entries to show (0 = all)")
	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	limit, _ := cmd.Flags().GetInt("limit")
	cfg, root, err := loadConfig(cmd, dir, nil)
	if err != nil {
		return err
	}
	recs, err := history.Recent(cfg.EffectiveStateDir(root), limit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(recs) == 0 {
		fmt.Fprintln(out, "No generation history yet.")
		return nil
	}
	for _, rec := range recs {
		source := rec.Agent
		if rec.Fallback {
			source = "fallback"
		}
		fmt.Fprintf(out, "%s  %-8s  %s\n", rec.Timestamp, source, firstLine(rec.Message))
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func newHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Manage the prepare-commit-msg git hook",
	}
	install := &cobra.Command{
		Use:   "install",
		Short: "Install the prepare-commit-msg hook",
		RunE:  runHookInstall,
	}
	install.Flags().String("dir", ".", "Repository directory")
	install.Flags().Bool("force", false, "Replace an existing hook not written by commitment")
	uninstall := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the hook if commitment installed it",
		RunE:  runHookUninstall,
	}
	uninstall.Flags().String("dir", ".", "Repository directory")
	cmd.AddCommand(install)
	cmd.AddCommand(uninstall)
	return cmd
}

func runHookInstall(cmd *cobra.Command, _ []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	force, _ := cmd.Flags().GetBool("force")
	path, err := hook.Install(dir, force)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Installed %s.\n", path)
	return nil
}

func runHookUninstall(cmd *cobra.Command, _ []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	path, err := hook.Uninstall(dir)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if path == "" {
		fmt.Fprintln(out, "No hook installed.")
		return nil
	}
	fmt.Fprintf(out, "Removed %s.\n", path)
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the commitment version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
			return nil
		},
	}
}
