// Package git shells out to the git CLI for repository discovery and
// changeset collection. Commands run with a minimal environment so pagers
// and credential prompts cannot block a non-interactive run.
package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/arittr/commitment/cli/internal/erruser"
)

// Root returns the absolute path of the git repository root containing dir.
// Runs "git rev-parse --show-toplevel" with Dir=dir. Returns error if dir is
// not inside a git repository.
func Root(dir string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir
	cmd.Env = minimalEnv()
	out, err := cmd.Output()
	if err != nil {
		return "", erruser.New("This directory is not inside a Git repository.", err)
	}
	root := strings.TrimSpace(string(out))
	return filepath.Abs(root)
}

// StatusPorcelain returns "git status --porcelain" output for the repository
// at repoRoot. Empty output means a clean working tree.
func StatusPorcelain(ctx context.Context, repoRoot string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "status", "--porcelain")
	cmd.Dir = repoRoot
	cmd.Env = minimalEnv()
	out, err := cmd.Output()
	if err != nil {
		return "", erruser.New("Could not read working tree status.", err)
	}
	return string(out), nil
}

// StagedDiff returns the index changes as a unified diff
// ("git diff --cached"). Empty when nothing is staged.
func StagedDiff(ctx context.Context, repoRoot string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "diff", "--cached", "--no-color", "--no-ext-diff")
	cmd.Dir = repoRoot
	cmd.Env = minimalEnv()
	out, err := cmd.Output()
	if err != nil {
		return "", erruser.New("Could not read the staged diff.", err)
	}
	return string(out), nil
}

// UnstagedDiff returns working tree changes that are not yet staged
// ("git diff"). Used as a fallback when the index is empty.
func UnstagedDiff(ctx context.Context, repoRoot string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "diff", "--no-color", "--no-ext-diff")
	cmd.Dir = repoRoot
	cmd.Env = minimalEnv()
	out, err := cmd.Output()
	if err != nil {
		return "", erruser.New("Could not read the working tree diff.", err)
	}
	return string(out), nil
}

// HasStagedChanges reports whether the index differs from HEAD. Decided by
// the exit code of "git diff --cached --quiet": 0 means nothing staged,
// 1 means at least one staged change.
func HasStagedChanges(ctx context.Context, repoRoot string) (bool, error) {
	cmd := exec.CommandContext(ctx, "git", "diff", "--cached", "--quiet")
	cmd.Dir = repoRoot
	cmd.Env = minimalEnv()
	err := cmd.Run()
	if err == nil {
		return false, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
		return true, nil
	}
	return false, erruser.New("Could not check the staging area.", err)
}

// Branch returns the current branch name at repoRoot, from
// "git rev-parse --abbrev-ref HEAD". Returns "HEAD" when detached.
func Branch(repoRoot string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = repoRoot
	cmd.Env = minimalEnv()
	out, err := cmd.Output()
	if err != nil {
		return "", erruser.New("Could not read the current branch.", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// HooksPath returns the absolute path of the repository's hooks directory,
// honoring core.hooksPath and worktree layouts
// ("git rev-parse --git-path hooks").
func HooksPath(repoRoot string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--git-path", "hooks")
	cmd.Dir = repoRoot
	cmd.Env = minimalEnv()
	out, err := cmd.Output()
	if err != nil {
		return "", erruser.New("Could not locate the Git hooks directory.", err)
	}
	p := strings.TrimSpace(string(out))
	if !filepath.IsAbs(p) {
		p = filepath.Join(repoRoot, p)
	}
	return filepath.Abs(p)
}

func minimalEnv() []string {
	env := []string{
		"PATH=" + os.Getenv("PATH"),
		"GIT_TERMINAL_PROMPT=0",
		"GIT_PAGER=cat", // prevent pager; subprocess output is captured
	}
	if home := os.Getenv("HOME"); home != "" {
		env = append(env, "HOME="+home)
	} else if runtime.GOOS == "windows" {
		if profile := os.Getenv("USERPROFILE"); profile != "" {
			env = append(env, "HOME="+profile)
		}
	}
	return env
}

// MinimalEnv returns the environment used for git subprocesses. Exported for
// tests so callers can assert HOME is included when set (e.g. to avoid
// "Author identity unknown").
func MinimalEnv() []string {
	return minimalEnv()
}
