package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// probe checks that command resolves on PATH by running
// sh -c "command -v <command>" in dir. Empty stdout means not found; so does
// an ENOENT on sh itself. Other failures surface unchanged.
func probe(ctx context.Context, command, dir string) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", "command -v "+shellWord(command))
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("%s: %w", command, ErrCLINotFound)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && strings.TrimSpace(string(out)) == "" {
			return fmt.Errorf("%s: %w", command, ErrCLINotFound)
		}
		return fmt.Errorf("probe %s: %w", command, err)
	}
	if strings.TrimSpace(string(out)) == "" {
		return fmt.Errorf("%s: %w", command, ErrCLINotFound)
	}
	return nil
}

// shellWord single-quotes s for safe embedding in an sh -c string.
func shellWord(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// runCLI spawns name with args in dir, feeding stdin when non-empty, and
// returns stdout. timeout > 0 bounds the invocation; expiry reports a
// timed-out error. The subprocess inherits the full environment because AI
// CLIs need their auth variables and state directories.
func runCLI(ctx context.Context, dir string, timeout time.Duration, stdin, name string, args ...string) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%s timed out after %s", name, timeout)
		}
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%s: %w", name, ErrCLINotFound)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s execution failed: %w: %s", name, err, msg)
		}
		return "", fmt.Errorf("%s execution failed: %w", name, err)
	}
	return stdout.String(), nil
}
