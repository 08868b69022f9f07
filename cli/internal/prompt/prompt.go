// Package prompt provides system prompt loading (override file or default)
// and user prompt building from a changeset for the generation model.
package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arittr/commitment/cli/internal/cleaner"
)

const overridePromptFilename = "commit_prompt.txt"

// DefaultSystemPrompt instructs the model to produce one Conventional Commits
// message wrapped in the start/end markers the cleaner strips. Used when
// stateDir/commit_prompt.txt is absent.
const DefaultSystemPrompt = `You write git commit messages in the Conventional Commits format.

Format:
- First line: type(scope): description. type is one of feat, fix, docs, style, refactor, test, chore, perf, build, ci. scope is optional.
- Use imperative mood ("add feature", not "added feature"). Keep the first line under 72 characters.
- Add a body only when the change needs explanation, separated by a blank line and wrapped at 72 characters.

Output exactly one commit message wrapped between these markers, with no other text:
` + cleaner.StartMarker + `
type(scope): description
` + cleaner.EndMarker

// SystemPrompt returns the system prompt for the generation model. If
// stateDir/commit_prompt.txt exists and is readable, its contents (trimmed)
// are returned; otherwise DefaultSystemPrompt is returned. Missing file
// (IsNotExist) returns default with nil error; any other read error (e.g.
// permission denied) is returned so the user can see it.
func SystemPrompt(stateDir string) (string, error) {
	if stateDir == "" {
		return DefaultSystemPrompt, nil
	}
	path := filepath.Join(stateDir, overridePromptFilename)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSystemPrompt, nil
		}
		return "", fmt.Errorf("read prompt override: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Input carries the changeset context embedded in the user prompt. Empty
// fields are omitted from the output.
type Input struct {
	Title       string   // one-line task summary
	Description string   // longer task description
	Files       []string // changed paths
	Status      string   // git status --porcelain output
	Diff        string   // unified diff, already truncated by the caller
}

// User builds the user-facing prompt for one generation request.
func User(in Input) string {
	var b strings.Builder
	if in.Title != "" {
		b.WriteString("Task: " + in.Title + "\n")
	}
	if in.Description != "" {
		b.WriteString("\n" + strings.TrimSpace(in.Description) + "\n")
	}
	if len(in.Files) > 0 {
		b.WriteString("\nFiles changed:\n")
		for _, f := range in.Files {
			b.WriteString("- " + f + "\n")
		}
	}
	if strings.TrimSpace(in.Status) != "" {
		b.WriteString("\nGit status (porcelain):\n")
		b.WriteString(strings.TrimRight(in.Status, "\n") + "\n")
	}
	if strings.TrimSpace(in.Diff) != "" {
		b.WriteString("\nDiff:\n")
		b.WriteString(strings.TrimRight(in.Diff, "\n") + "\n")
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "Write a commit message for the staged changes."
	}
	return out
}
