package evaluate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/arittr/commitment/cli/internal/attempt"
	"github.com/arittr/commitment/cli/internal/diff"
	"github.com/arittr/commitment/cli/internal/judge"
)

const singleSystemPrompt = "You are an expert evaluator of git commit messages. Score strictly and output only valid JSON."

// maxJudgeDiffChars caps the diff embedded in judge prompts.
const maxJudgeDiffChars = 16 * 1024

// Single scores one commit message on the four quality dimensions.
type Single struct {
	Judge Completer
}

// Evaluate asks the judge to score commitMessage against the change and
// returns the four dimension scores plus their rounded mean. Fails when
// the judge call fails or its reply does not match the score schema.
func (s *Single) Evaluate(ctx context.Context, commitMessage, diffText, fixtureName string) (attempt.Metrics, float64, error) {
	raw, err := s.Judge.Complete(ctx, []judge.Message{
		{Role: "system", Content: singleSystemPrompt},
		{Role: "user", Content: buildSinglePrompt(commitMessage, diffText, fixtureName)},
	})
	if err != nil {
		return attempt.Metrics{}, 0, err
	}

	obj, err := judge.ExtractJSON(raw)
	if err != nil {
		return attempt.Metrics{}, 0, fmt.Errorf("malformed judge response: %w", err)
	}
	var parsed struct {
		Clarity            *float64 `json:"clarity"`
		Specificity        *float64 `json:"specificity"`
		ConventionalFormat *float64 `json:"conventionalFormat"`
		Scope              *float64 `json:"scope"`
	}
	if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
		return attempt.Metrics{}, 0, fmt.Errorf("malformed judge response: %w", err)
	}

	var m attempt.Metrics
	for _, dim := range []struct {
		name string
		src  *float64
		dst  *float64
	}{
		{"clarity", parsed.Clarity, &m.Clarity},
		{"specificity", parsed.Specificity, &m.Specificity},
		{"conventionalFormat", parsed.ConventionalFormat, &m.ConventionalFormat},
		{"scope", parsed.Scope, &m.Scope},
	} {
		v, err := scoreField(dim.name, dim.src)
		if err != nil {
			return attempt.Metrics{}, 0, err
		}
		*dim.dst = v
	}

	overall := round1((m.Clarity + m.Specificity + m.ConventionalFormat + m.Scope) / 4)
	return m, overall, nil
}

func scoreField(name string, v *float64) (float64, error) {
	if v == nil {
		return 0, fmt.Errorf("malformed judge response: missing %q", name)
	}
	if *v < 0 || *v > 10 {
		return 0, fmt.Errorf("malformed judge response: %s = %v outside [0,10]", name, *v)
	}
	return *v, nil
}

func buildSinglePrompt(commitMessage, diffText, fixtureName string) string {
	var b strings.Builder
	b.WriteString("Evaluate this commit message for the \"")
	b.WriteString(fixtureName)
	b.WriteString("\" change.\n\nCommit message:\n```\n")
	b.WriteString(commitMessage)
	b.WriteString("\n```\n\nDiff:\n```\n")
	b.WriteString(diff.Truncate(diffText, maxJudgeDiffChars))
	b.WriteString("\n```\n\nScore four independent dimensions, each 0-10:\n")
	b.WriteString("- clarity: is the message understandable at a glance?\n")
	b.WriteString("- specificity: does it name what actually changed rather than generalities?\n")
	b.WriteString("- conventionalFormat: does it follow type(scope): description with a fitting type?\n")
	b.WriteString("- scope: does the message cover the whole change, no more and no less?\n")
	b.WriteString("\nAnswer with a JSON object only: {\"clarity\": 0-10, \"specificity\": 0-10, \"conventionalFormat\": 0-10, \"scope\": 0-10}. No other text.")
	return b.String()
}
