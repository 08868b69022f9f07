package generate

import (
	"fmt"
	"path"
	"strings"
	"unicode"

	"github.com/arittr/commitment/cli/internal/commitfmt"
)

// RuleBased derives a commit message from the task alone, with no AI
// involved. It is total: any task yields a valid conventional commit.
// A title that is already conventional is kept verbatim.
func RuleBased(task Task) string {
	title := strings.TrimSpace(task.Title)
	if commitfmt.IsValid(title) {
		return withBody(title, task.Description)
	}

	typ := guessType(task.Files)
	subject := title
	if subject == "" {
		subject = describeFiles(task.Files)
	}

	var b strings.Builder
	b.WriteString(typ)
	if scope := commonScope(task.Files); scope != "" {
		b.WriteString("(")
		b.WriteString(scope)
		b.WriteString(")")
	}
	b.WriteString(": ")
	b.WriteString(lowerFirst(subject))
	return withBody(b.String(), task.Description)
}

func withBody(subject, description string) string {
	d := strings.TrimSpace(description)
	if d == "" {
		return subject
	}
	return subject + "\n\n" + d
}

// guessType maps the file list to a commit type. Narrow types win only
// when every file matches; mixed changes default to feat.
func guessType(files []string) string {
	if len(files) == 0 {
		return "chore"
	}
	all := func(match func(string) bool) bool {
		for _, f := range files {
			if !match(f) {
				return false
			}
		}
		return true
	}
	switch {
	case all(isDocPath):
		return "docs"
	case all(isTestPath):
		return "test"
	case all(isCIPath):
		return "ci"
	case all(isBuildPath):
		return "build"
	case all(isDotfile):
		return "chore"
	default:
		return "feat"
	}
}

func isDocPath(f string) bool {
	lower := strings.ToLower(f)
	if strings.HasPrefix(lower, "docs/") || strings.Contains(lower, "/docs/") {
		return true
	}
	switch path.Ext(lower) {
	case ".md", ".rst", ".adoc":
		return true
	}
	return false
}

func isTestPath(f string) bool {
	lower := strings.ToLower(f)
	base := path.Base(lower)
	return strings.HasSuffix(base, "_test.go") ||
		strings.HasPrefix(lower, "test/") ||
		strings.HasPrefix(lower, "tests/") ||
		strings.Contains(lower, "/__tests__/") ||
		strings.Contains(base, ".test.") ||
		strings.Contains(base, ".spec.")
}

func isCIPath(f string) bool {
	lower := strings.ToLower(f)
	return strings.HasPrefix(lower, ".github/") ||
		strings.HasPrefix(lower, ".circleci/") ||
		strings.Contains(lower, ".gitlab-ci") ||
		path.Base(lower) == "jenkinsfile"
}

func isBuildPath(f string) bool {
	base := path.Base(strings.ToLower(f))
	switch base {
	case "go.mod", "go.sum", "makefile", "dockerfile",
		"package.json", "package-lock.json", "pnpm-lock.yaml", "yarn.lock":
		return true
	}
	return strings.HasSuffix(base, ".mk")
}

func isDotfile(f string) bool {
	return strings.HasPrefix(path.Base(f), ".")
}

// commonScope returns the first path segment when every file shares it.
func commonScope(files []string) string {
	if len(files) == 0 {
		return ""
	}
	scope := topSegment(files[0])
	if scope == "" {
		return ""
	}
	for _, f := range files[1:] {
		if topSegment(f) != scope {
			return ""
		}
	}
	return scope
}

// topSegment returns the leading directory of a slash path, or "" when
// the path is a bare filename or starts with a dot directory.
func topSegment(f string) string {
	f = strings.TrimPrefix(path.Clean(f), "./")
	i := strings.IndexByte(f, '/')
	if i <= 0 {
		return ""
	}
	seg := f[:i]
	if strings.HasPrefix(seg, ".") {
		return ""
	}
	return seg
}

func describeFiles(files []string) string {
	switch len(files) {
	case 0:
		return "update project files"
	case 1:
		return "update " + path.Base(files[0])
	default:
		return fmt.Sprintf("update %d files", len(files))
	}
}

// lowerFirst lowercases the leading rune unless the subject starts with
// an all-caps word such as README or HTTP.
func lowerFirst(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	if len(r) > 1 && unicode.IsUpper(r[0]) && unicode.IsUpper(r[1]) {
		return s
	}
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
