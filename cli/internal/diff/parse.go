package diff

import (
	"bufio"
	"regexp"
	"strings"
)

// binaryMarker is the prefix git uses when a file is binary.
const binaryMarker = "Binary files "

// hunkHeader matches @@ -oldStart,oldCount +newStart,newCount @@ optional
var hunkHeaderRegex = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+\d+(?:,\d+)? @@`)

// Parse parses the output of `git diff --no-color` into one FileChange per
// file section. Empty diff produces nil.
func Parse(diffOutput string) ([]FileChange, error) {
	if strings.TrimSpace(diffOutput) == "" {
		return nil, nil
	}

	sections := splitByFileSections(diffOutput)
	var changes []FileChange
	for _, section := range sections {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}
		fc, err := parseFileSection(section)
		if err != nil {
			return nil, err
		}
		if fc.Path == "" {
			continue
		}
		changes = append(changes, fc)
	}
	return changes, nil
}

// splitByFileSections splits diff output by "diff --git " so each section
// is one file's diff (or one binary notice).
func splitByFileSections(out string) []string {
	const prefix = "diff --git "
	var sections []string
	start := 0
	for {
		i := strings.Index(out[start:], prefix)
		if i < 0 {
			if start < len(out) && strings.TrimSpace(out[start:]) != "" {
				sections = append(sections, out[start:])
			}
			break
		}
		pos := start + i
		if pos > start && strings.TrimSpace(out[start:pos]) != "" {
			sections = append(sections, out[start:pos])
		}
		start = pos
		// find next "diff --git " or end
		next := strings.Index(out[start+len(prefix):], prefix)
		if next < 0 {
			sections = append(sections, out[start:])
			break
		}
		sections = append(sections, out[start:start+len(prefix)+next])
		start = start + len(prefix) + next
	}
	return sections
}

func parseFileSection(section string) (FileChange, error) {
	var (
		fc           FileChange
		pathA, pathB string
		inHunk       bool
	)
	scanner := bufio.NewScanner(strings.NewReader(section))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024) // minified files have very long lines
	for scanner.Scan() {
		line := scanner.Text()
		if hunkHeaderRegex.MatchString(line) {
			inHunk = true
			continue
		}
		if inHunk {
			// Hunk body lines start with ' ', '+', '-', or '\'.
			switch {
			case strings.HasPrefix(line, "+"):
				fc.Additions++
			case strings.HasPrefix(line, "-"):
				fc.Deletions++
			}
			continue
		}
		switch {
		case strings.HasPrefix(line, "diff --git "):
			pathA, pathB = parseDiffGitLine(line)
		case strings.HasPrefix(line, "new file mode"):
			fc.New = true
		case strings.HasPrefix(line, "deleted file mode"):
			fc.Deleted = true
		case strings.HasPrefix(line, "rename from "):
			fc.Renamed = true
			fc.OldPath = strings.TrimPrefix(line, "rename from ")
		case strings.HasPrefix(line, "rename to "):
			fc.Renamed = true
			pathB = strings.TrimPrefix(line, "rename to ")
		case strings.HasPrefix(line, binaryMarker), strings.HasPrefix(line, "GIT binary patch"):
			fc.Binary = true
		case strings.HasPrefix(line, "--- "):
			if p := parsePathLine(line, "--- "); p != "" && p != "/dev/null" {
				pathA = p
			}
		case strings.HasPrefix(line, "+++ "):
			if p := parsePathLine(line, "+++ "); p != "" && p != "/dev/null" {
				pathB = p
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return FileChange{}, err
	}
	fc.Path = pathB
	if fc.Path == "" {
		fc.Path = pathA
	}
	return fc, nil
}

func parseDiffGitLine(line string) (a, b string) {
	// "diff --git a/path b/path"
	rest := strings.TrimPrefix(line, "diff --git ")
	parts := strings.Fields(rest)
	if len(parts) >= 2 {
		a = trimDiffPath(parts[0])
		b = trimDiffPath(parts[1])
	}
	return a, b
}

func trimDiffPath(s string) string {
	if len(s) >= 2 && (s[0] == 'a' || s[0] == 'b') && s[1] == '/' {
		return s[2:]
	}
	return s
}

func parsePathLine(line, prefix string) string {
	s := strings.TrimPrefix(line, prefix)
	// "/dev/null" or "a/path" or "b/path"
	if idx := strings.Index(s, "\t"); idx >= 0 {
		s = s[:idx]
	}
	return trimDiffPath(s)
}
