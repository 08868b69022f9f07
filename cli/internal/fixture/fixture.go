// Package fixture loads and records the named changesets that feed
// evaluation runs. A fixture is a directory under the fixtures root with
// metadata.json plus a recorded status and diff; live mode swaps the
// recording for the current repository's staged changes.
package fixture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/arittr/commitment/cli/internal/erruser"
	"github.com/arittr/commitment/cli/internal/git"
)

// ErrNotFound indicates the named fixture directory does not exist.
var ErrNotFound = errors.New("fixture not found")

// Mode selects where a fixture's changeset comes from.
type Mode string

const (
	// ModeMocked reads the recorded mock-status.txt / mock-diff.txt.
	ModeMocked Mode = "mocked"
	// ModeLive collects status and staged diff from a real working tree.
	ModeLive Mode = "live"
)

// ParseMode validates a --mode flag value.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeMocked, ModeLive:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown mode %q (supported: mocked, live)", s)
	}
}

const (
	metadataFilename   = "metadata.json"
	mockStatusFilename = "mock-status.txt"
	mockDiffFilename   = "mock-diff.txt"
)

// Metadata is the fixture's metadata.json.
type Metadata struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	ExpectedType string `json:"expectedType"`
}

// Fixture is a loaded evaluation changeset.
type Fixture struct {
	Metadata
	Status string
	Diff   string
	Mode   Mode
}

// Load reads the named fixture from fixturesDir. Mocked mode returns the
// recorded changeset; live mode returns metadata from the fixture but
// status and staged diff collected from repoDir's working tree.
func Load(ctx context.Context, fixturesDir, name string, mode Mode, repoDir string) (*Fixture, error) {
	dir := filepath.Join(fixturesDir, name)
	md, err := readMetadata(dir, name)
	if err != nil {
		return nil, err
	}
	fx := &Fixture{Metadata: md, Mode: mode}

	switch mode {
	case ModeLive:
		root, err := git.Root(repoDir)
		if err != nil {
			return nil, err
		}
		status, err := git.StatusPorcelain(ctx, root)
		if err != nil {
			return nil, err
		}
		diff, err := git.StagedDiff(ctx, root)
		if err != nil {
			return nil, err
		}
		fx.Status, fx.Diff = status, diff
	case ModeMocked:
		status, err := readMock(dir, mockStatusFilename, name)
		if err != nil {
			return nil, err
		}
		diff, err := readMock(dir, mockDiffFilename, name)
		if err != nil {
			return nil, err
		}
		fx.Status, fx.Diff = status, diff
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
	return fx, nil
}

func readMetadata(dir, name string) (Metadata, error) {
	data, err := os.ReadFile(filepath.Join(dir, metadataFilename))
	if err != nil {
		if os.IsNotExist(err) {
			return Metadata{}, fmt.Errorf("fixture %q: %w", name, ErrNotFound)
		}
		return Metadata{}, erruser.New(fmt.Sprintf("Could not read fixture %q.", name), err)
	}
	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return Metadata{}, erruser.New(fmt.Sprintf("Fixture %q has invalid metadata.", name), err)
	}
	if md.Name == "" {
		md.Name = name
	}
	return md, nil
}

func readMock(dir, filename, name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return "", erruser.New(
				fmt.Sprintf("Fixture %q has no recorded changeset. Record one with: commitment fixture record", name), err)
		}
		return "", erruser.New(fmt.Sprintf("Could not read fixture %q.", name), err)
	}
	return string(data), nil
}

// List returns the metadata of every fixture under fixturesDir, sorted
// by name. A missing root yields an empty list.
func List(fixturesDir string) ([]Metadata, error) {
	entries, err := os.ReadDir(fixturesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, erruser.New("Could not read the fixtures directory.", err)
	}
	var out []Metadata
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		md, err := readMetadata(filepath.Join(fixturesDir, e.Name()), e.Name())
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue // a stray directory without metadata is not a fixture
			}
			return nil, err
		}
		out = append(out, md)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Record captures repoDir's current status and staged diff as a new
// fixture named md.Name. Refuses to overwrite an existing fixture and
// refuses to record an empty index.
func Record(ctx context.Context, fixturesDir string, md Metadata, repoDir string) error {
	if md.Name == "" {
		return erruser.New("Fixture name is required.", nil)
	}
	root, err := git.Root(repoDir)
	if err != nil {
		return err
	}
	staged, err := git.HasStagedChanges(ctx, root)
	if err != nil {
		return err
	}
	if !staged {
		return erruser.New("No staged changes to record. Stage the changes first with git add.", nil)
	}

	dir := filepath.Join(fixturesDir, md.Name)
	if _, err := os.Stat(filepath.Join(dir, metadataFilename)); err == nil {
		return erruser.New(fmt.Sprintf("Fixture %q already exists.", md.Name), nil)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return erruser.New("Could not create the fixture directory.", err)
	}

	status, err := git.StatusPorcelain(ctx, root)
	if err != nil {
		return err
	}
	diff, err := git.StagedDiff(ctx, root)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return erruser.New("Could not save the fixture.", err)
	}
	for _, f := range []struct {
		name    string
		content []byte
	}{
		{metadataFilename, append(data, '\n')},
		{mockStatusFilename, []byte(status)},
		{mockDiffFilename, []byte(diff)},
	} {
		if err := writeFileAtomic(filepath.Join(dir, f.name), f.content); err != nil {
			return erruser.New("Could not save the fixture.", err)
		}
	}
	return nil
}

// writeFileAtomic writes via a temp file in the same directory then
// renames, so a crash never leaves a half-written fixture file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := f.Name()
	defer func() { _ = os.Remove(tmpPath) }()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
