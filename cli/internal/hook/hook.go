// Package hook installs the prepare-commit-msg git hook that fills the
// commit message with commitment's output. The hook carries a marker
// comment so install and uninstall only ever touch hooks we wrote.
package hook

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/arittr/commitment/cli/internal/erruser"
	"github.com/arittr/commitment/cli/internal/git"
)

// Name is the git hook this package manages.
const Name = "prepare-commit-msg"

// marker identifies a hook written by this tool. Uninstall refuses to
// remove a hook without it.
const marker = "# installed by commitment"

// script is the hook body. $1 is the message file, $2 the source; merge
// and squash commits and messages given via -m keep git's own content.
// The hook never blocks a commit: a generation failure exits 0.
const script = `#!/bin/sh
` + marker + `
case "$2" in
merge|squash|message) exit 0 ;;
esac
commitment generate --hook "$1" || exit 0
`

// Install writes the prepare-commit-msg hook into repoDir's hooks
// directory. An existing hook we wrote is overwritten silently; a
// foreign hook is only replaced when force is set.
func Install(repoDir string, force bool) (string, error) {
	root, err := git.Root(repoDir)
	if err != nil {
		return "", err
	}
	hooksDir, err := git.HooksPath(root)
	if err != nil {
		return "", err
	}
	path := filepath.Join(hooksDir, Name)

	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		if !ours(existing) && !force {
			return "", erruser.New("A "+Name+" hook already exists. Re-run with --force to replace it.", nil)
		}
	case !os.IsNotExist(err):
		return "", erruser.New("Could not read the existing hook.", err)
	}

	if err := os.MkdirAll(hooksDir, 0755); err != nil {
		return "", erruser.New("Could not create the hooks directory.", err)
	}
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		return "", erruser.New("Could not write the "+Name+" hook.", err)
	}
	return path, nil
}

// Uninstall removes the hook if commitment wrote it. Removing a foreign
// hook is refused; a missing hook is not an error.
func Uninstall(repoDir string) (string, error) {
	root, err := git.Root(repoDir)
	if err != nil {
		return "", err
	}
	hooksDir, err := git.HooksPath(root)
	if err != nil {
		return "", err
	}
	path := filepath.Join(hooksDir, Name)

	existing, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", erruser.New("Could not read the existing hook.", err)
	}
	if !ours(existing) {
		return "", erruser.New("The "+Name+" hook was not installed by commitment; not removing it.", nil)
	}
	if err := os.Remove(path); err != nil {
		return "", erruser.New("Could not remove the "+Name+" hook.", err)
	}
	return path, nil
}

// Installed reports whether our hook is present in repoDir.
func Installed(repoDir string) (bool, error) {
	root, err := git.Root(repoDir)
	if err != nil {
		return false, err
	}
	hooksDir, err := git.HooksPath(root)
	if err != nil {
		return false, err
	}
	data, err := os.ReadFile(filepath.Join(hooksDir, Name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, erruser.New("Could not read the existing hook.", err)
	}
	return ours(data), nil
}

func ours(content []byte) bool {
	return strings.Contains(string(content), marker)
}
