package hook

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cmd := exec.Command("git", "init")
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git init: %v\n%s", err, out)
	}
	return dir
}

func TestInstall_freshRepo(t *testing.T) {
	t.Parallel()
	dir := initRepo(t)
	path, err := Install(dir, false)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if filepath.Base(path) != Name {
		t.Errorf("path = %q, want basename %q", path, Name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), marker) {
		t.Error("installed hook is missing the marker")
	}
	if !strings.Contains(string(data), `commitment generate --hook "$1"`) {
		t.Errorf("hook body does not invoke commitment:\n%s", data)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode()&0100 == 0 {
		t.Errorf("hook mode = %v, want executable", info.Mode())
	}

	ok, err := Installed(dir)
	if err != nil || !ok {
		t.Errorf("Installed = %v, %v; want true, nil", ok, err)
	}
}

func TestInstall_refusesForeignHook(t *testing.T) {
	t.Parallel()
	dir := initRepo(t)
	hooks := filepath.Join(dir, ".git", "hooks")
	foreign := filepath.Join(hooks, Name)
	if err := os.MkdirAll(hooks, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(foreign, []byte("#!/bin/sh\necho mine\n"), 0755); err != nil {
		t.Fatal(err)
	}

	if _, err := Install(dir, false); err == nil {
		t.Fatal("Install replaced a foreign hook without --force")
	}
	if _, err := Install(dir, true); err != nil {
		t.Fatalf("Install --force: %v", err)
	}
	data, _ := os.ReadFile(foreign)
	if !strings.Contains(string(data), marker) {
		t.Error("forced install did not replace the hook")
	}
}

func TestInstall_overwritesOwnHook(t *testing.T) {
	t.Parallel()
	dir := initRepo(t)
	if _, err := Install(dir, false); err != nil {
		t.Fatalf("first Install: %v", err)
	}
	if _, err := Install(dir, false); err != nil {
		t.Fatalf("second Install: %v", err)
	}
}

func TestUninstall(t *testing.T) {
	t.Parallel()
	dir := initRepo(t)
	path, err := Install(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	removed, err := Uninstall(dir)
	if err != nil {
		t.Fatalf("Uninstall: %v", err)
	}
	if removed != path {
		t.Errorf("removed = %q, want %q", removed, path)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("hook still present after Uninstall")
	}

	// Missing hook is not an error.
	if removed, err := Uninstall(dir); err != nil || removed != "" {
		t.Errorf("second Uninstall = %q, %v; want \"\", nil", removed, err)
	}
}

func TestUninstall_refusesForeignHook(t *testing.T) {
	t.Parallel()
	dir := initRepo(t)
	hooks := filepath.Join(dir, ".git", "hooks")
	foreign := filepath.Join(hooks, Name)
	if err := os.MkdirAll(hooks, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(foreign, []byte("#!/bin/sh\necho mine\n"), 0755); err != nil {
		t.Fatal(err)
	}
	if _, err := Uninstall(dir); err == nil {
		t.Fatal("Uninstall removed a foreign hook")
	}
	if _, err := os.Stat(foreign); err != nil {
		t.Error("foreign hook was removed")
	}
	ok, err := Installed(dir)
	if err != nil || ok {
		t.Errorf("Installed = %v, %v; want false, nil", ok, err)
	}
}
