// Package testutil provides helpers for running cairn against an isolated
// home directory.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Env is an isolated environment created by SetupTestEnv.
type Env struct {
	// Home is the temporary home directory.
	Home string
	// ConfigDir is Home/.cairn, where the default config file lives.
	ConfigDir string
	// ContentRoot is an empty content root inside Home.
	ContentRoot string
}

// SetupTestEnv points the home directory at a fresh temporary directory so
// cairn never reads or writes the real ~/.cairn. Cleanup is handled by
// t.TempDir and t.Setenv.
func SetupTestEnv(t *testing.T) *Env {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	env := &Env{
		Home:        home,
		ConfigDir:   filepath.Join(home, ".cairn"),
		ContentRoot: filepath.Join(home, ".cairn", "game"),
	}
	for _, dir := range []string{env.ConfigDir, env.ContentRoot} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}
	return env
}

// WriteFile writes data under the content root, creating parent
// directories. rel is slash-separated.
func (e *Env) WriteFile(t *testing.T, rel string, data []byte) string {
	t.Helper()
	path := filepath.Join(e.ContentRoot, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("failed to create directory for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", rel, err)
	}
	return path
}
