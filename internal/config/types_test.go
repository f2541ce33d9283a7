package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_Valid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"empty content root", func(c *Config) { c.ContentRoot = " " }, "content_root"},
		{"empty manifest", func(c *Config) { c.Manifest = "" }, "manifest"},
		{"trusted keys without host", func(c *Config) { c.Distribution.TrustedKeysURL = "https://" }, "distribution.trusted_keys_url"},
		{"negative rate", func(c *Config) { c.Download.MaxRate = -1 }, "download.max_rate"},
		{"too parallel", func(c *Config) { c.Download.Parallel = MaxParallel + 1 }, "download.parallel"},
		{"unknown format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			var valErr *ValidationError
			if err := cfg.Validate(); !errors.As(err, &valErr) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if valErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", valErr.Field, tt.wantField)
			}
		})
	}
}

func TestConfig_Paths(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	cfg := Default()
	root, err := cfg.ContentRootPath()
	if err != nil {
		t.Fatalf("ContentRootPath() error = %v", err)
	}
	if want := filepath.Join(home, ".cairn", "game"); root != want {
		t.Errorf("ContentRootPath() = %q, want %q", root, want)
	}

	manifest, err := cfg.ManifestPath()
	if err != nil {
		t.Fatalf("ManifestPath() error = %v", err)
	}
	if want := filepath.Join(home, ".cairn", "game", DefaultManifest); manifest != want {
		t.Errorf("ManifestPath() = %q, want %q", manifest, want)
	}

	abs := filepath.Join(t.TempDir(), "m.json")
	cfg.Manifest = abs
	if got, _ := cfg.ManifestPath(); got != abs {
		t.Errorf("ManifestPath() absolute = %q, want %q", got, abs)
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Field: "log.level", Message: "unknown"}
	if got := err.Error(); got != "config validation failed for log.level: unknown" {
		t.Errorf("Error() = %q", got)
	}
	if got := (&ValidationError{Message: "x"}).Error(); got != "config validation failed: x" {
		t.Errorf("Error() = %q", got)
	}
}
