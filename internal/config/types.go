package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config is the launcher configuration read from cairn.lua.
type Config struct {
	// ContentRoot is the directory artifacts are installed into. A leading
	// "~/" refers to the user's home directory.
	ContentRoot string
	// Manifest is the manifest file, relative to ContentRoot unless absolute.
	Manifest     string
	Distribution Distribution
	Features     Features
	Download     Download
	Log          Log
}

// Distribution locates the operator's distribution point.
type Distribution struct {
	// BaseURL serves signed artifacts and their .sig companions.
	BaseURL string
	// TrustedKeysURL serves the trusted-keys document. Its signature is
	// expected at the same URL with ".sig" appended.
	TrustedKeysURL string
}

// Features are the session toggles consulted by rules.
type Features struct {
	CustomResolution     bool
	QuickPlayMultiplayer bool
}

// Download tunes the HTTP downloader.
type Download struct {
	Timeout time.Duration
	// MaxRate limits bytes per second across all downloads. Zero means
	// unlimited.
	MaxRate   int64
	Parallel  int
	UserAgent string
}

// Log selects the log level and encoding.
type Log struct {
	Level  string
	Format string
}

// Default returns the configuration used for every omitted field.
func Default() *Config {
	return &Config{
		ContentRoot: DefaultContentRoot,
		Manifest:    DefaultManifest,
		Download: Download{
			Timeout:   DefaultTimeout,
			Parallel:  DefaultParallel,
			UserAgent: DefaultUserAgent,
		},
		Log: Log{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Validate checks the configuration for values the launcher cannot use.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ContentRoot) == "" {
		return &ValidationError{Field: luaFieldContentRoot, Message: "cannot be empty"}
	}
	if strings.Contains(filepath.ToSlash(c.ContentRoot), "..") {
		return &ValidationError{Field: luaFieldContentRoot, Message: "path traversal not allowed"}
	}
	if strings.TrimSpace(c.Manifest) == "" {
		return &ValidationError{Field: luaFieldManifest, Message: "cannot be empty"}
	}

	if c.Distribution.BaseURL != "" {
		if err := validateHTTPURL(c.Distribution.BaseURL); err != nil {
			return &ValidationError{Field: "distribution.base_url", Message: err.Error()}
		}
	}
	if c.Distribution.TrustedKeysURL != "" {
		if err := validateHTTPURL(c.Distribution.TrustedKeysURL); err != nil {
			return &ValidationError{Field: "distribution.trusted_keys_url", Message: err.Error()}
		}
	}

	if c.Download.Timeout <= 0 {
		return &ValidationError{Field: "download.timeout", Message: "must be positive"}
	}
	if c.Download.MaxRate < 0 {
		return &ValidationError{Field: "download.max_rate", Message: "cannot be negative"}
	}
	if c.Download.Parallel < 1 || c.Download.Parallel > MaxParallel {
		return &ValidationError{
			Field:   "download.parallel",
			Message: fmt.Sprintf("must be between 1 and %d, got %d", MaxParallel, c.Download.Parallel),
		}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Field: "log.level", Message: fmt.Sprintf("unknown level %q", c.Log.Level)}
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return &ValidationError{Field: "log.format", Message: fmt.Sprintf("unknown format %q", c.Log.Format)}
	}

	return nil
}

// ContentRootPath returns ContentRoot with "~/" expanded.
func (c *Config) ContentRootPath() (string, error) {
	return expandHome(c.ContentRoot)
}

// ManifestPath returns the absolute manifest location.
func (c *Config) ManifestPath() (string, error) {
	if filepath.IsAbs(c.Manifest) {
		return c.Manifest, nil
	}
	if strings.HasPrefix(c.Manifest, "~/") {
		return expandHome(c.Manifest)
	}
	root, err := c.ContentRootPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, filepath.FromSlash(c.Manifest)), nil
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return filepath.Clean(p), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(p, "~"), "/")), nil
}

// ValidationError represents a config validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return "config validation failed for " + e.Field + ": " + e.Message
	}
	return "config validation failed: " + e.Message
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("URL must use https:// or http:// scheme (got: %q)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host")
	}
	return nil
}
