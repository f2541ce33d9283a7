package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cairn-launcher/cairn/internal/lock"
	"github.com/cairn-launcher/cairn/internal/manifest"
)

// CurateRequest controls a manifest update.
type CurateRequest struct {
	// DryRun computes the update without renaming files or writing the
	// manifest.
	DryRun bool
}

// CurateResult is the outcome of a manifest update.
type CurateResult struct {
	*manifest.Result
	// Document is the updated manifest.
	Document []byte
	// Written is true when the manifest file was replaced.
	Written bool
}

// CurateService appends unaccounted content files to the manifest.
type CurateService struct {
	s *Session
}

// NewCurateService creates a curate service for s.
func NewCurateService(s *Session) *CurateService {
	return &CurateService{s: s}
}

// Update scans the content root and rewrites the manifest with every new
// file appended. A missing manifest is created.
func (c *CurateService) Update(ctx context.Context, req CurateRequest) (*CurateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l, err := lock.Acquire(ctx, c.s.root)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := l.Release(); err != nil {
			c.s.log.Warn("failed to release lock", "path", l.Path(), "error", err)
		}
	}()

	doc, err := os.ReadFile(c.s.manifestPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	root := c.s.root
	if req.DryRun {
		// Renames are part of the scan; a dry run works on a snapshot
		// of names only.
		root, err = snapshot(c.s.root)
		if err != nil {
			return nil, err
		}
		defer os.RemoveAll(root)
	}

	r := &manifest.Resolver{Root: root, Logger: c.s.log}
	if rel, ok := within(c.s.root, c.s.manifestPath); ok {
		r.Exclude = []string{rel}
	}

	out, res, err := r.Update(doc)
	if err != nil {
		return nil, err
	}
	result := &CurateResult{Result: res, Document: out}
	if req.DryRun || (len(res.Added) == 0 && doc != nil) {
		return result, nil
	}

	if err := writeAtomic(c.s.manifestPath, out); err != nil {
		return nil, err
	}
	result.Written = true
	c.s.log.Info("manifest updated", "path", c.s.manifestPath, "added", len(res.Added))
	return result, nil
}

// within returns target relative to root in slash form when target lies
// inside root.
func within(root, target string) (string, bool) {
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// snapshot mirrors the directory tree under root as empty files in a
// temporary directory.
func snapshot(root string) (string, error) {
	tmp, err := os.MkdirTemp("", "cairn-curate-*")
	if err != nil {
		return "", fmt.Errorf("create snapshot: %w", err)
	}
	err = filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		target := filepath.Join(tmp, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return os.WriteFile(target, nil, 0o644)
	})
	if err != nil {
		os.RemoveAll(tmp)
		return "", fmt.Errorf("create snapshot: %w", err)
	}
	return tmp, nil
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
