// Package optional manages artifacts the user may switch on and off.
//
// An optional artifact is enabled when its plain-named file exists and
// disabled when the same file carries the DisabledSuffix. The state is
// read from disk on every call and never stored anywhere else. After any
// operation at most one of the two files exists.
package optional

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/cairn-launcher/cairn/internal/artifact"
)

// DisabledSuffix is appended to the file name of a disabled artifact.
const DisabledSuffix = ".disabled"

// Status is the on-disk state of an optional artifact.
type Status string

const (
	StatusEnabled  Status = "enabled"
	StatusDisabled Status = "disabled"
	StatusAbsent   Status = "absent"
)

// DisabledPath returns the disabled sibling of a plain path.
func DisabledPath(plain string) string {
	return plain + DisabledSuffix
}

// Toggle switches one optional entry and its bundle.
type Toggle struct {
	m *artifact.Manager
	e *artifact.Entry
}

// New returns a toggle for e, whose files are resolved through m.
func New(m *artifact.Manager, e *artifact.Entry) *Toggle {
	return &Toggle{m: m, e: e}
}

// Entry returns the toggled entry.
func (t *Toggle) Entry() *artifact.Entry {
	return t.e
}

// Status reports whether the top-level file is enabled, disabled or absent.
func (t *Toggle) Status() Status {
	plain := t.m.LocalPath(t.e)
	switch {
	case isFile(plain):
		return StatusEnabled
	case isFile(DisabledPath(plain)):
		return StatusDisabled
	default:
		return StatusAbsent
	}
}

// Enabled reports whether the plain-named file exists.
func (t *Toggle) Enabled() bool {
	return t.Status() == StatusEnabled
}

// Enable restores every disabled file of the bundle under its plain name,
// then downloads whatever is absent or fails verification. Calling Enable
// on an enabled, valid artifact does nothing.
func (t *Toggle) Enable(ctx context.Context) error {
	var errs []error
	t.e.Walk(func(n *artifact.Entry) bool {
		if err := t.restore(n); err != nil {
			errs = append(errs, err)
		}
		return true
	})
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return t.m.Repair(ctx, t.e)
}

func (t *Toggle) restore(n *artifact.Entry) error {
	plain := t.m.LocalPath(n)
	disabled := DisabledPath(plain)
	if !isFile(disabled) {
		return nil
	}

	if isFile(plain) {
		// A plain file that appeared on its own wins over the parked copy.
		if err := os.Remove(disabled); err != nil {
			return fmt.Errorf("%w: %s: %w", artifact.ErrFilesystem, n.Path, err)
		}
		return nil
	}

	if err := os.Rename(disabled, plain); err != nil {
		return fmt.Errorf("%w: %s: %w", artifact.ErrFilesystem, n.Path, err)
	}
	return nil
}

// Disable parks every valid file of the bundle under its disabled name so
// a later Enable needs no download. Files that fail verification are
// deleted instead.
func (t *Toggle) Disable(ctx context.Context) error {
	var errs []error
	t.e.Walk(func(n *artifact.Entry) bool {
		if err := t.park(ctx, n); err != nil {
			errs = append(errs, err)
		}
		return true
	})
	return errors.Join(errs...)
}

func (t *Toggle) park(ctx context.Context, n *artifact.Entry) error {
	plain := t.m.LocalPath(n)
	if !isFile(plain) {
		return nil
	}

	disabled := DisabledPath(plain)
	if !t.m.Check(ctx, n) {
		if err := os.Remove(plain); err != nil {
			return fmt.Errorf("%w: %s: %w", artifact.ErrFilesystem, n.Path, err)
		}
		return nil
	}

	if err := os.Remove(disabled); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %s: %w", artifact.ErrFilesystem, n.Path, err)
	}
	if err := os.Rename(plain, disabled); err != nil {
		return fmt.Errorf("%w: %s: %w", artifact.ErrFilesystem, n.Path, err)
	}
	return nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
