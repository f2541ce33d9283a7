package service

import (
	"context"
	"time"

	"github.com/cairn-launcher/cairn/internal/artifact"
	"github.com/cairn-launcher/cairn/internal/lock"
	"github.com/cairn-launcher/cairn/internal/optional"
)

// PassMode selects what a pass does to each entry.
type PassMode string

const (
	// ModeEnsure downloads entries that fail the light check.
	ModeEnsure PassMode = "ensure"
	// ModeVerify deep-checks entries and changes nothing.
	ModeVerify PassMode = "verify"
	// ModeRepair deep-checks entries and replaces any that fail.
	ModeRepair PassMode = "repair"
)

// PassRequest describes a pass over the manifest.
type PassRequest struct {
	Mode PassMode
	// IncludeOptional also processes optional entries that are currently
	// enabled. Disabled and absent optional entries are never touched.
	IncludeOptional bool
}

// PassResult summarizes a pass.
type PassResult struct {
	Mode     PassMode
	Entries  int
	Valid    bool
	Started  time.Time
	Duration time.Duration
}

// PassService runs ensure, verify and repair passes under the content
// root lock.
type PassService struct {
	s *Session
}

// NewPassService creates a pass service for s.
func NewPassService(s *Session) *PassService {
	return &PassService{s: s}
}

// Run executes one pass. Per-entry failures do not stop the pass; the
// returned error joins all of them.
func (p *PassService) Run(ctx context.Context, req PassRequest) (*PassResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err := p.s.Manifest()
	if err != nil {
		return nil, err
	}

	l, err := lock.Acquire(ctx, p.s.root)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := l.Release(); err != nil {
			p.s.log.Warn("failed to release lock", "path", l.Path(), "error", err)
		}
	}()

	entries := p.entries(m.Main, m.Optional, req.IncludeOptional)
	res := &PassResult{Mode: req.Mode, Entries: len(entries), Started: p.s.clock.Now()}
	p.s.log.Info("pass started", "mode", req.Mode, "entries", len(entries))

	mgr := p.s.manager
	var passErr error
	switch req.Mode {
	case ModeVerify:
		res.Valid = mgr.VerifyAll(ctx, entries)
		passErr = ctx.Err()
	case ModeRepair:
		passErr = mgr.RepairAll(ctx, entries)
		res.Valid = passErr == nil && allValid(entries)
	default:
		res.Mode = ModeEnsure
		// Ensure leaves present files unverified; Valid means nothing failed.
		passErr = mgr.EnsureAll(ctx, entries)
		res.Valid = passErr == nil
	}

	res.Duration = p.s.clock.Now().Sub(res.Started)
	p.s.log.Info("pass finished", "mode", res.Mode, "valid", res.Valid, "duration", res.Duration)
	return res, passErr
}

func (p *PassService) entries(main, opt []*artifact.Entry, includeOptional bool) []*artifact.Entry {
	out := append([]*artifact.Entry(nil), main...)
	if !includeOptional {
		return out
	}
	for _, e := range opt {
		if optional.New(p.s.manager, e).Enabled() {
			out = append(out, e)
		}
	}
	return out
}

func allValid(entries []*artifact.Entry) bool {
	for _, e := range entries {
		if !e.Valid() {
			return false
		}
	}
	return true
}
