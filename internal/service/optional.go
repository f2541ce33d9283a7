package service

import (
	"context"
	"fmt"

	"github.com/cairn-launcher/cairn/internal/lock"
	"github.com/cairn-launcher/cairn/internal/optional"
)

// OptionalInfo describes one optional entry of the manifest.
type OptionalInfo struct {
	Path        string
	Name        string
	Description string
	Status      optional.Status
}

// OptionalService lists and toggles optional entries.
type OptionalService struct {
	s *Session
}

// NewOptionalService creates an optional service for s.
func NewOptionalService(s *Session) *OptionalService {
	return &OptionalService{s: s}
}

// List returns every optional entry with its state on disk.
func (o *OptionalService) List(ctx context.Context) ([]OptionalInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := o.s.Manifest()
	if err != nil {
		return nil, err
	}

	out := make([]OptionalInfo, 0, len(m.Optional))
	for _, e := range m.Optional {
		out = append(out, OptionalInfo{
			Path:        e.Path,
			Name:        e.Name,
			Description: e.Description,
			Status:      optional.New(o.s.manager, e).Status(),
		})
	}
	return out, nil
}

// SetRequest selects an optional entry by path or display name.
type SetRequest struct {
	Key     string
	Enabled bool
}

// Set enables or disables the optional entry named by req.Key.
func (o *OptionalService) Set(ctx context.Context, req SetRequest) (*OptionalInfo, error) {
	m, err := o.s.Manifest()
	if err != nil {
		return nil, err
	}
	e, ok := m.FindOptional(req.Key)
	if !ok {
		return nil, fmt.Errorf("no optional entry %q", req.Key)
	}

	l, err := lock.Acquire(ctx, o.s.root)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := l.Release(); err != nil {
			o.s.log.Warn("failed to release lock", "path", l.Path(), "error", err)
		}
	}()

	t := optional.New(o.s.manager, e)
	if req.Enabled {
		err = t.Enable(ctx)
	} else {
		err = t.Disable(ctx)
	}
	info := &OptionalInfo{Path: e.Path, Name: e.Name, Description: e.Description, Status: t.Status()}
	if err != nil {
		return info, fmt.Errorf("%s %s: %w", verb(req.Enabled), e.Path, err)
	}

	o.s.log.Info("optional entry updated", "path", e.Path, "status", info.Status)
	return info, nil
}

func verb(enable bool) string {
	if enable {
		return "enable"
	}
	return "disable"
}
