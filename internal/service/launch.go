package service

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"github.com/cairn-launcher/cairn/internal/artifact"
	"github.com/cairn-launcher/cairn/internal/launchspec"
	"github.com/cairn-launcher/cairn/internal/lock"
)

// Layout directories under the content root.
const (
	VersionsDir  = "versions"
	LibrariesDir = "libraries"
	NativesDir   = "natives"
)

// LaunchRequest names a version document and the values substituted into
// its argument templates.
type LaunchRequest struct {
	// VersionFile is the version document path. A relative path is
	// resolved against the content root.
	VersionFile string
	// Vars are placeholder values such as auth_player_name. classpath,
	// natives_directory, game_directory and version_name default to the
	// values this service computes.
	Vars map[string]string
	// Ensure downloads the client and libraries before resolving.
	Ensure bool
}

// LaunchResult is everything the process runner needs.
type LaunchResult struct {
	MainClass string
	Classpath string
	JVM       []string
	Game      []string
	Artifacts []*artifact.Entry
}

// LaunchService resolves a version document for this machine.
type LaunchService struct {
	s *Session
}

// NewLaunchService creates a launch service for s.
func NewLaunchService(s *Session) *LaunchService {
	return &LaunchService{s: s}
}

// Prepare selects the libraries and arguments that apply on this machine
// and optionally ensures their files.
func (l *LaunchService) Prepare(ctx context.Context, req LaunchRequest) (*LaunchResult, error) {
	file := req.VersionFile
	if !filepath.IsAbs(file) {
		file = filepath.Join(l.s.root, file)
	}
	spec, err := launchspec.ReadFile(file)
	if err != nil {
		return nil, err
	}

	env := l.s.env
	libs, err := spec.LibraryEntries(env, LibrariesDir)
	if err != nil {
		return nil, err
	}
	natives, err := spec.NativeEntries(env, LibrariesDir)
	if err != nil {
		return nil, err
	}

	var artifacts []*artifact.Entry
	classpath := libs
	if spec.Downloads.Client != nil {
		client, err := spec.ClientEntry(path.Join(VersionsDir, spec.ID))
		if err != nil {
			return nil, err
		}
		classpath = append(append([]*artifact.Entry(nil), libs...), client)
	}
	artifacts = append(append(artifacts, classpath...), natives...)

	if req.Ensure {
		if err := l.ensure(ctx, artifacts); err != nil {
			return nil, err
		}
	}

	res := &LaunchResult{
		MainClass: spec.MainClass,
		Classpath: launchspec.Classpath(l.s.root, classpath...),
		Artifacts: artifacts,
	}

	vars := map[string]string{
		"classpath":         res.Classpath,
		"natives_directory": filepath.Join(l.s.root, NativesDir, spec.ID),
		"game_directory":    l.s.root,
		"version_name":      spec.ID,
		"version_type":      spec.Type,
		"launcher_name":     "cairn",
	}
	for k, v := range req.Vars {
		vars[k] = v
	}
	res.JVM, res.Game = spec.ResolveArguments(env, vars)

	l.s.log.Debug("launch prepared", "version", spec.ID, "libraries", len(libs), "natives", len(natives))
	return res, nil
}

func (l *LaunchService) ensure(ctx context.Context, entries []*artifact.Entry) error {
	lk, err := lock.Acquire(ctx, l.s.root)
	if err != nil {
		return err
	}
	defer func() {
		if err := lk.Release(); err != nil {
			l.s.log.Warn("failed to release lock", "path", lk.Path(), "error", err)
		}
	}()

	if err := l.s.manager.EnsureAll(ctx, entries); err != nil {
		return fmt.Errorf("ensure launch artifacts: %w", err)
	}
	return nil
}
