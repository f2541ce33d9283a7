// Package service wires configuration, trust, manifest and artifact
// management into the passes the command line runs.
//
// Each service takes a Request and returns a Result. Services never print;
// status lines go through the Reporter supplied in Deps.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/cairn-launcher/cairn/internal/artifact"
	"github.com/cairn-launcher/cairn/internal/config"
	"github.com/cairn-launcher/cairn/internal/logging"
	"github.com/cairn-launcher/cairn/internal/manifest"
	"github.com/cairn-launcher/cairn/internal/platform"
	"github.com/cairn-launcher/cairn/internal/rules"
	"github.com/cairn-launcher/cairn/internal/trust"
)

// ErrNoManifest is returned when the configured manifest file does not exist.
var ErrNoManifest = errors.New("manifest not found")

// Downloader is the transport a session fetches artifacts, signatures and
// the trusted-keys document through.
type Downloader interface {
	artifact.Downloader
	trust.Fetcher
}

// Deps are the collaborators of a Session.
type Deps struct {
	// Downloader is required.
	Downloader Downloader
	// Detector defaults to platform.NewDetector().
	Detector platform.Detector
	// Reporter receives status lines. Optional.
	Reporter artifact.Reporter
	// Logger is optional.
	Logger logging.Logger
	// RootKey replaces the embedded root key when set.
	RootKey *trust.Key
	// Clock defaults to RealClock.
	Clock Clock
}

// Session is one configured content root: the trust store built for it,
// the artifact manager over it and the rule environment of this machine.
type Session struct {
	cfg          *config.Config
	root         string
	manifestPath string
	log          logging.Logger
	clock        Clock

	store   *trust.Store
	manager *artifact.Manager
	env     rules.Environment
}

// Open builds a session from cfg. The trust store is bootstrapped here,
// once; a trusted-keys document that cannot be fetched or verified leaves
// the store with the root key only.
func Open(ctx context.Context, cfg *config.Config, deps Deps) (*Session, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Downloader == nil {
		return nil, fmt.Errorf("downloader is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logging.OrNop(deps.Logger)

	root, err := cfg.ContentRootPath()
	if err != nil {
		return nil, err
	}
	manifestPath, err := cfg.ManifestPath()
	if err != nil {
		return nil, err
	}

	key, err := rootKey(deps)
	if err != nil {
		return nil, err
	}
	store := trust.NewLoader(key, cfg.Distribution.TrustedKeysURL, deps.Downloader, log).Load(ctx)

	detector := deps.Detector
	if detector == nil {
		detector = platform.NewDetector()
	}
	info, err := detector.Detect(ctx)
	if err != nil {
		return nil, fmt.Errorf("detect platform: %w", err)
	}
	env := rules.FromPlatform(info, rules.Features{
		CustomResolution:     cfg.Features.CustomResolution,
		QuickPlayMultiplayer: cfg.Features.QuickPlayMultiplayer,
	})

	manager, err := artifact.NewManager(artifact.Config{
		Root:       root,
		BaseURL:    cfg.Distribution.BaseURL,
		Downloader: deps.Downloader,
		Trust:      store,
		Reporter:   deps.Reporter,
		Logger:     log,
		Parallel:   cfg.Download.Parallel,
	})
	if err != nil {
		return nil, err
	}

	clock := deps.Clock
	if clock == nil {
		clock = RealClock{}
	}

	log.Debug("session opened", "root", root, "os", env.OS, "arch", env.Arch, "keys", store.Len())
	return &Session{
		cfg:          cfg,
		root:         root,
		manifestPath: manifestPath,
		log:          log,
		clock:        clock,
		store:        store,
		manager:      manager,
		env:          env,
	}, nil
}

func rootKey(deps Deps) (trust.Key, error) {
	if deps.RootKey != nil {
		return *deps.RootKey, nil
	}
	key, err := trust.RootKey()
	if err != nil {
		return trust.Key{}, fmt.Errorf("load root key: %w", err)
	}
	return key, nil
}

// Root returns the content root directory.
func (s *Session) Root() string { return s.root }

// ManifestPath returns the manifest file location.
func (s *Session) ManifestPath() string { return s.manifestPath }

// Trust returns the session's trust store.
func (s *Session) Trust() *trust.Store { return s.store }

// Manager returns the artifact manager over the content root.
func (s *Session) Manager() *artifact.Manager { return s.manager }

// Environment returns the rule environment of this machine.
func (s *Session) Environment() rules.Environment { return s.env }

// Manifest reads the manifest. Malformed entries are logged and skipped.
func (s *Session) Manifest() (*manifest.Manifest, error) {
	m, skipped, err := manifest.ReadFile(s.manifestPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoManifest, s.manifestPath)
	}
	if err != nil {
		return nil, err
	}
	for _, e := range skipped {
		s.log.Warn("skipping manifest entry", "location", e.Location, "path", e.Path, "error", e.Err)
	}
	return m, nil
}
