package artifact

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/cairn-launcher/cairn/internal/digest"
	"github.com/cairn-launcher/cairn/internal/logging"
	"github.com/cairn-launcher/cairn/internal/trust"
)

// SignatureDir is the directory under the content root that mirrors the
// artifact tree with detached signature files.
const SignatureDir = ".signatures"

// Downloader fetches a URL into a local file, replacing it.
type Downloader interface {
	DownloadToFile(ctx context.Context, url, destPath string) error
}

// Config holds the collaborators of a Manager.
type Config struct {
	// Root is the content root all artifact paths are relative to.
	Root string
	// BaseURL is the distribution point serving signed artifacts and their
	// signatures.
	BaseURL string
	// Downloader is required.
	Downloader Downloader
	// Trust verifies signed artifacts. A nil store rejects every signature.
	Trust *trust.Store
	// Reporter receives one status per artifact. Optional.
	Reporter Reporter
	// Logger is optional.
	Logger logging.Logger
	// Parallel bounds how many top-level entries are processed at once.
	// Values below 1 mean one.
	Parallel int
}

// Manager runs checks and downloads over entry trees.
type Manager struct {
	root       string
	baseURL    string
	downloader Downloader
	trust      *trust.Store
	reporter   Reporter
	log        logging.Logger
	parallel   int
}

// NewManager creates a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("content root is required")
	}
	if cfg.Downloader == nil {
		return nil, fmt.Errorf("downloader is required")
	}

	m := &Manager{
		root:       cfg.Root,
		baseURL:    cfg.BaseURL,
		downloader: cfg.Downloader,
		trust:      cfg.Trust,
		reporter:   cfg.Reporter,
		log:        logging.OrNop(cfg.Logger),
		parallel:   cfg.Parallel,
	}
	if m.reporter == nil {
		m.reporter = nopReporter{}
	}
	if m.parallel < 1 {
		m.parallel = 1
	}
	return m, nil
}

// Root returns the content root.
func (m *Manager) Root() string {
	return m.root
}

// LocalPath returns where the entry lives on disk.
func (m *Manager) LocalPath(e *Entry) string {
	return filepath.Join(m.root, filepath.FromSlash(e.Path))
}

// SignaturePath returns where the detached signature of a signed entry is
// stored.
func (m *Manager) SignaturePath(e *Entry) string {
	return filepath.Join(m.root, SignatureDir, filepath.FromSlash(e.Path)+trust.SignatureExtension)
}

// URL returns the remote location of the entry.
func (m *Manager) URL(e *Entry) (string, error) {
	switch src := e.Source.(type) {
	case Hashed:
		return src.URL, nil
	case Signed:
		if m.baseURL == "" {
			return "", fmt.Errorf("no distribution base url for signed artifact %s", e.Path)
		}
		return url.JoinPath(m.baseURL, e.Path)
	default:
		return "", fmt.Errorf("%s: unsupported source %T", e.Path, src)
	}
}

// LightCheck tests existence and declared size of the entry and all its
// descendants. A same-length corrupt file passes.
func (m *Manager) LightCheck(e *Entry) bool {
	ok := m.lightCheck(e)
	for _, c := range e.Children {
		if !m.LightCheck(c) {
			ok = false
		}
	}
	return ok
}

func (m *Manager) lightCheck(e *Entry) bool {
	info, err := os.Stat(m.LocalPath(e))
	switch {
	case err != nil || !info.Mode().IsRegular():
		e.state = Missing
	case sizeMismatch(e, info.Size()):
		e.state = Corrupt
	default:
		e.state = PresentUnverified
	}
	return e.state == PresentUnverified
}

func sizeMismatch(e *Entry, actual int64) bool {
	want := e.Source.DeclaredSize()
	return want != SizeUnknown && want != actual
}

// DeepCheck authoritatively verifies the entry and all its descendants,
// reporting one status per artifact. Every descendant is checked even
// after a failure.
func (m *Manager) DeepCheck(ctx context.Context, e *Entry) bool {
	ok := m.Check(ctx, e)
	for _, c := range e.Children {
		if !m.DeepCheck(ctx, c) {
			ok = false
		}
	}
	return ok
}

// Check deep-checks e alone, leaving its children untouched.
func (m *Manager) Check(ctx context.Context, e *Entry) bool {
	ok := m.deepCheck(ctx, e)
	m.report(e)
	return ok
}

func (m *Manager) deepCheck(ctx context.Context, e *Entry) bool {
	local := m.LocalPath(e)
	info, err := os.Stat(local)
	if err != nil || !info.Mode().IsRegular() {
		e.state = Missing
		return false
	}
	if sizeMismatch(e, info.Size()) {
		e.state = Corrupt
		return false
	}

	var valid bool
	switch src := e.Source.(type) {
	case Hashed:
		ok, err := digest.Matches(local, src.Hash)
		if err != nil {
			m.log.Warn("digest failed", "path", e.Path, "error", err)
		}
		valid = ok
	case Signed:
		valid = m.verifySignature(ctx, e)
	}

	if valid {
		e.state = Valid
	} else {
		e.state = Corrupt
	}
	return valid
}

func (m *Manager) verifySignature(ctx context.Context, e *Entry) bool {
	if m.trust == nil {
		return false
	}

	sigPath := m.SignaturePath(e)
	if _, err := os.Stat(sigPath); err != nil {
		if err := m.fetchSignature(ctx, e, sigPath); err != nil {
			m.log.Warn("signature unavailable", "path", e.Path, "error", err)
			return false
		}
	}

	key, ok := m.trust.VerifyFile(m.LocalPath(e), sigPath)
	if ok {
		m.log.Debug("signature verified", "path", e.Path, "key", key.Name)
	}
	return ok
}

func (m *Manager) fetchSignature(ctx context.Context, e *Entry, sigPath string) error {
	if m.baseURL == "" {
		return fmt.Errorf("no distribution base url")
	}
	sigURL, err := url.JoinPath(m.baseURL, e.Path+trust.SignatureExtension)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(sigPath), 0o755); err != nil {
		return err
	}
	return m.downloader.DownloadToFile(ctx, sigURL, sigPath)
}

// Download fetches the entry and all its descendants, overwriting local
// files. Results are not verified; callers decide when to check.
func (m *Manager) Download(ctx context.Context, e *Entry) error {
	var errs []error
	if err := m.download(ctx, e); err != nil {
		errs = append(errs, err)
	}
	for _, c := range e.Children {
		if err := m.Download(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) download(ctx context.Context, e *Entry) error {
	err := m.fetch(ctx, e)
	if err != nil {
		m.reporter.Report(e.Path, OutcomeFailed, err)
		return err
	}
	e.state = PresentUnverified
	m.reporter.Report(e.Path, OutcomeDownloaded, nil)
	return nil
}

func (m *Manager) fetch(ctx context.Context, e *Entry) error {
	src, err := m.URL(e)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNetwork, e.Path, err)
	}

	local := m.LocalPath(e)
	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrFilesystem, e.Path, err)
	}

	m.log.Debug("downloading artifact", "path", e.Path, "url", src)
	if err := m.downloader.DownloadToFile(ctx, src, local); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNetwork, e.Path, err)
	}

	// A new artifact invalidates the signature mirrored for the old one.
	if e.Signed() {
		if err := removeIfExists(m.SignaturePath(e)); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrFilesystem, e.Path, err)
		}
	}
	return nil
}

// Ensure is the routine startup policy: every artifact in the tree that
// fails the light check is reported missing or corrupt and downloaded.
// Artifacts that pass are left alone.
func (m *Manager) Ensure(ctx context.Context, e *Entry) error {
	var errs []error
	if m.lightCheck(e) {
		m.reporter.Report(e.Path, OutcomeOK, nil)
	} else {
		m.report(e)
		if err := m.download(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	for _, c := range e.Children {
		if err := m.Ensure(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Repair is the audit policy: every artifact that fails the deep check is
// deleted, downloaded again and re-verified. An artifact that still fails
// yields an ErrTrust error.
func (m *Manager) Repair(ctx context.Context, e *Entry) error {
	var errs []error
	if err := m.repair(ctx, e); err != nil {
		errs = append(errs, err)
	}
	for _, c := range e.Children {
		if err := m.Repair(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) repair(ctx context.Context, e *Entry) error {
	if m.deepCheck(ctx, e) {
		m.report(e)
		return nil
	}
	m.report(e)

	if err := removeIfExists(m.LocalPath(e)); err != nil {
		err = fmt.Errorf("%w: %s: %w", ErrFilesystem, e.Path, err)
		m.reporter.Report(e.Path, OutcomeFailed, err)
		return err
	}
	if err := m.download(ctx, e); err != nil {
		return err
	}

	if !m.deepCheck(ctx, e) {
		err := fmt.Errorf("%w: %s does not verify after download", ErrTrust, e.Path)
		m.reporter.Report(e.Path, OutcomeFailed, err)
		return err
	}
	return nil
}

// EnsureAll runs Ensure over top-level entries in parallel and returns the
// joined errors of all entries.
func (m *Manager) EnsureAll(ctx context.Context, entries []*Entry) error {
	return m.each(ctx, entries, m.Ensure)
}

// RepairAll runs Repair over top-level entries in parallel.
func (m *Manager) RepairAll(ctx context.Context, entries []*Entry) error {
	return m.each(ctx, entries, m.Repair)
}

// VerifyAll runs DeepCheck over top-level entries in parallel and reports
// whether every artifact is valid.
func (m *Manager) VerifyAll(ctx context.Context, entries []*Entry) bool {
	err := m.each(ctx, entries, func(ctx context.Context, e *Entry) error {
		if !m.DeepCheck(ctx, e) {
			return fmt.Errorf("%s: not valid", e.Path)
		}
		return nil
	})
	return err == nil
}

// each applies fn to every entry with bounded parallelism. One subtree is
// always handled by a single goroutine, and a failing entry does not stop
// the others.
func (m *Manager) each(ctx context.Context, entries []*Entry, fn func(context.Context, *Entry) error) error {
	errs := make([]error, len(entries))

	var g errgroup.Group
	g.SetLimit(m.parallel)
	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			errs[i] = fn(ctx, e)
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

func (m *Manager) report(e *Entry) {
	switch e.state {
	case Valid:
		m.reporter.Report(e.Path, OutcomeOK, nil)
	case Missing:
		m.reporter.Report(e.Path, OutcomeMissing, nil)
	default:
		m.reporter.Report(e.Path, OutcomeCorrupt, nil)
	}
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
