// Package download fetches remote artifacts over HTTP.
//
// Downloads are written to a temporary sibling and renamed into place, so a
// reader never observes a half-written artifact. Concurrent requests for the
// same destination path share one in-flight transfer.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 5 * time.Minute
	// DefaultUserAgent is the User-Agent header sent with requests
	DefaultUserAgent = "cairn/1.0"
	// MaxDocumentSize bounds documents fetched into memory by Fetch
	MaxDocumentSize = 4 << 20
	// maxRedirects is the redirect limit for a single request
	maxRedirects = 10
)

// ErrStatus is returned when the server answers with a non-200 status.
var ErrStatus = errors.New("unexpected status code")

// Options configures a Downloader.
type Options struct {
	// Timeout bounds one request including the body transfer.
	Timeout time.Duration
	// UserAgent overrides DefaultUserAgent.
	UserAgent string
	// MaxBytesPerSecond throttles body transfer; 0 means unlimited.
	MaxBytesPerSecond int
	// Client replaces the default HTTP client (tests).
	Client *http.Client
}

// Downloader handles HTTP downloads. It does not retry: a failed transfer
// is returned to the caller, which decides whether it is fatal.
type Downloader struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
	inflight  singleflight.Group
}

// New creates a downloader.
func New(opts Options) *Downloader {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		}
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	d := &Downloader{
		client:    client,
		userAgent: userAgent,
	}

	if opts.MaxBytesPerSecond > 0 {
		d.limiter = rate.NewLimiter(rate.Limit(opts.MaxBytesPerSecond), opts.MaxBytesPerSecond)
	}

	return d
}

// DownloadToFile downloads url to destPath, overwriting any existing file.
// Only one transfer per destination path runs at a time; concurrent callers
// for the same path wait for and share its result.
func (d *Downloader) DownloadToFile(ctx context.Context, url, destPath string) error {
	key := filepath.Clean(destPath)
	_, err, _ := d.inflight.Do(key, func() (interface{}, error) {
		return nil, d.downloadOnce(ctx, url, destPath)
	})
	return err
}

// Fetch downloads url into memory. Documents larger than MaxDocumentSize
// are rejected.
func (d *Downloader) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := d.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(d.body(ctx, resp.Body), MaxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if len(data) > MaxDocumentSize {
		return nil, fmt.Errorf("document at %s exceeds %d bytes", url, MaxDocumentSize)
	}

	return data, nil
}

func (d *Downloader) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	return resp, nil
}

// downloadOnce performs a single download attempt
func (d *Downloader) downloadOnce(ctx context.Context, url, destPath string) error {
	resp, err := d.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	destDir := filepath.Dir(destPath)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	tmpFile, err := os.CreateTemp(destDir, "."+filepath.Base(destPath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Track whether we need to clean up the temp file
	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, d.body(ctx, resp.Body)); err != nil {
		return fmt.Errorf("copy response body: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	cleanupNeeded = false
	return nil
}

func (d *Downloader) body(ctx context.Context, r io.Reader) io.Reader {
	if d.limiter == nil {
		return r
	}
	return &throttledReader{ctx: ctx, r: r, limiter: d.limiter}
}

// throttledReader waits on a shared token bucket for every chunk it returns.
type throttledReader struct {
	ctx     context.Context
	r       io.Reader
	limiter *rate.Limiter
}

func (t *throttledReader) Read(p []byte) (int, error) {
	if burst := t.limiter.Burst(); len(p) > burst {
		p = p[:burst]
	}
	n, err := t.r.Read(p)
	if n > 0 {
		if waitErr := t.limiter.WaitN(t.ctx, n); waitErr != nil {
			return n, waitErr
		}
	}
	return n, err
}
