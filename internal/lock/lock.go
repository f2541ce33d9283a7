// Package lock provides the exclusive lock a content root is held under
// while a pass checks, downloads or rewrites its files.
package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// FileName is the lock file created in the locked directory. It is
	// hidden so manifest regeneration never records it.
	FileName = ".cairn.lock"

	// StaleThreshold is the age after which a lock left behind by a
	// crashed process is taken over.
	StaleThreshold = 30 * time.Minute
)

// ErrLockExists is returned when another pass holds the lock.
var ErrLockExists = errors.New("content root is locked: another cairn pass may be running")

// Lock is a held content-root lock.
type Lock struct {
	path string
	file *os.File
}

// Acquire takes the lock for dir, creating dir if needed. A lock older
// than StaleThreshold is removed and acquisition retried once.
func Acquire(ctx context.Context, dir string) (*Lock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	path := filepath.Join(dir, FileName)
	file, err := create(path)
	if errors.Is(err, os.ErrExist) {
		if !isStale(path) {
			return nil, fmt.Errorf("%w (%s)", ErrLockExists, holder(path))
		}
		_ = os.Remove(path)
		file, err = create(path)
		if errors.Is(err, os.ErrExist) {
			return nil, ErrLockExists
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create lock file: %w", err)
	}

	data := fmt.Sprintf("pid=%d\ntimestamp=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if _, err := file.WriteString(data); err != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("write lock data: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("sync lock file: %w", err)
	}

	return &Lock{path: path, file: file}, nil
}

func create(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release removes the lock. Releasing twice is a no-op.
func (l *Lock) Release() error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
	if l.path == "" {
		return nil
	}

	err := os.Remove(l.path)
	l.path = ""
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}

func isStale(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) > StaleThreshold
}

// holder describes the process recorded in a lock file.
func holder(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "holder unknown"
	}
	return strings.Join(strings.Fields(string(data)), " ")
}
