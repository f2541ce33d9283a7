package artifact

import "errors"

// Failure classes. Errors returned by the Manager wrap one of these so
// callers can decide whether a failure is fatal.
var (
	// ErrNetwork marks a failed download or fetch.
	ErrNetwork = errors.New("network failure")
	// ErrTrust marks an artifact that still fails verification after a
	// fresh download.
	ErrTrust = errors.New("trust failure")
	// ErrFilesystem marks a failed local create, rename or delete.
	ErrFilesystem = errors.New("filesystem failure")
)
