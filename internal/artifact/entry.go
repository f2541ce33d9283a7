package artifact

import (
	"fmt"
	"path"
	"path/filepath"

	"github.com/cairn-launcher/cairn/internal/digest"
)

// SizeUnknown marks an artifact whose size was not declared. Light checks
// on such an artifact only test existence.
const SizeUnknown int64 = -1

// Source describes where an artifact comes from and how it is verified.
// It is either Hashed or Signed.
type Source interface {
	// DeclaredSize returns the expected byte length or SizeUnknown.
	DeclaredSize() int64
	isSource()
}

// Hashed is a third-party artifact verified against a hash published out
// of band. No signature is involved.
type Hashed struct {
	URL  string
	Size int64
	Hash digest.Sum
}

func (h Hashed) DeclaredSize() int64 { return h.Size }
func (Hashed) isSource()             {}

// Signed is a first-party artifact served from the distribution point and
// verified by a detached signature against the trust store.
type Signed struct {
	Size int64
}

func (s Signed) DeclaredSize() int64 { return s.Size }
func (Signed) isSource()             {}

// Descriptor is the static description of one artifact. Path is relative
// to the content root and uses forward slashes.
type Descriptor struct {
	Path        string
	Name        string
	Description string
	Source      Source
}

// Validate checks that the descriptor names a local path and carries a
// complete source.
func (d Descriptor) Validate() error {
	if err := ValidatePath(d.Path); err != nil {
		return err
	}

	switch src := d.Source.(type) {
	case Hashed:
		if src.URL == "" {
			return fmt.Errorf("%s: hashed artifact requires a url", d.Path)
		}
		if src.Hash.IsZero() {
			return fmt.Errorf("%s: hashed artifact requires a hash", d.Path)
		}
	case Signed:
	case nil:
		return fmt.Errorf("%s: no source", d.Path)
	default:
		return fmt.Errorf("%s: unsupported source %T", d.Path, src)
	}
	return nil
}

// ValidatePath rejects empty, absolute and escaping artifact paths.
func ValidatePath(p string) error {
	if p == "" || path.Clean(p) == "." {
		return fmt.Errorf("artifact path is empty")
	}
	if path.IsAbs(p) || !filepath.IsLocal(filepath.FromSlash(p)) {
		return fmt.Errorf("artifact path %q must be relative and stay within the content root", p)
	}
	return nil
}

// State is the position of an entry in the check/download cycle.
type State int

const (
	Unknown State = iota
	PresentUnverified
	Missing
	Valid
	Corrupt
)

func (s State) String() string {
	switch s {
	case PresentUnverified:
		return "present"
	case Missing:
		return "missing"
	case Valid:
		return "valid"
	case Corrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}

// Entry is one artifact and the bundle of artifacts it owns. The tree is
// built once from a manifest and never shared between parents. An entry
// tree is processed by one goroutine at a time.
type Entry struct {
	Descriptor
	Children []*Entry

	state State
}

// NewEntry creates an entry in the Unknown state.
func NewEntry(d Descriptor, children ...*Entry) *Entry {
	return &Entry{Descriptor: d, Children: children}
}

// State returns the result of the last check or download of this entry
// alone, ignoring its children.
func (e *Entry) State() State {
	return e.state
}

// Valid reports whether the entry and every descendant were found valid by
// the last deep check.
func (e *Entry) Valid() bool {
	if e.state != Valid {
		return false
	}
	for _, c := range e.Children {
		if !c.Valid() {
			return false
		}
	}
	return true
}

// Walk visits the entry and its descendants depth-first, parents before
// children. Returning false from fn skips the node's children.
func (e *Entry) Walk(fn func(*Entry) bool) {
	if !fn(e) {
		return
	}
	for _, c := range e.Children {
		c.Walk(fn)
	}
}

// Signed reports whether the entry is verified by signature.
func (e *Entry) Signed() bool {
	_, ok := e.Source.(Signed)
	return ok
}
