// Package digest computes and compares content digests of local files.
//
// Files are streamed through the hash in fixed-size chunks so memory use
// stays constant regardless of artifact size.
package digest

import (
	"crypto/sha1" //nolint:gosec // sha1 is what third-party library indexes publish
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/zeebo/blake3"
)

// ChunkSize is the read buffer size used when hashing files.
const ChunkSize = 64 * 1024

// Algorithm identifies a digest algorithm.
type Algorithm string

const (
	SHA1   Algorithm = "sha1"
	SHA256 Algorithm = "sha256"
	SHA512 Algorithm = "sha512"
	BLAKE3 Algorithm = "blake3"
)

// String returns the algorithm identifier.
func (a Algorithm) String() string {
	return string(a)
}

// New returns a fresh hash for the algorithm.
func (a Algorithm) New() (hash.Hash, error) {
	switch a {
	case SHA1:
		return sha1.New(), nil //nolint:gosec
	case SHA256:
		return sha256.New(), nil
	case SHA512:
		return sha512.New(), nil
	case BLAKE3:
		return blake3.New(), nil
	default:
		return nil, fmt.Errorf("unsupported digest algorithm: %q", string(a))
	}
}

// hexLen returns the hex-encoded digest length of the algorithm.
func (a Algorithm) hexLen() int {
	switch a {
	case SHA1:
		return 40
	case SHA256, BLAKE3:
		return 64
	case SHA512:
		return 128
	default:
		return 0
	}
}

// ParseAlgorithm parses an algorithm identifier (case-insensitive).
func ParseAlgorithm(s string) (Algorithm, error) {
	a := Algorithm(strings.ToLower(strings.TrimSpace(s)))
	if _, err := a.New(); err != nil {
		return "", err
	}
	return a, nil
}

// Sum is an expected digest: algorithm plus lowercase hex value.
type Sum struct {
	Algorithm Algorithm
	Hex       string
}

// String renders the sum as "algorithm:hex".
func (s Sum) String() string {
	return s.Algorithm.String() + ":" + s.Hex
}

// IsZero reports whether the sum is unset.
func (s Sum) IsZero() bool {
	return s.Algorithm == "" && s.Hex == ""
}

// ParseSum parses "algorithm:hex" or a bare hex string. A bare value's
// algorithm is inferred from its length: 40 chars is sha1, 64 is sha256,
// 128 is sha512.
func ParseSum(s string) (Sum, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Sum{}, fmt.Errorf("empty digest")
	}

	if alg, value, ok := strings.Cut(s, ":"); ok {
		a, err := ParseAlgorithm(alg)
		if err != nil {
			return Sum{}, err
		}
		return NewSum(a, value)
	}

	switch len(s) {
	case 40:
		return NewSum(SHA1, s)
	case 64:
		return NewSum(SHA256, s)
	case 128:
		return NewSum(SHA512, s)
	default:
		return Sum{}, fmt.Errorf("cannot infer digest algorithm from %d hex characters", len(s))
	}
}

// NewSum validates value as a hex digest for algorithm a.
func NewSum(a Algorithm, value string) (Sum, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if want := a.hexLen(); want == 0 {
		return Sum{}, fmt.Errorf("unsupported digest algorithm: %q", string(a))
	} else if len(value) != want {
		return Sum{}, fmt.Errorf("%s digest must be %d hex characters, got %d", a, want, len(value))
	}
	if _, err := hex.DecodeString(value); err != nil {
		return Sum{}, fmt.Errorf("parsing %s digest: %w", a, err)
	}
	return Sum{Algorithm: a, Hex: value}, nil
}

// Reader hashes r and returns the raw digest bytes.
func Reader(r io.Reader, a Algorithm) ([]byte, error) {
	h, err := a.New()
	if err != nil {
		return nil, err
	}

	buf := make([]byte, ChunkSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return nil, err
	}

	return h.Sum(nil), nil
}

// File computes the hex digest of the file at path.
func File(path string, a Algorithm) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	sum, err := Reader(file, a)
	if err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}

	return hex.EncodeToString(sum), nil
}

// Matches reports whether the file at path has the expected digest.
// A read error is reported as a mismatch together with the error.
func Matches(path string, want Sum) (bool, error) {
	got, err := File(path, want.Algorithm)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(got, want.Hex), nil
}
