package trust

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
	"github.com/cloudflare/circl/sign/ed25519"
)

// The root public key is embedded at compile time. It is the only key that
// may vouch for the trusted-keys document.
//
//go:embed rootkey.pub
var embeddedRootKey string

// RootKeyName is the name given to the embedded root key.
const RootKeyName = "root"

// Algorithm identifies a public key algorithm.
type Algorithm string

const (
	// AlgorithmEd25519 keys are raw 32-byte Ed25519 public keys.
	AlgorithmEd25519 Algorithm = "ed25519"
	// AlgorithmOpenPGP keys are serialized OpenPGP public keys.
	AlgorithmOpenPGP Algorithm = "openpgp"
)

// Key is a named public key accepted for signature verification.
type Key struct {
	Name      string
	Algorithm Algorithm
	Raw       []byte

	// entities holds the parsed OpenPGP key ring for AlgorithmOpenPGP keys.
	entities openpgp.EntityList
}

// RootKey returns the embedded root key.
func RootKey() (Key, error) {
	key, err := ParseKey(RootKeyName, embeddedRootKey)
	if err != nil {
		return Key{}, fmt.Errorf("embedded root key: %w", err)
	}
	return key, nil
}

// ParseKey decodes an encoded public key. Accepted encodings:
//   - ed25519:<base64>
//   - openpgp:<base64 of a binary or armored key>
//   - <base64> (ed25519 when 32 bytes, otherwise OpenPGP)
func ParseKey(name, encoded string) (Key, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return Key{}, fmt.Errorf("key %q is empty", name)
	}

	var alg Algorithm
	if prefix, rest, ok := strings.Cut(encoded, ":"); ok {
		alg = Algorithm(strings.ToLower(prefix))
		encoded = rest
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Key{}, fmt.Errorf("key %q: invalid base64: %w", name, err)
	}

	if alg == "" {
		alg = AlgorithmOpenPGP
		if len(raw) == ed25519.PublicKeySize {
			alg = AlgorithmEd25519
		}
	}

	return NewKey(name, alg, raw)
}

// NewKey builds a Key from raw key bytes.
func NewKey(name string, alg Algorithm, raw []byte) (Key, error) {
	key := Key{Name: name, Algorithm: alg, Raw: raw}

	switch alg {
	case AlgorithmEd25519:
		if len(raw) != ed25519.PublicKeySize {
			return Key{}, fmt.Errorf("key %q: invalid ed25519 public key size: expected %d bytes, got %d",
				name, ed25519.PublicKeySize, len(raw))
		}
	case AlgorithmOpenPGP:
		entities, err := readKeyRing(raw)
		if err != nil {
			return Key{}, fmt.Errorf("key %q: %w", name, err)
		}
		key.entities = entities
	default:
		return Key{}, fmt.Errorf("key %q: unsupported algorithm %q", name, string(alg))
	}

	return key, nil
}

// readKeyRing parses an OpenPGP key ring, trying armored first.
func readKeyRing(raw []byte) (openpgp.EntityList, error) {
	keyring, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(raw))
	if err != nil {
		keyring, err = openpgp.ReadKeyRing(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
	}

	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring is empty")
	}

	return keyring, nil
}

// Fingerprint returns the first 8 bytes of the SHA-256 of the raw key, hex
// encoded.
func (k Key) Fingerprint() string {
	sum := sha256.Sum256(k.Raw)
	return hex.EncodeToString(sum[:8])
}

// Encode renders the key in the "algorithm:base64" form ParseKey accepts.
func (k Key) Encode() string {
	return string(k.Algorithm) + ":" + base64.StdEncoding.EncodeToString(k.Raw)
}

// String returns "name (algorithm:fingerprint)".
func (k Key) String() string {
	return fmt.Sprintf("%s (%s:%s)", k.Name, k.Algorithm, k.Fingerprint())
}

// sameKey reports whether a and b hold identical key material.
func sameKey(a, b Key) bool {
	return a.Algorithm == b.Algorithm && bytes.Equal(a.Raw, b.Raw)
}
