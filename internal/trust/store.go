package trust

import (
	"bytes"
)

// Store is an immutable, ordered set of trusted public keys. The root key
// is always first. A Store is safe for concurrent use.
type Store struct {
	keys []Key
}

// NewStore builds a store from keys in order. Keys whose material is
// already present are dropped.
func NewStore(keys ...Key) *Store {
	s := &Store{keys: make([]Key, 0, len(keys))}
	for _, k := range keys {
		if !s.contains(k) {
			s.keys = append(s.keys, k)
		}
	}
	return s
}

func (s *Store) contains(k Key) bool {
	for _, existing := range s.keys {
		if sameKey(existing, k) {
			return true
		}
	}
	return false
}

// Keys returns a copy of the trusted keys in verification order.
func (s *Store) Keys() []Key {
	out := make([]Key, len(s.keys))
	copy(out, s.keys)
	return out
}

// Len returns the number of trusted keys.
func (s *Store) Len() int {
	return len(s.keys)
}

// VerifyBytes tries every trusted key against data and sig and returns the
// first key that validates it.
func (s *Store) VerifyBytes(data, sig []byte) (Key, bool) {
	for _, k := range s.keys {
		if Verify(bytes.NewReader(data), sig, k) {
			return k, true
		}
	}
	return Key{}, false
}

// VerifyFile checks the file at path against the base64 detached signature
// stored at sigPath. Each trusted key is tried in order; the file is
// re-read per attempt so memory use stays bounded.
func (s *Store) VerifyFile(path, sigPath string) (Key, bool) {
	sig, err := ReadSignatureFile(sigPath)
	if err != nil {
		return Key{}, false
	}

	for _, k := range s.keys {
		if VerifyFile(path, sig, k) {
			return k, true
		}
	}
	return Key{}, false
}
