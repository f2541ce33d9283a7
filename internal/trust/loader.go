package trust

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cairn-launcher/cairn/internal/logging"
)

// Fetcher retrieves a remote document into memory.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Document is the remote trusted-keys document.
type Document struct {
	TrustedKeys []DocumentKey `json:"trusted_keys"`
}

// DocumentKey is one entry of the trusted-keys document.
type DocumentKey struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

// Loader builds the process trust store exactly once: the root key, extended
// by a remote trusted-keys document that the root key itself has signed.
type Loader struct {
	root    Key
	url     string
	fetcher Fetcher
	log     logging.Logger

	once  sync.Once
	store *Store
}

// NewLoader creates a loader. An empty url disables the remote extension.
func NewLoader(root Key, url string, fetcher Fetcher, log logging.Logger) *Loader {
	return &Loader{
		root:    root,
		url:     url,
		fetcher: fetcher,
		log:     logging.OrNop(log),
	}
}

// Load returns the trust store, building it on the first call. Failure to
// fetch or validate the trusted-keys document is not fatal: the store then
// holds the root key only.
func (l *Loader) Load(ctx context.Context) *Store {
	l.once.Do(func() {
		keys, err := l.extension(ctx)
		if err != nil {
			l.log.Warn("trusted keys unavailable, using root key only", "url", l.url, "error", err)
		}
		l.store = NewStore(append([]Key{l.root}, keys...)...)
		l.log.Debug("trust store ready", "keys", l.store.Len())
	})
	return l.store
}

func (l *Loader) extension(ctx context.Context) ([]Key, error) {
	if l.url == "" || l.fetcher == nil {
		return nil, nil
	}

	data, err := l.fetcher.Fetch(ctx, l.url)
	if err != nil {
		return nil, fmt.Errorf("fetch trusted keys: %w", err)
	}

	sigData, err := l.fetcher.Fetch(ctx, l.url+SignatureExtension)
	if err != nil {
		return nil, fmt.Errorf("fetch trusted keys signature: %w", err)
	}

	sig, err := DecodeSignature(sigData)
	if err != nil {
		return nil, err
	}

	keys, skipped, err := ParseDocument(data, sig, l.root)
	for _, s := range skipped {
		l.log.Warn("skipping trusted key", "error", s)
	}
	return keys, err
}

// ParseDocument validates a trusted-keys document against root alone and
// returns its keys. Individually malformed keys are skipped and reported;
// they do not invalidate the rest of the document.
func ParseDocument(data, sig []byte, root Key) (keys []Key, skipped []error, err error) {
	if !NewStore(root).verifies(data, sig) {
		return nil, nil, fmt.Errorf("trusted keys document is not signed by the root key")
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parse trusted keys document: %w", err)
	}

	for i, dk := range doc.TrustedKeys {
		if dk.Name == "" {
			skipped = append(skipped, fmt.Errorf("trusted_keys[%d]: missing name", i))
			continue
		}
		k, err := ParseKey(dk.Name, dk.Key)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("trusted_keys[%d]: %w", i, err))
			continue
		}
		keys = append(keys, k)
	}

	return keys, skipped, nil
}

func (s *Store) verifies(data, sig []byte) bool {
	_, ok := s.VerifyBytes(data, sig)
	return ok
}
