// Package manifest reads artifact manifests and regenerates them from a
// content directory.
//
// A manifest is a JSON document, optionally with comments and trailing
// commas:
//
//	{
//	  "main": [
//	    {"path": "libs/a.jar", "url": "https://...", "size": 10, "sha1": "..."},
//	    {"path": "config/options.txt", "sub_files": [{"path": "config/extra.txt"}]}
//	  ],
//	  "optional": [
//	    {"path": "mods/x.jar", "name": "X", "description": "..."}
//	  ]
//	}
//
// An entry with a url or a hash is a hashed third-party artifact and needs
// both. An entry with neither is a signed first-party artifact.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path"

	"github.com/tidwall/jsonc"

	"github.com/cairn-launcher/cairn/internal/artifact"
	"github.com/cairn-launcher/cairn/internal/digest"
)

// Section names of a manifest document.
const (
	SectionMain     = "main"
	SectionOptional = "optional"
)

// Manifest is a parsed manifest: two forests of artifact entries.
type Manifest struct {
	Main     []*artifact.Entry
	Optional []*artifact.Entry
}

// All returns the main entries followed by the optional ones.
func (m *Manifest) All() []*artifact.Entry {
	out := make([]*artifact.Entry, 0, len(m.Main)+len(m.Optional))
	out = append(out, m.Main...)
	return append(out, m.Optional...)
}

// FindOptional returns the top-level optional entry whose path or name is
// key.
func (m *Manifest) FindOptional(key string) (*artifact.Entry, bool) {
	for _, e := range m.Optional {
		if e.Path == key || (e.Name != "" && e.Name == key) {
			return e, true
		}
	}
	return nil, false
}

// EntryError describes a manifest entry that was skipped.
type EntryError struct {
	// Location is the entry position, e.g. "main[2].sub_files[0]".
	Location string
	// Path is the entry path when it could be read.
	Path string
	Err  error
}

func (e *EntryError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s (%s): %v", e.Location, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Location, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

type document struct {
	Main     []json.RawMessage `json:"main"`
	Optional []json.RawMessage `json:"optional"`
}

// entryDoc is the wire form of one entry.
type entryDoc struct {
	Path        string            `json:"path"`
	URL         string            `json:"url,omitempty"`
	Size        *int64            `json:"size,omitempty"`
	Hash        string            `json:"hash,omitempty"`
	SHA1        string            `json:"sha1,omitempty"`
	SHA256      string            `json:"sha256,omitempty"`
	SHA512      string            `json:"sha512,omitempty"`
	BLAKE3      string            `json:"blake3,omitempty"`
	Name        string            `json:"name,omitempty"`
	Description string            `json:"description,omitempty"`
	SubFiles    []json.RawMessage `json:"sub_files,omitempty"`
}

// Parse decodes a manifest. A document that is not valid JSON(C) is an
// error; malformed or duplicate entries are skipped with their subtree and
// returned as EntryErrors while their siblings are kept.
func Parse(data []byte) (*Manifest, []*EntryError, error) {
	var doc document
	if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
		return nil, nil, fmt.Errorf("parsing manifest: %w", err)
	}

	p := &parser{seen: make(map[string]string)}
	m := &Manifest{
		Main:     p.entries(SectionMain, doc.Main),
		Optional: p.entries(SectionOptional, doc.Optional),
	}
	return m, p.skipped, nil
}

// ReadFile reads and parses the manifest file.
func ReadFile(filename string) (*Manifest, []*EntryError, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", filename, err)
	}

	m, skipped, err := Parse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", filename, err)
	}
	return m, skipped, nil
}

type parser struct {
	// seen maps each accepted path to the location that declared it.
	seen    map[string]string
	skipped []*EntryError
}

func (p *parser) entries(location string, raws []json.RawMessage) []*artifact.Entry {
	var out []*artifact.Entry
	for i, raw := range raws {
		if e := p.entry(fmt.Sprintf("%s[%d]", location, i), raw); e != nil {
			out = append(out, e)
		}
	}
	return out
}

func (p *parser) entry(location string, raw json.RawMessage) *artifact.Entry {
	var doc entryDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		p.skip(location, "", err)
		return nil
	}

	desc, err := describe(doc)
	if err != nil {
		p.skip(location, doc.Path, err)
		return nil
	}
	if first, dup := p.seen[desc.Path]; dup {
		p.skip(location, doc.Path, fmt.Errorf("duplicate path, first declared at %s", first))
		return nil
	}
	p.seen[desc.Path] = location

	return artifact.NewEntry(desc, p.entries(location+".sub_files", doc.SubFiles)...)
}

func (p *parser) skip(location, entryPath string, err error) {
	p.skipped = append(p.skipped, &EntryError{Location: location, Path: entryPath, Err: err})
}

// describe decides the trust mode of an entry once.
func describe(doc entryDoc) (artifact.Descriptor, error) {
	desc := artifact.Descriptor{
		Path:        cleanPath(doc.Path),
		Name:        doc.Name,
		Description: doc.Description,
	}

	size := artifact.SizeUnknown
	if doc.Size != nil {
		if *doc.Size < 0 {
			return desc, fmt.Errorf("negative size %d", *doc.Size)
		}
		size = *doc.Size
	}

	sum, hashed, err := declaredHash(doc)
	if err != nil {
		return desc, err
	}

	if hashed || doc.URL != "" {
		desc.Source = artifact.Hashed{URL: doc.URL, Size: size, Hash: sum}
	} else {
		desc.Source = artifact.Signed{Size: size}
	}

	if err := desc.Validate(); err != nil {
		return desc, err
	}
	return desc, nil
}

func cleanPath(p string) string {
	if p == "" {
		return ""
	}
	return path.Clean(p)
}

// declaredHash picks the strongest digest the entry declares.
func declaredHash(doc entryDoc) (digest.Sum, bool, error) {
	candidates := []struct {
		alg   digest.Algorithm
		value string
	}{
		{digest.SHA512, doc.SHA512},
		{digest.BLAKE3, doc.BLAKE3},
		{digest.SHA256, doc.SHA256},
		{digest.SHA1, doc.SHA1},
	}
	for _, c := range candidates {
		if c.value == "" {
			continue
		}
		sum, err := digest.NewSum(c.alg, c.value)
		if err != nil {
			return digest.Sum{}, false, err
		}
		return sum, true, nil
	}

	if doc.Hash != "" {
		sum, err := digest.ParseSum(doc.Hash)
		if err != nil {
			return digest.Sum{}, false, err
		}
		return sum, true, nil
	}
	return digest.Sum{}, false, nil
}
