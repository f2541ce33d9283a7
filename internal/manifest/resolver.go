package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/cairn-launcher/cairn/internal/logging"
	"github.com/cairn-launcher/cairn/internal/optional"
)

// Resolver regenerates a manifest from the files present under a content
// root. Existing entries are always kept as they are, including entries
// whose files have disappeared; only files no entry accounts for are
// appended to the main section as bare {"path": ...} entries, to be
// completed by hand with url, hash or a signature.
type Resolver struct {
	// Root is the content directory to scan.
	Root string
	// Exclude lists slash-separated paths relative to Root that are never
	// recorded, such as the manifest file itself.
	Exclude []string
	Logger  logging.Logger
}

// Result summarizes an update.
type Result struct {
	// Added are the new paths appended to the main section.
	Added []string
	// Renamed maps original relative paths to their normalized names.
	Renamed map[string]string
	// Skipped are files whose unsafe names could not be normalized.
	Skipped []string
}

// NormalizeName makes a file name safe on every filesystem the client
// runs on: spaces become underscores and apostrophes are dropped.
func NormalizeName(name string) string {
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "'", "")
	return strings.ReplaceAll(name, "’", "")
}

// Update returns doc with every unaccounted file under Root appended. An
// empty doc starts a new manifest. Files with unsafe names are renamed in
// place before they are recorded.
func (r *Resolver) Update(doc []byte) ([]byte, *Result, error) {
	log := logging.OrNop(r.Logger)

	top := make(map[string]json.RawMessage)
	if len(bytes.TrimSpace(doc)) > 0 {
		if err := json.Unmarshal(jsonc.ToJSON(doc), &top); err != nil {
			return nil, nil, fmt.Errorf("parsing manifest: %w", err)
		}
	}

	var main, opt []json.RawMessage
	if err := section(top, SectionMain, &main); err != nil {
		return nil, nil, err
	}
	if err := section(top, SectionOptional, &opt); err != nil {
		return nil, nil, err
	}

	k := newKnown()
	k.add(main)
	k.add(opt)

	files, res, err := r.scan(k, log)
	if err != nil {
		return nil, nil, err
	}

	for _, f := range files {
		raw, err := json.Marshal(struct {
			Path string `json:"path"`
		}{f})
		if err != nil {
			return nil, nil, err
		}
		main = append(main, raw)
		res.Added = append(res.Added, f)
		log.Info("new artifact", "path", f)
	}

	if len(res.Added) > 0 || top[SectionMain] == nil {
		if main == nil {
			main = []json.RawMessage{}
		}
		encoded, err := json.Marshal(main)
		if err != nil {
			return nil, nil, err
		}
		top[SectionMain] = encoded
	}

	out, err := json.MarshalIndent(top, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encoding manifest: %w", err)
	}
	return append(out, '\n'), res, nil
}

func section(top map[string]json.RawMessage, name string, dst *[]json.RawMessage) error {
	raw, ok := top[name]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("manifest section %q: %w", name, err)
	}
	return nil
}

// known indexes the paths and remote file names existing entries account
// for, through every level of sub_files.
type known struct {
	paths    map[string]bool
	urlNames map[string]bool
}

func newKnown() *known {
	return &known{paths: make(map[string]bool), urlNames: make(map[string]bool)}
}

func (k *known) add(raws []json.RawMessage) {
	for _, raw := range raws {
		var e struct {
			Path     string            `json:"path"`
			URL      string            `json:"url"`
			SubFiles []json.RawMessage `json:"sub_files"`
		}
		// Malformed entries are kept in the output but account for nothing.
		if err := json.Unmarshal(raw, &e); err != nil {
			continue
		}
		if e.Path != "" {
			k.paths[path.Clean(e.Path)] = true
		}
		if name := urlName(e.URL); name != "" {
			k.urlNames[name] = true
		}
		k.add(e.SubFiles)
	}
}

func (k *known) covers(p string) bool {
	candidates := []string{p}
	if plain, ok := strings.CutSuffix(p, optional.DisabledSuffix); ok {
		candidates = append(candidates, plain)
	}
	for _, c := range candidates {
		if k.paths[c] || k.urlNames[path.Base(c)] {
			return true
		}
	}
	return false
}

func urlName(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		return ""
	}
	return name
}

// scan lists the regular files under Root that k does not cover, as slash
// paths in walk order, skipping hidden files and directories (which include
// the signature mirror and in-progress downloads). Only uncovered files are
// renamed.
func (r *Resolver) scan(k *known, log logging.Logger) ([]string, *Result, error) {
	res := &Result{Renamed: make(map[string]string)}

	exclude := make(map[string]bool, len(r.Exclude))
	for _, e := range r.Exclude {
		exclude[path.Clean(e)] = true
	}

	var files []string
	err := filepath.WalkDir(r.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == r.Root {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(r.Root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if exclude[rel] || k.covers(rel) {
			return nil
		}

		if norm := NormalizeName(d.Name()); norm != d.Name() {
			target := filepath.Join(filepath.Dir(p), norm)
			if _, err := os.Lstat(target); err == nil {
				log.Warn("cannot normalize file name, target exists", "path", rel, "target", norm)
				res.Skipped = append(res.Skipped, rel)
				return nil
			}
			if err := os.Rename(p, target); err != nil {
				log.Warn("cannot normalize file name", "path", rel, "error", err)
				res.Skipped = append(res.Skipped, rel)
				return nil
			}
			renamed := path.Join(path.Dir(rel), norm)
			log.Info("renamed artifact", "from", rel, "to", renamed)
			res.Renamed[rel] = renamed
			rel = renamed
			if k.covers(rel) {
				return nil
			}
		}

		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("scanning %s: %w", r.Root, err)
	}

	return files, res, nil
}
