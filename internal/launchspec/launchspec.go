// Package launchspec reads a game version document and turns it into the
// artifacts and arguments needed to start that version.
//
// Libraries and arguments carry the same conditional rules; both are
// filtered through package rules.
package launchspec

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/cairn-launcher/cairn/internal/artifact"
	"github.com/cairn-launcher/cairn/internal/digest"
	"github.com/cairn-launcher/cairn/internal/rules"
)

// Download is a published file with its SHA-1 and size.
type Download struct {
	Path string `json:"path,omitempty"`
	URL  string `json:"url"`
	SHA1 string `json:"sha1"`
	Size int64  `json:"size"`
}

// LibraryDownloads groups the main artifact and the classifier variants of
// a library.
type LibraryDownloads struct {
	Artifact    *Download           `json:"artifact,omitempty"`
	Classifiers map[string]Download `json:"classifiers,omitempty"`
}

// Library is one library of a version.
type Library struct {
	// Name is the Maven coordinate group:artifact:version[:classifier].
	Name      string            `json:"name"`
	Downloads LibraryDownloads  `json:"downloads"`
	Natives   map[string]string `json:"natives,omitempty"`
	Rules     []rules.Rule      `json:"rules,omitempty"`
}

// Spec is a parsed version document.
type Spec struct {
	ID        string `json:"id"`
	Type      string `json:"type,omitempty"`
	MainClass string `json:"mainClass"`
	Downloads struct {
		Client *Download `json:"client,omitempty"`
	} `json:"downloads"`
	Libraries []Library `json:"libraries"`
	Arguments struct {
		Game []rules.Argument `json:"game,omitempty"`
		JVM  []rules.Argument `json:"jvm,omitempty"`
	} `json:"arguments"`
	// MinecraftArguments is the single-string argument form of older
	// documents.
	MinecraftArguments string `json:"minecraftArguments,omitempty"`
}

// Parse decodes a version document and checks its rules.
func Parse(data []byte) (*Spec, error) {
	var s Spec
	if err := json.Unmarshal(jsonc.ToJSON(data), &s); err != nil {
		return nil, fmt.Errorf("parsing version document: %w", err)
	}
	if s.ID == "" {
		return nil, fmt.Errorf("version document has no id")
	}
	if s.MainClass == "" {
		return nil, fmt.Errorf("version %s has no mainClass", s.ID)
	}

	for i, lib := range s.Libraries {
		if err := rules.Validate(lib.Rules); err != nil {
			return nil, fmt.Errorf("libraries[%d] %s: %w", i, lib.Name, err)
		}
	}
	if err := validateArguments("arguments.game", s.Arguments.Game); err != nil {
		return nil, err
	}
	if err := validateArguments("arguments.jvm", s.Arguments.JVM); err != nil {
		return nil, err
	}
	return &s, nil
}

func validateArguments(field string, args []rules.Argument) error {
	for i, a := range args {
		if err := rules.Validate(a.Rules); err != nil {
			return fmt.Errorf("%s[%d]: %w", field, i, err)
		}
	}
	return nil
}

// ReadFile reads and parses the version document at filename.
func ReadFile(filename string) (*Spec, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return s, nil
}

// ClientEntry returns the client jar as a hashed artifact stored at
// dir/<id>.jar.
func (s *Spec) ClientEntry(dir string) (*artifact.Entry, error) {
	if s.Downloads.Client == nil {
		return nil, fmt.Errorf("version %s has no client download", s.ID)
	}
	return entry(path.Join(dir, s.ID+".jar"), *s.Downloads.Client)
}

// LibraryEntries returns the class path libraries that apply in env,
// stored under dir.
func (s *Spec) LibraryEntries(env rules.Environment, dir string) ([]*artifact.Entry, error) {
	return s.collect(env, dir, func(lib Library) (Download, bool) {
		if lib.Downloads.Artifact == nil || lib.Downloads.Artifact.URL == "" {
			return Download{}, false
		}
		d := *lib.Downloads.Artifact
		if d.Path == "" {
			d.Path = mavenPath(lib.Name, "")
		}
		return d, true
	})
}

// NativeEntries returns the native classifier archives that apply in env.
// "${arch}" in a classifier name is replaced with the pointer width.
func (s *Spec) NativeEntries(env rules.Environment, dir string) ([]*artifact.Entry, error) {
	return s.collect(env, dir, func(lib Library) (Download, bool) {
		classifier, ok := lib.Natives[env.OS]
		if !ok {
			return Download{}, false
		}
		classifier = strings.ReplaceAll(classifier, "${arch}", archBits(env.Arch))
		d, ok := lib.Downloads.Classifiers[classifier]
		if !ok || d.URL == "" {
			return Download{}, false
		}
		if d.Path == "" {
			d.Path = mavenPath(lib.Name, classifier)
		}
		return d, true
	})
}

func (s *Spec) collect(env rules.Environment, dir string, pick func(Library) (Download, bool)) ([]*artifact.Entry, error) {
	var out []*artifact.Entry
	seen := make(map[string]bool)
	for _, lib := range s.Libraries {
		if !rules.Allowed(lib.Rules, env) {
			continue
		}
		d, ok := pick(lib)
		if !ok || d.Path == "" {
			continue
		}

		p := path.Join(dir, d.Path)
		if seen[p] {
			continue
		}
		seen[p] = true

		e, err := entry(p, d)
		if err != nil {
			return nil, fmt.Errorf("library %s: %w", lib.Name, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func entry(p string, d Download) (*artifact.Entry, error) {
	sum, err := digest.NewSum(digest.SHA1, d.SHA1)
	if err != nil {
		return nil, err
	}

	size := d.Size
	if size <= 0 {
		size = artifact.SizeUnknown
	}

	desc := artifact.Descriptor{
		Path:   p,
		Name:   path.Base(p),
		Source: artifact.Hashed{URL: d.URL, Size: size, Hash: sum},
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return artifact.NewEntry(desc), nil
}

// ResolveArguments returns the JVM and game arguments that apply in env
// with placeholders substituted from vars.
func (s *Spec) ResolveArguments(env rules.Environment, vars map[string]string) (jvm, game []string) {
	jvm = rules.Resolve(s.Arguments.JVM, env, vars)
	if len(s.Arguments.Game) > 0 {
		game = rules.Resolve(s.Arguments.Game, env, vars)
		return jvm, game
	}

	for _, f := range strings.Fields(s.MinecraftArguments) {
		game = append(game, rules.Expand(f, vars))
	}
	return jvm, game
}

// Classpath joins the local paths of entries under root with the host's
// path list separator.
func Classpath(root string, entries ...*artifact.Entry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, filepath.Join(root, filepath.FromSlash(e.Path)))
	}
	return strings.Join(parts, string(os.PathListSeparator))
}

// mavenPath derives the repository layout path of a coordinate,
// e.g. "org.lwjgl:lwjgl:3.3.1" -> "org/lwjgl/lwjgl/3.3.1/lwjgl-3.3.1.jar".
func mavenPath(name, classifier string) string {
	parts := strings.Split(name, ":")
	if len(parts) < 3 {
		return ""
	}
	group, id, version := parts[0], parts[1], parts[2]
	if classifier == "" && len(parts) > 3 {
		classifier = parts[3]
	}

	file := id + "-" + version
	if classifier != "" {
		file += "-" + classifier
	}
	return path.Join(strings.ReplaceAll(group, ".", "/"), id, version, file+".jar")
}

func archBits(arch string) string {
	if arch == "x86" || arch == "arm32" {
		return "32"
	}
	return "64"
}
