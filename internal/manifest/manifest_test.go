package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cairn-launcher/cairn/internal/artifact"
	"github.com/cairn-launcher/cairn/internal/digest"
)

var sha512Hex = strings.Repeat("ab", 64)

func TestParse_TrustModes(t *testing.T) {
	doc := `{
		// third-party library, published hash
		"main": [
			{"path": "a.txt", "url": "http://x/a.txt", "size": 10, "sha512": "` + sha512Hex + `"},
			{"path": "config/options.txt", "size": 42},
			{"path": "bin/client.jar", "url": "http://x/client.jar", "hash": "sha256:` + strings.Repeat("0", 64) + `"},
		],
		"optional": [
			{"path": "mods/x.jar", "name": "X", "description": "Adds X"}
		]
	}`

	m, skipped, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Empty(t, skipped)
	require.Len(t, m.Main, 3)
	require.Len(t, m.Optional, 1)

	hashed, ok := m.Main[0].Source.(artifact.Hashed)
	require.True(t, ok, "a.txt should be hashed")
	assert.Equal(t, "http://x/a.txt", hashed.URL)
	assert.Equal(t, int64(10), hashed.Size)
	assert.Equal(t, digest.Sum{Algorithm: digest.SHA512, Hex: sha512Hex}, hashed.Hash)

	signed, ok := m.Main[1].Source.(artifact.Signed)
	require.True(t, ok, "config/options.txt should be signed")
	assert.Equal(t, int64(42), signed.Size)

	client := m.Main[2].Source.(artifact.Hashed)
	assert.Equal(t, digest.SHA256, client.Hash.Algorithm)
	assert.Equal(t, artifact.SizeUnknown, client.Size)

	opt := m.Optional[0]
	assert.True(t, opt.Signed())
	assert.Equal(t, "X", opt.Name)
	assert.Equal(t, "Adds X", opt.Description)

	found, ok := m.FindOptional("X")
	require.True(t, ok)
	assert.Same(t, opt, found)
	_, ok = m.FindOptional("missing")
	assert.False(t, ok)

	assert.Len(t, m.All(), 4)
}

func TestParse_SkipsMalformedEntries(t *testing.T) {
	doc := `{"main": [
		{"path": "ok.txt"},
		{"path": "no-hash.jar", "url": "http://x/no-hash.jar"},
		{"path": "bad-hash.jar", "url": "http://x/bad.jar", "sha1": "zz"},
		{"path": "../escape.txt"},
		{"path": 7},
		{"path": "negative", "size": -1},
		{"path": "ok.txt"},
		{"path": "bundle", "sub_files": [
			{"path": "bundle/good"},
			{"url": "http://x/nameless"},
			{"path": "bundle/deeper", "sub_files": [{"path": "bundle/deeper/leaf"}]}
		]}
	]}`

	m, skipped, err := Parse([]byte(doc))
	require.NoError(t, err)

	var paths []string
	for _, e := range m.Main {
		paths = append(paths, e.Path)
	}
	assert.Equal(t, []string{"ok.txt", "bundle"}, paths)

	bundle := m.Main[1]
	require.Len(t, bundle.Children, 2)
	assert.Equal(t, "bundle/good", bundle.Children[0].Path)
	require.Len(t, bundle.Children[1].Children, 1)
	assert.Equal(t, "bundle/deeper/leaf", bundle.Children[1].Children[0].Path)

	var locations []string
	for _, s := range skipped {
		locations = append(locations, s.Location)
	}
	assert.Equal(t, []string{
		"main[1]", "main[2]", "main[3]", "main[4]", "main[5]", "main[6]",
		"main[7].sub_files[1]",
	}, locations)
	assert.Contains(t, skipped[5].Error(), "duplicate path")
}

func TestParse_DocumentErrors(t *testing.T) {
	_, _, err := Parse([]byte(`{"main": [`))
	assert.Error(t, err)

	_, _, err = Parse([]byte(`{"main": {"path": "a"}}`))
	assert.Error(t, err)
}

func TestEntryError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &EntryError{Location: "main[0]", Path: "a", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "main[0] (a): boom", err.Error())
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"main": [{"path": "a"}]}`), 0o644))

	m, _, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, m.Main, 1)

	_, _, err = ReadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
