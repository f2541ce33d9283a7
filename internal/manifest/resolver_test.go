package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root string, rel string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(rel), 0o644))
}

func decodeSections(t *testing.T, data []byte) map[string][]json.RawMessage {
	t.Helper()
	var top map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &top))

	out := make(map[string][]json.RawMessage)
	for _, name := range []string{SectionMain, SectionOptional} {
		if raw, ok := top[name]; ok {
			var entries []json.RawMessage
			require.NoError(t, json.Unmarshal(raw, &entries))
			out[name] = entries
		}
	}
	return out
}

const existing = `{
	"main": [
		{"path": "a.txt", "url": "http://x/a.txt", "size": 10, "sha1": "` + "0123456789012345678901234567890123456789" + `", "note": "kept"},
		{"path": "libs/renamed-upstream.jar", "url": "https://repo.example.com/b.jar", "sha1": "` + "0123456789012345678901234567890123456789" + `"},
		{"path": "bundle/main.cfg", "sub_files": [
			{"path": "bundle/parts/c.txt", "sub_files": [{"path": "bundle/parts/deep.txt"}]}
		]},
		{"path": "stale/removed-from-disk.txt"},
		"not an object"
	],
	"optional": [
		{"path": "mods/x.jar", "name": "X"}
	],
	"format": 1
}`

func TestResolver_Update_NonDestructiveAppend(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{
		"a.txt",
		"libs/b.jar",
		"bundle/main.cfg",
		"bundle/parts/c.txt",
		"bundle/parts/deep.txt",
		"mods/x.jar.disabled",
		"new.txt",
		"dir/My Mod's File.jar",
		".signatures/a.txt.sig",
		"libs/.b.jar.123.tmp",
		"manifest.json",
	} {
		touch(t, root, rel)
	}

	r := &Resolver{Root: root, Exclude: []string{"manifest.json"}}
	out, res, err := r.Update([]byte(existing))
	require.NoError(t, err)

	assert.Equal(t, []string{"dir/My_Mods_File.jar", "new.txt"}, res.Added)
	assert.Equal(t, map[string]string{"dir/My Mod's File.jar": "dir/My_Mods_File.jar"}, res.Renamed)
	assert.Empty(t, res.Skipped)
	assert.FileExists(t, filepath.Join(root, "dir", "My_Mods_File.jar"))
	assert.NoFileExists(t, filepath.Join(root, "dir", "My Mod's File.jar"))

	before := decodeSections(t, []byte(existing))
	after := decodeSections(t, out)

	require.Len(t, after["main"], len(before["main"])+2)
	for i, raw := range before["main"] {
		assert.JSONEq(t, string(raw), string(after["main"][i]), "existing entry %d changed", i)
	}
	assert.JSONEq(t, `{"path": "dir/My_Mods_File.jar"}`, string(after["main"][5]))
	assert.JSONEq(t, `{"path": "new.txt"}`, string(after["main"][6]))

	require.Len(t, after["optional"], 1)
	assert.JSONEq(t, string(before["optional"][0]), string(after["optional"][0]))

	var top map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &top))
	assert.JSONEq(t, `1`, string(top["format"]))
}

func TestResolver_Update_Idempotent(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "one.txt")
	touch(t, root, "sub/two.txt")

	r := &Resolver{Root: root}
	first, res, err := r.Update(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"one.txt", "sub/two.txt"}, res.Added)

	second, res, err := r.Update(first)
	require.NoError(t, err)
	assert.Empty(t, res.Added)
	assert.JSONEq(t, string(first), string(second))
}

func TestResolver_Update_EmptyDirectory(t *testing.T) {
	out, res, err := (&Resolver{Root: t.TempDir()}).Update(nil)
	require.NoError(t, err)
	assert.Empty(t, res.Added)
	assert.JSONEq(t, `{"main": []}`, string(out))
}

func TestResolver_Update_AcceptsComments(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "a.txt")

	doc := `{
		// curated by hand
		"main": [{"path": "a.txt"},],
	}`
	_, res, err := (&Resolver{Root: root}).Update([]byte(doc))
	require.NoError(t, err)
	assert.Empty(t, res.Added)
}

func TestResolver_Update_RenameCollision(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "my file.txt")
	touch(t, root, "my_file.txt")

	out, res, err := (&Resolver{Root: root}).Update(nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"my file.txt"}, res.Skipped)
	assert.Equal(t, []string{"my_file.txt"}, res.Added)
	assert.FileExists(t, filepath.Join(root, "my file.txt"))
	assert.Len(t, decodeSections(t, out)["main"], 1)
}

func TestResolver_Update_CoveredUnsafeNameKept(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "mods/my mod.jar")

	doc := `{"main": [], "optional": [{"path": "mods/my mod.jar"}]}`
	out, res, err := (&Resolver{Root: root}).Update([]byte(doc))
	require.NoError(t, err)

	assert.Empty(t, res.Added)
	assert.Empty(t, res.Renamed)
	assert.Empty(t, res.Skipped)
	assert.FileExists(t, filepath.Join(root, "mods", "my mod.jar"))
	assert.NoFileExists(t, filepath.Join(root, "mods", "my_mod.jar"))

	after := decodeSections(t, out)
	assert.Empty(t, after["main"])
	require.Len(t, after["optional"], 1)
	assert.JSONEq(t, `{"path": "mods/my mod.jar"}`, string(after["optional"][0]))
}

func TestResolver_Update_InvalidDocument(t *testing.T) {
	r := &Resolver{Root: t.TempDir()}

	_, _, err := r.Update([]byte(`{"main": `))
	assert.Error(t, err)

	_, _, err = r.Update([]byte(`{"main": {"path": "a"}}`))
	assert.Error(t, err)
}

func TestNormalizeName(t *testing.T) {
	tests := map[string]string{
		"plain.jar":         "plain.jar",
		"with space.jar":    "with_space.jar",
		"Steve's Mod.jar":   "Steves_Mod.jar",
		"curly’quote.txt":   "curlyquote.txt",
		"  two  spaces.txt": "__two__spaces.txt",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeName(in), in)
	}
}
