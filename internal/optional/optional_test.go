package optional

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cairn-launcher/cairn/internal/artifact"
	"github.com/cairn-launcher/cairn/internal/digest"
)

type countingDownloader struct {
	mu    sync.Mutex
	files map[string][]byte
	calls int
}

func (d *countingDownloader) DownloadToFile(ctx context.Context, url, destPath string) error {
	d.mu.Lock()
	d.calls++
	data, ok := d.files[url]
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("GET %s: 404", url)
	}
	return os.WriteFile(destPath, data, 0o644)
}

func (d *countingDownloader) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func entry(path, url string, data []byte) *artifact.Entry {
	sum := sha256.Sum256(data)
	return artifact.NewEntry(artifact.Descriptor{
		Path: path,
		Name: filepath.Base(path),
		Source: artifact.Hashed{
			URL:  url,
			Size: int64(len(data)),
			Hash: digest.Sum{Algorithm: digest.SHA256, Hex: hex.EncodeToString(sum[:])},
		},
	})
}

func setup(t *testing.T, files map[string][]byte) (*artifact.Manager, *countingDownloader) {
	t.Helper()
	dl := &countingDownloader{files: files}
	m, err := artifact.NewManager(artifact.Config{Root: t.TempDir(), Downloader: dl})
	require.NoError(t, err)
	return m, dl
}

func assertAtMostOne(t *testing.T, m *artifact.Manager, e *artifact.Entry) {
	t.Helper()
	e.Walk(func(n *artifact.Entry) bool {
		plain := m.LocalPath(n)
		assert.False(t, isFile(plain) && isFile(DisabledPath(plain)),
			"both %s and its disabled sibling exist", n.Path)
		return true
	})
}

func TestToggle_RoundTripWithoutRedownload(t *testing.T) {
	ctx := context.Background()
	content := []byte("shader pack v1")
	m, dl := setup(t, map[string][]byte{"http://x/shaders.zip": content})

	e := entry("shaderpacks/shaders.zip", "http://x/shaders.zip", content)
	toggle := New(m, e)
	assert.Equal(t, StatusAbsent, toggle.Status())

	require.NoError(t, toggle.Enable(ctx))
	assert.True(t, toggle.Enabled())
	assert.Equal(t, 1, dl.count())
	assertAtMostOne(t, m, e)

	require.NoError(t, toggle.Disable(ctx))
	assert.Equal(t, StatusDisabled, toggle.Status())
	assertAtMostOne(t, m, e)

	require.NoError(t, toggle.Enable(ctx))
	assert.Equal(t, StatusEnabled, toggle.Status())
	assert.Equal(t, 1, dl.count(), "re-enable must not download")
	assertAtMostOne(t, m, e)

	got, err := os.ReadFile(m.LocalPath(e))
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestToggle_EnableIdempotent(t *testing.T) {
	ctx := context.Background()
	content := []byte("mod")
	m, dl := setup(t, map[string][]byte{"http://x/mod.jar": content})

	toggle := New(m, entry("mods/mod.jar", "http://x/mod.jar", content))
	require.NoError(t, toggle.Enable(ctx))
	require.NoError(t, toggle.Enable(ctx))

	assert.Equal(t, 1, dl.count())
	assert.True(t, toggle.Enabled())
}

func TestToggle_EnableReplacesCorruptParkedFile(t *testing.T) {
	ctx := context.Background()
	content := []byte("good bytes")
	m, dl := setup(t, map[string][]byte{"http://x/a": content})

	e := entry("a", "http://x/a", content)
	require.NoError(t, os.WriteFile(DisabledPath(m.LocalPath(e)), []byte("bad bytes!"), 0o644))

	toggle := New(m, e)
	assert.Equal(t, StatusDisabled, toggle.Status())
	require.NoError(t, toggle.Enable(ctx))

	assert.Equal(t, 1, dl.count())
	got, err := os.ReadFile(m.LocalPath(e))
	require.NoError(t, err)
	assert.Equal(t, content, got)
	assertAtMostOne(t, m, e)
}

func TestToggle_DisableDeletesInvalidFile(t *testing.T) {
	ctx := context.Background()
	content := []byte("expected")
	m, _ := setup(t, nil)

	e := entry("a", "http://x/a", content)
	require.NoError(t, os.WriteFile(m.LocalPath(e), []byte("tampered"), 0o644))

	toggle := New(m, e)
	require.NoError(t, toggle.Disable(ctx))

	assert.Equal(t, StatusAbsent, toggle.Status())
	assert.NoFileExists(t, DisabledPath(m.LocalPath(e)))
}

func TestToggle_EnablePrefersPlainFile(t *testing.T) {
	ctx := context.Background()
	content := []byte("plain")
	m, dl := setup(t, nil)

	e := entry("a", "http://x/a", content)
	require.NoError(t, os.WriteFile(m.LocalPath(e), content, 0o644))
	require.NoError(t, os.WriteFile(DisabledPath(m.LocalPath(e)), []byte("older"), 0o644))

	require.NoError(t, New(m, e).Enable(ctx))

	assert.Equal(t, 0, dl.count())
	assert.NoFileExists(t, DisabledPath(m.LocalPath(e)))
	assertAtMostOne(t, m, e)
}

func TestToggle_Bundle(t *testing.T) {
	ctx := context.Background()
	mainData := []byte("addon main")
	childData := []byte("addon resources")
	m, dl := setup(t, map[string][]byte{
		"http://x/addon.jar": mainData,
		"http://x/res.zip":   childData,
	})

	child := entry("addons/res.zip", "http://x/res.zip", childData)
	e := artifact.NewEntry(entry("addons/addon.jar", "http://x/addon.jar", mainData).Descriptor, child)
	toggle := New(m, e)

	require.NoError(t, toggle.Enable(ctx))
	assert.Equal(t, 2, dl.count())
	assert.FileExists(t, m.LocalPath(child))

	require.NoError(t, toggle.Disable(ctx))
	assert.FileExists(t, DisabledPath(m.LocalPath(e)))
	assert.FileExists(t, DisabledPath(m.LocalPath(child)))
	assertAtMostOne(t, m, e)

	require.NoError(t, toggle.Enable(ctx))
	assert.Equal(t, 2, dl.count())
	assert.True(t, e.Valid())
}
