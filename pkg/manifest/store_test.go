package manifest_test

import (
	"path/filepath"
	"testing"

	"github.com/confset/confset/pkg/errors"
	"github.com/confset/confset/pkg/filesystem"
	"github.com/confset/confset/pkg/manifest"
	"github.com/confset/confset/pkg/paths"
	"github.com/confset/confset/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*manifest.Store, types.FS, paths.Paths) {
	t.Helper()

	tempDir := t.TempDir()
	p, err := paths.New(filepath.Join(tempDir, "repo"), filepath.Join(tempDir, "live"))
	require.NoError(t, err)

	fs := filesystem.NewOS()
	require.NoError(t, fs.MkdirAll(p.SnapshotDir("base"), 0755))

	return manifest.NewStore(fs, p), fs, p
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, _, _ := setupStore(t)

	m := manifest.New()
	m.Add(manifest.Entry{Path: "etc/app/config.ini"})
	m.Add(manifest.Entry{Path: "etc/app/modules", Description: "module dir"})

	require.NoError(t, store.Save("base", m))

	loaded, err := store.Load("base")
	require.NoError(t, err)
	assert.True(t, m.Equal(loaded))
}

func TestSaveEmptyManifestIsValid(t *testing.T) {
	store, _, _ := setupStore(t)

	require.NoError(t, store.Save("base", manifest.New()))

	loaded, err := store.Load("base")
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Len())
}

func TestLoadMissingManifestIsCorrupt(t *testing.T) {
	store, _, _ := setupStore(t)

	_, err := store.Load("base")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCorrupt))
}

func TestLoadMalformedManifestIsCorrupt(t *testing.T) {
	store, fs, p := setupStore(t)

	require.NoError(t, fs.WriteFile(p.ManifestPath("base"), []byte("files: {oops"), 0644))

	_, err := store.Load("base")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCorrupt))
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	store, fs, p := setupStore(t)

	m := manifest.New()
	m.Add(manifest.Entry{Path: "x.txt"})
	require.NoError(t, store.Save("base", m))

	entries, err := fs.ReadDir(p.SnapshotDir("base"))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
}

func TestSaveOverwritesAtomically(t *testing.T) {
	store, _, _ := setupStore(t)

	first := manifest.New()
	first.Add(manifest.Entry{Path: "a.txt"})
	require.NoError(t, store.Save("base", first))

	second := manifest.New()
	second.Add(manifest.Entry{Path: "b.txt"})
	require.NoError(t, store.Save("base", second))

	loaded, err := store.Load("base")
	require.NoError(t, err)
	assert.True(t, second.Equal(loaded))
	assert.False(t, loaded.Contains("a.txt"))
}
