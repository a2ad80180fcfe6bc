package meta_test

import (
	"path/filepath"
	"testing"

	"github.com/confset/confset/pkg/errors"
	"github.com/confset/confset/pkg/filesystem"
	"github.com/confset/confset/pkg/meta"
	"github.com/confset/confset/pkg/paths"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMetaStore(t *testing.T) (*meta.Store, paths.Paths) {
	t.Helper()

	tempDir := t.TempDir()
	p, err := paths.New(filepath.Join(tempDir, "repo"), filepath.Join(tempDir, "live"))
	require.NoError(t, err)

	fs := filesystem.NewOS()
	require.NoError(t, fs.MkdirAll(p.SnapshotDir("base"), 0755))

	return meta.NewStore(fs, p), p
}

func TestMetaRoundTrip(t *testing.T) {
	store, _ := setupMetaStore(t)

	m := meta.NewMeta("base")
	m.Description = "baseline vehicle config"
	m.CreatedFrom = "template"
	require.NoError(t, store.Save("base", m))

	loaded, err := store.Load("base")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "base", loaded.Name)
	assert.Equal(t, "1.0.0", loaded.Version)
	assert.Equal(t, "template", loaded.CreatedFrom)
	assert.Equal(t, m.CreatedAt, loaded.CreatedAt)
}

func TestLoadMissingMetaIsNil(t *testing.T) {
	store, _ := setupMetaStore(t)

	m, err := store.Load("base")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestLoadMalformedMetaIsCorrupt(t *testing.T) {
	store, p := setupMetaStore(t)

	fs := filesystem.NewOS()
	require.NoError(t, fs.WriteFile(p.MetaPath("base"), []byte("name: [broken"), 0644))

	_, err := store.Load("base")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCorrupt))
}

func TestTouchAdvancesUpdatedAt(t *testing.T) {
	m := meta.NewMeta("base")
	created := m.UpdatedAt
	m.Touch()
	assert.False(t, m.UpdatedAt.Before(created))
}
