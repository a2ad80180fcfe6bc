package linkfarm_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/confset/confset/pkg/errors"
	"github.com/confset/confset/pkg/filesystem"
	"github.com/confset/confset/pkg/linkfarm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureLinkCreates(t *testing.T) {
	dir := t.TempDir()
	m := linkfarm.NewManager(filesystem.NewOS())

	link := filepath.Join(dir, "etc", "app", "config.ini")
	target := filepath.Join(dir, "snapshot", "config.ini")

	require.NoError(t, m.EnsureLink(link, target, false))

	got, err := os.Readlink(link)
	require.NoError(t, err)
	assert.Equal(t, target, got)
}

func TestEnsureLinkIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	m := linkfarm.NewManager(filesystem.NewOS())

	link := filepath.Join(dir, "config.ini")
	target := filepath.Join(dir, "snapshot", "config.ini")

	require.NoError(t, m.EnsureLink(link, target, false))
	require.NoError(t, m.EnsureLink(link, target, false))

	got, err := os.Readlink(link)
	require.NoError(t, err)
	assert.Equal(t, target, got)
}

func TestEnsureLinkRetargets(t *testing.T) {
	dir := t.TempDir()
	m := linkfarm.NewManager(filesystem.NewOS())

	link := filepath.Join(dir, "config.ini")
	oldTarget := filepath.Join(dir, "a", "config.ini")
	newTarget := filepath.Join(dir, "b", "config.ini")

	require.NoError(t, m.EnsureLink(link, oldTarget, false))
	require.NoError(t, m.EnsureLink(link, newTarget, false))

	got, err := os.Readlink(link)
	require.NoError(t, err)
	assert.Equal(t, newTarget, got)

	// No staging link left behind.
	_, err = os.Lstat(link + ".confset-tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestEnsureLinkConflictsWithRegularFile(t *testing.T) {
	dir := t.TempDir()
	m := linkfarm.NewManager(filesystem.NewOS())

	link := filepath.Join(dir, "config.ini")
	require.NoError(t, os.WriteFile(link, []byte("local edit"), 0644))

	err := m.EnsureLink(link, filepath.Join(dir, "snapshot", "config.ini"), false)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConflict))

	// The file is untouched.
	data, err := os.ReadFile(link)
	require.NoError(t, err)
	assert.Equal(t, "local edit", string(data))
}

func TestEnsureLinkForceReplacesRegularFile(t *testing.T) {
	dir := t.TempDir()
	m := linkfarm.NewManager(filesystem.NewOS())

	link := filepath.Join(dir, "config.ini")
	target := filepath.Join(dir, "snapshot", "config.ini")
	require.NoError(t, os.WriteFile(link, []byte("local edit"), 0644))

	require.NoError(t, m.EnsureLink(link, target, true))

	got, err := os.Readlink(link)
	require.NoError(t, err)
	assert.Equal(t, target, got)
}

func TestRemoveLink(t *testing.T) {
	dir := t.TempDir()
	m := linkfarm.NewManager(filesystem.NewOS())

	link := filepath.Join(dir, "config.ini")
	require.NoError(t, m.EnsureLink(link, filepath.Join(dir, "x"), false))

	require.NoError(t, m.RemoveLink(link))
	_, err := os.Lstat(link)
	assert.True(t, os.IsNotExist(err))

	// Removing again is a no-op.
	require.NoError(t, m.RemoveLink(link))
}

func TestRemoveLinkConflictsWithRegularFile(t *testing.T) {
	dir := t.TempDir()
	m := linkfarm.NewManager(filesystem.NewOS())

	link := filepath.Join(dir, "config.ini")
	require.NoError(t, os.WriteFile(link, []byte("data"), 0644))

	err := m.RemoveLink(link)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConflict))
}

func TestReadTarget(t *testing.T) {
	dir := t.TempDir()
	m := linkfarm.NewManager(filesystem.NewOS())

	link := filepath.Join(dir, "config.ini")
	target := filepath.Join(dir, "snapshot", "config.ini")

	_, exists, err := m.ReadTarget(link)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, m.EnsureLink(link, target, false))

	got, exists, err := m.ReadTarget(link)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, target, got)
}
