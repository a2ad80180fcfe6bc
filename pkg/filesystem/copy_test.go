package filesystem_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/confset/confset/pkg/filesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFilePreservesContent(t *testing.T) {
	fsys := filesystem.NewMemory()
	require.NoError(t, fsys.MkdirAll("/src", 0755))
	require.NoError(t, fsys.MkdirAll("/out", 0755))
	require.NoError(t, fsys.WriteFile("/src/a.txt", []byte("hello"), 0644))

	require.NoError(t, filesystem.CopyFile(fsys, "/src/a.txt", "/out/a.txt"))

	data, err := fsys.ReadFile("/out/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestCopyTreeCopiesNestedFiles(t *testing.T) {
	fsys := filesystem.NewMemory()
	require.NoError(t, fsys.MkdirAll("/src/nested/deep", 0755))
	require.NoError(t, fsys.WriteFile("/src/top.txt", []byte("top"), 0644))
	require.NoError(t, fsys.WriteFile("/src/nested/deep/leaf.txt", []byte("leaf"), 0644))

	require.NoError(t, filesystem.CopyTree(fsys, "/src", "/dst"))

	data, err := fsys.ReadFile("/dst/top.txt")
	require.NoError(t, err)
	assert.Equal(t, "top", string(data))

	data, err = fsys.ReadFile("/dst/nested/deep/leaf.txt")
	require.NoError(t, err)
	assert.Equal(t, "leaf", string(data))
}

func TestCopyTreeReplicatesSymlinks(t *testing.T) {
	fsys := filesystem.NewOS()
	src := filepath.Join(t.TempDir(), "src")
	dst := filepath.Join(t.TempDir(), "dst")
	require.NoError(t, os.MkdirAll(src, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "real.txt"), []byte("real"), 0644))
	require.NoError(t, os.Symlink("real.txt", filepath.Join(src, "alias.txt")))

	require.NoError(t, filesystem.CopyTree(fsys, src, dst))

	target, err := os.Readlink(filepath.Join(dst, "alias.txt"))
	require.NoError(t, err)
	assert.Equal(t, "real.txt", target)

	data, err := os.ReadFile(filepath.Join(dst, "real.txt"))
	require.NoError(t, err)
	assert.Equal(t, "real", string(data))
}

func TestCopyFileMissingSourceFails(t *testing.T) {
	fsys := filesystem.NewMemory()
	require.NoError(t, fsys.MkdirAll("/out", 0755))
	err := filesystem.CopyFile(fsys, "/nope.txt", "/out/nope.txt")
	assert.Error(t, err)
}
