package filesystem

import (
	"os"
	"path/filepath"

	"github.com/confset/confset/pkg/types"
)

// CopyFile copies a single regular file, preserving its permission
// bits. Parent directories of dst must already exist.
func CopyFile(fsys types.FS, src, dst string) error {
	info, err := fsys.Stat(src)
	if err != nil {
		return err
	}
	data, err := fsys.ReadFile(src)
	if err != nil {
		return err
	}
	return fsys.WriteFile(dst, data, info.Mode().Perm())
}

// CopyTree copies a directory tree. Symlinks inside the tree are
// replicated as symlinks with their original targets.
func CopyTree(fsys types.FS, src, dst string) error {
	info, err := fsys.Stat(src)
	if err != nil {
		return err
	}
	if err := fsys.MkdirAll(dst, info.Mode().Perm()); err != nil {
		return err
	}

	entries, err := fsys.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		srcEntry := filepath.Join(src, entry.Name())
		dstEntry := filepath.Join(dst, entry.Name())

		einfo, err := fsys.Lstat(srcEntry)
		if err != nil {
			return err
		}
		switch {
		case einfo.Mode()&os.ModeSymlink != 0:
			target, err := fsys.Readlink(srcEntry)
			if err != nil {
				return err
			}
			if err := fsys.Symlink(target, dstEntry); err != nil {
				return err
			}
		case einfo.IsDir():
			if err := CopyTree(fsys, srcEntry, dstEntry); err != nil {
				return err
			}
		default:
			if err := CopyFile(fsys, srcEntry, dstEntry); err != nil {
				return err
			}
		}
	}
	return nil
}
