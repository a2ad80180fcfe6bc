package transaction

import (
	"path/filepath"

	"github.com/confset/confset/pkg/errors"
	"github.com/confset/confset/pkg/filesystem"
)

// copyPath copies a file or directory tree from src to dst. dst must
// not exist; parents are created.
func (e *Engine) copyPath(src, dst string, isDir bool) error {
	if err := e.fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrIOFailure, "failed to create parent of %s", dst)
	}
	if isDir {
		if err := filesystem.CopyTree(e.fs, src, dst); err != nil {
			return errors.Wrapf(err, errors.ErrIOFailure, "failed to copy %s into the snapshot", src)
		}
		return nil
	}
	if err := filesystem.CopyFile(e.fs, src, dst); err != nil {
		return errors.Wrapf(err, errors.ErrIOFailure, "failed to copy %s into the snapshot", src)
	}
	return nil
}
