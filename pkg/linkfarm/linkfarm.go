// Package linkfarm manages the symlinks that project a config set's
// snapshot into the live tree.
package linkfarm

import (
	"os"
	"path/filepath"

	"github.com/confset/confset/pkg/errors"
	"github.com/confset/confset/pkg/logging"
	"github.com/confset/confset/pkg/types"
	"github.com/rs/zerolog"
)

// tmpSuffix names the short-lived symlink used for atomic replacement.
const tmpSuffix = ".confset-tmp"

// Manager creates and removes live-tree symlinks idempotently.
type Manager struct {
	fs     types.FS
	logger zerolog.Logger
}

// NewManager creates a link manager over the given filesystem.
func NewManager(fs types.FS) *Manager {
	return &Manager{
		fs:     fs,
		logger: logging.GetLogger("linkfarm"),
	}
}

// EnsureLink makes linkPath a symlink to target. A link already
// pointing at target is left untouched. A link pointing elsewhere is
// replaced atomically. A regular file or directory at linkPath is a
// conflict unless force is set, in which case it is removed first.
func (m *Manager) EnsureLink(linkPath, target string, force bool) error {
	info, err := m.fs.Lstat(linkPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return errors.Wrapf(err, errors.ErrIOFailure, "failed to inspect %s", linkPath)
		}
		if err := m.fs.MkdirAll(filepath.Dir(linkPath), 0755); err != nil {
			return errors.Wrapf(err, errors.ErrIOFailure, "failed to create parent of %s", linkPath)
		}
		if err := m.fs.Symlink(target, linkPath); err != nil {
			return errors.Wrapf(err, errors.ErrIOFailure, "failed to create symlink %s", linkPath)
		}
		m.logger.Debug().Str("link", linkPath).Str("target", target).Msg("Symlink created")
		return nil
	}

	if info.Mode()&os.ModeSymlink != 0 {
		current, err := m.fs.Readlink(linkPath)
		if err != nil {
			return errors.Wrapf(err, errors.ErrIOFailure, "failed to read symlink %s", linkPath)
		}
		if current == target {
			return nil
		}
		return m.replace(linkPath, target)
	}

	if !force {
		return errors.Newf(errors.ErrConflict,
			"%s exists and is not a symlink (use force to replace it)", linkPath)
	}
	if err := m.fs.RemoveAll(linkPath); err != nil {
		return errors.Wrapf(err, errors.ErrIOFailure, "failed to remove %s", linkPath)
	}
	if err := m.fs.Symlink(target, linkPath); err != nil {
		return errors.Wrapf(err, errors.ErrIOFailure, "failed to create symlink %s", linkPath)
	}
	m.logger.Debug().Str("link", linkPath).Str("target", target).Msg("Non-link replaced by symlink")
	return nil
}

// replace swaps the symlink at linkPath for one pointing at target
// without a window where the path is missing.
func (m *Manager) replace(linkPath, target string) error {
	tmp := linkPath + tmpSuffix
	_ = m.fs.Remove(tmp)
	if err := m.fs.Symlink(target, tmp); err != nil {
		return errors.Wrapf(err, errors.ErrIOFailure, "failed to stage symlink for %s", linkPath)
	}
	if err := m.fs.Rename(tmp, linkPath); err != nil {
		_ = m.fs.Remove(tmp)
		return errors.Wrapf(err, errors.ErrIOFailure, "failed to replace symlink %s", linkPath)
	}
	m.logger.Debug().Str("link", linkPath).Str("target", target).Msg("Symlink retargeted")
	return nil
}

// RemoveLink deletes the symlink at linkPath. A missing path is a
// no-op. A regular file or directory is a conflict: something other
// than confset owns it.
func (m *Manager) RemoveLink(linkPath string) error {
	info, err := m.fs.Lstat(linkPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, errors.ErrIOFailure, "failed to inspect %s", linkPath)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return errors.Newf(errors.ErrConflict, "%s is not a symlink", linkPath)
	}
	if err := m.fs.Remove(linkPath); err != nil {
		return errors.Wrapf(err, errors.ErrIOFailure, "failed to remove symlink %s", linkPath)
	}
	m.logger.Debug().Str("link", linkPath).Msg("Symlink removed")
	return nil
}

// ReadTarget returns the target of the symlink at linkPath. The bool
// is false when nothing exists there. A non-symlink is a conflict.
func (m *Manager) ReadTarget(linkPath string) (string, bool, error) {
	info, err := m.fs.Lstat(linkPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, errors.ErrIOFailure, "failed to inspect %s", linkPath)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return "", true, errors.Newf(errors.ErrConflict, "%s is not a symlink", linkPath)
	}
	target, err := m.fs.Readlink(linkPath)
	if err != nil {
		return "", true, errors.Wrapf(err, errors.ErrIOFailure, "failed to read symlink %s", linkPath)
	}
	return target, true, nil
}
