// Package repository tracks the config sets of one repository: which
// exist, which is active, and their lifecycle (create, delete, rename,
// pull, export, import, verify). Mutating operations hold the
// repository's advisory lock; readers run lock-free and report
// best-effort state.
package repository

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/confset/confset/pkg/config"
	"github.com/confset/confset/pkg/errors"
	"github.com/confset/confset/pkg/filesystem"
	"github.com/confset/confset/pkg/linkfarm"
	"github.com/confset/confset/pkg/lockfile"
	"github.com/confset/confset/pkg/logging"
	"github.com/confset/confset/pkg/manifest"
	"github.com/confset/confset/pkg/meta"
	"github.com/confset/confset/pkg/paths"
	"github.com/confset/confset/pkg/types"
	"github.com/rs/zerolog"
)

// Catalog manages the set of config sets in one repository.
type Catalog struct {
	fs        types.FS
	paths     paths.Paths
	cfg       *config.Config
	manifests *manifest.Store
	metas     *meta.Store
	links     *linkfarm.Manager
	logger    zerolog.Logger
}

// New creates a catalog over the given repository.
func New(fs types.FS, p paths.Paths, cfg *config.Config) *Catalog {
	return &Catalog{
		fs:        fs,
		paths:     p,
		cfg:       cfg,
		manifests: manifest.NewStore(fs, p),
		metas:     meta.NewStore(fs, p),
		links:     linkfarm.NewManager(fs),
		logger:    logging.GetLogger("repository"),
	}
}

// lock acquires the repository's advisory lock for one mutation.
func (c *Catalog) lock() (*lockfile.Lock, error) {
	if err := c.fs.MkdirAll(c.paths.RepoRoot(), 0755); err != nil {
		return nil, errors.Wrap(err, errors.ErrIOFailure, "failed to create repository root")
	}
	timeout := lockfile.DefaultTimeout
	if c.cfg != nil && c.cfg.LockTimeout > 0 {
		timeout = c.cfg.LockTimeout
	}
	return lockfile.Acquire(c.paths.LockPath(), timeout)
}

// List returns the names of all config sets, sorted. A repository
// without a configs directory simply has none yet.
func (c *Catalog) List() ([]string, error) {
	entries, err := c.fs.ReadDir(c.paths.ConfigsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrIOFailure, "failed to read configs directory")
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// ActiveName resolves the active config set from the repository's
// active pointer. ok is false when no set is active.
func (c *Catalog) ActiveName() (string, bool, error) {
	target, exists, err := c.links.ReadTarget(c.paths.ActiveLinkPath())
	if err != nil || !exists {
		return "", false, err
	}
	return filepath.Base(target), true, nil
}

// Exists reports whether the named config set exists.
func (c *Catalog) Exists(name string) bool {
	info, err := c.fs.Stat(c.paths.SnapshotDir(name))
	return err == nil && info.IsDir()
}

// Create makes a new config set. With a template (explicit, or the
// configured default) the template's snapshot and manifest are cloned
// byte-for-byte; otherwise the set starts empty. The new set gets
// fresh metadata recording its provenance.
func (c *Catalog) Create(name, template string) error {
	if err := c.paths.ValidateName(name); err != nil {
		return err
	}

	l, err := c.lock()
	if err != nil {
		return err
	}
	defer func() { _ = l.Release() }()

	if c.Exists(name) {
		return errors.Newf(errors.ErrAlreadyExists, "config set %q already exists", name)
	}

	if template == "" && c.cfg != nil {
		template = c.cfg.DefaultTemplate
	}

	if template != "" {
		if !c.Exists(template) {
			return errors.Newf(errors.ErrNotFound, "template config set %q does not exist", template)
		}
		if err := filesystem.CopyTree(c.fs, c.paths.SnapshotDir(template), c.paths.SnapshotDir(name)); err != nil {
			_ = c.fs.RemoveAll(c.paths.SnapshotDir(name))
			return errors.Wrapf(err, errors.ErrIOFailure, "failed to clone template %q", template)
		}
	} else {
		if err := c.fs.MkdirAll(c.paths.SnapshotDir(name), 0755); err != nil {
			return errors.Wrapf(err, errors.ErrIOFailure, "failed to create snapshot directory for %q", name)
		}
		if err := c.manifests.Save(name, manifest.New()); err != nil {
			_ = c.fs.RemoveAll(c.paths.SnapshotDir(name))
			return err
		}
	}

	m := meta.NewMeta(name)
	m.CreatedFrom = template
	if err := c.metas.Save(name, m); err != nil {
		_ = c.fs.RemoveAll(c.paths.SnapshotDir(name))
		return err
	}

	c.logger.Info().Str("config", name).Str("template", template).Msg("Config set created")
	return nil
}

// Delete removes a config set and its snapshot. The active set cannot
// be deleted: that would leave a dangling active pointer.
func (c *Catalog) Delete(name string) error {
	l, err := c.lock()
	if err != nil {
		return err
	}
	defer func() { _ = l.Release() }()

	if !c.Exists(name) {
		return errors.Newf(errors.ErrNotFound, "config set %q does not exist", name)
	}
	active, ok, err := c.ActiveName()
	if err != nil {
		return err
	}
	if ok && active == name {
		return errors.Newf(errors.ErrConflict, "config set %q is active; activate another set first", name)
	}

	if err := c.fs.RemoveAll(c.paths.SnapshotDir(name)); err != nil {
		return errors.Wrapf(err, errors.ErrIOFailure, "failed to delete config set %q", name)
	}

	c.logger.Info().Str("config", name).Msg("Config set deleted")
	return nil
}

// Rename moves a config set to a new name. The snapshot directory
// relocates, the manifest content is untouched, and the active pointer
// follows a renamed active set.
func (c *Catalog) Rename(oldName, newName string) error {
	if err := c.paths.ValidateName(newName); err != nil {
		return err
	}

	l, err := c.lock()
	if err != nil {
		return err
	}
	defer func() { _ = l.Release() }()

	if !c.Exists(oldName) {
		return errors.Newf(errors.ErrNotFound, "config set %q does not exist", oldName)
	}
	if c.Exists(newName) {
		return errors.Newf(errors.ErrAlreadyExists, "config set %q already exists", newName)
	}

	active, wasActive, err := c.ActiveName()
	if err != nil {
		return err
	}

	if err := c.fs.Rename(c.paths.SnapshotDir(oldName), c.paths.SnapshotDir(newName)); err != nil {
		return errors.Wrapf(err, errors.ErrIOFailure, "failed to rename config set %q", oldName)
	}

	if wasActive && active == oldName {
		if err := c.links.EnsureLink(c.paths.ActiveLinkPath(), c.paths.SnapshotDir(newName), false); err != nil {
			_ = c.fs.Rename(c.paths.SnapshotDir(newName), c.paths.SnapshotDir(oldName))
			return err
		}
	}

	m, err := c.metas.Load(newName)
	if err != nil || m == nil {
		m = meta.NewMeta(newName)
	}
	m.Name = newName
	m.RenamedFrom = oldName
	m.Touch()
	if err := c.metas.Save(newName, m); err != nil {
		return err
	}

	c.logger.Info().Str("from", oldName).Str("to", newName).Msg("Config set renamed")
	return nil
}
