package repository

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"github.com/confset/confset/pkg/archive"
	"github.com/confset/confset/pkg/errors"
	"github.com/confset/confset/pkg/fetch"
	"github.com/confset/confset/pkg/filesystem"
	"github.com/confset/confset/pkg/hashutil"
	"github.com/confset/confset/pkg/manifest"
	"github.com/confset/confset/pkg/meta"
	"github.com/confset/confset/pkg/paths"
)

// Export packs the named set's snapshot (manifest and metadata
// included) into a gzipped tar archive at outPath and returns the
// archive's checksum.
func (c *Catalog) Export(name, outPath string) (string, error) {
	if !c.Exists(name) {
		return "", errors.Newf(errors.ErrNotFound, "config set %q does not exist", name)
	}
	if err := archive.Create(c.paths.SnapshotDir(name), outPath); err != nil {
		return "", err
	}
	sum, err := hashutil.FileChecksum(outPath)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrIOFailure, "failed to checksum %s", outPath)
	}
	c.logger.Info().Str("config", name).Str("archive", outPath).Str("checksum", sum).Msg("Config set exported")
	return sum, nil
}

// Import installs a previously exported archive as the named set.
// Without overwrite an existing set of that name is a collision. The
// archive is unpacked to a staging directory and only renamed into
// place once it is complete.
func (c *Catalog) Import(archivePath, name string, overwrite bool) error {
	if err := c.paths.ValidateName(name); err != nil {
		return err
	}

	l, err := c.lock()
	if err != nil {
		return err
	}
	defer func() { _ = l.Release() }()

	if c.Exists(name) && !overwrite {
		return errors.Newf(errors.ErrAlreadyExists, "config set %q already exists (use --overwrite)", name)
	}

	f, err := os.Open(archivePath)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Newf(errors.ErrNotFound, "archive %s does not exist", archivePath)
		}
		return errors.Wrapf(err, errors.ErrIOFailure, "failed to open %s", archivePath)
	}
	defer func() { _ = f.Close() }()

	staging := c.paths.SnapshotDir(name) + ".confset-staging"
	_ = c.fs.RemoveAll(staging)
	if err := c.fs.MkdirAll(staging, 0755); err != nil {
		return errors.Wrap(err, errors.ErrIOFailure, "failed to create staging directory")
	}
	if err := archive.Extract(f, staging); err != nil {
		_ = c.fs.RemoveAll(staging)
		return err
	}

	if err := c.installStaged(staging, name, archivePath, overwrite); err != nil {
		_ = c.fs.RemoveAll(staging)
		return err
	}

	c.logger.Info().Str("config", name).Str("archive", archivePath).Msg("Config set imported")
	return nil
}

// Pull fetches a remote bundle and installs it as the named set. The
// fetcher is an opaque collaborator; anything that yields a directory
// works as a source.
func (c *Catalog) Pull(ctx context.Context, fetcher fetch.Fetcher, ref, name string) error {
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

	dir, cleanup, err := fetcher.Fetch(ctx, ref)
	if err != nil {
		return err
	}
	defer cleanup()

	staging := c.paths.SnapshotDir(name) + ".confset-staging"
	_ = c.fs.RemoveAll(staging)
	if err := filesystem.CopyTree(c.fs, dir, staging); err != nil {
		_ = c.fs.RemoveAll(staging)
		return errors.Wrapf(err, errors.ErrIOFailure, "failed to copy fetched bundle for %q", name)
	}

	if err := c.installStaged(staging, name, ref, false); err != nil {
		_ = c.fs.RemoveAll(staging)
		return err
	}

	c.logger.Info().Str("config", name).Str("ref", ref).Msg("Config set pulled")
	return nil
}

// installStaged completes a staged snapshot: a missing manifest is
// synthesized from the tree, metadata records the provenance, and the
// staging directory renames into place.
func (c *Catalog) installStaged(staging, name, source string, overwrite bool) error {
	// A bundle without a manifest gets one synthesized from its leaf
	// files, so the set is immediately activatable.
	if _, err := c.fs.Lstat(stagingManifestPath(staging)); err != nil {
		if !os.IsNotExist(err) {
			return errors.Wrap(err, errors.ErrIOFailure, "failed to inspect staged bundle")
		}
		m, err := c.synthesizeManifest(staging)
		if err != nil {
			return err
		}
		data, err := m.Marshal()
		if err != nil {
			return err
		}
		if err := c.fs.WriteFile(stagingManifestPath(staging), data, 0644); err != nil {
			return errors.Wrap(err, errors.ErrIOFailure, "failed to write synthesized manifest")
		}
	}

	if overwrite && c.Exists(name) {
		if err := c.fs.RemoveAll(c.paths.SnapshotDir(name)); err != nil {
			return errors.Wrapf(err, errors.ErrIOFailure, "failed to replace config set %q", name)
		}
	}
	if err := c.fs.Rename(staging, c.paths.SnapshotDir(name)); err != nil {
		return errors.Wrapf(err, errors.ErrIOFailure, "failed to install config set %q", name)
	}

	md, err := c.metas.Load(name)
	if err != nil || md == nil {
		md = meta.NewMeta(name)
	}
	md.Name = name
	md.CreatedFrom = source
	md.Touch()
	return c.metas.Save(name, md)
}

// synthesizeManifest builds a manifest from the leaf files of a staged
// snapshot tree.
func (c *Catalog) synthesizeManifest(root string) (*manifest.Manifest, error) {
	m := manifest.New()
	var walk func(dir, rel string) error
	walk = func(dir, rel string) error {
		entries, err := c.fs.ReadDir(dir)
		if err != nil {
			return errors.Wrapf(err, errors.ErrIOFailure, "failed to read directory %s", dir)
		}
		for _, entry := range entries {
			if rel == "" && (entry.Name() == paths.ManifestFileName || entry.Name() == paths.MetaFileName) {
				continue
			}
			entryRel := path.Join(rel, entry.Name())
			if entry.IsDir() {
				if err := walk(filepath.Join(dir, entry.Name()), entryRel); err != nil {
					return err
				}
				continue
			}
			m.Add(manifest.Entry{Path: entryRel})
		}
		return nil
	}
	if err := walk(root, ""); err != nil {
		return nil, err
	}
	return m, nil
}

func stagingManifestPath(staging string) string {
	return filepath.Join(staging, paths.ManifestFileName)
}
