package repository

import (
	"os"
	"path"
	"path/filepath"

	"github.com/confset/confset/pkg/errors"
	"github.com/confset/confset/pkg/manifest"
	"github.com/confset/confset/pkg/meta"
	"github.com/confset/confset/pkg/paths"
)

// Info summarizes one config set.
type Info struct {
	Name      string
	Active    bool
	FileCount int
	SizeBytes int64
	Entries   []manifest.Entry
	Meta      *meta.Meta
}

// Info gathers a summary of the named set: manifest entries, snapshot
// size, metadata and whether it is active.
func (c *Catalog) Info(name string) (*Info, error) {
	if !c.Exists(name) {
		return nil, errors.Newf(errors.ErrNotFound, "config set %q does not exist", name)
	}

	m, err := c.manifests.Load(name)
	if err != nil {
		return nil, err
	}
	md, err := c.metas.Load(name)
	if err != nil {
		return nil, err
	}
	active, ok, err := c.ActiveName()
	if err != nil {
		return nil, err
	}

	var size int64
	err = c.walkSnapshot(name, func(rel string, info os.FileInfo) error {
		if info.Mode().IsRegular() {
			size += info.Size()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Info{
		Name:      name,
		Active:    ok && active == name,
		FileCount: m.Len(),
		SizeBytes: size,
		Entries:   m.Entries(),
		Meta:      md,
	}, nil
}

// Problem is one finding of a verification pass.
type Problem struct {
	Path    string
	Code    errors.ErrorCode
	Message string
}

// Report is the result of verifying one config set.
type Report struct {
	Name     string
	Active   bool
	Problems []Problem
}

// OK reports whether verification found nothing wrong.
func (r *Report) OK() bool { return len(r.Problems) == 0 }

// Verify reconciles a set's manifest against its snapshot and, for the
// active set, against the live tree. It reports problems instead of
// failing on the first one, so an interrupted transaction can be
// diagnosed in a single pass.
func (c *Catalog) Verify(name string) (*Report, error) {
	if !c.Exists(name) {
		return nil, errors.Newf(errors.ErrNotFound, "config set %q does not exist", name)
	}

	active, ok, err := c.ActiveName()
	if err != nil {
		return nil, err
	}
	report := &Report{Name: name, Active: ok && active == name}

	m, err := c.manifests.Load(name)
	if err != nil {
		report.Problems = append(report.Problems, Problem{
			Code:    errors.ErrCorrupt,
			Message: err.Error(),
		})
		return report, nil
	}

	// Every manifest entry needs snapshot content.
	for _, rel := range m.Paths() {
		if _, err := c.fs.Lstat(c.paths.SnapshotFile(name, rel)); err != nil {
			report.Problems = append(report.Problems, Problem{
				Path:    rel,
				Code:    errors.ErrInconsistent,
				Message: "manifest entry has no snapshot content",
			})
		}
	}

	// Snapshot content outside any manifest entry is an orphan,
	// typically evidence of an interrupted commit.
	err = c.walkSnapshot(name, func(rel string, info os.FileInfo) error {
		if info.IsDir() {
			return nil
		}
		if !coveredByManifest(m, rel) {
			report.Problems = append(report.Problems, Problem{
				Path:    rel,
				Code:    errors.ErrInconsistent,
				Message: "snapshot content is not covered by any manifest entry",
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The active set's links must exist and point into its snapshot.
	if report.Active {
		for _, rel := range m.Paths() {
			livePath := c.paths.LivePath(rel)
			want := c.paths.SnapshotFile(name, rel)

			target, exists, terr := c.links.ReadTarget(livePath)
			switch {
			case terr != nil:
				report.Problems = append(report.Problems, Problem{
					Path: rel, Code: errors.ErrConflict,
					Message: "live path is not a symlink",
				})
			case !exists:
				report.Problems = append(report.Problems, Problem{
					Path: rel, Code: errors.ErrInconsistent,
					Message: "live link is missing",
				})
			case target != want:
				report.Problems = append(report.Problems, Problem{
					Path: rel, Code: errors.ErrInconsistent,
					Message: "live link points outside the active snapshot",
				})
			}
		}
	}

	return report, nil
}

// walkSnapshot visits every entry of a set's snapshot, skipping the
// repository bookkeeping files at the root.
func (c *Catalog) walkSnapshot(name string, fn func(rel string, info os.FileInfo) error) error {
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
			info, err := c.fs.Lstat(filepath.Join(dir, entry.Name()))
			if err != nil {
				return errors.Wrapf(err, errors.ErrIOFailure, "failed to stat %s", entryRel)
			}
			if err := fn(entryRel, info); err != nil {
				return err
			}
			if info.IsDir() {
				if err := walk(filepath.Join(dir, entry.Name()), entryRel); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return walk(c.paths.SnapshotDir(name), "")
}

// coveredByManifest reports whether rel is a manifest entry or lives
// under a manifest directory entry.
func coveredByManifest(m *manifest.Manifest, rel string) bool {
	if m.Contains(rel) {
		return true
	}
	for _, entry := range m.Paths() {
		if len(rel) > len(entry) && rel[:len(entry)] == entry && rel[len(entry)] == '/' {
			return true
		}
	}
	return false
}
