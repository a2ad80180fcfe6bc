// Package diff compares two config set snapshots structurally and by
// content. The comparison is a pure function of the two snapshot
// trees: it never mutates and is deterministic for a given state.
package diff

import (
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/confset/confset/pkg/errors"
	"github.com/confset/confset/pkg/hashutil"
	"github.com/confset/confset/pkg/logging"
	"github.com/confset/confset/pkg/paths"
	"github.com/confset/confset/pkg/types"
	"github.com/rs/zerolog"
)

// Status classifies one path of the comparison.
type Status string

const (
	// StatusAddedInB means the path exists only in the second set.
	StatusAddedInB Status = "added-in-b"

	// StatusRemovedInB means the path exists only in the first set.
	StatusRemovedInB Status = "removed-in-b"

	// StatusModifiedContent means content (or mode) differs.
	StatusModifiedContent Status = "modified-content"

	// StatusModifiedType means the entry kind changed, for example a
	// file became a directory or a symlink became a regular file.
	StatusModifiedType Status = "modified-type"

	// StatusUnchanged means both sides are identical.
	StatusUnchanged Status = "unchanged"
)

// Entry is one path of the comparison result.
type Entry struct {
	Path   string
	Status Status
}

// Options controls the comparison output.
type Options struct {
	// IncludeUnchanged keeps identical paths in the result instead of
	// suppressing them.
	IncludeUnchanged bool
}

type entryKind int

const (
	kindFile entryKind = iota
	kindDir
	kindSymlink
)

type snapshotEntry struct {
	kind entryKind
	mode os.FileMode
	size int64
}

// Engine compares snapshots within one repository.
type Engine struct {
	fs     types.FS
	paths  paths.Paths
	logger zerolog.Logger
}

// New creates a diff engine over the given repository.
func New(fs types.FS, p paths.Paths) *Engine {
	return &Engine{fs: fs, paths: p, logger: logging.GetLogger("diff")}
}

// Diff walks the snapshots of both named sets and returns one entry
// per path in the union of the two trees, sorted lexicographically.
// Content equality is decided by SHA-256; a size mismatch short-cuts
// to modified without hashing, but equal sizes alone never count as
// equal content.
func (e *Engine) Diff(nameA, nameB string, opts Options) ([]Entry, error) {
	treeA, err := e.walkSnapshot(nameA)
	if err != nil {
		return nil, err
	}
	treeB, err := e.walkSnapshot(nameB)
	if err != nil {
		return nil, err
	}

	union := make(map[string]bool, len(treeA)+len(treeB))
	for rel := range treeA {
		union[rel] = true
	}
	for rel := range treeB {
		union[rel] = true
	}
	rels := make([]string, 0, len(union))
	for rel := range union {
		rels = append(rels, rel)
	}
	sort.Strings(rels)

	var out []Entry
	for _, rel := range rels {
		a, inA := treeA[rel]
		b, inB := treeB[rel]

		var status Status
		switch {
		case !inA:
			status = StatusAddedInB
		case !inB:
			status = StatusRemovedInB
		default:
			status, err = e.compare(nameA, nameB, rel, a, b)
			if err != nil {
				return nil, err
			}
		}
		if status == StatusUnchanged && !opts.IncludeUnchanged {
			continue
		}
		out = append(out, Entry{Path: rel, Status: status})
	}

	e.logger.Debug().Str("a", nameA).Str("b", nameB).Int("entries", len(out)).Msg("Diff computed")
	return out, nil
}

func (e *Engine) compare(nameA, nameB, rel string, a, b snapshotEntry) (Status, error) {
	if a.kind != b.kind {
		return StatusModifiedType, nil
	}
	switch a.kind {
	case kindDir:
		// Children are compared individually.
		return StatusUnchanged, nil
	case kindSymlink:
		targetA, err := e.fs.Readlink(e.paths.SnapshotFile(nameA, rel))
		if err != nil {
			return "", errors.Wrapf(err, errors.ErrIOFailure, "failed to read symlink %s in %q", rel, nameA)
		}
		targetB, err := e.fs.Readlink(e.paths.SnapshotFile(nameB, rel))
		if err != nil {
			return "", errors.Wrapf(err, errors.ErrIOFailure, "failed to read symlink %s in %q", rel, nameB)
		}
		if targetA != targetB {
			return StatusModifiedContent, nil
		}
		return StatusUnchanged, nil
	default:
		if a.mode.Perm() != b.mode.Perm() {
			return StatusModifiedContent, nil
		}
		if a.size != b.size {
			return StatusModifiedContent, nil
		}
		dataA, err := e.fs.ReadFile(e.paths.SnapshotFile(nameA, rel))
		if err != nil {
			return "", errors.Wrapf(err, errors.ErrIOFailure, "failed to read %s in %q", rel, nameA)
		}
		dataB, err := e.fs.ReadFile(e.paths.SnapshotFile(nameB, rel))
		if err != nil {
			return "", errors.Wrapf(err, errors.ErrIOFailure, "failed to read %s in %q", rel, nameB)
		}
		if hashutil.BytesChecksum(dataA) != hashutil.BytesChecksum(dataB) {
			return StatusModifiedContent, nil
		}
		return StatusUnchanged, nil
	}
}

// walkSnapshot indexes every entry of a set's snapshot tree by its
// relative path. Repository bookkeeping files are not part of the
// comparison.
func (e *Engine) walkSnapshot(name string) (map[string]snapshotEntry, error) {
	root := e.paths.SnapshotDir(name)
	if _, err := e.fs.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrNotFound, "config set %q does not exist", name)
		}
		return nil, errors.Wrapf(err, errors.ErrIOFailure, "failed to inspect config set %q", name)
	}

	tree := make(map[string]snapshotEntry)
	var walk func(dir, rel string) error
	walk = func(dir, rel string) error {
		entries, err := e.fs.ReadDir(dir)
		if err != nil {
			return errors.Wrapf(err, errors.ErrIOFailure, "failed to read directory %s", dir)
		}
		for _, entry := range entries {
			if rel == "" && skipName(entry.Name()) {
				continue
			}
			entryRel := path.Join(rel, entry.Name())
			info, err := e.fs.Lstat(filepath.Join(dir, entry.Name()))
			if err != nil {
				return errors.Wrapf(err, errors.ErrIOFailure, "failed to stat %s", entryRel)
			}
			switch {
			case info.Mode()&os.ModeSymlink != 0:
				tree[entryRel] = snapshotEntry{kind: kindSymlink, mode: info.Mode()}
			case info.IsDir():
				tree[entryRel] = snapshotEntry{kind: kindDir, mode: info.Mode()}
				if err := walk(filepath.Join(dir, entry.Name()), entryRel); err != nil {
					return err
				}
			default:
				tree[entryRel] = snapshotEntry{kind: kindFile, mode: info.Mode(), size: info.Size()}
			}
		}
		return nil
	}
	if err := walk(root, ""); err != nil {
		return nil, err
	}
	return tree, nil
}

// skipName filters repository bookkeeping out of the snapshot root.
func skipName(name string) bool {
	return name == paths.ManifestFileName || name == paths.MetaFileName
}
