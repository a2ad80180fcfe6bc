package transaction

import (
	"os"
	"sort"

	"github.com/confset/confset/pkg/errors"
	"github.com/confset/confset/pkg/manifest"
)

// PlanAdd builds the plan that brings the given live paths under
// management of the active config set: each source is copied into the
// snapshot at its live-relative location, the manifest gains an entry,
// and the source is replaced by a LiveLink into the snapshot.
// Re-adding through an existing LiveLink refreshes the snapshot copy.
// A non-symlink live path that would overwrite existing snapshot
// content is a conflict unless forced; displaced content is staged so
// rollback can restore it.
func (e *Engine) PlanAdd(sources []string, opts AddOptions) (*Plan, error) {
	active, ok, err := e.activeName()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New(errors.ErrNotFound, "no config set is active; activate one first")
	}

	m, err := e.manifests.Load(active)
	if err != nil {
		return nil, err
	}

	p := &Plan{
		kind:           opAdd,
		target:         active,
		manifestBefore: m,
		manifestAfter:  m.Clone(),
	}

	seen := make(map[string]bool)
	var rels []string
	for _, src := range sources {
		rel, rerr := e.paths.Rel(src)
		if rerr != nil {
			p.addIssue(src, errors.ErrInvalidInput, "%v", rerr)
			continue
		}
		if seen[rel] {
			continue
		}
		seen[rel] = true
		rels = append(rels, rel)
	}
	sort.Strings(rels)

	for _, rel := range rels {
		livePath := e.paths.LivePath(rel)
		snapPath := e.paths.SnapshotFile(active, rel)

		if e.cfg != nil && e.cfg.IsProtected(rel) {
			p.addIssue(rel, errors.ErrConflict, "%q is a protected path", rel)
			continue
		}

		linfo, lerr := e.fs.Lstat(livePath)
		if lerr != nil {
			if os.IsNotExist(lerr) {
				p.addIssue(rel, errors.ErrNotFound, "source path %s does not exist", livePath)
			} else {
				p.addIssue(rel, errors.ErrIOFailure, "failed to inspect %s: %v", livePath, lerr)
			}
			continue
		}

		// Stat follows symlinks, so a link to missing content fails here.
		info, serr := e.fs.Stat(livePath)
		if serr != nil {
			p.addIssue(rel, errors.ErrNotFound, "source path %s is not readable: %v", livePath, serr)
			continue
		}

		_, snapErr := e.fs.Lstat(snapPath)
		hadPrev := snapErr == nil

		la := linkAction{livePath: livePath, target: snapPath}
		switch {
		case linfo.Mode()&os.ModeSymlink != 0:
			current, rerr := e.fs.Readlink(livePath)
			if rerr != nil {
				p.addIssue(rel, errors.ErrIOFailure, "failed to read symlink %s: %v", livePath, rerr)
				continue
			}
			if current == snapPath && !m.Contains(rel) {
				p.addIssue(rel, errors.ErrInconsistent,
					"%s already links into the snapshot of %q but is missing from its manifest", livePath, active)
				continue
			}
			la.prevState = prevSymlink
			la.prevTarget = current
		default:
			// A regular file or directory at the live path displaces
			// snapshot content the set already owns. That loses the
			// snapshot's version, so it needs an explicit opt-in.
			if hadPrev && !opts.Force {
				p.addIssue(rel, errors.ErrConflict,
					"%s would overwrite existing snapshot content of %q (re-run with --force)", livePath, active)
				continue
			}
			la.prevState = prevOther
		}

		p.copies = append(p.copies, copyAction{
			rel:      rel,
			srcPath:  livePath,
			snapPath: snapPath,
			isDir:    info.IsDir(),
			hadPrev:  hadPrev,
		})
		if la.prevState != prevSymlink || la.prevTarget != snapPath {
			p.linkEnsures = append(p.linkEnsures, la)
		}
		p.manifestAfter.Add(manifest.Entry{Path: rel})
	}

	if len(p.copies) > 0 {
		p.risks = append(p.risks, "snapshot content writes may still fail at I/O time (permissions, disk space)")
	}
	return p, nil
}

func (e *Engine) commitAdd(p *Plan, j *journal) error {
	// Phase 1: snapshot content to temporary names.
	for _, c := range p.copies {
		tmp := c.snapPath + tmpSuffix
		_ = e.fs.RemoveAll(tmp)
		if err := e.copyPath(c.srcPath, tmp, c.isDir); err != nil {
			return err
		}
		j.undo(func() error { return e.fs.RemoveAll(tmp) })
	}

	// Phase 2: atomic rename into place, displaced content staged.
	for _, c := range p.copies {
		if c.hadPrev {
			if err := e.backupAside(c.snapPath, j); err != nil {
				return err
			}
		}
		snapPath := c.snapPath
		if err := e.fs.Rename(c.snapPath+tmpSuffix, c.snapPath); err != nil {
			return errors.Wrapf(err, errors.ErrIOFailure, "failed to move snapshot content into place for %s", c.rel)
		}
		j.undo(func() error { return e.fs.RemoveAll(snapPath) })
	}

	// Phase 3: LiveLinks. The source at each live path moves aside
	// first; its content now lives in the snapshot.
	for _, l := range p.linkEnsures {
		if err := e.commitEnsure(l, j); err != nil {
			return err
		}
	}

	// Phase 4: the manifest is the durable commit record.
	before := p.manifestBefore
	if err := e.manifests.Save(p.target, p.manifestAfter); err != nil {
		return err
	}
	j.undo(func() error { return e.manifests.Save(p.target, before) })
	return nil
}
