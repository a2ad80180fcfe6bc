package transaction

import (
	"fmt"
	"os"

	"github.com/confset/confset/pkg/errors"
)

// PlanActivate builds the plan that makes the named config set live:
// stale LiveLinks of the previously active set are removed, one
// LiveLink per manifest entry of the target set is created or
// retargeted, and the active pointer is updated last. Links already
// pointing at the right snapshot path are left alone, so activating
// the active set plans no link effects.
func (e *Engine) PlanActivate(name string, opts ActivateOptions) (*Plan, error) {
	if err := e.paths.ValidateName(name); err != nil {
		return nil, err
	}
	if _, err := e.fs.Stat(e.paths.SnapshotDir(name)); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrNotFound, "config set %q does not exist", name)
		}
		return nil, errors.Wrapf(err, errors.ErrIOFailure, "failed to inspect config set %q", name)
	}

	m, err := e.manifests.Load(name)
	if err != nil {
		return nil, err
	}

	p := &Plan{kind: opActivate, target: name, manifestAfter: m}

	// Desired links, one per manifest entry.
	for _, rel := range m.Paths() {
		target := e.paths.SnapshotFile(name, rel)
		livePath := e.paths.LivePath(rel)

		if _, err := e.fs.Lstat(target); err != nil {
			p.addIssue(rel, errors.ErrCorrupt,
				"manifest entry %q has no content in the snapshot of %q", rel, name)
			continue
		}

		info, err := e.fs.Lstat(livePath)
		switch {
		case err != nil && os.IsNotExist(err):
			p.linkEnsures = append(p.linkEnsures, linkAction{
				livePath: livePath, target: target, prevState: prevAbsent,
			})
		case err != nil:
			p.addIssue(rel, errors.ErrIOFailure, "failed to inspect %s: %v", livePath, err)
		case info.Mode()&os.ModeSymlink != 0:
			current, rerr := e.fs.Readlink(livePath)
			if rerr != nil {
				p.addIssue(rel, errors.ErrIOFailure, "failed to read symlink %s: %v", livePath, rerr)
				continue
			}
			if current == target {
				continue // already correct, idempotent
			}
			p.linkEnsures = append(p.linkEnsures, linkAction{
				livePath: livePath, target: target, prevState: prevSymlink, prevTarget: current,
			})
		default:
			if !opts.Force {
				p.addIssue(rel, errors.ErrConflict,
					"%s exists and is not a symlink (use --force to replace)", livePath)
				continue
			}
			p.linkEnsures = append(p.linkEnsures, linkAction{
				livePath: livePath, target: target, prevState: prevOther,
			})
		}
	}

	// Stale links of the previously active set.
	prevActive, hasPrev, err := e.activeName()
	if err != nil {
		return nil, err
	}
	if hasPrev && prevActive != name {
		prevManifest, err := e.manifests.Load(prevActive)
		if err != nil {
			p.addIssue("", errors.ErrCorrupt,
				"cannot compute stale links: manifest of previously active set %q is unreadable", prevActive)
		} else {
			for _, rel := range prevManifest.Paths() {
				if m.Contains(rel) {
					continue // retargeted by the ensure pass
				}
				livePath := e.paths.LivePath(rel)
				info, lerr := e.fs.Lstat(livePath)
				if lerr != nil {
					continue // already gone
				}
				if info.Mode()&os.ModeSymlink == 0 {
					if !opts.Force {
						p.addIssue(rel, errors.ErrConflict,
							"%s is not a symlink and cannot be cleaned up (use --force)", livePath)
					} else {
						p.forceDeletes = append(p.forceDeletes, livePath)
					}
					continue
				}
				prevTarget, rerr := e.fs.Readlink(livePath)
				if rerr != nil {
					p.addIssue(rel, errors.ErrIOFailure, "failed to read symlink %s: %v", livePath, rerr)
					continue
				}
				p.staleRemovals = append(p.staleRemovals, linkAction{
					livePath: livePath, prevTarget: prevTarget, prevState: prevSymlink,
				})
			}
		}
	}

	p.updateActive = !hasPrev || prevActive != name
	if p.updateActive {
		p.activePrevExists = hasPrev
		if hasPrev {
			p.activePrev = e.paths.SnapshotDir(prevActive)
		}
	}

	if len(p.linkEnsures) > 0 || len(p.staleRemovals) > 0 || p.updateActive {
		p.risks = append(p.risks, "symlink updates may still fail at I/O time (permissions, read-only filesystem)")
	}
	return p, nil
}

func (e *Engine) commitActivate(p *Plan, j *journal) error {
	for _, path := range p.forceDeletes {
		if err := e.backupAside(path, j); err != nil {
			return err
		}
	}
	for _, l := range p.staleRemovals {
		if err := e.links.RemoveLink(l.livePath); err != nil {
			return err
		}
		j.undo(func() error { return e.links.EnsureLink(l.livePath, l.prevTarget, false) })
	}
	for _, l := range p.linkEnsures {
		if err := e.commitEnsure(l, j); err != nil {
			return err
		}
	}
	if p.updateActive {
		activePath := e.paths.ActiveLinkPath()
		prev, prevExists := p.activePrev, p.activePrevExists
		if err := e.fs.MkdirAll(e.paths.RepoRoot(), 0755); err != nil {
			return errors.Wrap(err, errors.ErrIOFailure, "failed to create repository root")
		}
		if err := e.links.EnsureLink(activePath, e.paths.SnapshotDir(p.target), false); err != nil {
			return err
		}
		j.undo(func() error {
			if prevExists {
				return e.links.EnsureLink(activePath, prev, false)
			}
			return e.links.RemoveLink(activePath)
		})
	}
	return nil
}

// commitEnsure applies one planned link creation or retarget and
// records its inverse.
func (e *Engine) commitEnsure(l linkAction, j *journal) error {
	switch l.prevState {
	case prevOther:
		if err := e.backupAside(l.livePath, j); err != nil {
			return err
		}
		if err := e.links.EnsureLink(l.livePath, l.target, false); err != nil {
			return err
		}
		j.undo(func() error { return e.links.RemoveLink(l.livePath) })
	case prevSymlink:
		if err := e.links.EnsureLink(l.livePath, l.target, false); err != nil {
			return err
		}
		j.undo(func() error { return e.links.EnsureLink(l.livePath, l.prevTarget, false) })
	default:
		if err := e.links.EnsureLink(l.livePath, l.target, false); err != nil {
			return err
		}
		j.undo(func() error { return e.links.RemoveLink(l.livePath) })
	}
	return nil
}

// backupAside moves the content at path to a staged backup so it can
// be restored on rollback and purged on success.
func (e *Engine) backupAside(path string, j *journal) error {
	bak := path + bakSuffix
	_ = e.fs.RemoveAll(bak)
	if err := e.fs.Rename(path, bak); err != nil {
		return errors.Wrapf(err, errors.ErrIOFailure, "failed to stage backup of %s", path)
	}
	j.undo(func() error { return e.fs.Rename(bak, path) })
	j.stage(bak)
	return nil
}

// addIssue records a validation failure without aborting planning, so
// dry-run can report every problem in the batch at once.
func (p *Plan) addIssue(path string, code errors.ErrorCode, format string, args ...interface{}) {
	p.issues = append(p.issues, Issue{
		Path:    path,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	})
}
