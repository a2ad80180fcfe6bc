package transaction

import (
	"os"
	"sort"

	"github.com/confset/confset/pkg/errors"
)

// PlanRemove builds the plan that takes the given live paths out of
// the active config set: the LiveLink is deleted, the snapshot copy is
// deleted, and the manifest entry is dropped. Every path must be
// manifest-managed; one unmanaged path aborts the whole batch.
func (e *Engine) PlanRemove(targets []string, _ RemoveOptions) (*Plan, error) {
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
		kind:           opRemove,
		target:         active,
		manifestBefore: m,
		manifestAfter:  m.Clone(),
	}

	seen := make(map[string]bool)
	var rels []string
	for _, target := range targets {
		rel, rerr := e.paths.Rel(target)
		if rerr != nil {
			p.addIssue(target, errors.ErrInvalidInput, "%v", rerr)
			continue
		}
		if !seen[rel] {
			seen[rel] = true
			rels = append(rels, rel)
		}
	}
	sort.Strings(rels)

	for _, rel := range rels {
		if !m.Contains(rel) {
			p.addIssue(rel, errors.ErrNotManaged, "%q is not managed by config set %q", rel, active)
			continue
		}
		if e.cfg != nil && e.cfg.IsProtected(rel) {
			p.addIssue(rel, errors.ErrConflict, "%q is a protected path", rel)
			continue
		}

		livePath := e.paths.LivePath(rel)
		snapPath := e.paths.SnapshotFile(active, rel)

		ra := removeAction{rel: rel, livePath: livePath, snapPath: snapPath}

		info, lerr := e.fs.Lstat(livePath)
		switch {
		case lerr != nil && os.IsNotExist(lerr):
			// Link already gone; removal stays idempotent.
		case lerr != nil:
			p.addIssue(rel, errors.ErrIOFailure, "failed to inspect %s: %v", livePath, lerr)
			continue
		case info.Mode()&os.ModeSymlink == 0:
			p.addIssue(rel, errors.ErrConflict, "%s is not a symlink; refusing to delete it", livePath)
			continue
		default:
			current, rerr := e.fs.Readlink(livePath)
			if rerr != nil {
				p.addIssue(rel, errors.ErrIOFailure, "failed to read symlink %s: %v", livePath, rerr)
				continue
			}
			ra.linkExists = true
			ra.prevTarget = current
		}

		if _, serr := e.fs.Lstat(snapPath); serr != nil {
			if !os.IsNotExist(serr) {
				p.addIssue(rel, errors.ErrIOFailure, "failed to inspect %s: %v", snapPath, serr)
				continue
			}
			p.addIssue(rel, errors.ErrInconsistent,
				"%q is in the manifest of %q but its snapshot content is missing", rel, active)
			continue
		}
		ra.snapExists = true

		p.removals = append(p.removals, ra)
		p.manifestAfter.Remove(rel)
	}

	if len(p.removals) > 0 {
		p.risks = append(p.risks, "symlink and snapshot removals may still fail at I/O time (permissions)")
	}
	return p, nil
}

func (e *Engine) commitRemove(p *Plan, j *journal) error {
	for _, r := range p.removals {
		if r.linkExists {
			livePath, prevTarget := r.livePath, r.prevTarget
			if err := e.links.RemoveLink(livePath); err != nil {
				return err
			}
			j.undo(func() error { return e.links.EnsureLink(livePath, prevTarget, false) })
		}
		if r.snapExists {
			if err := e.backupAside(r.snapPath, j); err != nil {
				return err
			}
		}
	}

	before := p.manifestBefore
	if err := e.manifests.Save(p.target, p.manifestAfter); err != nil {
		return err
	}
	j.undo(func() error { return e.manifests.Save(p.target, before) })
	return nil
}
