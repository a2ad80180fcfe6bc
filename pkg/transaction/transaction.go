// Package transaction plans and commits batches of filesystem effects
// against a config repository: activating a set, adding paths to the
// active set, removing paths from it. Validation fully precedes
// mutation, every batch is all-or-nothing, and dry-run reports the
// identical effect list without touching the filesystem.
package transaction

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/confset/confset/pkg/config"
	"github.com/confset/confset/pkg/errors"
	"github.com/confset/confset/pkg/linkfarm"
	"github.com/confset/confset/pkg/logging"
	"github.com/confset/confset/pkg/manifest"
	"github.com/confset/confset/pkg/paths"
	"github.com/confset/confset/pkg/types"
	"github.com/rs/zerolog"
)

// Suffixes for staged content. Temp files become real content via
// rename; backups hold displaced content until the commit succeeds.
const (
	tmpSuffix = ".confset-tmp"
	bakSuffix = ".confset-bak"
)

// EffectKind classifies a planned filesystem mutation.
type EffectKind string

const (
	EffectCopyFile      EffectKind = "copy-file"
	EffectRemoveFile    EffectKind = "remove-file"
	EffectCreateLink    EffectKind = "create-link"
	EffectRemoveLink    EffectKind = "remove-link"
	EffectWriteManifest EffectKind = "write-manifest"
	EffectSetActive     EffectKind = "set-active"
)

// Effect is one planned mutation, reported by dry-run and applied by
// commit in the order listed.
type Effect struct {
	Kind   EffectKind
	Path   string
	Detail string
}

// Issue is a validation failure detected before any mutation. Dry-run
// reports every issue in the batch, not just the first.
type Issue struct {
	Path    string
	Code    errors.ErrorCode
	Message string
}

// Result describes what a transaction did (or, for dry-run, would do).
type Result struct {
	DryRun  bool
	Effects []Effect
	Issues  []Issue

	// Risks names failure modes only observable during actual I/O
	// (disk-full, permission loss). Populated for dry-run so they are
	// not hidden.
	Risks []string
}

// ActivateOptions controls activation behavior.
type ActivateOptions struct {
	// Force replaces regular files and directories standing where a
	// LiveLink must go, instead of failing with a conflict.
	Force bool
}

// AddOptions controls add behavior.
type AddOptions struct {
	// Force lets a non-symlink live path overwrite snapshot content
	// the active set already holds for it. Refreshing through an
	// existing LiveLink never needs it.
	Force bool
}

// RemoveOptions controls remove behavior.
type RemoveOptions struct{}

type opKind int

const (
	opActivate opKind = iota + 1
	opAdd
	opRemove
)

func (k opKind) String() string {
	switch k {
	case opActivate:
		return "activate"
	case opAdd:
		return "add"
	case opRemove:
		return "remove"
	}
	return "unknown"
}

type prevState int

const (
	prevAbsent prevState = iota
	prevSymlink
	prevOther
)

// linkAction is a planned LiveLink creation or retarget.
type linkAction struct {
	livePath   string
	target     string
	prevState  prevState
	prevTarget string
}

// copyAction is a planned snapshot content write.
type copyAction struct {
	rel      string
	srcPath  string
	snapPath string
	isDir    bool
	hadPrev  bool
}

// removeAction is a planned LiveLink + snapshot content removal.
type removeAction struct {
	rel        string
	livePath   string
	snapPath   string
	linkExists bool
	snapExists bool
	prevTarget string
}

// Plan is the validated, ordered set of effects for one invocation.
// Build one with PlanActivate/PlanAdd/PlanRemove and hand it to Execute.
type Plan struct {
	kind   opKind
	target string

	issues []Issue
	risks  []string

	staleRemovals []linkAction
	forceDeletes  []string
	linkEnsures   []linkAction
	copies        []copyAction
	removals      []removeAction

	manifestBefore *manifest.Manifest
	manifestAfter  *manifest.Manifest

	updateActive     bool
	activePrev       string
	activePrevExists bool
}

// Engine executes transactional mutations against one repository.
type Engine struct {
	fs        types.FS
	paths     paths.Paths
	cfg       *config.Config
	manifests *manifest.Store
	links     *linkfarm.Manager
	logger    zerolog.Logger
}

// New creates a transaction engine over the given repository.
func New(fs types.FS, p paths.Paths, cfg *config.Config) *Engine {
	return &Engine{
		fs:        fs,
		paths:     p,
		cfg:       cfg,
		manifests: manifest.NewStore(fs, p),
		links:     linkfarm.NewManager(fs),
		logger:    logging.GetLogger("transaction"),
	}
}

// Execute runs a plan. With dryRun the filesystem is untouched: the
// result carries the full effect list, every statically detectable
// issue, and the residual I/O risks. A real run with outstanding
// issues aborts before mutating anything; a mutation failure rolls
// back all prior steps and surfaces the original error.
func (e *Engine) Execute(p *Plan, dryRun bool) (*Result, error) {
	if !dryRun {
		defer logging.LogDuration(time.Now(), p.kind.String())
	}
	res := &Result{
		DryRun:  dryRun,
		Effects: p.effects(),
		Issues:  p.issues,
		Risks:   p.risks,
	}

	if len(p.issues) > 0 {
		if dryRun {
			return res, nil
		}
		return res, issuesError(p.issues)
	}
	if dryRun {
		return res, nil
	}

	j := newJournal(e.fs, e.logger)
	var err error
	switch p.kind {
	case opActivate:
		err = e.commitActivate(p, j)
	case opAdd:
		err = e.commitAdd(p, j)
	case opRemove:
		err = e.commitRemove(p, j)
	default:
		err = errors.New(errors.ErrInternal, "plan has no operation kind")
	}
	if err != nil {
		j.rollback()
		return res, err
	}
	j.purge()

	e.logger.Info().Str("config", p.target).Int("effects", len(res.Effects)).Msg("Transaction committed")
	return res, nil
}

// activeName resolves the repository's active config set from the
// .active symlink. ok is false when no set is active.
func (e *Engine) activeName() (string, bool, error) {
	target, exists, err := e.links.ReadTarget(e.paths.ActiveLinkPath())
	if err != nil || !exists {
		return "", false, err
	}
	return filepath.Base(target), true, nil
}

// issuesError folds a validation issue list into one error carrying
// the first issue's code.
func issuesError(issues []Issue) error {
	msgs := make([]string, len(issues))
	for i, is := range issues {
		msgs[i] = is.Message
	}
	return errors.Newf(issues[0].Code, "validation failed: %s", strings.Join(msgs, "; "))
}

// effects lists the planned mutations in commit order.
func (p *Plan) effects() []Effect {
	var out []Effect
	switch p.kind {
	case opActivate:
		for _, d := range p.forceDeletes {
			out = append(out, Effect{Kind: EffectRemoveFile, Path: d, Detail: "remove conflicting path"})
		}
		for _, l := range p.staleRemovals {
			out = append(out, Effect{Kind: EffectRemoveLink, Path: l.livePath, Detail: "stale link of previous set"})
		}
		for _, l := range p.linkEnsures {
			out = append(out, Effect{Kind: EffectCreateLink, Path: l.livePath, Detail: "-> " + l.target})
		}
		if p.updateActive {
			out = append(out, Effect{Kind: EffectSetActive, Path: p.target})
		}
	case opAdd:
		for _, c := range p.copies {
			out = append(out, Effect{Kind: EffectCopyFile, Path: c.rel, Detail: "copy into snapshot"})
		}
		for _, l := range p.linkEnsures {
			out = append(out, Effect{Kind: EffectCreateLink, Path: l.livePath, Detail: "-> " + l.target})
		}
		out = append(out, Effect{Kind: EffectWriteManifest, Path: p.target})
	case opRemove:
		for _, r := range p.removals {
			if r.linkExists {
				out = append(out, Effect{Kind: EffectRemoveLink, Path: r.livePath})
			}
			if r.snapExists {
				out = append(out, Effect{Kind: EffectRemoveFile, Path: r.rel, Detail: "remove from snapshot"})
			}
		}
		out = append(out, Effect{Kind: EffectWriteManifest, Path: p.target})
	}
	return out
}
