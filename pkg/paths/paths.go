// Package paths provides centralized path handling for confset.
// It maps config set names to their on-disk snapshot locations and
// relative manifest paths to their live-tree and snapshot-tree targets.
package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/confset/confset/pkg/errors"
)

// Environment variable names
const (
	// EnvRepoRoot overrides the config repository root directory
	EnvRepoRoot = "CONFSET_REPO_ROOT"

	// EnvLiveRoot overrides the root the live tree is resolved against
	EnvLiveRoot = "CONFSET_LIVE_ROOT"
)

// Canonical repository layout. These names are part of the on-disk
// format and must stay stable across installations.
const (
	// ConfigsDirName holds one snapshot directory per config set
	ConfigsDirName = "configs"

	// ManifestFileName is the serialized manifest inside a snapshot
	ManifestFileName = ".manifest"

	// MetaFileName is the set metadata file inside a snapshot
	MetaFileName = ".meta"

	// ActiveLinkName is the symlink marking the active config set
	ActiveLinkName = ".active"

	// LockFileName is the advisory repository lock
	LockFileName = ".lock"

	// RepoConfigFileName is the optional user configuration file
	RepoConfigFileName = ".confset.toml"

	// LogFileName is the name of the log file
	LogFileName = "confset.log"
)

// reservedNames cannot be used as config set names.
var reservedNames = map[string]bool{
	"configs": true,
	".active": true,
	".lock":   true,
	"current": true,
}

// Paths provides centralized path management for a config repository.
type Paths interface {
	// RepoRoot is the repository root directory (holds configs/, .active).
	RepoRoot() string

	// LiveRoot is the directory manifest-relative paths resolve against.
	LiveRoot() string

	// ConfigsDir is <root>/configs.
	ConfigsDir() string

	// SnapshotDir is <root>/configs/<name>.
	SnapshotDir(name string) string

	// SnapshotFile is <root>/configs/<name>/<rel>.
	SnapshotFile(name, rel string) string

	// ManifestPath is <root>/configs/<name>/.manifest.
	ManifestPath(name string) string

	// MetaPath is <root>/configs/<name>/.meta.
	MetaPath(name string) string

	// ActiveLinkPath is <root>/.active.
	ActiveLinkPath() string

	// LockPath is <root>/.lock.
	LockPath() string

	// RepoConfigPath is <root>/.confset.toml.
	RepoConfigPath() string

	// LivePath maps a manifest-relative path to its live-tree location.
	LivePath(rel string) string

	// Rel maps a live-tree path back to its manifest-relative form.
	// Fails when the path escapes the live root.
	Rel(systemPath string) (string, error)

	// ValidateName rejects empty, reserved and path-unsafe set names.
	ValidateName(name string) error

	// StateDir is the XDG state directory for confset.
	StateDir() string

	// LogFilePath is where the log file lives.
	LogFilePath() string
}

type paths struct {
	repoRoot string
	liveRoot string
	xdgState string
}

// New creates a Paths instance. Empty arguments fall back to the
// CONFSET_REPO_ROOT / CONFSET_LIVE_ROOT environment variables, then to
// the current directory and "/" respectively.
func New(repoRoot, liveRoot string) (Paths, error) {
	if repoRoot == "" {
		repoRoot = os.Getenv(EnvRepoRoot)
	}
	if repoRoot == "" {
		repoRoot = "."
	}
	absRoot, err := filepath.Abs(repoRoot)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "failed to resolve repository root %q", repoRoot)
	}

	if liveRoot == "" {
		liveRoot = os.Getenv(EnvLiveRoot)
	}
	if liveRoot == "" {
		liveRoot = string(filepath.Separator)
	}
	absLive, err := filepath.Abs(liveRoot)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "failed to resolve live root %q", liveRoot)
	}

	return &paths{
		repoRoot: absRoot,
		liveRoot: absLive,
		xdgState: filepath.Join(xdg.StateHome, "confset"),
	}, nil
}

func (p *paths) RepoRoot() string { return p.repoRoot }
func (p *paths) LiveRoot() string { return p.liveRoot }

func (p *paths) ConfigsDir() string {
	return filepath.Join(p.repoRoot, ConfigsDirName)
}

func (p *paths) SnapshotDir(name string) string {
	return filepath.Join(p.ConfigsDir(), name)
}

func (p *paths) SnapshotFile(name, rel string) string {
	return filepath.Join(p.SnapshotDir(name), filepath.FromSlash(rel))
}

func (p *paths) ManifestPath(name string) string {
	return filepath.Join(p.SnapshotDir(name), ManifestFileName)
}

func (p *paths) MetaPath(name string) string {
	return filepath.Join(p.SnapshotDir(name), MetaFileName)
}

func (p *paths) ActiveLinkPath() string {
	return filepath.Join(p.repoRoot, ActiveLinkName)
}

func (p *paths) LockPath() string {
	return filepath.Join(p.repoRoot, LockFileName)
}

func (p *paths) RepoConfigPath() string {
	return filepath.Join(p.repoRoot, RepoConfigFileName)
}

func (p *paths) LivePath(rel string) string {
	return filepath.Join(p.liveRoot, filepath.FromSlash(rel))
}

func (p *paths) Rel(systemPath string) (string, error) {
	abs, err := filepath.Abs(systemPath)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrInvalidInput, "failed to resolve path %q", systemPath)
	}
	rel, err := filepath.Rel(p.liveRoot, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Newf(errors.ErrInvalidInput,
			"path %q is outside the live root %q", systemPath, p.liveRoot)
	}
	// Paths that resolve into the repository itself are never manageable.
	if within(abs, p.repoRoot) {
		return "", errors.Newf(errors.ErrInvalidInput,
			"path %q is inside the config repository", systemPath)
	}
	return filepath.ToSlash(rel), nil
}

func (p *paths) ValidateName(name string) error {
	if name == "" || strings.TrimSpace(name) == "" {
		return errors.New(errors.ErrInvalidInput, "config set name must be a non-empty string")
	}
	if strings.ContainsAny(name, "/\\:*?<>|\x00") || strings.Contains(name, "..") {
		return errors.Newf(errors.ErrInvalidInput, "config set name %q contains illegal characters", name)
	}
	if reservedNames[strings.ToLower(name)] {
		return errors.Newf(errors.ErrInvalidInput, "%q is a reserved name", name)
	}
	return nil
}

func (p *paths) StateDir() string { return p.xdgState }

func (p *paths) LogFilePath() string {
	return filepath.Join(p.xdgState, LogFileName)
}

// within reports whether path is inside parent.
func within(path, parent string) bool {
	rel, err := filepath.Rel(filepath.Clean(parent), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}
