package manifest

import (
	"os"

	"github.com/confset/confset/pkg/errors"
	"github.com/confset/confset/pkg/logging"
	"github.com/confset/confset/pkg/paths"
	"github.com/confset/confset/pkg/types"
	"github.com/rs/zerolog"
)

// Store reads and writes manifests. Writes go to a sibling temporary
// file followed by a rename, so a partial manifest is never observable.
type Store struct {
	fs     types.FS
	paths  paths.Paths
	logger zerolog.Logger
}

// NewStore creates a manifest store over the given filesystem.
func NewStore(fs types.FS, p paths.Paths) *Store {
	return &Store{
		fs:     fs,
		paths:  p,
		logger: logging.GetLogger("manifest.store"),
	}
}

// Load reads the manifest of the named config set. A missing or
// unreadable manifest is reported as Corrupt, never as empty: the
// manifest file is created together with the set, so its absence means
// the set's state is damaged.
func (s *Store) Load(name string) (*Manifest, error) {
	path := s.paths.ManifestPath(name)
	data, err := s.fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrCorrupt,
				"manifest for config set %q not found at %s", name, path)
		}
		return nil, errors.Wrapf(err, errors.ErrCorrupt,
			"manifest for config set %q is unreadable", name)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCorrupt,
			"manifest for config set %q is malformed", name)
	}

	s.logger.Debug().Str("config", name).Int("entries", m.Len()).Msg("Manifest loaded")
	return m, nil
}

// Save writes the manifest atomically (temp file + rename).
func (s *Store) Save(name string, m *Manifest) error {
	data, err := m.Marshal()
	if err != nil {
		return errors.Wrapf(err, errors.ErrInternal,
			"failed to encode manifest for config set %q", name)
	}

	path := s.paths.ManifestPath(name)
	tmp := path + ".tmp"

	if err := s.fs.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrIOFailure,
			"failed to write manifest temp file for config set %q", name)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return errors.Wrapf(err, errors.ErrIOFailure,
			"failed to move manifest into place for config set %q", name)
	}

	s.logger.Debug().Str("config", name).Int("entries", m.Len()).Msg("Manifest saved")
	return nil
}
