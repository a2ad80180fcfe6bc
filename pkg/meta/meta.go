// Package meta persists per-config-set metadata: name, version,
// description, provenance and timestamps.
package meta

import (
	"os"
	"time"

	"github.com/confset/confset/pkg/errors"
	"github.com/confset/confset/pkg/paths"
	"github.com/confset/confset/pkg/types"
	"gopkg.in/yaml.v3"
)

// Meta describes a config set. Provenance fields record how the set
// came to exist (cloned from a template, renamed, pulled).
type Meta struct {
	Name        string    `yaml:"name"`
	Version     string    `yaml:"version"`
	Description string    `yaml:"description,omitempty"`
	Author      string    `yaml:"author,omitempty"`
	CreatedFrom string    `yaml:"created_from,omitempty"`
	RenamedFrom string    `yaml:"renamed_from,omitempty"`
	CreatedAt   time.Time `yaml:"created_at"`
	UpdatedAt   time.Time `yaml:"updated_at"`
}

// NewMeta returns metadata for a freshly created set.
func NewMeta(name string) *Meta {
	now := time.Now().UTC().Truncate(time.Second)
	return &Meta{
		Name:      name,
		Version:   "1.0.0",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch updates the modification timestamp.
func (m *Meta) Touch() {
	m.UpdatedAt = time.Now().UTC().Truncate(time.Second)
}

// Store reads and writes .meta files.
type Store struct {
	fs    types.FS
	paths paths.Paths
}

// NewStore creates a meta store over the given filesystem.
func NewStore(fs types.FS, p paths.Paths) *Store {
	return &Store{fs: fs, paths: p}
}

// Load reads the metadata of the named set. A missing file returns
// (nil, nil): metadata is optional on imported or hand-built sets.
func (s *Store) Load(name string) (*Meta, error) {
	data, err := s.fs.ReadFile(s.paths.MetaPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, errors.ErrCorrupt, "meta for config set %q is unreadable", name)
	}

	var m Meta
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, errors.ErrCorrupt, "meta for config set %q is malformed", name)
	}
	return &m, nil
}

// Save writes the metadata atomically (temp file + rename).
func (s *Store) Save(name string, m *Meta) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "failed to encode meta for config set %q", name)
	}

	path := s.paths.MetaPath(name)
	tmp := path + ".tmp"
	if err := s.fs.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrIOFailure, "failed to write meta temp file for config set %q", name)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return errors.Wrapf(err, errors.ErrIOFailure, "failed to move meta into place for config set %q", name)
	}
	return nil
}
