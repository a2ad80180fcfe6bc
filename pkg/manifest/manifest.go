// Package manifest persists, per config set, the set of relative paths
// the set manages. The manifest is the durable commit record of the
// transaction engine: it is always written atomically, last.
package manifest

import (
	"sort"

	"gopkg.in/yaml.v3"
)

// Entry is a single managed path within a config set.
type Entry struct {
	// Path is relative to the live root, slash-separated.
	Path string `yaml:"path"`

	// Description is optional, user-facing.
	Description string `yaml:"description,omitempty"`
}

// document is the on-disk YAML shape.
type document struct {
	Files []Entry `yaml:"files"`
}

// Manifest is an order-irrelevant set of unique relative paths.
type Manifest struct {
	entries map[string]Entry
}

// New returns an empty manifest, the valid initial state of a freshly
// created config set.
func New() *Manifest {
	return &Manifest{entries: make(map[string]Entry)}
}

// Parse decodes manifest YAML. Later duplicates of the same path win,
// mirroring a set insert.
func Parse(data []byte) (*Manifest, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	m := New()
	for _, e := range doc.Files {
		if e.Path == "" {
			continue
		}
		m.entries[e.Path] = e
	}
	return m, nil
}

// Marshal encodes the manifest sorted by path for stable output.
func (m *Manifest) Marshal() ([]byte, error) {
	doc := document{Files: m.Entries()}
	return yaml.Marshal(&doc)
}

// Contains reports whether the manifest manages rel.
func (m *Manifest) Contains(rel string) bool {
	_, ok := m.entries[rel]
	return ok
}

// Add inserts or replaces an entry.
func (m *Manifest) Add(e Entry) {
	m.entries[e.Path] = e
}

// Remove deletes an entry, reporting whether it was present.
func (m *Manifest) Remove(rel string) bool {
	if _, ok := m.entries[rel]; !ok {
		return false
	}
	delete(m.entries, rel)
	return true
}

// Paths returns the managed paths sorted lexicographically.
func (m *Manifest) Paths() []string {
	out := make([]string, 0, len(m.entries))
	for p := range m.entries {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Entries returns all entries sorted by path.
func (m *Manifest) Entries() []Entry {
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Len returns the number of managed paths.
func (m *Manifest) Len() int {
	return len(m.entries)
}

// Clone returns an independent copy.
func (m *Manifest) Clone() *Manifest {
	c := New()
	for k, v := range m.entries {
		c.entries[k] = v
	}
	return c
}

// Equal reports whether both manifests manage the same paths.
func (m *Manifest) Equal(other *Manifest) bool {
	if m.Len() != other.Len() {
		return false
	}
	for p := range m.entries {
		if !other.Contains(p) {
			return false
		}
	}
	return true
}
