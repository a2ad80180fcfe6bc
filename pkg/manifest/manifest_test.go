package manifest_test

import (
	"testing"

	"github.com/confset/confset/pkg/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetSemantics(t *testing.T) {
	m := manifest.New()
	assert.Equal(t, 0, m.Len())

	m.Add(manifest.Entry{Path: "etc/app/config.ini"})
	m.Add(manifest.Entry{Path: "etc/app/modules"})
	m.Add(manifest.Entry{Path: "etc/app/config.ini", Description: "replaced"})

	assert.Equal(t, 2, m.Len())
	assert.True(t, m.Contains("etc/app/config.ini"))
	assert.Equal(t, []string{"etc/app/config.ini", "etc/app/modules"}, m.Paths())

	assert.True(t, m.Remove("etc/app/modules"))
	assert.False(t, m.Remove("etc/app/modules"))
	assert.Equal(t, 1, m.Len())
}

func TestParseAndMarshalRoundTrip(t *testing.T) {
	in := []byte(`files:
  - path: etc/app/modules
  - path: etc/app/config.ini
    description: main config
`)
	m, err := manifest.Parse(in)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())

	out, err := m.Marshal()
	require.NoError(t, err)

	again, err := manifest.Parse(out)
	require.NoError(t, err)
	assert.True(t, m.Equal(again))

	// Sorted output: config.ini before modules.
	entries := again.Entries()
	assert.Equal(t, "etc/app/config.ini", entries[0].Path)
	assert.Equal(t, "main config", entries[0].Description)
}

func TestParseDuplicatesLastWins(t *testing.T) {
	in := []byte(`files:
  - path: x.txt
    description: first
  - path: x.txt
    description: second
`)
	m, err := manifest.Parse(in)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, "second", m.Entries()[0].Description)
}

func TestParseEmptyDocument(t *testing.T) {
	m, err := manifest.Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
}

func TestParseMalformed(t *testing.T) {
	_, err := manifest.Parse([]byte("files: {not: [a, list"))
	assert.Error(t, err)
}

func TestCloneIsIndependent(t *testing.T) {
	m := manifest.New()
	m.Add(manifest.Entry{Path: "a.txt"})

	c := m.Clone()
	c.Add(manifest.Entry{Path: "b.txt"})

	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 2, c.Len())
	assert.False(t, m.Equal(c))
}
