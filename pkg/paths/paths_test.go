package paths_test

import (
	"path/filepath"
	"testing"

	"github.com/confset/confset/pkg/errors"
	"github.com/confset/confset/pkg/paths"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsFromEnv(t *testing.T) {
	tempDir := t.TempDir()
	repoRoot := filepath.Join(tempDir, "repo")
	liveRoot := filepath.Join(tempDir, "live")
	t.Setenv(paths.EnvRepoRoot, repoRoot)
	t.Setenv(paths.EnvLiveRoot, liveRoot)

	p, err := paths.New("", "")
	require.NoError(t, err)

	assert.Equal(t, repoRoot, p.RepoRoot())
	assert.Equal(t, liveRoot, p.LiveRoot())
}

func TestRepositoryLayout(t *testing.T) {
	tempDir := t.TempDir()
	p, err := paths.New(tempDir, "/")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(tempDir, "configs"), p.ConfigsDir())
	assert.Equal(t, filepath.Join(tempDir, "configs", "base"), p.SnapshotDir("base"))
	assert.Equal(t, filepath.Join(tempDir, "configs", "base", ".manifest"), p.ManifestPath("base"))
	assert.Equal(t, filepath.Join(tempDir, "configs", "base", ".meta"), p.MetaPath("base"))
	assert.Equal(t, filepath.Join(tempDir, ".active"), p.ActiveLinkPath())
	assert.Equal(t, filepath.Join(tempDir, ".lock"), p.LockPath())
	assert.Equal(t, filepath.Join(tempDir, "configs", "base", "etc", "app.conf"),
		p.SnapshotFile("base", "etc/app.conf"))
}

func TestLivePathRoundTrip(t *testing.T) {
	tempDir := t.TempDir()
	repoRoot := filepath.Join(tempDir, "repo")
	liveRoot := filepath.Join(tempDir, "live")

	p, err := paths.New(repoRoot, liveRoot)
	require.NoError(t, err)

	live := p.LivePath("etc/app/config.ini")
	assert.Equal(t, filepath.Join(liveRoot, "etc", "app", "config.ini"), live)

	rel, err := p.Rel(live)
	require.NoError(t, err)
	assert.Equal(t, "etc/app/config.ini", rel)
}

func TestRelRejectsEscapes(t *testing.T) {
	tempDir := t.TempDir()
	repoRoot := filepath.Join(tempDir, "live", "repo") // repo nested inside live root
	liveRoot := filepath.Join(tempDir, "live")

	p, err := paths.New(repoRoot, liveRoot)
	require.NoError(t, err)

	tests := []struct {
		name string
		path string
	}{
		{"outside_live_root", filepath.Join(tempDir, "elsewhere", "x.txt")},
		{"parent_of_live_root", tempDir},
		{"inside_repository", filepath.Join(repoRoot, "configs", "base", "x.txt")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Rel(tt.path)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrInvalidInput))
		})
	}
}

func TestValidateName(t *testing.T) {
	p, err := paths.New(t.TempDir(), "/")
	require.NoError(t, err)

	valid := []string{"base", "variant-2", "prod_2024", "Dev.1"}
	for _, name := range valid {
		assert.NoError(t, p.ValidateName(name), name)
	}

	invalid := []string{"", "  ", "a/b", `a\b`, "a..b", ".active", ".lock", "configs", "Current", "a:b", "a\x00b"}
	for _, name := range invalid {
		err := p.ValidateName(name)
		require.Error(t, err, "name %q", name)
		assert.True(t, errors.IsCode(err, errors.ErrInvalidInput), name)
	}
}
