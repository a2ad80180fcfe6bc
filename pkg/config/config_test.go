package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/confset/confset/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "/", cfg.LiveRoot)
	assert.Equal(t, "", cfg.DefaultTemplate)
	assert.Equal(t, 10*time.Second, cfg.LockTimeout)
	assert.Empty(t, cfg.ProtectedPaths)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), ".confset.toml"))
	require.NoError(t, err)
	assert.Equal(t, "/", cfg.LiveRoot)
}

func TestRepoConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".confset.toml")
	content := `
[core]
live_root = "/srv/live"
default_template = "base"

[lock]
timeout = "30s"

[safety]
protected_paths = ["etc/passwd", "etc/ssh"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/live", cfg.LiveRoot)
	assert.Equal(t, "base", cfg.DefaultTemplate)
	assert.Equal(t, 30*time.Second, cfg.LockTimeout)
	assert.Equal(t, []string{"etc/passwd", "etc/ssh"}, cfg.ProtectedPaths)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".confset.toml")
	require.NoError(t, os.WriteFile(path, []byte("[lock]\ntimeout = \"30s\"\n"), 0644))

	t.Setenv("CONFSET_LOCK_TIMEOUT", "5s")
	t.Setenv("CONFSET_CORE_DEFAULT_TEMPLATE", "golden")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.LockTimeout)
	assert.Equal(t, "golden", cfg.DefaultTemplate)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".confset.toml")
	require.NoError(t, os.WriteFile(path, []byte("[core\nbroken"), 0644))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestIsProtected(t *testing.T) {
	cfg := &config.Config{ProtectedPaths: []string{"etc/ssh", "etc/passwd"}}

	assert.True(t, cfg.IsProtected("etc/passwd"))
	assert.True(t, cfg.IsProtected("etc/ssh/sshd_config"))
	assert.False(t, cfg.IsProtected("etc/sshd"))
	assert.False(t, cfg.IsProtected("etc/app/config.ini"))
}

func TestStarterRoundTrip(t *testing.T) {
	cfg := &config.Config{
		LiveRoot:        "/srv/live",
		DefaultTemplate: "base",
		LockTimeout:     15 * time.Second,
		ProtectedPaths:  []string{"etc/passwd"},
	}

	data, err := config.RenderStarter(cfg)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), ".confset.toml")
	require.NoError(t, os.WriteFile(path, data, 0644))

	loaded, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.LiveRoot, loaded.LiveRoot)
	assert.Equal(t, cfg.DefaultTemplate, loaded.DefaultTemplate)
	assert.Equal(t, cfg.LockTimeout, loaded.LockTimeout)
	assert.Equal(t, cfg.ProtectedPaths, loaded.ProtectedPaths)
}
