// Package config loads confset settings from layered sources:
// embedded defaults, the repository's .confset.toml, then CONFSET_*
// environment variables. Later layers win.
package config

import (
	_ "embed"
	"os"
	"strings"
	"time"

	"github.com/confset/confset/pkg/errors"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

//go:embed embedded/defaults.toml
var defaultConfig []byte

const envPrefix = "CONFSET_"

// Config holds the resolved settings.
type Config struct {
	// LiveRoot is the directory manifest paths resolve against.
	LiveRoot string

	// DefaultTemplate is the set cloned by create when none is named.
	DefaultTemplate string

	// LockTimeout bounds the wait for the repository lock.
	LockTimeout time.Duration

	// ProtectedPaths are live-relative paths mutations refuse to touch.
	ProtectedPaths []string
}

// Load resolves the configuration for a repository. repoConfigPath may
// point at a file that does not exist; only a present-but-unparseable
// file is an error.
func Load(repoConfigPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider(defaultConfig), toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to load built-in defaults")
	}

	if repoConfigPath != "" {
		if _, err := os.Stat(repoConfigPath); err == nil {
			if err := k.Load(file.Provider(repoConfigPath), toml.Parser()); err != nil {
				return nil, errors.Wrapf(err, errors.ErrInvalidInput,
					"failed to load config from %s", repoConfigPath)
			}
		}
	}

	// CONFSET_LOCK_TIMEOUT=30s -> lock.timeout. Only the first
	// underscore becomes a separator, matching the two-level key layout.
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.Replace(key, "_", ".", 1)
	}), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to load environment overrides")
	}

	cfg := &Config{
		LiveRoot:        k.String("core.live_root"),
		DefaultTemplate: k.String("core.default_template"),
		LockTimeout:     k.Duration("lock.timeout"),
		ProtectedPaths:  k.Strings("safety.protected_paths"),
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = 10 * time.Second
	}
	return cfg, nil
}

// IsProtected reports whether a manifest-relative path is covered by
// the protected list, either exactly or as a descendant of a protected
// directory.
func (c *Config) IsProtected(rel string) bool {
	for _, p := range c.ProtectedPaths {
		p = strings.Trim(p, "/")
		if p == "" {
			continue
		}
		if rel == p || strings.HasPrefix(rel, p+"/") {
			return true
		}
	}
	return false
}
