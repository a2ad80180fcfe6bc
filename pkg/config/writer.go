package config

import (
	"bytes"

	"github.com/confset/confset/pkg/errors"
	gotoml "github.com/pelletier/go-toml/v2"
)

// starterConfig is the document `confset init` writes. Fields mirror
// the embedded defaults so the generated file round-trips through Load.
type starterConfig struct {
	Core struct {
		LiveRoot        string `toml:"live_root"`
		DefaultTemplate string `toml:"default_template"`
	} `toml:"core"`
	Lock struct {
		Timeout string `toml:"timeout"`
	} `toml:"lock"`
	Safety struct {
		ProtectedPaths []string `toml:"protected_paths"`
	} `toml:"safety"`
}

// RenderStarter produces the contents of a fresh .confset.toml
// populated from the given settings.
func RenderStarter(cfg *Config) ([]byte, error) {
	var doc starterConfig
	doc.Core.LiveRoot = cfg.LiveRoot
	doc.Core.DefaultTemplate = cfg.DefaultTemplate
	doc.Lock.Timeout = cfg.LockTimeout.String()
	doc.Safety.ProtectedPaths = cfg.ProtectedPaths
	if doc.Safety.ProtectedPaths == nil {
		doc.Safety.ProtectedPaths = []string{}
	}

	var buf bytes.Buffer
	buf.WriteString("# confset repository configuration\n\n")
	enc := gotoml.NewEncoder(&buf)
	if err := enc.Encode(doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to encode starter config")
	}
	return buf.Bytes(), nil
}
