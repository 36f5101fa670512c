package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"

	"github.com/aidanlsb/quarry/internal/atomicfile"
)

type persistedConfig struct {
	Database DatabaseConfig       `toml:"database"`
	Catalog  CatalogConfig        `toml:"catalog"`
	Query    *QueryConfig         `toml:"query,omitempty"`
	Log      *LogConfig           `toml:"log,omitempty"`
	UI       *persistedUISettings `toml:"ui,omitempty"`
}

type persistedUISettings struct {
	Accent    *string `toml:"accent,omitempty"`
	CodeTheme *string `toml:"code_theme,omitempty"`
}

func nonEmptyPtr(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// SaveTo writes cfg to path atomically. Sections left at their zero value
// are omitted.
func SaveTo(path string, cfg *Config) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("config path is required")
	}
	if cfg == nil {
		cfg = Default()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	out := persistedConfig{
		Database: cfg.Database,
		Catalog:  cfg.Catalog,
	}
	if cfg.Query != (QueryConfig{}) {
		q := cfg.Query
		out.Query = &q
	}
	if cfg.Log != (LogConfig{}) {
		l := cfg.Log
		out.Log = &l
	}

	accent := nonEmptyPtr(cfg.UI.Accent)
	codeTheme := nonEmptyPtr(cfg.UI.CodeTheme)
	if accent != nil || codeTheme != nil {
		out.UI = &persistedUISettings{
			Accent:    accent,
			CodeTheme: codeTheme,
		}
	}

	var buf bytes.Buffer
	buf.WriteString("# quarry configuration\n\n")
	if err := toml.NewEncoder(&buf).Encode(out); err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	if err := atomicfile.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write config %s", path)
	}

	cfg.path = path
	return nil
}
