// Package config handles quarry configuration.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
)

// EnvVar names the environment variable that points at a config file.
const EnvVar = "QUARRY_CONFIG"

// Config represents the quarry configuration.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Catalog  CatalogConfig  `toml:"catalog"`
	Query    QueryConfig    `toml:"query"`
	Log      LogConfig      `toml:"log"`
	UI       UIConfig       `toml:"ui"`

	// path is the file the config was read from, used to resolve relative
	// paths. Empty for defaults.
	path string
}

// DatabaseConfig selects the relational store.
type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `toml:"driver"`
	// DSN is a file path for sqlite or a connection string for postgres.
	DSN string `toml:"dsn"`
}

// CatalogConfig locates the catalog file.
type CatalogConfig struct {
	Path string `toml:"path"`
}

// QueryConfig holds defaults for query options. Command flags override them.
type QueryConfig struct {
	Restrict         bool `toml:"restrict"`
	ShowDisconnected bool `toml:"show_disconnected"`
	TimeoutMS        int  `toml:"timeout_ms"`
	PageSize         int  `toml:"page_size"`
}

// LogConfig configures the global logger.
type LogConfig struct {
	Level string `toml:"level"`
	JSON  bool   `toml:"json"`
}

// UIConfig represents optional CLI theming preferences.
type UIConfig struct {
	// Accent is an ANSI color code ("0" to "255") or a hex color ("#RRGGBB").
	Accent string `toml:"accent"`

	// CodeTheme sets the Glamour/Chroma theme used for rendered markdown code blocks.
	CodeTheme string `toml:"code_theme"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Driver: "sqlite", DSN: "quarry.db"},
		Catalog:  CatalogConfig{Path: "catalog.yaml"},
		Log:      LogConfig{Level: "warn"},
	}
}

// ResolvePath picks the config file: the explicit path, then $QUARRY_CONFIG,
// then DefaultPath.
func ResolvePath(explicit string) string {
	if strings.TrimSpace(explicit) != "" {
		return explicit
	}
	if env := strings.TrimSpace(os.Getenv(EnvVar)); env != "" {
		return env
	}
	return DefaultPath()
}

// Load resolves the config path and loads it. A missing file yields
// defaults, except when the path was given explicitly.
func Load(explicit string) (*Config, error) {
	path := ResolvePath(explicit)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if strings.TrimSpace(explicit) != "" {
			return nil, errors.Wrapf(err, "config file %s does not exist", path)
		}
		cfg := Default()
		cfg.path = path
		return cfg, nil
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration from a specific path. Unset values keep
// their defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.Newf("unknown keys in config %s: %s", path, strings.Join(keys, ", "))
	}
	cfg.path = path
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

// Validate checks values that cannot be caught by decoding.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return errors.Newf("database.driver must be \"sqlite\" or \"postgres\", got %q", c.Database.Driver)
	}
	if c.Query.TimeoutMS < 0 {
		return errors.Newf("query.timeout_ms must not be negative, got %d", c.Query.TimeoutMS)
	}
	if c.Query.PageSize != 0 && c.Query.PageSize < 2 {
		return errors.Newf("query.page_size must be 0 or at least 2, got %d", c.Query.PageSize)
	}
	return nil
}

// Path is the file the config was loaded from.
func (c *Config) Path() string { return c.path }

// CatalogPath returns the catalog path, relative paths being resolved
// against the config file's directory.
func (c *Config) CatalogPath() string {
	return c.resolve(c.Catalog.Path)
}

// DSN returns the data source name. For sqlite, relative file paths are
// resolved against the config file's directory.
func (c *Config) DSN() string {
	if c.Database.Driver != "sqlite" || strings.HasPrefix(c.Database.DSN, "file:") || c.Database.DSN == ":memory:" {
		return c.Database.DSN
	}
	return c.resolve(c.Database.DSN)
}

// Timeout is the default statement timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Query.TimeoutMS) * time.Millisecond
}

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.path == "" {
		return p
	}
	return filepath.Join(filepath.Dir(c.path), p)
}

// DefaultPath returns the default config file path.
// Checks ~/.config/quarry/config.toml first (XDG style),
// then falls back to OS-specific location.
func DefaultPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		xdgPath := filepath.Join(home, ".config", "quarry", "config.toml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "quarry", "config.toml")
	}

	return filepath.Join(".", "config.toml")
}
