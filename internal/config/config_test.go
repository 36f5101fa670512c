package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadFrom(t *testing.T) {
	t.Run("full config", func(t *testing.T) {
		path := writeConfig(t, `
[database]
driver = "postgres"
dsn = "postgres://quarry@localhost/quarry"

[catalog]
path = "schemas/catalog.yaml"

[query]
restrict = true
show_disconnected = true
timeout_ms = 2500
page_size = 50

[log]
level = "debug"
json = true
`)
		cfg, err := LoadFrom(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Database.Driver != "postgres" {
			t.Errorf("expected driver postgres, got %q", cfg.Database.Driver)
		}
		if got := cfg.DSN(); got != "postgres://quarry@localhost/quarry" {
			t.Errorf("postgres DSN should be used as is, got %q", got)
		}
		if want := filepath.Join(filepath.Dir(path), "schemas", "catalog.yaml"); cfg.CatalogPath() != want {
			t.Errorf("expected catalog path %q, got %q", want, cfg.CatalogPath())
		}
		if !cfg.Query.Restrict || !cfg.Query.ShowDisconnected {
			t.Errorf("expected query flags to be set, got %+v", cfg.Query)
		}
		if cfg.Timeout() != 2500*time.Millisecond {
			t.Errorf("expected 2.5s timeout, got %s", cfg.Timeout())
		}
		if cfg.Query.PageSize != 50 {
			t.Errorf("expected page size 50, got %d", cfg.Query.PageSize)
		}
		if cfg.Log.Level != "debug" || !cfg.Log.JSON {
			t.Errorf("unexpected log config %+v", cfg.Log)
		}
	})

	t.Run("missing keys keep defaults", func(t *testing.T) {
		path := writeConfig(t, "[query]\nrestrict = true\n")
		cfg, err := LoadFrom(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Database.Driver != "sqlite" {
			t.Errorf("expected default driver, got %q", cfg.Database.Driver)
		}
		if want := filepath.Join(filepath.Dir(path), "quarry.db"); cfg.DSN() != want {
			t.Errorf("expected sqlite DSN %q, got %q", want, cfg.DSN())
		}
		if cfg.Log.Level != "warn" {
			t.Errorf("expected default log level warn, got %q", cfg.Log.Level)
		}
	})

	t.Run("absolute and in-memory sqlite DSNs", func(t *testing.T) {
		cfg, err := LoadFrom(writeConfig(t, "[database]\ndsn = \":memory:\"\n"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.DSN() != ":memory:" {
			t.Errorf("expected :memory:, got %q", cfg.DSN())
		}

		cfg, err = LoadFrom(writeConfig(t, "[database]\ndsn = \"/var/lib/quarry.db\"\n"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.DSN() != "/var/lib/quarry.db" {
			t.Errorf("expected absolute path unchanged, got %q", cfg.DSN())
		}
	})

	t.Run("rejections", func(t *testing.T) {
		tests := []struct {
			name    string
			content string
			want    string
		}{
			{"unknown driver", "[database]\ndriver = \"mysql\"\n", "database.driver"},
			{"negative timeout", "[query]\ntimeout_ms = -1\n", "timeout_ms"},
			{"page size one", "[query]\npage_size = 1\n", "page_size"},
			{"unknown key", "[query]\nrestricted = true\n", "query.restricted"},
			{"bad toml", "[database\n", "failed to parse"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := LoadFrom(writeConfig(t, tt.content))
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), tt.want) {
					t.Errorf("expected error to mention %q, got %v", tt.want, err)
				}
			})
		}
	})
}

func TestResolvePath(t *testing.T) {
	t.Setenv(EnvVar, "/from/env/config.toml")

	if got := ResolvePath("/explicit/config.toml"); got != "/explicit/config.toml" {
		t.Errorf("explicit path should win, got %q", got)
	}
	if got := ResolvePath(""); got != "/from/env/config.toml" {
		t.Errorf("expected env path, got %q", got)
	}

	t.Setenv(EnvVar, "")
	if got := ResolvePath(""); got != DefaultPath() {
		t.Errorf("expected default path, got %q", got)
	}
}

func TestLoad(t *testing.T) {
	t.Run("missing default file yields defaults", func(t *testing.T) {
		t.Setenv(EnvVar, filepath.Join(t.TempDir(), "absent.toml"))
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Database.Driver != "sqlite" {
			t.Errorf("expected defaults, got %+v", cfg.Database)
		}
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
		if err == nil {
			t.Fatal("expected error for missing explicit config")
		}
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("expected a not-exist error, got %v", err)
		}
	})
}
