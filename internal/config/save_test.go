package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Database.DSN = "labors.db"
	cfg.Query.TimeoutMS = 1000
	cfg.UI.Accent = " 39 "

	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo returned error: %v", err)
	}
	if cfg.Path() != path {
		t.Errorf("expected saved config to remember %q, got %q", path, cfg.Path())
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom returned error: %v", err)
	}
	if loaded.Database.DSN != "labors.db" {
		t.Errorf("expected dsn labors.db, got %q", loaded.Database.DSN)
	}
	if loaded.Query.TimeoutMS != 1000 {
		t.Errorf("expected timeout_ms 1000, got %d", loaded.Query.TimeoutMS)
	}
	if loaded.UI.Accent != "39" {
		t.Errorf("expected trimmed accent, got %q", loaded.UI.Accent)
	}
}

func TestSaveToOmitsEmptySections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := Default()
	cfg.Log = LogConfig{}

	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, section := range []string{"[query]", "[log]", "[ui]"} {
		if strings.Contains(string(data), section) {
			t.Errorf("expected %s to be omitted:\n%s", section, data)
		}
	}
}

func TestSaveToRejectsInvalidConfig(t *testing.T) {
	cfg := Default()
	cfg.Database.Driver = "oracle"
	if err := SaveTo(filepath.Join(t.TempDir(), "config.toml"), cfg); err == nil {
		t.Fatal("expected validation error")
	}
}
