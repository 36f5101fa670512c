// Package testutil provides reusable fixtures for quarry tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/aidanlsb/quarry/internal/catalog"
	"github.com/aidanlsb/quarry/internal/store"
)

// TestProject is a temporary catalog plus a seeded SQLite database.
type TestProject struct {
	Path    string
	Catalog *catalog.Catalog
	Store   *store.Store

	t       *testing.T
	catalog string
	seed    []string
	config  string
}

// NewTestProject creates a new test project builder.
// Call Build() to create the catalog and database.
func NewTestProject(t *testing.T) *TestProject {
	t.Helper()
	return &TestProject{t: t}
}

// WithCatalog sets the catalog.yaml content.
func (p *TestProject) WithCatalog(yaml string) *TestProject {
	p.catalog = yaml
	return p
}

// WithSeed adds statements run after the tables are created.
func (p *TestProject) WithSeed(stmts ...string) *TestProject {
	p.seed = append(p.seed, stmts...)
	return p
}

// WithConfig appends extra TOML to the generated config.toml.
func (p *TestProject) WithConfig(toml string) *TestProject {
	p.config = toml
	return p
}

// Build writes catalog.yaml and config.toml, creates the tables and runs
// the seed statements. The store is closed when the test ends.
func (p *TestProject) Build() *TestProject {
	p.t.Helper()

	p.Path = p.t.TempDir()
	if p.catalog == "" {
		p.catalog = LaborsCatalog()
	}
	p.WriteFile("catalog.yaml", p.catalog)
	p.WriteFile("config.toml", fmt.Sprintf(`[database]
driver = "sqlite"
dsn = %q

[catalog]
path = %q
%s`, p.DatabasePath(), filepath.Join(p.Path, "catalog.yaml"), p.config))

	cat, err := catalog.Load(filepath.Join(p.Path, "catalog.yaml"))
	if err != nil {
		p.t.Fatalf("failed to load catalog: %v", err)
	}
	p.Catalog = cat

	ctx := context.Background()
	s, err := store.Open(ctx, "sqlite", p.DatabasePath(), nil)
	if err != nil {
		p.t.Fatalf("failed to open store: %v", err)
	}
	p.t.Cleanup(func() { s.Close() })
	p.Store = s

	if err := s.Migrate(ctx, cat); err != nil {
		p.t.Fatalf("failed to create tables: %v", err)
	}
	for _, stmt := range p.seed {
		if _, err := s.DB().ExecContext(ctx, stmt); err != nil {
			p.t.Fatalf("failed to seed %q: %v", stmt, err)
		}
	}
	return p
}

// DatabasePath is the SQLite file backing the project.
func (p *TestProject) DatabasePath() string {
	return filepath.Join(p.Path, "quarry.db")
}

// ConfigPath is the generated config.toml.
func (p *TestProject) ConfigPath() string {
	return filepath.Join(p.Path, "config.toml")
}

// WriteFile writes content to a path relative to the project.
func (p *TestProject) WriteFile(relPath, content string) {
	p.t.Helper()
	fullPath := filepath.Join(p.Path, relPath)
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		p.t.Fatalf("failed to write file %s: %v", fullPath, err)
	}
}
