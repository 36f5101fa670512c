// Package store opens the relational database that records live in and
// creates tables for a catalog.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/aidanlsb/quarry/internal/catalog"
)

// Store is an open database handle plus the dialect used to talk to it.
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  *zap.SugaredLogger
}

// DB returns the underlying sql.DB.
func (s *Store) DB() *sql.DB { return s.db }

// Dialect returns the store's SQL dialect.
func (s *Store) Dialect() Dialect { return s.dialect }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Open opens the database for driver at dsn. A nil logger is allowed.
func Open(ctx context.Context, driver, dsn string, logger *zap.SugaredLogger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}
	logger.Debugw("Opening database", "driver", dialect.Name(), "dsn", redactDSN(dsn))

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	s := &Store{db: db, dialect: dialect, logger: logger}
	if err := s.initialize(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Infow("Database opened", "driver", dialect.Name())
	return s, nil
}

// Wrap adopts an already open database.
func Wrap(db *sql.DB, dialect Dialect, logger *zap.SugaredLogger) *Store {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Store{db: db, dialect: dialect, logger: logger}
}

func (s *Store) initialize(ctx context.Context) error {
	if _, ok := s.dialect.(SQLite); !ok {
		return errors.Wrap(s.db.PingContext(ctx), "failed to connect")
	}
	// An in-memory database exists per connection; keep a single one so
	// every statement sees the same tables.
	s.db.SetMaxOpenConns(1)
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := s.db.ExecContext(ctx, p); err != nil {
			return errors.Wrapf(err, "failed to run %q", p)
		}
	}
	return nil
}

// CreateStatements returns the DDL that creates a table per entity type.
func CreateStatements(cat *catalog.Catalog, d Dialect) []string {
	var stmts []string
	for _, name := range cat.EntityNames() {
		e := cat.Entities[name]
		cols := []string{d.PrimaryKey()}
		var indexed []string
		for _, attrName := range e.AttributeNames() {
			a := e.Attributes[attrName]
			if a.IsReverseLink() || a.Column == "id" {
				continue
			}
			def := fmt.Sprintf("%s %s", a.Column, d.ColumnType(a.Kind))
			if attrName == e.Identity {
				def += " NOT NULL UNIQUE"
			}
			cols = append(cols, def)
			if a.IsLink() {
				indexed = append(indexed, a.Column)
			}
		}
		stmts = append(stmts, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", e.Table, strings.Join(cols, ",\n\t")))
		for _, col := range indexed {
			stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s (%s)", e.Table, col, e.Table, col))
		}
	}
	return stmts
}

// Migrate creates any missing tables for the catalog.
func (s *Store) Migrate(ctx context.Context, cat *catalog.Catalog) error {
	for _, stmt := range CreateStatements(cat, s.dialect) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to create tables")
		}
	}
	s.logger.Infow("Catalog tables ready", "project", cat.Project, "entities", len(cat.Entities))
	return nil
}

func redactDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	return dsn[:scheme+3] + "***" + dsn[at:]
}
