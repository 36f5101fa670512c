package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aidanlsb/quarry/internal/catalog"
)

// Dialect captures the SQL differences between supported engines. Statements
// are always written with `?` placeholders and rebound before execution.
type Dialect interface {
	Name() string
	// DriverName is the database/sql driver to open.
	DriverName() string
	// Rebind rewrites `?` placeholders into the engine's syntax.
	Rebind(query string) string
	// Regexp returns a boolean expression matching subject against a
	// pattern passed as the single placeholder.
	Regexp(subject string) string
	// JSONText extracts a top-level key of a JSON column as text.
	JSONText(subject, key string) string
	// JSONArrayLength returns the length of a JSON array column.
	JSONArrayLength(subject string) string
	// TimeArg converts a timestamp into a bind argument comparable with
	// stored date_time columns.
	TimeArg(t time.Time) any
	// StatementTimeout returns a statement that bounds every following
	// statement in the current transaction, or "" if unsupported.
	StatementTimeout(d time.Duration) string
	// IsTimeout reports whether err is a statement timeout.
	IsTimeout(err error) bool
	// ColumnType returns the column type used for an attribute kind.
	ColumnType(kind catalog.AttributeKind) string
	// PrimaryKey is the column definition for the surrogate key.
	PrimaryKey() string
}

// DialectFor returns the dialect registered under name.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "", "sqlite", "sqlite3":
		return SQLite{}, nil
	case "postgres", "postgresql", "pgx":
		return Postgres{}, nil
	default:
		return nil, errors.Newf("unsupported database driver %q", name)
	}
}

// SQLite is the embedded engine dialect (modernc.org/sqlite).
type SQLite struct{}

func (SQLite) Name() string              { return "sqlite" }
func (SQLite) DriverName() string        { return "sqlite" }
func (SQLite) Rebind(query string) string { return query }

func (SQLite) Regexp(subject string) string {
	return subject + " REGEXP ?"
}

func (SQLite) JSONText(subject, key string) string {
	return fmt.Sprintf("json_extract(%s, '$.%s')", subject, key)
}

func (SQLite) JSONArrayLength(subject string) string {
	return fmt.Sprintf("json_array_length(%s)", subject)
}

func (SQLite) TimeArg(t time.Time) any {
	return t.UTC().Format(time.RFC3339)
}

// StatementTimeout is unsupported; callers fall back to a context deadline.
func (SQLite) StatementTimeout(time.Duration) string { return "" }

func (SQLite) IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || (err != nil && strings.Contains(err.Error(), "interrupted"))
}

func (SQLite) ColumnType(kind catalog.AttributeKind) string {
	switch kind {
	case catalog.KindInteger, catalog.KindParent, catalog.KindLink:
		return "INTEGER"
	case catalog.KindFloat:
		return "REAL"
	case catalog.KindBoolean:
		return "BOOLEAN"
	default:
		// date_time is kept as RFC 3339 text so the driver does not
		// convert it into time.Time behind our back.
		return "TEXT"
	}
}

func (SQLite) PrimaryKey() string { return "id INTEGER PRIMARY KEY" }

// Postgres is the dialect for PostgreSQL through pgx's database/sql driver.
type Postgres struct{}

func (Postgres) Name() string       { return "postgres" }
func (Postgres) DriverName() string { return "pgx" }

func (Postgres) Rebind(query string) string {
	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	inString := false
	for _, r := range query {
		switch {
		case r == '\'':
			inString = !inString
			sb.WriteRune(r)
		case r == '?' && !inString:
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func (Postgres) Regexp(subject string) string {
	return subject + " ~ ?"
}

func (Postgres) JSONText(subject, key string) string {
	return fmt.Sprintf("(%s::jsonb ->> '%s')", subject, key)
}

func (Postgres) JSONArrayLength(subject string) string {
	return fmt.Sprintf("jsonb_array_length(%s::jsonb)", subject)
}

func (Postgres) TimeArg(t time.Time) any { return t.UTC() }

func (Postgres) StatementTimeout(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	return fmt.Sprintf("SET LOCAL statement_timeout = %d", d.Milliseconds())
}

// queryCanceled is SQLSTATE 57014, raised when statement_timeout expires.
const queryCanceled = "57014"

func (Postgres) IsTimeout(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == queryCanceled
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func (Postgres) ColumnType(kind catalog.AttributeKind) string {
	switch kind {
	case catalog.KindInteger, catalog.KindParent, catalog.KindLink:
		return "BIGINT"
	case catalog.KindFloat:
		return "DOUBLE PRECISION"
	case catalog.KindBoolean:
		return "BOOLEAN"
	case catalog.KindDateTime:
		return "TIMESTAMPTZ"
	case catalog.KindFile, catalog.KindFileCollection, catalog.KindMatch, catalog.KindMatrix:
		return "JSONB"
	default:
		return "TEXT"
	}
}

func (Postgres) PrimaryKey() string { return "id BIGSERIAL PRIMARY KEY" }
