package query

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aidanlsb/quarry/internal/catalog"
	"github.com/aidanlsb/quarry/internal/format"
	"github.com/aidanlsb/quarry/internal/sqlutil"
	"github.com/aidanlsb/quarry/internal/store"
)

// Options control how a Question is compiled and executed.
type Options struct {
	// Restrict hides restricted records and refuses restricted attributes.
	Restrict bool
	// Order names root attributes to order by before the root identity.
	Order []string
	// Page and PageSize select one page of root records. Both zero means
	// no pagination.
	Page     int
	PageSize int
	// ShowDisconnected returns only root records without a parent.
	ShowDisconnected bool
	// Timeout bounds execution; zero means none.
	Timeout time.Duration
}

// DB is what a Question needs from a database handle. *sql.DB satisfies it.
type DB interface {
	runner
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

type runner interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Question is one compiled query. It is not safe for concurrent use; build
// one Question per request.
type Question struct {
	id      string
	catalog *catalog.Catalog
	dialect store.Dialect
	logger  *zap.SugaredLogger
	opts    Options

	root *modelPredicate
	stmt statement

	matrixRows map[string][]any
}

// Option configures a Question.
type Option func(*Question)

// WithLogger sets the logger used for compile and execution events.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(q *Question) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// WithDialect compiles for a specific engine. The default is SQLite.
func WithDialect(d store.Dialect) Option {
	return func(q *Question) {
		if d != nil {
			q.dialect = d
		}
	}
}

// NewQuestion compiles tokens against cat. All argument errors surface here,
// before anything is executed.
func NewQuestion(cat *catalog.Catalog, tokens []any, opts Options, options ...Option) (*Question, error) {
	q := &Question{
		id:         uuid.NewString(),
		catalog:    cat,
		dialect:    store.SQLite{},
		logger:     zap.NewNop().Sugar(),
		opts:       opts,
		matrixRows: make(map[string][]any),
	}
	for _, o := range options {
		o(q)
	}

	if opts.paging() && opts.PageSize < 2 {
		return nil, argumentErrorf("page size must be greater than 1, got %d", opts.PageSize)
	}

	b := newBuilder(cat, q.dialect, opts)
	root, err := b.buildRoot(tokens)
	if err != nil {
		return nil, err
	}
	order, err := b.orderKeys(root.entity, root.alias, opts.Order)
	if err != nil {
		return nil, err
	}
	q.root = root
	q.stmt = newStatement(root, order)

	compiled := q.stmt.render(nil)
	q.logger.Debugw("compiled question",
		"question", q.id,
		"entity", root.entity.Name,
		"sql", compiled.SQL,
		"args", len(compiled.Args))
	return q, nil
}

// ID is the correlation id used in log entries.
func (q *Question) ID() string { return q.id }

// Root returns the root predicate of the compiled chain.
func (q *Question) Root() Predicate { return q.root }

// Format describes the shape of the answer.
func (q *Question) Format() format.Format { return q.root.Format() }

// SQL returns the main statement in the dialect's placeholder syntax,
// without pagination conditions.
func (q *Question) SQL() (string, []any) {
	e := q.stmt.render(nil)
	return q.dialect.Rebind(e.SQL), e.Args
}

// Answer executes the Question and decodes the nested answer.
func (q *Question) Answer(ctx context.Context, db DB) (any, error) {
	start := time.Now()
	var run runner = db

	if q.opts.Timeout > 0 {
		if set := q.dialect.StatementTimeout(q.opts.Timeout); set != "" {
			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				return nil, databaseError(err)
			}
			// Read only: rolling back also discards the SET LOCAL.
			defer func() { _ = tx.Rollback() }()
			if _, err := tx.ExecContext(ctx, set); err != nil {
				return nil, databaseError(err)
			}
			run = tx
		} else {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, q.opts.Timeout)
			defer cancel()
		}
	}

	var extra []Expr
	if q.opts.paging() {
		conds, err := q.pageBounds(ctx, run)
		if err != nil {
			return nil, err
		}
		extra = conds
	}

	stmt := q.stmt.render(extra)
	rows, err := run.QueryContext(ctx, q.dialect.Rebind(stmt.SQL), stmt.Args...)
	if err != nil {
		return nil, q.classify(err)
	}
	cols, values, err := sqlutil.ScanValues(rows)
	if err != nil {
		return nil, q.classify(err)
	}

	rs := newResultSet(cols, values)
	answer, err := q.root.extract(q, rs, rs.all())
	if err != nil {
		return nil, errors.Wrap(err, "decode answer")
	}
	q.logger.Infow("answered question",
		"question", q.id,
		"rows", len(values),
		"duration", time.Since(start))
	return answer, nil
}

func (q *Question) classify(err error) error {
	if q.dialect.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		q.logger.Warnw("question timed out", "question", q.id, "timeout", q.opts.Timeout)
		return timeoutError(err)
	}
	q.logger.Errorw("question failed", "question", q.id, "error", err)
	return databaseError(err)
}

// matrixRow decodes a matrix value once per owning record and column.
func (q *Question) matrixRow(label string, owner, raw any) ([]any, error) {
	if owner == nil {
		v, err := decodeJSONArray(raw)
		row, _ := v.([]any)
		return row, err
	}
	key := fmt.Sprintf("%s\x00%v", label, owner)
	if row, ok := q.matrixRows[key]; ok {
		return row, nil
	}
	v, err := decodeJSONArray(raw)
	if err != nil {
		return nil, err
	}
	row, _ := v.([]any)
	q.matrixRows[key] = row
	return row, nil
}
