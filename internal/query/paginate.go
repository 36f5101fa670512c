package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/aidanlsb/quarry/internal/sqlutil"
)

// paging reports whether the options ask for a page.
func (o Options) paging() bool {
	return o.Page != 0 || o.PageSize != 0
}

// pageBounds fetches the boundary keys of the requested page and returns
// the keyset conditions selecting it: lower <= key < upper. The upper
// boundary is absent on the last page.
func (q *Question) pageBounds(ctx context.Context, run runner) ([]Expr, error) {
	page, size := q.opts.Page, q.opts.PageSize
	if page < 1 {
		return nil, pageNotFound(page)
	}
	lo := int64((page-1)*size + 1)
	hi := int64(page*size + 1)

	bounds := q.boundsQuery(lo, hi)
	rows, err := run.QueryContext(ctx, q.dialect.Rebind(bounds.SQL), bounds.Args...)
	if err != nil {
		return nil, q.classify(err)
	}
	_, values, err := sqlutil.ScanValues(rows)
	if err != nil {
		return nil, q.classify(err)
	}

	n := len(q.stmt.keys)
	var lower, upper []any
	for _, row := range values {
		rn, _ := decodeInteger(row[n])
		switch rn {
		case lo:
			lower = row[:n]
		case hi:
			upper = row[:n]
		}
	}
	if lower == nil {
		return nil, pageNotFound(page)
	}

	conds := []Expr{tupleCompare(q.stmt.keys, lower, true)}
	if upper != nil {
		conds = append(conds, tupleCompare(q.stmt.keys, upper, false))
	}
	q.logger.Debugw("page bounds", "question", q.id, "page", page, "last", upper == nil)
	return conds, nil
}

// boundsQuery numbers the distinct root keys in order and keeps rows lo
// and hi.
func (q *Question) boundsQuery(lo, hi int64) Expr {
	keys := q.stmt.keys
	names := make([]string, len(keys))
	selects := make([]Expr, len(keys))
	order := make([]Expr, len(keys))
	for i, k := range keys {
		names[i] = fmt.Sprintf("k%d", i)
		selects[i] = Expr{SQL: fmt.Sprintf("%s AS %s", k.SQL, names[i]), Args: k.Args}
		order[i] = Expr{SQL: names[i]}
	}
	selects[0].SQL = "DISTINCT " + selects[0].SQL

	body := q.stmt.body
	body.selects, body.order = nil, nil
	distinct := selectStatement(selects, q.stmt.from, body)

	list := strings.Join(names, ", ")
	numbered := fmt.Sprintf("SELECT %s, ROW_NUMBER() OVER (ORDER BY %s) AS rn FROM (%s) AS page_keys",
		list, orderClause(order), distinct.SQL)
	return Expr{
		SQL:  fmt.Sprintf("SELECT %s, rn FROM (%s) AS page_bounds WHERE rn IN (?, ?) ORDER BY rn", list, numbered),
		Args: append(distinct.Args, lo, hi),
	}
}

// tupleCompare builds the lexicographic comparison of keys against vals
// under NULLS FIRST ordering: keys >= vals when lower, keys < vals
// otherwise.
func tupleCompare(keys []Expr, vals []any, lower bool) Expr {
	if len(keys) == 0 {
		if lower {
			return Expr{SQL: "1 = 1"}
		}
		return Expr{SQL: "1 = 0"}
	}
	k, v := keys[0].SQL, vals[0]
	rest := tupleCompare(keys[1:], vals[1:], lower)

	var beyond, equal Expr
	switch {
	case v == nil && lower:
		equal = rawExpr("%s IS NULL", k)
		beyond = rawExpr("%s IS NOT NULL", k)
	case v == nil:
		equal = rawExpr("%s IS NULL", k)
		beyond = Expr{SQL: "1 = 0"}
	case lower:
		equal = Expr{SQL: k + " = ?", Args: []any{v}}
		beyond = Expr{SQL: k + " > ?", Args: []any{v}}
	default:
		equal = Expr{SQL: k + " = ?", Args: []any{v}}
		beyond = Expr{SQL: fmt.Sprintf("(%s IS NULL OR %s < ?)", k, k), Args: []any{v}}
	}
	return or(beyond, and(equal, rest))
}
