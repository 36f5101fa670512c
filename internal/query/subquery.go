package query

import (
	"fmt"
	"strings"

	"github.com/aidanlsb/quarry/internal/catalog"
)

// ownerColumn is the column every derived table exposes to join back on.
const ownerColumn = "owner_id"

// derivedList compiles the records of a nested list, grouped by owner, as a
// derived table. Filters are applied by the caller's aggregate.
type derivedList struct {
	inner string
	body  contribution
	conds []Expr
}

func (b *builder) buildDerivedList(e *catalog.EntityType, link *listLink, filters [][]any) (*derivedList, error) {
	d := &derivedList{inner: b.aliases.introduce(e)}
	built, err := b.buildFilters(e, d.inner, filters)
	if err != nil {
		return nil, err
	}
	for _, f := range built {
		d.body.joins = append(d.body.joins, f.joins...)
		d.conds = append(d.conds, f.cond)
	}
	d.body.constraints = append([]Expr{rawExpr("%s IS NOT NULL", column(d.inner, link.fk))},
		b.restriction(e, d.inner)...)
	return d, nil
}

// render wraps the grouped SELECT in parentheses. extra follows the
// GROUP BY clause.
func (d *derivedList) render(e *catalog.EntityType, link *listLink, selects []Expr, extra Expr) Expr {
	fk := column(d.inner, link.fk)
	sel := append([]Expr{{SQL: fmt.Sprintf("%s AS %s", fk, ownerColumn)}}, selects...)
	body := selectStatement(sel, fmt.Sprintf("%s AS %s", e.Table, d.inner), d.body)

	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(body.SQL)
	sb.WriteString(" GROUP BY ")
	sb.WriteString(fk)
	if !extra.empty() {
		sb.WriteString(" ")
		sb.WriteString(extra.SQL)
	}
	sb.WriteString(")")
	return Expr{SQL: sb.String(), Args: append(body.Args, extra.Args...)}
}

// buildQuantifier compiles ::any / ::every over a nested list. The derived
// table keeps one row per owner that satisfies the quantifier and is LEFT
// JOINed, so the predicate is a plain IS NOT NULL test that composes under
// both AND and ::or without filtering the outer rows itself.
func (b *builder) buildQuantifier(e *catalog.EntityType, link *listLink, filters [][]any, verb string, shape listShape, m mode) (Predicate, error) {
	alias := b.aliases.hashed("sq", link.scope.alias, link.attr.Name, filters, verb)

	d, err := b.buildDerivedList(e, link, filters)
	if err != nil {
		return nil, err
	}
	match := and(d.conds...)
	if match.empty() {
		match = Expr{SQL: "1 = 1"}
	}
	id := column(d.inner, "id")
	matched := fmt.Sprintf("COUNT(DISTINCT CASE WHEN %s THEN %s END)", match.SQL, id)

	having := Expr{Args: match.Args}
	if shape == shapeEvery {
		having.SQL = fmt.Sprintf("HAVING %s = COUNT(DISTINCT %s)", matched, id)
	} else {
		having.SQL = fmt.Sprintf("HAVING %s > 0", matched)
	}

	p := b.booleanTerminal(leafOf(e, strings.TrimPrefix(verb, VerbPrefix)),
		rawExpr("%s.%s IS NOT NULL", alias, ownerColumn), m)
	p.addJoin(Join{
		Source:  d.render(e, link, nil, having),
		Alias:   alias,
		On:      []Expr{rawExpr("%s.%s = %s", alias, ownerColumn, column(link.scope.alias, "id"))},
		Derived: true,
	})
	return p, nil
}

// buildNestedCount compiles ::count over a nested list. The count comes from
// a derived table grouped by owner and continues as a number predicate.
func (b *builder) buildNestedCount(e *catalog.EntityType, link *listLink, filters [][]any, cur *cursor, m mode) (Predicate, error) {
	alias := b.aliases.hashed("cnt", link.scope.alias, link.attr.Name, filters)

	d, err := b.buildDerivedList(e, link, filters)
	if err != nil {
		return nil, err
	}
	d.body.constraints = append(d.body.constraints, d.conds...)

	p, err := b.buildScalar(scalarSubject{
		kind:   PredicateNumber,
		leaf:   leafOf(e, "count"),
		sql:    fmt.Sprintf("COALESCE(%s.n, 0)", alias),
		decode: decodeNumber,
	}, link.scope, cur, m)
	if err != nil {
		return nil, err
	}
	p.addJoin(Join{
		Source:  d.render(e, link, []Expr{{SQL: fmt.Sprintf("COUNT(DISTINCT %s) AS n", column(d.inner, "id"))}}, Expr{}),
		Alias:   alias,
		On:      []Expr{rawExpr("%s.%s = %s", alias, ownerColumn, column(link.scope.alias, "id"))},
		Derived: true,
	})
	return p, nil
}
