package query

import (
	"fmt"
	"strings"
)

// statement is the flattened main query of a Question.
type statement struct {
	from  string
	body  contribution
	order []Expr // full ordering key
	keys  []Expr // root ordering key used for pagination
}

func newStatement(root *modelPredicate, requested []Expr) statement {
	body := gather(root).dedupe()
	idCol := Expr{SQL: column(root.alias, root.entity.IdentityAttribute().Column)}

	s := statement{
		from:  fmt.Sprintf("%s AS %s", root.entity.Table, root.alias),
		body:  body,
		order: append(append([]Expr{}, requested...), body.order...),
		keys:  append(append([]Expr{}, requested...), idCol),
	}
	s.order = contribution{order: s.order}.dedupe().order
	s.keys = contribution{order: s.keys}.dedupe().order
	return s
}

// render assembles the SELECT with extra WHERE conditions appended.
func (s statement) render(extra []Expr) Expr {
	c := s.body
	c.constraints = append(append([]Expr{}, c.constraints...), extra...)

	selects := make([]Expr, len(c.selects))
	for i, col := range c.selects {
		selects[i] = Expr{SQL: fmt.Sprintf("%s AS %s", col.Expr.SQL, col.Label), Args: col.Expr.Args}
	}
	e := selectStatement(selects, s.from, c)
	if len(s.order) > 0 {
		e.SQL += " ORDER BY " + orderClause(s.order)
	}
	return e
}

func orderClause(order []Expr) string {
	parts := make([]string, len(order))
	for i, o := range order {
		parts[i] = o.SQL + " ASC NULLS FIRST"
	}
	return strings.Join(parts, ", ")
}
