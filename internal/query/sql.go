package query

import (
	"fmt"
	"strings"
)

// Expr is a SQL fragment written with `?` placeholders plus its arguments
// in placeholder order.
type Expr struct {
	SQL  string
	Args []any
}

func rawExpr(format string, args ...any) Expr {
	return Expr{SQL: fmt.Sprintf(format, args...)}
}

// key identifies an expression for de-duplication.
func (e Expr) key() string {
	if len(e.Args) == 0 {
		return e.SQL
	}
	return fmt.Sprintf("%s %#v", e.SQL, e.Args)
}

func (e Expr) empty() bool { return e.SQL == "" }

// joinExprs joins expressions with sep, wrapping each in parentheses when
// more than one is present.
func joinExprs(exprs []Expr, sep string) Expr {
	switch len(exprs) {
	case 0:
		return Expr{}
	case 1:
		return exprs[0]
	}
	parts := make([]string, len(exprs))
	var args []any
	for i, e := range exprs {
		parts[i] = "(" + e.SQL + ")"
		args = append(args, e.Args...)
	}
	return Expr{SQL: strings.Join(parts, sep), Args: args}
}

func and(exprs ...Expr) Expr { return joinExprs(exprs, " AND ") }
func or(exprs ...Expr) Expr  { return joinExprs(exprs, " OR ") }

// column qualifies a column name with its table alias.
func column(alias, name string) string {
	return alias + "." + name
}

// Join is a LEFT JOIN against a table or a derived table.
type Join struct {
	// Source is a table name or a parenthesised SELECT.
	Source Expr
	Alias  string
	On     []Expr
	// Derived marks subquery joins built for quantifiers.
	Derived bool
}

func (j Join) render() Expr {
	on := and(j.On...)
	if on.empty() {
		on = Expr{SQL: "TRUE"}
	}
	args := append(append([]any{}, j.Source.Args...), on.Args...)
	return Expr{
		SQL:  fmt.Sprintf("LEFT JOIN %s AS %s ON %s", j.Source.SQL, j.Alias, on.SQL),
		Args: args,
	}
}

// Column is one selected expression and the label it is read back by.
type Column struct {
	Label string
	Expr  Expr
}

// contribution is the part of a statement a predicate adds.
type contribution struct {
	joins       []Join
	constraints []Expr
	selects     []Column
	order       []Expr
}

func (c *contribution) merge(other contribution) {
	c.joins = append(c.joins, other.joins...)
	c.constraints = append(c.constraints, other.constraints...)
	c.selects = append(c.selects, other.selects...)
	c.order = append(c.order, other.order...)
}

// dedupe removes repeated joins (by alias), constraints, selects and
// ordering terms, keeping first occurrences.
func (c contribution) dedupe() contribution {
	var out contribution
	seen := make(map[string]bool)
	for _, j := range c.joins {
		if seen["j:"+j.Alias] {
			continue
		}
		seen["j:"+j.Alias] = true
		out.joins = append(out.joins, j)
	}
	for _, e := range c.constraints {
		if seen["c:"+e.key()] {
			continue
		}
		seen["c:"+e.key()] = true
		out.constraints = append(out.constraints, e)
	}
	for _, col := range c.selects {
		if seen["s:"+col.Label] {
			continue
		}
		seen["s:"+col.Label] = true
		out.selects = append(out.selects, col)
	}
	for _, e := range c.order {
		if seen["o:"+e.key()] {
			continue
		}
		seen["o:"+e.key()] = true
		out.order = append(out.order, e)
	}
	return out
}

// gather collects the contributions of p and its descendants in pre-order.
func gather(p Predicate) contribution {
	var c contribution
	var walk func(Predicate)
	walk = func(p Predicate) {
		if p == nil {
			return
		}
		c.merge(p.contribution())
		for _, child := range p.children() {
			walk(child)
		}
	}
	walk(p)
	return c
}

// selectStatement renders SELECT ... FROM ... WHERE for a contribution.
// Arguments follow placeholder order: selects, joins, constraints.
func selectStatement(selects []Expr, from string, c contribution) Expr {
	c = c.dedupe()
	var sb strings.Builder
	var args []any

	sb.WriteString("SELECT ")
	for i, s := range selects {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(s.SQL)
		args = append(args, s.Args...)
	}
	sb.WriteString(" FROM ")
	sb.WriteString(from)
	for _, j := range c.joins {
		r := j.render()
		sb.WriteString(" ")
		sb.WriteString(r.SQL)
		args = append(args, r.Args...)
	}
	if where := and(c.constraints...); !where.empty() {
		sb.WriteString(" WHERE ")
		sb.WriteString(where.SQL)
		args = append(args, where.Args...)
	}
	return Expr{SQL: sb.String(), Args: args}
}
