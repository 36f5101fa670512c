package query

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/aidanlsb/quarry/internal/format"
)

// scalarSubject is the value a scalar predicate operates on.
type scalarSubject struct {
	kind    PredicateKind
	leaf    format.Leaf
	sql     string
	decode  decoder
	options []string // matrix column names
}

// scalarPredicate applies one verb from its family's table to a subject.
// Continuation verbs (::filename, ::count, ::type) hand a derived subject
// to a child scalar predicate.
type scalarPredicate struct {
	base
	subject  scalarSubject
	verb     string
	spec     scalarVerb
	operands []any
	expr     Expr
	label    string
	owner    string // identity label of the owning record
	slice    []int  // matrix column positions for ::slice
	child    *scalarPredicate
}

func (p *scalarPredicate) Kind() PredicateKind { return p.subject.kind }

func (p *scalarPredicate) Child() Predicate {
	if p.child == nil {
		return nil
	}
	return p.child
}

func (p *scalarPredicate) children() []Predicate { return single(p.Child()) }

func (p *scalarPredicate) Format() format.Format {
	if p.child != nil {
		return p.child.Format()
	}
	return p.subject.leaf
}

func (p *scalarPredicate) condition() (Expr, bool) {
	if p.child != nil {
		return p.child.condition()
	}
	switch {
	case p.spec.result == resultBoolean:
		return p.expr, true
	case p.subject.kind == PredicateBoolean:
		return Expr{SQL: p.subject.sql + " = TRUE"}, true
	}
	return Expr{}, false
}

func (p *scalarPredicate) extract(q *Question, rs *resultSet, rows []int) (any, error) {
	if p.child != nil {
		return p.child.extract(q, rs, rows)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	raw := rs.value(rows[0], p.label)
	if p.spec.result == resultBoolean {
		return truthy(raw), nil
	}
	if p.subject.kind != PredicateMatrix {
		return p.subject.decode(raw)
	}

	var owner any
	if p.owner != "" {
		owner = rs.value(rows[0], p.owner)
	}
	row, err := q.matrixRow(p.label, owner, raw)
	if err != nil || row == nil || p.slice == nil {
		return row, err
	}
	out := make([]any, len(p.slice))
	for i, idx := range p.slice {
		if idx < len(row) {
			out[i] = row[idx]
		}
	}
	return out, nil
}

func (b *builder) buildScalar(subject scalarSubject, sc scope, cur *cursor, m mode) (*scalarPredicate, error) {
	p := &scalarPredicate{subject: subject, owner: sc.identity}
	table := scalarVerbs[subject.kind]

	if tok, ok := cur.peek(); ok && isVerb(tok) {
		p.verb = tok.(string)
	}
	spec, ok := table[p.verb]
	if !ok {
		return nil, errors.WithHint(
			argumentErrorf("invalid argument %q for %s", p.verb, subject.leaf),
			fmt.Sprintf("%s verbs: %s", subject.kind, verbNames(table)))
	}
	if p.verb != "" {
		cur.next()
	}
	p.spec = spec

	for _, want := range spec.operands {
		tok, ok := cur.next()
		if !ok {
			return nil, argumentErrorf("%s %s requires %s", subject.leaf, p.verb, want)
		}
		v, ok := coerceOperand(want, tok)
		if !ok {
			return nil, argumentErrorf("%s %s expects %s, got %s", subject.leaf, p.verb, want, describe(tok))
		}
		p.operands = append(p.operands, v)
	}

	if subject.kind == PredicateMatrix && p.verb == "::slice" {
		slice, err := matrixSlice(subject, p.operands[0].([]any))
		if err != nil {
			return nil, err
		}
		p.slice = slice
	}

	expr := spec.build(b.dialect, subject.sql, p.operands)
	if spec.result == resultContinue {
		child, err := b.buildScalar(scalarSubject{
			kind:   spec.next,
			leaf:   subject.leaf,
			sql:    expr.SQL,
			decode: decoderFor(spec.next),
		}, sc, cur, m)
		if err != nil {
			return nil, err
		}
		p.child = child
		return p, nil
	}

	p.expr = expr
	if m == modeOutput {
		p.label = b.label()
		p.addSelect(Column{Label: p.label, Expr: expr})
	}
	return p, nil
}

func matrixSlice(subject scalarSubject, names []any) ([]int, error) {
	positions := make(map[string]int, len(subject.options))
	for i, name := range subject.options {
		positions[name] = i
	}
	out := make([]int, len(names))
	for i, name := range names {
		idx, ok := positions[name.(string)]
		if !ok {
			return nil, errors.WithHint(
				argumentErrorf("%s has no column %q", subject.leaf, name),
				"columns: "+strings.Join(subject.options, ", "))
		}
		out[i] = idx
	}
	return out, nil
}
