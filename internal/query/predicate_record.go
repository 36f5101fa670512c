package query

import (
	"github.com/aidanlsb/quarry/internal/catalog"
	"github.com/aidanlsb/quarry/internal/format"
)

// recordPredicate is positioned on a single record of an entity type.
type recordPredicate struct {
	base
	entity *catalog.EntityType
	scope  scope
	child  Predicate

	// filters are embedded filters found after a list verb in output
	// mode. The predicate that owns the record's alias applies them.
	filters [][]any
}

// takeFilters hands the pending embedded filters to the caller.
func (p *recordPredicate) takeFilters() [][]any {
	f := p.filters
	p.filters = nil
	return f
}

func (p *recordPredicate) Kind() PredicateKind   { return PredicateRecord }
func (p *recordPredicate) Child() Predicate      { return p.child }
func (p *recordPredicate) children() []Predicate { return single(p.child) }
func (p *recordPredicate) Format() format.Format { return p.child.Format() }

// extract yields nil when the linked record does not exist.
func (p *recordPredicate) extract(q *Question, rs *resultSet, rows []int) (any, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	if p.scope.identity != "" && rs.value(rows[0], p.scope.identity) == nil {
		return nil, nil
	}
	return p.child.extract(q, rs, rows)
}

// vectorPredicate zips parallel chains over the same record.
type vectorPredicate struct {
	base
	items []Predicate
}

func (p *vectorPredicate) Kind() PredicateKind   { return PredicateVector }
func (p *vectorPredicate) Child() Predicate      { return nil }
func (p *vectorPredicate) children() []Predicate { return p.items }

func (p *vectorPredicate) Format() format.Format {
	out := make(format.Vector, len(p.items))
	for i, item := range p.items {
		out[i] = item.Format()
	}
	return out
}

func (p *vectorPredicate) extract(q *Question, rs *resultSet, rows []int) (any, error) {
	out := make([]any, len(p.items))
	for i, item := range p.items {
		v, err := item.extract(q, rs, rows)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// booleanPredicate is a terminal computed boolean (::has, ::lacks, ::any,
// ::every).
type booleanPredicate struct {
	base
	leaf  format.Leaf
	expr  Expr
	label string
}

func (p *booleanPredicate) Kind() PredicateKind   { return PredicateBoolean }
func (p *booleanPredicate) Child() Predicate      { return nil }
func (p *booleanPredicate) children() []Predicate { return nil }
func (p *booleanPredicate) Format() format.Format { return p.leaf }

func (p *booleanPredicate) condition() (Expr, bool) { return p.expr, true }

func (p *booleanPredicate) extract(_ *Question, rs *resultSet, rows []int) (any, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	return truthy(rs.value(rows[0], p.label)), nil
}

// conditioner is implemented by terminals usable as filter conditions.
type conditioner interface {
	condition() (Expr, bool)
}

func conditionOf(p Predicate) (Expr, bool) {
	c, ok := p.(conditioner)
	if !ok {
		return Expr{}, false
	}
	return c.condition()
}
