package query

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/aidanlsb/quarry/internal/catalog"
	"github.com/aidanlsb/quarry/internal/format"
)

// listLink describes how a nested list hangs off its owning record.
type listLink struct {
	owner *catalog.EntityType
	scope scope
	attr  *catalog.Attribute
	fk    string // column on the listed table pointing at the owner's id
}

// modelPredicate is a list of records of one entity type: the root of every
// query, or a collection/table attribute further down.
type modelPredicate struct {
	base
	entity   *catalog.EntityType
	alias    string
	root     bool
	verb     string
	shape    listShape
	identity string // label of the selected identity column
	child    Predicate
}

func (p *modelPredicate) Kind() PredicateKind   { return PredicateModel }
func (p *modelPredicate) Child() Predicate      { return p.child }
func (p *modelPredicate) children() []Predicate { return single(p.child) }

func (p *modelPredicate) Format() format.Format {
	switch p.shape {
	case shapeCount:
		return leafOf(p.entity, "count")
	case shapeAll:
		return format.Branch{Key: leafOf(p.entity, p.entity.Identity), Value: p.child.Format()}
	default:
		return p.child.Format()
	}
}

func (p *modelPredicate) extract(q *Question, rs *resultSet, rows []int) (any, error) {
	groups := rs.group(rows, p.identity)
	switch p.shape {
	case shapeCount:
		return int64(len(groups)), nil
	case shapeFirst:
		if len(groups) == 0 {
			return nil, nil
		}
		return p.child.extract(q, rs, groups[0].rows)
	case shapeAll:
		out := make([]any, 0, len(groups))
		for _, g := range groups {
			v, err := p.child.extract(q, rs, g.rows)
			if err != nil {
				return nil, err
			}
			out = append(out, []any{g.key, v})
		}
		return out, nil
	case shapeDistinct:
		out := make([]any, 0, len(groups))
		seen := make(map[string]bool, len(groups))
		for _, g := range groups {
			v, err := p.child.extract(q, rs, g.rows)
			if err != nil {
				return nil, err
			}
			key, err := json.Marshal(v)
			if err != nil {
				return nil, errors.Wrap(err, "compare distinct values")
			}
			if seen[string(key)] {
				continue
			}
			seen[string(key)] = true
			out = append(out, v)
		}
		return out, nil
	}
	return nil, errors.AssertionFailedf("unexpected list shape %d", p.shape)
}

// buildModel resolves `filter* verb filter* ...` over a list of e. link is
// nil for the root list. Filters after the verb are collected by the record
// predicate and applied here like the leading ones.
func (b *builder) buildModel(e *catalog.EntityType, link *listLink, cur *cursor, m mode) (Predicate, error) {
	var filters [][]any
	var projection []any
	for {
		arr, ok := cur.peekArray()
		if !ok {
			break
		}
		cur.next()
		if link != nil && link.attr.Kind == catalog.KindTable && len(arr) > 0 {
			if _, nested := arr[0].([]any); nested {
				projection = arr
				break
			}
		}
		filters = append(filters, arr)
	}

	verbName := "::all"
	if projection == nil {
		tok, ok := cur.next()
		if !ok {
			return nil, errors.WithHint(
				argumentErrorf("%s: missing list verb", e.Name),
				"list verbs: "+verbNames(modelVerbs))
		}
		verbName, _ = tok.(string)
		if _, known := modelVerbs[verbName]; !known {
			return nil, errors.WithHint(
				argumentErrorf("invalid argument %s for %s", describe(tok), e.Name),
				"list verbs: "+verbNames(modelVerbs))
		}
	}
	verb := modelVerbs[verbName]

	if verb.quantifier {
		if link == nil {
			return nil, argumentErrorf("%s cannot be applied to the root list of %s", verbName, e.Name)
		}
		return b.buildQuantifier(e, link, filters, verbName, verb.shape, m)
	}
	if verb.shape == shapeCount && link != nil {
		return b.buildNestedCount(e, link, filters, cur, m)
	}

	p := &modelPredicate{entity: e, root: link == nil, verb: verbName, shape: verb.shape}
	p.alias = b.aliases.introduce(e)
	idCol := column(p.alias, e.IdentityAttribute().Column)
	sc := scope{entity: e.Name, alias: p.alias}
	if m == modeOutput {
		p.identity = b.label()
		sc.identity = p.identity
		p.addSelect(Column{Label: p.identity, Expr: Expr{SQL: idCol}})
		p.addOrder(Expr{SQL: idCol})
	}

	if verb.shape != shapeCount {
		var err error
		if projection != nil {
			p.child, err = b.buildVector(e, sc, projection)
		} else {
			var rec *recordPredicate
			rec, err = b.buildRecord(e, sc, cur, m)
			if rec != nil {
				p.child = rec
				filters = append(filters, rec.takeFilters()...)
			}
		}
		if err != nil {
			return nil, err
		}
	}

	if p.root {
		built, err := b.buildFilters(e, p.alias, filters)
		if err != nil {
			return nil, err
		}
		for _, f := range built {
			for _, j := range f.joins {
				p.addJoin(j)
			}
			p.addConstraint(f.cond)
		}
		p.addConstraint(b.disconnected(e, p.alias)...)
		p.addConstraint(b.restriction(e, p.alias)...)
	} else {
		on := []Expr{rawExpr("%s = %s", column(p.alias, link.fk), column(link.scope.alias, "id"))}
		conds, err := b.listFilters(e, p.alias, filters)
		if err != nil {
			return nil, err
		}
		on = append(on, conds...)
		on = append(on, b.restriction(e, p.alias)...)
		p.addJoin(Join{Source: Expr{SQL: e.Table}, Alias: p.alias, On: on})
	}
	return p, nil
}

// listFilters turns the embedded filters of a nested list into ON-clause
// conditions. Filters that need joins of their own are evaluated against a
// fresh alias inside an IN semi-join so the list join never multiplies.
func (b *builder) listFilters(e *catalog.EntityType, alias string, filters [][]any) ([]Expr, error) {
	built, err := b.buildFilters(e, alias, filters)
	if err != nil {
		return nil, err
	}
	joined := false
	conds := make([]Expr, 0, len(built))
	for _, f := range built {
		joined = joined || len(f.joins) > 0
		conds = append(conds, f.cond)
	}
	if !joined {
		return conds, nil
	}

	semi := b.aliases.introduce(e)
	rebuilt, err := b.buildFilters(e, semi, filters)
	if err != nil {
		return nil, err
	}
	var c contribution
	for _, f := range rebuilt {
		c.joins = append(c.joins, f.joins...)
		c.constraints = append(c.constraints, f.cond)
	}
	sub := selectStatement([]Expr{{SQL: column(semi, "id")}}, fmt.Sprintf("%s AS %s", e.Table, semi), c)
	return []Expr{{SQL: fmt.Sprintf("%s IN (%s)", column(alias, "id"), sub.SQL), Args: sub.Args}}, nil
}

// disconnected limits the root list by whether records have a parent.
func (b *builder) disconnected(e *catalog.EntityType, alias string) []Expr {
	parent := e.ParentAttribute()
	if parent == nil {
		return nil
	}
	if b.showDisconnected {
		return []Expr{rawExpr("%s IS NULL", column(alias, parent.Column))}
	}
	return []Expr{rawExpr("%s IS NOT NULL", column(alias, parent.Column))}
}

// orderKeys resolves requested ordering attributes of the root entity.
func (b *builder) orderKeys(e *catalog.EntityType, alias string, names []string) ([]Expr, error) {
	out := make([]Expr, 0, len(names))
	for _, name := range names {
		attr, err := b.attribute(e, name)
		if err != nil {
			return nil, err
		}
		switch attr.Kind {
		case catalog.KindIdentifier, catalog.KindString, catalog.KindInteger, catalog.KindFloat,
			catalog.KindBoolean, catalog.KindDateTime:
		default:
			return nil, argumentErrorf("cannot order %s by %s (%s)", e.Name, name, attr.Kind)
		}
		out = append(out, Expr{SQL: column(alias, attr.Column)})
	}
	return out, nil
}
