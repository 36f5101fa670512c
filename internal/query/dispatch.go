package query

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/aidanlsb/quarry/internal/catalog"
	"github.com/aidanlsb/quarry/internal/format"
	"github.com/aidanlsb/quarry/internal/store"
)

// builder resolves tokens into predicates for one Question. The catalog is
// only read; everything mutable (aliases, labels) belongs to the builder.
type builder struct {
	catalog          *catalog.Catalog
	dialect          store.Dialect
	restrict         bool
	showDisconnected bool
	aliases          *aliasRegistry
	labels           int
}

func newBuilder(cat *catalog.Catalog, d store.Dialect, opts Options) *builder {
	return &builder{
		catalog:          cat,
		dialect:          d,
		restrict:         opts.Restrict,
		showDisconnected: opts.ShowDisconnected,
		aliases:          newAliasRegistry(),
	}
}

// label allocates a column label for a selected expression.
func (b *builder) label() string {
	l := fmt.Sprintf("c%d", b.labels)
	b.labels++
	return l
}

func (b *builder) entity(name string) (*catalog.EntityType, error) {
	e, err := b.catalog.EntityType(name)
	if err != nil {
		return nil, errors.Mark(
			errors.WithHint(err, "known entity types: "+strings.Join(b.catalog.EntityNames(), ", ")),
			ErrInvalidArgument)
	}
	return e, nil
}

// attribute resolves name on e, refusing restricted attributes in
// restriction mode.
func (b *builder) attribute(e *catalog.EntityType, name string) (*catalog.Attribute, error) {
	attr, ok := e.Attribute(name)
	if !ok {
		return nil, errors.WithHint(
			argumentErrorf("%s has no attribute %q", e.Name, name),
			"attributes: "+strings.Join(e.AttributeNames(), ", "))
	}
	if b.restrict && attr.Restricted {
		return nil, argumentErrorf("%s.%s is restricted", e.Name, attr.Name)
	}
	return attr, nil
}

func leafOf(e *catalog.EntityType, name string) format.Leaf {
	return format.Leaf(e.Name + "::" + name)
}

// buildRoot resolves a whole token stream.
func (b *builder) buildRoot(tokens []any) (*modelPredicate, error) {
	if len(tokens) == 0 {
		return nil, argumentErrorf("empty query")
	}
	name, ok := tokens[0].(string)
	if !ok || isVerb(name) {
		return nil, argumentErrorf("query must start with an entity type name, got %s", describe(tokens[0]))
	}
	e, err := b.entity(name)
	if err != nil {
		return nil, err
	}

	cur := newCursor(tokens[1:])
	p, err := b.buildModel(e, nil, cur, modeOutput)
	if err != nil {
		return nil, err
	}
	root, ok := p.(*modelPredicate)
	if !ok {
		return nil, errors.AssertionFailedf("root of %s is a %s predicate", e.Name, p.Kind())
	}
	if err := cur.expectDone(); err != nil {
		return nil, err
	}
	return root, nil
}

// buildRecord resolves the tokens that follow a single record of e.
func (b *builder) buildRecord(e *catalog.EntityType, sc scope, cur *cursor, m mode) (*recordPredicate, error) {
	p := &recordPredicate{entity: e, scope: sc}

	// An array with tokens after it cannot be a projection, which always
	// ends a chain, so it is an embedded filter on this record.
	for {
		arr, ok := cur.peekArray()
		if !ok || cur.remaining() < 2 {
			break
		}
		cur.next()
		if m != modeFilter {
			p.filters = append(p.filters, arr)
			continue
		}
		f, err := b.buildFilter(e, sc.alias, arr)
		if err != nil {
			return nil, err
		}
		for _, j := range f.joins {
			p.addJoin(j)
		}
		p.addConstraint(f.cond)
	}

	tok, ok := cur.next()
	if !ok {
		return nil, argumentErrorf("%s: expected an attribute or verb", e.Name)
	}

	var err error
	switch t := tok.(type) {
	case []any:
		if m == modeFilter {
			return nil, argumentErrorf("projection %s is not allowed in a filter", describe(t))
		}
		p.child, err = b.buildVector(e, sc, t)
	case string:
		if !isVerb(t) {
			var attr *catalog.Attribute
			if attr, err = b.attribute(e, t); err == nil {
				p.child, err = b.dispatch(e, sc, attr, cur, m)
			}
			break
		}
		verb, ok := recordVerbs[t]
		if !ok {
			return nil, errors.WithHint(
				argumentErrorf("invalid argument %q for %s", t, e.Name),
				"record verbs: "+verbNames(recordVerbs))
		}
		if !verb.attribute {
			id := e.IdentityAttribute()
			p.child, err = b.buildScalar(scalarSubject{
				kind:   PredicateString,
				leaf:   leafOf(e, id.Name),
				sql:    column(sc.alias, id.Column),
				decode: decodeString,
			}, sc, cur, m)
			break
		}
		operand, ok := cur.next()
		name, isName := operand.(string)
		if !ok || !isName {
			return nil, argumentErrorf("%s %s requires an attribute name", e.Name, t)
		}
		p.child, err = b.buildPresence(e, sc, name, verb.present, m)
	default:
		return nil, argumentErrorf("invalid argument %s for %s", describe(tok), e.Name)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// dispatch resolves a bare attribute name by the attribute's kind.
func (b *builder) dispatch(e *catalog.EntityType, sc scope, attr *catalog.Attribute, cur *cursor, m mode) (Predicate, error) {
	subject := scalarSubject{leaf: leafOf(e, attr.Name), sql: column(sc.alias, attr.Column)}

	switch attr.Kind {
	case catalog.KindParent, catalog.KindLink, catalog.KindChild:
		return b.buildLinkedRecord(e, sc, attr, cur, m)
	case catalog.KindCollection, catalog.KindTable:
		target, err := b.entity(attr.LinkEntity)
		if err != nil {
			return nil, err
		}
		fk, err := b.catalog.ForeignKey(e, attr)
		if err != nil {
			return nil, errors.Mark(err, ErrInvalidArgument)
		}
		return b.buildModel(target, &listLink{owner: e, scope: sc, attr: attr, fk: fk}, cur, m)
	case catalog.KindIdentifier, catalog.KindString:
		subject.kind, subject.decode = PredicateString, decodeString
	case catalog.KindInteger:
		subject.kind, subject.decode = PredicateNumber, decodeInteger
	case catalog.KindFloat:
		subject.kind, subject.decode = PredicateNumber, decodeFloat
	case catalog.KindDateTime:
		subject.kind, subject.decode = PredicateDateTime, decodeDateTime
	case catalog.KindBoolean:
		subject.kind, subject.decode = PredicateBoolean, decodeBoolean
	case catalog.KindFile:
		subject.kind, subject.decode = PredicateFile, decodeFile
	case catalog.KindFileCollection:
		subject.kind, subject.decode = PredicateFileCollection, decodeJSONArray
	case catalog.KindMatch:
		subject.kind, subject.decode = PredicateMatch, decodeJSONObject
	case catalog.KindMatrix:
		subject.kind, subject.decode = PredicateMatrix, decodeJSONArray
		subject.options = attr.MatrixOptions()
	default:
		return nil, argumentErrorf("%s.%s has unsupported kind %s", e.Name, attr.Name, attr.Kind)
	}
	return b.buildScalar(subject, sc, cur, m)
}

// buildLinkedRecord follows a single-record link (parent, link, child).
func (b *builder) buildLinkedRecord(e *catalog.EntityType, sc scope, attr *catalog.Attribute, cur *cursor, m mode) (Predicate, error) {
	target, err := b.entity(attr.LinkEntity)
	if err != nil {
		return nil, err
	}
	fk, err := b.catalog.ForeignKey(e, attr)
	if err != nil {
		return nil, errors.Mark(err, ErrInvalidArgument)
	}

	alias := b.aliases.introduce(target)
	var on Expr
	if attr.IsReverseLink() {
		on = rawExpr("%s = %s", column(alias, fk), column(sc.alias, "id"))
	} else {
		on = rawExpr("%s = %s", column(alias, "id"), column(sc.alias, fk))
	}

	inner := scope{entity: target.Name, alias: alias}
	if m == modeOutput {
		inner.identity = b.label()
	}

	p, err := b.buildRecord(target, inner, cur, m)
	if err != nil {
		return nil, err
	}
	conds, err := b.listFilters(target, alias, p.takeFilters())
	if err != nil {
		return nil, err
	}
	ons := append([]Expr{on}, conds...)
	p.addJoin(Join{
		Source: Expr{SQL: target.Table},
		Alias:  alias,
		On:     append(ons, b.restriction(target, alias)...),
	})
	if m == modeOutput {
		p.addSelect(Column{Label: inner.identity, Expr: Expr{SQL: column(alias, "id")}})
	}
	return p, nil
}

// buildVector resolves a projection group: parallel chains over one record.
func (b *builder) buildVector(e *catalog.EntityType, sc scope, items []any) (*vectorPredicate, error) {
	if len(items) == 0 {
		return nil, argumentErrorf("empty projection for %s", e.Name)
	}
	v := &vectorPredicate{}
	for _, item := range items {
		var tokens []any
		switch it := item.(type) {
		case string:
			tokens = []any{it}
		case []any:
			tokens = it
		default:
			return nil, argumentErrorf("invalid projection element %s for %s", describe(item), e.Name)
		}
		cur := newCursor(tokens)
		p, err := b.buildRecord(e, sc, cur, modeOutput)
		if err != nil {
			return nil, err
		}
		if err := cur.expectDone(); err != nil {
			return nil, err
		}
		if filters := p.takeFilters(); len(filters) > 0 {
			return nil, argumentErrorf("filter %s must come before the list verb of %s", describe(filters[0]), e.Name)
		}
		v.items = append(v.items, p)
	}
	return v, nil
}

// buildPresence resolves ::has and ::lacks.
func (b *builder) buildPresence(e *catalog.EntityType, sc scope, name string, present bool, m mode) (Predicate, error) {
	attr, err := b.attribute(e, name)
	if err != nil {
		return nil, err
	}
	col := column(sc.alias, attr.Column)

	var cond string
	switch {
	case attr.IsReverseLink():
		target, err := b.entity(attr.LinkEntity)
		if err != nil {
			return nil, err
		}
		fk, err := b.catalog.ForeignKey(e, attr)
		if err != nil {
			return nil, errors.Mark(err, ErrInvalidArgument)
		}
		inner := b.aliases.introduce(target)
		where := and(append([]Expr{rawExpr("%s = %s", column(inner, fk), column(sc.alias, "id"))},
			b.restriction(target, inner)...)...)
		cond = fmt.Sprintf("EXISTS (SELECT 1 FROM %s AS %s WHERE %s)", target.Table, inner, where.SQL)
		if !present {
			cond = "NOT " + cond
		}
	case attr.IsFileLike():
		sentinel := "{}"
		if attr.Kind == catalog.KindFileCollection {
			sentinel = "[]"
		}
		if present {
			cond = fmt.Sprintf("(%[1]s IS NOT NULL AND %[1]s <> '%[2]s')", col, sentinel)
		} else {
			cond = fmt.Sprintf("(%[1]s IS NULL OR %[1]s = '%[2]s')", col, sentinel)
		}
	default:
		if present {
			cond = col + " IS NOT NULL"
		} else {
			cond = col + " IS NULL"
		}
	}

	verb := "has"
	if !present {
		verb = "lacks"
	}
	return b.booleanTerminal(format.Leaf(fmt.Sprintf("%s::%s::%s", e.Name, verb, attr.Name)), Expr{SQL: cond}, m), nil
}

// booleanTerminal ends a chain in a computed boolean.
func (b *builder) booleanTerminal(leaf format.Leaf, expr Expr, m mode) *booleanPredicate {
	p := &booleanPredicate{leaf: leaf, expr: expr}
	if m == modeOutput {
		p.label = b.label()
		p.addSelect(Column{Label: p.label, Expr: expr})
	}
	return p
}
