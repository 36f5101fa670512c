package query

import (
	"github.com/cockroachdb/errors"

	"github.com/aidanlsb/quarry/internal/catalog"
)

// filterResult is a compiled embedded filter: the joins it needs and the
// boolean it contributes.
type filterResult struct {
	joins []Join
	cond  Expr
}

func (b *builder) buildFilters(e *catalog.EntityType, alias string, filters [][]any) ([]filterResult, error) {
	out := make([]filterResult, 0, len(filters))
	for _, f := range filters {
		r, err := b.buildFilter(e, alias, f)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// buildFilter compiles ["::and", f...], ["::or", f...] or a record chain
// ending in a boolean.
func (b *builder) buildFilter(e *catalog.EntityType, alias string, tokens []any) (filterResult, error) {
	if len(tokens) == 0 {
		return filterResult{}, argumentErrorf("empty filter for %s", e.Name)
	}

	if op, ok := tokens[0].(string); ok && (op == "::and" || op == "::or") {
		if len(tokens) == 1 {
			return filterResult{}, argumentErrorf("%s requires at least one filter", op)
		}
		var out filterResult
		conds := make([]Expr, 0, len(tokens)-1)
		for _, part := range tokens[1:] {
			arr, ok := part.([]any)
			if !ok {
				return filterResult{}, argumentErrorf("%s expects filter arrays, got %s", op, describe(part))
			}
			r, err := b.buildFilter(e, alias, arr)
			if err != nil {
				return filterResult{}, err
			}
			out.joins = append(out.joins, r.joins...)
			conds = append(conds, r.cond)
		}
		if op == "::and" {
			out.cond = and(conds...)
		} else {
			out.cond = or(conds...)
		}
		return out, nil
	}

	cur := newCursor(tokens)
	p, err := b.buildRecord(e, scope{entity: e.Name, alias: alias}, cur, modeFilter)
	if err == nil {
		err = cur.expectDone()
	}
	if err != nil {
		if claimsQuantifier(tokens) && !errors.Is(err, ErrMalformedQuery) {
			return filterResult{}, malformedQuery(err, tokens)
		}
		return filterResult{}, err
	}

	cond, ok := conditionOf(terminal(p))
	if !ok {
		return filterResult{}, argumentErrorf("filter %s does not end in a boolean", describe(tokens))
	}
	c := gather(p)
	return filterResult{
		joins: c.joins,
		cond:  and(append(c.constraints, cond)...),
	}, nil
}

// claimsQuantifier reports whether a filter is shaped like a quantifier.
func claimsQuantifier(tokens []any) bool {
	last, ok := tokens[len(tokens)-1].(string)
	return ok && (last == "::any" || last == "::every")
}
