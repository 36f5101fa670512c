package query

import (
	"fmt"
	"strings"

	"github.com/aidanlsb/quarry/internal/catalog"
)

// restriction returns the conditions hiding restricted records of e under
// alias: the entity's own flag, then a NOT EXISTS walking the parent chain
// up to the furthest ancestor that declares a flag.
func (b *builder) restriction(e *catalog.EntityType, alias string) []Expr {
	if !b.restrict {
		return nil
	}

	var out []Expr
	if flag := e.RestrictionAttribute(); flag != nil {
		out = append(out, rawExpr("COALESCE(%s, FALSE) = FALSE", column(alias, flag.Column)))
	}

	ancestors := b.catalog.Ancestors(e)
	last := -1
	for i, a := range ancestors {
		if a.RestrictionAttribute() != nil {
			last = i
		}
	}
	if last < 0 {
		return out
	}

	var (
		from    strings.Builder
		flagged []string
		prev    = alias
		prevFK  = e.ParentAttribute().Column
		first   string
	)
	for i, a := range ancestors[:last+1] {
		ra := b.aliases.introduce(a)
		if i == 0 {
			first = ra
			fmt.Fprintf(&from, "%s AS %s", a.Table, ra)
		} else {
			fmt.Fprintf(&from, " LEFT JOIN %s AS %s ON %s = %s", a.Table, ra, column(ra, "id"), column(prev, prevFK))
		}
		if flag := a.RestrictionAttribute(); flag != nil {
			flagged = append(flagged, column(ra, flag.Column)+" = TRUE")
		}
		prev = ra
		if parent := a.ParentAttribute(); parent != nil {
			prevFK = parent.Column
		}
	}

	out = append(out, rawExpr("NOT EXISTS (SELECT 1 FROM %s WHERE %s = %s AND (%s))",
		from.String(), column(first, "id"), column(alias, e.ParentAttribute().Column),
		strings.Join(flagged, " OR ")))
	return out
}
