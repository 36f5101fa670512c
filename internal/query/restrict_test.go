package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aidanlsb/quarry/internal/testutil"
)

func TestRestriction(t *testing.T) {
	p := testutil.NewLaborsProject(t)

	tests := []struct {
		name       string
		query      string
		restricted any
		open       any
	}{
		{
			name:       "own flag and ancestor flag",
			query:      `["labor", "::all", "::identifier"]`,
			restricted: []any{"Augean Stables", "Erymanthian Boar", "Lernean Hydra", "Nemean Lion"},
			open: []any{"Augean Stables", "Ceryneian Hind", "Erymanthian Boar", "Golden Fleece",
				"Lernean Hydra", "Nemean Lion"},
		},
		{
			name:       "explicit lookup",
			query:      `["labor", ["name","::=","Ceryneian Hind"], "::all", "::identifier"]`,
			restricted: []any{},
			open:       []any{"Ceryneian Hind"},
		},
		{
			name:       "flag two levels up",
			query:      `["prize", "::all", "::identifier"]`,
			restricted: []any{"Dung", "Hydra teeth", "Hydra venom", "Lion pelt"},
			open:       []any{"Antlers", "Dung", "Fleece", "Hydra teeth", "Hydra venom", "Lion pelt"},
		},
		{
			name:       "inside a quantifier",
			query:      `["project", ["labor", ["number","::=",3], "::any"], "::all", "::identifier"]`,
			restricted: []any{},
			open:       []any{"The Twelve Labors"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.restricted, identifiers(t, ask(t, p, tt.query, Options{Restrict: true})))
			assert.Equal(t, tt.open, identifiers(t, ask(t, p, tt.query, Options{})))
		})
	}
}

func TestRestrictionInNestedLists(t *testing.T) {
	p := testutil.NewLaborsProject(t)

	t.Run("count", func(t *testing.T) {
		query := `["project", ["name","::=","The Twelve Labors"], "::all", "labor", "::count"]`
		assert.Equal(t, []any{[]any{"The Twelve Labors", int64(4)}}, ask(t, p, query, Options{Restrict: true}))
		assert.Equal(t, []any{[]any{"The Twelve Labors", int64(5)}}, ask(t, p, query, Options{}))
	})

	t.Run("linked record", func(t *testing.T) {
		query := `["prize", ["name","::=","Antlers"], "::all", "labor", "::identifier"]`
		// Antlers is hidden with its labor, so nothing is returned at all.
		assert.Equal(t, []any{}, ask(t, p, query, Options{Restrict: true}))
		assert.Equal(t, []any{[]any{"Antlers", "Ceryneian Hind"}}, ask(t, p, query, Options{}))
	})

	t.Run("has", func(t *testing.T) {
		query := `["project", ["::has","labor"], "::all", "::identifier"]`
		assert.Equal(t, []any{"The Twelve Labors"}, identifiers(t, ask(t, p, query, Options{Restrict: true})))
	})
}

func TestShowDisconnected(t *testing.T) {
	p := testutil.NewLaborsProject(t)

	answer := ask(t, p, `["labor", "::all", "::identifier"]`, Options{ShowDisconnected: true})
	assert.Equal(t, []any{"Cretan Bull"}, identifiers(t, answer))

	// Entities without a parent attribute are unaffected.
	answer = ask(t, p, `["project", "::all", "::identifier"]`, Options{ShowDisconnected: true})
	assert.Equal(t, []any{"Argonauts", "The Twelve Labors"}, identifiers(t, answer))
}
