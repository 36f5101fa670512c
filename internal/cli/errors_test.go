package cli

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"

	"github.com/aidanlsb/quarry/internal/catalog"
	"github.com/aidanlsb/quarry/internal/query"
	"github.com/aidanlsb/quarry/internal/testutil"
)

func TestQueryErrorCode(t *testing.T) {
	cat, err := catalog.Parse([]byte(testutil.LaborsCatalog()))
	if err != nil {
		t.Fatal(err)
	}

	compile := func(q string, opts query.Options) error {
		tokens, err := query.ParseTokens([]byte(q))
		if err != nil {
			return err
		}
		_, err = query.NewQuestion(cat, tokens, opts)
		return err
	}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not json", compile(`labor`, query.Options{}), ErrQueryInvalid},
		{"unknown attribute", compile(`["labor", "::all", "wings"]`, query.Options{}), ErrQueryInvalid},
		{"unknown entity", compile(`["unicorn", "::count"]`, query.Options{}), ErrEntityNotFound},
		{"malformed quantifier", compile(`["labor", ["name","::any"], "::all", "::identifier"]`, query.Options{}), ErrQueryMalformed},
		{"restricted attribute", compile(`["labor", "::all", "notes"]`, query.Options{Restrict: true}), ErrQueryInvalid},
		{"timeout", errors.Mark(errors.New("slow"), query.ErrTimeout), ErrQueryTimeout},
		{"page", errors.Wrap(errors.Mark(errors.New("page 9"), query.ErrPageNotFound), "answer"), ErrPageNotFound},
		{"database", errors.Mark(errors.New("no such table"), query.ErrDatabase), ErrDatabaseError},
		{"other", errors.New("boom"), ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if assert.Error(t, tt.err) {
				assert.Equal(t, tt.want, queryErrorCode(tt.err))
			}
		})
	}
}

func TestSuggestionUsesFirstHint(t *testing.T) {
	err := errors.WithHint(errors.WithHint(errors.New("x"), "first"), "second")
	assert.Equal(t, "first", suggestion(err))
	assert.Empty(t, suggestion(errors.New("plain")))
}
