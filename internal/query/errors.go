package query

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Error markers. Every error returned by this package carries exactly one of
// these (test with errors.Is) so callers can map failures to a status.
var (
	// ErrInvalidArgument marks malformed or unknown tokens, attributes and
	// verbs, wrong operands, and trailing tokens.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrMalformedQuery marks token arrays that claim a quantifier shape but
	// do not parse as one.
	ErrMalformedQuery = errors.New("malformed query")
	// ErrDatabase marks failures reported by the database.
	ErrDatabase = errors.New("database error")
	// ErrTimeout marks statements aborted by a timeout.
	ErrTimeout = errors.New("query timed out")
	// ErrPageNotFound marks pages outside the available bounds.
	ErrPageNotFound = errors.New("page not found")
)

func argumentErrorf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrInvalidArgument)
}

func malformedQuery(err error, tokens []any) error {
	return errors.Mark(errors.Wrapf(err, "malformed quantifier %s", describe(tokens)), ErrMalformedQuery)
}

func databaseError(err error) error {
	return errors.Mark(errors.Wrap(err, "query failed"), ErrDatabase)
}

func timeoutError(err error) error {
	return errors.Mark(errors.Wrap(err, "statement exceeded its timeout"), ErrTimeout)
}

func pageNotFound(page int) error {
	return errors.Mark(errors.Newf("page %d not found", page), ErrPageNotFound)
}

// IsArgumentError reports whether err is caused by the query itself.
func IsArgumentError(err error) bool {
	return errors.Is(err, ErrInvalidArgument) || errors.Is(err, ErrMalformedQuery)
}

// describe renders a token or token list for error messages.
func describe(v any) string {
	switch v := v.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case []any:
		s := "["
		for i, item := range v {
			if i > 0 {
				s += ", "
			}
			s += describe(item)
		}
		return s + "]"
	default:
		return fmt.Sprint(v)
	}
}
