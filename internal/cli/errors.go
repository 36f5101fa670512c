package cli

import (
	"github.com/cockroachdb/errors"

	"github.com/aidanlsb/quarry/internal/catalog"
	"github.com/aidanlsb/quarry/internal/query"
)

// Error codes for structured error responses.
// These codes are stable and can be relied upon by agents.
const (
	// Configuration errors
	ErrConfigInvalid = "CONFIG_INVALID"

	// Catalog errors
	ErrCatalogNotFound = "CATALOG_NOT_FOUND"
	ErrCatalogInvalid  = "CATALOG_INVALID"
	ErrEntityNotFound  = "ENTITY_NOT_FOUND"

	// Database errors
	ErrDatabaseError = "DATABASE_ERROR"

	// Query errors
	ErrQueryInvalid   = "QUERY_INVALID"
	ErrQueryMalformed = "QUERY_MALFORMED"
	ErrQueryTimeout   = "QUERY_TIMEOUT"
	ErrPageNotFound   = "PAGE_NOT_FOUND"

	// Input errors
	ErrInvalidInput = "INVALID_INPUT"

	// General errors
	ErrInternal = "INTERNAL_ERROR"
)

// queryErrorCode maps an error from the query package to its code.
func queryErrorCode(err error) string {
	switch {
	case errors.Is(err, query.ErrMalformedQuery):
		return ErrQueryMalformed
	case errors.Is(err, catalog.ErrUnknownEntity):
		return ErrEntityNotFound
	case errors.Is(err, query.ErrInvalidArgument):
		return ErrQueryInvalid
	case errors.Is(err, query.ErrTimeout):
		return ErrQueryTimeout
	case errors.Is(err, query.ErrPageNotFound):
		return ErrPageNotFound
	case errors.Is(err, query.ErrDatabase):
		return ErrDatabaseError
	default:
		return ErrInternal
	}
}

// suggestion returns the first user-facing hint attached to err.
func suggestion(err error) string {
	if hints := errors.GetAllHints(err); len(hints) > 0 {
		return hints[0]
	}
	return ""
}
