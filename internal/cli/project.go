package cli

import (
	"context"
	"io/fs"

	"github.com/cockroachdb/errors"

	"github.com/aidanlsb/quarry/internal/catalog"
	"github.com/aidanlsb/quarry/internal/config"
	"github.com/aidanlsb/quarry/internal/logging"
	"github.com/aidanlsb/quarry/internal/store"
)

// loadCatalog loads the configured catalog and reports failures as
// structured errors.
func loadCatalog(c *config.Config) (*catalog.Catalog, error) {
	cat, err := catalog.Load(c.CatalogPath())
	if err == nil {
		return cat, nil
	}
	return nil, catalogError(err, c.CatalogPath())
}

func catalogError(err error, path string) error {
	if errors.Is(err, fs.ErrNotExist) {
		return handleError(ErrCatalogNotFound, err, "Set [catalog] path in the config or run 'quarry init'")
	}
	var verr *catalog.ValidationError
	if errors.As(err, &verr) {
		details := make([]string, len(verr.Issues))
		for i, issue := range verr.Issues {
			details[i] = issue.String()
		}
		return handleErrorWithDetails(ErrCatalogInvalid, err, "Run 'quarry check' for the full list of issues", details)
	}
	return handleError(ErrCatalogInvalid, err, "Check the YAML syntax of "+path)
}

// openStore connects to the configured database.
func openStore(ctx context.Context, c *config.Config) (*store.Store, error) {
	s, err := store.Open(ctx, c.Database.Driver, c.DSN(), logging.Named("store"))
	if err != nil {
		return nil, handleError(ErrDatabaseError, err, "Check [database] driver and dsn in the config")
	}
	return s, nil
}
