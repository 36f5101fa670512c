package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/aidanlsb/quarry/internal/atomicfile"
	"github.com/aidanlsb/quarry/internal/config"
	"github.com/aidanlsb/quarry/internal/store"
	"github.com/aidanlsb/quarry/internal/ui"
)

// starterCatalog is written by init when no catalog exists yet.
const starterCatalog = `project: example
entities:
  project:
    identity: name
    attributes:
      name: identifier
      restricted: boolean
      item: collection
  item:
    identity: name
    attributes:
      name: identifier
      project: parent
      created_at: date_time
      restricted: boolean
`

var (
	initDriver string
	initDSN    string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config and the catalog's tables",
	Long: `Creates a config file if none exists, writes a starter catalog if the
configured catalog is missing, and creates one table per entity type.

Existing files are kept. Running init again after editing the catalog adds
tables for new entity types.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := getConfig()
		ctx := cmd.Context()

		target := c.Path()
		if target == "" {
			target = config.ResolvePath(configPath)
		}
		createdConfig := false
		if _, err := os.Stat(target); errors.Is(err, os.ErrNotExist) {
			if cmd.Flags().Changed("driver") {
				c.Database.Driver = initDriver
			}
			if cmd.Flags().Changed("dsn") {
				c.Database.DSN = initDSN
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return handleError(ErrConfigInvalid, errors.Wrap(err, "failed to create config directory"), "")
			}
			if err := config.SaveTo(target, c); err != nil {
				return handleError(ErrConfigInvalid, err, "")
			}
			createdConfig = true
		}

		createdCatalog := false
		if _, err := os.Stat(c.CatalogPath()); errors.Is(err, os.ErrNotExist) {
			if err := atomicfile.WriteFile(c.CatalogPath(), []byte(starterCatalog), 0o644); err != nil {
				return handleError(ErrInternal, errors.Wrap(err, "failed to write catalog"), "")
			}
			createdCatalog = true
		}

		cat, err := loadCatalog(c)
		if err != nil {
			return err
		}
		s, err := openStore(ctx, c)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.Migrate(ctx, cat); err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		tables := len(cat.Entities)

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"config":          c.Path(),
				"config_created":  createdConfig,
				"catalog":         c.CatalogPath(),
				"catalog_created": createdCatalog,
				"driver":          s.Dialect().Name(),
				"statements":      store.CreateStatements(cat, s.Dialect()),
			}, &Meta{Count: tables})
			return nil
		}

		if createdConfig {
			fmt.Fprintln(stdout, ui.Successf("Created %s", c.Path()))
		} else {
			fmt.Fprintln(stdout, ui.Hint("• "+c.Path()+" already exists (kept)"))
		}
		if createdCatalog {
			fmt.Fprintln(stdout, ui.Successf("Created %s (starter catalog)", c.CatalogPath()))
		} else {
			fmt.Fprintln(stdout, ui.Hint("• "+c.CatalogPath()+" already exists (kept)"))
		}
		fmt.Fprintln(stdout, ui.Successf("Ensured tables for %d entity types in project %s", tables, cat.Project))
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initDriver, "driver", "sqlite", "Database driver for a new config: sqlite or postgres")
	initCmd.Flags().StringVar(&initDSN, "dsn", "quarry.db", "Database DSN for a new config")
	rootCmd.AddCommand(initCmd)
}
