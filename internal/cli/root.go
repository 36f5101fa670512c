// Package cli implements the command-line interface.
package cli

import (
	"context"
	"io/fs"
	"os"
	"os/signal"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/aidanlsb/quarry/internal/config"
	"github.com/aidanlsb/quarry/internal/logging"
	"github.com/aidanlsb/quarry/internal/ui"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "quarry",
	Short: "Quarry - query a metadata catalog with path queries",
	Long: `Quarry compiles path queries over a typed metadata catalog into a single
SQL statement and returns nested answers shaped like the query.

Queries are JSON token arrays that start with an entity type:

  quarry query '["labor", ["prize", ["worth","::>",2], "::any"], "::all", "::identifier"]'

Run 'quarry docs' for the query language guide.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch cmd.Name() {
		case "completion", "help", "version", "docs":
			return nil
		}

		var err error
		cfg, err = loadConfig(cmd)
		if err != nil {
			return handleError(ErrConfigInvalid, err, "Check the file passed with --config or $"+config.EnvVar)
		}

		level := cfg.Log.Level
		if verbose {
			level = "debug"
		}
		if err := logging.Initialize(level, cfg.Log.JSON); err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}
		ui.ConfigureTheme(cfg.UI.Accent)
		ui.ConfigureMarkdownCodeTheme(cfg.UI.CodeTheme)

		logging.Logger.Debugw("loaded config", "path", cfg.Path(), "driver", cfg.Database.Driver)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Cleanup()
	},
}

// Execute runs the CLI.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !isJSONOutput() {
		printError(err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default $"+config.EnvVar+" or ~/.config/quarry/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for agent/script use)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Log compiled SQL and timings to stderr")
}

// loadConfig loads the config for commands that need one. init tolerates a
// missing explicit file because it is about to create it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	loaded, err := config.Load(configPath)
	if err == nil {
		return loaded, nil
	}
	if cmd.Name() == "init" && errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return nil, errors.Wrap(err, "failed to load config")
}

// getConfig returns the loaded config.
func getConfig() *config.Config {
	if cfg == nil {
		return config.Default()
	}
	return cfg
}
