package cli

import (
	"regexp"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var kebabCase = regexp.MustCompile(`^[a-z]+(-[a-z]+)*$`)

func walkCommands(cmd *cobra.Command, fn func(*cobra.Command)) {
	fn(cmd)
	for _, sub := range cmd.Commands() {
		walkCommands(sub, fn)
	}
}

func TestCommandsAreDocumented(t *testing.T) {
	walkCommands(rootCmd, func(cmd *cobra.Command) {
		if cmd.Hidden || cmd.Name() == "help" || cmd.Name() == "completion" {
			return
		}
		if cmd.Short == "" {
			t.Errorf("command %q has no short description", cmd.CommandPath())
		}
		cmd.LocalFlags().VisitAll(func(flag *pflag.Flag) {
			if flag.Name == "help" {
				return
			}
			if flag.Usage == "" {
				t.Errorf("%s --%s has no usage text", cmd.CommandPath(), flag.Name)
			}
			if !kebabCase.MatchString(flag.Name) {
				t.Errorf("%s --%s is not kebab-case", cmd.CommandPath(), flag.Name)
			}
		})
	})
}

func TestQueryFlagsCoverQueryConfig(t *testing.T) {
	// Every [query] config key can be overridden per invocation.
	for _, name := range []string{"restrict", "show-disconnected", "timeout", "page-size"} {
		if queryCmd.Flags().Lookup(name) == nil {
			t.Errorf("query command is missing --%s", name)
		}
	}
}

func TestPersistentFlags(t *testing.T) {
	for _, name := range []string{"config", "json", "verbose"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("root command is missing persistent --%s", name)
		}
	}
}
