package cli

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/aidanlsb/quarry/internal/catalog"
	"github.com/aidanlsb/quarry/internal/ui"
)

type checkIssue struct {
	Entity    string `json:"entity"`
	Attribute string `json:"attribute,omitempty"`
	Message   string `json:"message"`
}

var checkCmd = &cobra.Command{
	Use:   "check [catalog.yaml]",
	Short: "Validate a catalog",
	Long: `Loads a catalog and reports every consistency problem: missing identity
attributes, links to unknown entities, reverse links without an inverse,
more than one parent and malformed matrix options.

Without an argument the configured catalog is checked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := getConfig().CatalogPath()
		if len(args) == 1 {
			path = args[0]
		}

		cat, err := catalog.Load(path)
		var verr *catalog.ValidationError
		switch {
		case err == nil:
		case errors.As(err, &verr):
			return outputCheckIssues(path, verr)
		default:
			return catalogError(err, path)
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"catalog":  path,
				"project":  cat.Project,
				"entities": cat.EntityNames(),
				"issues":   []checkIssue{},
			}, &Meta{Count: 0})
			return nil
		}
		fmt.Fprintln(stdout, ui.Successf("%s is valid (%d entity types)", path, len(cat.Entities)))
		return nil
	},
}

func outputCheckIssues(path string, verr *catalog.ValidationError) error {
	issues := make([]checkIssue, len(verr.Issues))
	for i, issue := range verr.Issues {
		issues[i] = checkIssue{Entity: issue.Entity, Attribute: issue.Attribute, Message: issue.Message}
	}

	if isJSONOutput() {
		outputError(ErrCatalogInvalid, fmt.Sprintf("%s has %d issues", path, len(issues)), issues, "")
		return reportedError{verr}
	}

	fmt.Fprintln(stdout, ui.Header(path))
	for _, issue := range verr.Issues {
		fmt.Fprintln(stdout, "  "+ui.Error(issue.String()))
	}
	fmt.Fprintln(stdout)
	return errors.Newf("%s has %d issues", path, len(issues))
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
