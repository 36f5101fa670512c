package cli

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/aidanlsb/quarry/internal/catalog"
	"github.com/aidanlsb/quarry/internal/store"
	"github.com/aidanlsb/quarry/internal/ui"
)

type entitySummary struct {
	Name       string `json:"name"`
	Table      string `json:"table"`
	Identity   string `json:"identity"`
	Parent     string `json:"parent,omitempty"`
	Restricted bool   `json:"restrictable"`
	Attributes int    `json:"attributes"`
}

type attributeSummary struct {
	Name          string   `json:"name"`
	Kind          string   `json:"kind"`
	Column        string   `json:"column,omitempty"`
	Link          string   `json:"link,omitempty"`
	LinkAttribute string   `json:"link_attribute,omitempty"`
	Restricted    bool     `json:"restricted,omitempty"`
	Options       []string `json:"options,omitempty"`
}

var schemaCmd = &cobra.Command{
	Use:   "schema [entities|entity <name>|sql]",
	Short: "Introspect the catalog",
	Long: `Describe the entity types and attributes queries can use.

Examples:
  quarry schema                 # List entity types
  quarry schema entity labor    # Attributes of one entity type
  quarry schema sql             # DDL for the configured driver`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		c := getConfig()
		cat, err := loadCatalog(c)
		if err != nil {
			return err
		}

		if len(args) == 0 {
			return listEntities(cat, start)
		}

		switch args[0] {
		case "entities":
			return listEntities(cat, start)
		case "entity":
			if len(args) < 2 {
				return handleError(ErrInvalidInput, errors.New("specify an entity name"), "Usage: quarry schema entity <name>")
			}
			return describeEntity(cat, args[1], start)
		case "sql":
			dialect, err := store.DialectFor(c.Database.Driver)
			if err != nil {
				return handleError(ErrConfigInvalid, err, "")
			}
			return outputDDL(cat, dialect)
		default:
			return handleError(ErrInvalidInput, errors.Newf("unknown schema subcommand: %s", args[0]), "Use: entities, entity <name>, or sql")
		}
	},
}

func summarizeEntity(e *catalog.EntityType) entitySummary {
	s := entitySummary{
		Name:       e.Name,
		Table:      e.Table,
		Identity:   e.Identity,
		Restricted: e.RestrictionAttribute() != nil,
		Attributes: len(e.Attributes),
	}
	if p := e.ParentAttribute(); p != nil {
		s.Parent = p.LinkEntity
	}
	return s
}

func listEntities(cat *catalog.Catalog, start time.Time) error {
	names := cat.EntityNames()
	summaries := make([]entitySummary, 0, len(names))
	for _, name := range names {
		summaries = append(summaries, summarizeEntity(cat.Entities[name]))
	}

	if isJSONOutput() {
		outputSuccess(map[string]interface{}{
			"project":  cat.Project,
			"entities": summaries,
		}, &Meta{Count: len(summaries), QueryTimeMs: time.Since(start).Milliseconds()})
		return nil
	}

	fmt.Fprintf(stdout, "%s %s\n\n", ui.Header(cat.Project), ui.Count(len(summaries), "entity type", "entity types"))
	t := ui.NewTable(4)
	t.AddRow(ui.Bold.Render("ENTITY"), ui.Bold.Render("IDENTITY"), ui.Bold.Render("PARENT"), ui.Bold.Render("ATTRIBUTES"))
	for _, s := range summaries {
		parent := s.Parent
		if parent == "" {
			parent = ui.Muted.Render("-")
		}
		t.AddRow(ui.Accent.Render(s.Name), s.Identity, parent, fmt.Sprint(s.Attributes))
	}
	fmt.Fprint(stdout, t.String())
	return nil
}

func describeEntity(cat *catalog.Catalog, name string, start time.Time) error {
	e, err := cat.EntityType(name)
	if err != nil {
		return handleError(ErrEntityNotFound, err, "Run 'quarry schema' to list entity types")
	}

	attrs := make([]attributeSummary, 0, len(e.Attributes))
	for _, attrName := range e.AttributeNames() {
		a := e.Attributes[attrName]
		s := attributeSummary{
			Name:       a.Name,
			Kind:       a.Kind.String(),
			Link:       a.LinkEntity,
			Restricted: a.Restricted,
			Options:    a.MatrixOptions(),
		}
		if !a.IsReverseLink() {
			s.Column = a.Column
		} else {
			s.LinkAttribute = a.LinkAttribute
		}
		attrs = append(attrs, s)
	}

	if isJSONOutput() {
		outputSuccess(map[string]interface{}{
			"entity":     summarizeEntity(e),
			"attributes": attrs,
		}, &Meta{Count: len(attrs), QueryTimeMs: time.Since(start).Milliseconds()})
		return nil
	}

	fmt.Fprintf(stdout, "%s %s\n\n", ui.Header(e.Name), ui.Hint("table "+e.Table))
	t := ui.NewTable(4)
	t.AddRow(ui.Bold.Render("ATTRIBUTE"), ui.Bold.Render("KIND"), ui.Bold.Render("TARGET"), "")
	for _, a := range attrs {
		name := a.Name
		if a.Name == e.Identity {
			name = ui.AccentBold.Render(name)
		}
		target := a.Link
		if a.LinkAttribute != "" {
			target += "." + a.LinkAttribute
		}
		var note string
		if a.Restricted {
			note = ui.Muted.Render("restricted")
		}
		t.AddRow(name, a.Kind, target, note)
	}
	fmt.Fprint(stdout, t.String())
	return nil
}

func outputDDL(cat *catalog.Catalog, dialect store.Dialect) error {
	stmts := store.CreateStatements(cat, dialect)
	if isJSONOutput() {
		outputSuccess(map[string]interface{}{
			"driver":     dialect.Name(),
			"statements": stmts,
		}, &Meta{Count: len(stmts)})
		return nil
	}
	for _, stmt := range stmts {
		fmt.Fprintf(stdout, "%s;\n\n", stmt)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
