//go:build integration

package cli_test

import (
	"strings"
	"testing"

	"github.com/aidanlsb/quarry/internal/testutil"
)

// TestIntegration_Query runs queries through the built binary against the
// labors fixture.
func TestIntegration_Query(t *testing.T) {
	p := testutil.NewLaborsProject(t)

	p.AssertAnswer(`["labor", ["number","::>",2], "::count"]`, `5`)
	p.AssertAnswer(`["labor", ["prize", ["worth","::>",2], "::any"], "::all", "::identifier"]`,
		`[["Lernean Hydra","Lernean Hydra"],["Nemean Lion","Nemean Lion"]]`)
	p.AssertAnswer(`["project", ["name","::=","The Twelve Labors"], "::all", "labor", "::count"]`,
		`[["The Twelve Labors", 4]]`, "--restrict")

	result := p.RunCLI("query", `["prize", "::all", "::identifier"]`, "--page", "2", "--page-size", "2", "--order", "worth")
	result.MustSucceed(t)
	result.AssertResultCount(t, 2)
	if result.Meta == nil || result.Meta.QuestionID == "" {
		t.Errorf("expected a question id in meta\nRaw: %s", result.RawJSON)
	}
}

func TestIntegration_QueryFromStdin(t *testing.T) {
	p := testutil.NewLaborsProject(t)

	result := p.RunCLIWithStdin(`["monster", "::count"]`, "query", "-")
	result.MustSucceed(t)
	if got := result.Data["answer"]; got != float64(2) {
		t.Errorf("expected 2 monsters, got %v", got)
	}
}

func TestIntegration_QueryErrors(t *testing.T) {
	p := testutil.NewLaborsProject(t)

	p.RunCLI("query", `labor`).MustFail(t, "QUERY_INVALID")
	p.RunCLI("query", `["unicorn", "::count"]`).MustFail(t, "ENTITY_NOT_FOUND").
		MustFailWithMessage(t, "known entity types")
	p.RunCLI("query", `["labor", ["name","::any"], "::all", "::identifier"]`).MustFail(t, "QUERY_MALFORMED")
	p.RunCLI("query", `["labor", "::all", "notes"]`, "--restrict").MustFail(t, "QUERY_INVALID")
	p.RunCLI("query", `["labor", "::all", "::identifier"]`, "--page", "9", "--page-size", "2").MustFail(t, "PAGE_NOT_FOUND")

	result := p.RunCLI("query", `["labor", "::count"]`, "--output", "yaml")
	result.MustFail(t, "INVALID_INPUT")
	if result.ExitCode == 0 {
		t.Error("expected a non-zero exit code")
	}
}

func TestIntegration_QuerySQL(t *testing.T) {
	p := testutil.NewLaborsProject(t)

	result := p.RunCLI("query", `["labor", ["number","::>",2], "::count"]`, "--output", "sql")
	result.MustSucceed(t)
	sql := result.DataString("sql")
	if !strings.HasPrefix(sql, "SELECT") || !strings.Contains(sql, "labor_0.number > ?") {
		t.Errorf("unexpected SQL: %s", sql)
	}
}

func TestIntegration_SchemaAndCheck(t *testing.T) {
	p := testutil.NewLaborsProject(t)

	result := p.RunCLI("schema")
	result.MustSucceed(t)
	result.AssertResultCount(t, 4)

	result = p.RunCLI("schema", "entity", "labor")
	result.MustSucceed(t)
	if len(result.DataList("attributes")) == 0 {
		t.Errorf("expected labor attributes\nRaw: %s", result.RawJSON)
	}

	p.RunCLI("schema", "entity", "unicorn").MustFail(t, "ENTITY_NOT_FOUND")
	p.RunCLI("check").MustSucceed(t)
}

func TestIntegration_CheckReportsIssues(t *testing.T) {
	p := testutil.NewTestProject(t).Build()
	p.WriteFile("broken.yaml", `project: broken
entities:
  labor:
    identity: name
    attributes:
      name: identifier
      prize: collection
`)

	result := p.RunCLI("check", p.Path+"/broken.yaml")
	result.MustFail(t, "CATALOG_INVALID")
	if !strings.Contains(result.RawJSON, "unknown entity") {
		t.Errorf("expected the unknown entity issue\nRaw: %s", result.RawJSON)
	}
}

func TestIntegration_Init(t *testing.T) {
	p := testutil.NewTestProject(t).Build()
	dir := t.TempDir()

	result := p.RunCLI("--config", dir+"/config.toml", "init", "--dsn", dir+"/new.db")
	result.MustSucceed(t)
	if result.Data["config_created"] != true || result.Data["catalog_created"] != true {
		t.Errorf("expected config and catalog to be created\nRaw: %s", result.RawJSON)
	}

	// Running again keeps both files.
	result = p.RunCLI("--config", dir+"/config.toml", "init")
	result.MustSucceed(t)
	if result.Data["config_created"] != false {
		t.Errorf("expected existing config to be kept\nRaw: %s", result.RawJSON)
	}
}
