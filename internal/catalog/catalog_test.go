package catalog

import (
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const laborsYAML = `project: labors
entities:
  project:
    identity: name
    attributes:
      name: identifier
      restricted: boolean
      labor: collection
  labor:
    identity: name
    attributes:
      name: identifier
      project: parent
      number: integer
      stats:
        type: matrix
        validation:
          type: array
          options: [strength, cunning]
      prize: collection
  prize:
    identity: name
    attributes:
      name: identifier
      labor: parent
      holder:
        type: link
        link: hero
        column: held_by
  hero:
    attributes:
      epithet: string
`

func parseLabors(t *testing.T) *Catalog {
	t.Helper()
	cat, err := Parse([]byte(laborsYAML))
	require.NoError(t, err)
	return cat
}

func TestParseDefaults(t *testing.T) {
	cat := parseLabors(t)

	assert.Equal(t, "labors", cat.Project)
	assert.Equal(t, []string{"hero", "labor", "prize", "project"}, cat.EntityNames())

	hero, err := cat.EntityType("hero")
	require.NoError(t, err)
	assert.Equal(t, "hero", hero.Table)
	assert.Equal(t, "hero_roster", TableName("Hero Roster"))
	assert.Equal(t, "id", hero.Identity)
	require.NotNil(t, hero.IdentityAttribute())
	assert.Equal(t, KindIdentifier, hero.IdentityAttribute().Kind)

	labor, err := cat.EntityType("labor")
	require.NoError(t, err)
	assert.Equal(t, "labor", labor.Table)
	assert.NotContains(t, labor.Attributes, "id")

	parent := labor.ParentAttribute()
	require.NotNil(t, parent)
	assert.Equal(t, "project", parent.LinkEntity)
	assert.Equal(t, "project_id", parent.Column)

	prizes, ok := labor.Attribute("prize")
	require.True(t, ok)
	assert.Equal(t, "prize", prizes.LinkEntity)
	assert.Equal(t, "labor", prizes.LinkAttribute)
	assert.Empty(t, prizes.Column)
	assert.True(t, prizes.IsList())

	stats, _ := labor.Attribute("stats")
	assert.Equal(t, []string{"strength", "cunning"}, stats.MatrixOptions())

	prize, _ := cat.EntityType("prize")
	holder, _ := prize.Attribute("holder")
	assert.Equal(t, "hero", holder.LinkEntity)
	assert.Equal(t, "held_by", holder.Column)
	assert.False(t, holder.IsReverseLink())
}

func TestRestrictionAttribute(t *testing.T) {
	cat := parseLabors(t)

	project, _ := cat.EntityType("project")
	require.NotNil(t, project.RestrictionAttribute())
	labor, _ := cat.EntityType("labor")
	assert.Nil(t, labor.RestrictionAttribute())
}

func TestUnknownEntity(t *testing.T) {
	cat := parseLabors(t)

	_, err := cat.EntityType("villain")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownEntity))
	assert.Contains(t, err.Error(), `"villain"`)
}

func TestForeignKey(t *testing.T) {
	cat := parseLabors(t)
	project, _ := cat.EntityType("project")
	labor, _ := cat.EntityType("labor")

	labors, _ := project.Attribute("labor")
	col, err := cat.ForeignKey(project, labors)
	require.NoError(t, err)
	assert.Equal(t, "project_id", col)

	parent, _ := labor.Attribute("project")
	col, err = cat.ForeignKey(labor, parent)
	require.NoError(t, err)
	assert.Equal(t, "project_id", col)

	number, _ := labor.Attribute("number")
	_, err = cat.ForeignKey(labor, number)
	assert.ErrorContains(t, err, "labor.number is not a link")
}

func TestAncestors(t *testing.T) {
	cat := parseLabors(t)
	prize, _ := cat.EntityType("prize")

	var names []string
	for _, e := range cat.Ancestors(prize) {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"labor", "project"}, names)

	project, _ := cat.EntityType("project")
	assert.Empty(t, cat.Ancestors(project))
}

func TestAncestorsStopAtCycle(t *testing.T) {
	cat, err := Parse([]byte(`entities:
  a:
    attributes:
      b: parent
  b:
    attributes:
      a: parent
`))
	require.NoError(t, err)

	a, _ := cat.EntityType("a")
	ancestors := cat.Ancestors(a)
	require.Len(t, ancestors, 1)
	assert.Equal(t, "b", ancestors[0].Name)
}

func TestCheckReportsEveryIssue(t *testing.T) {
	_, err := Parse([]byte(`entities:
  labor:
    identity: name
    attributes:
      name: string
      code: identifier
      restricted: integer
      stats: matrix
      hero: link
      prize: collection
  prize:
    attributes:
      first:
        type: parent
        link: labor
      second:
        type: parent
        link: labor
`))
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)

	var got []string
	for _, issue := range verr.Issues {
		got = append(got, issue.String())
	}
	assert.Equal(t, []string{
		"labor.name: identity attribute must be of kind identifier, got string",
		"labor.code: only the identity attribute may be of kind identifier",
		`labor.hero: links to unknown entity "hero"`,
		`labor.prize: prize has no inverse attribute "labor"`,
		"labor.restricted: restriction flag must be boolean",
		"labor.stats: matrix attribute needs validation options naming its columns",
		"prize: declares 2 parent attributes, at most one allowed",
	}, got)
	assert.Contains(t, verr.Error(), "invalid catalog:\n  labor.name:")
}

func TestCheckInverseMustPointBack(t *testing.T) {
	_, err := Parse([]byte(`entities:
  project:
    attributes:
      labor: collection
  other:
    attributes: {}
  labor:
    attributes:
      project:
        type: parent
        link: other
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project.labor: inverse attribute labor.project must be a parent or link to project")
}

func TestParseKind(t *testing.T) {
	for kind, name := range kindNames {
		got, err := ParseKind(name)
		require.NoError(t, err)
		assert.Equal(t, kind, got)
		assert.Equal(t, name, kind.String())
	}

	_, err := ParseKind("text")
	assert.ErrorContains(t, err, `unknown attribute kind "text"`)
	assert.Equal(t, "unknown", AttributeKind(99).String())

	_, err = Parse([]byte("entities:\n  labor:\n    attributes:\n      name: text\n"))
	assert.ErrorContains(t, err, `labor.name: unknown attribute kind "text"`)
}

func TestLoad(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "catalog.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	_, err = Parse([]byte("entities: [not, a, map]"))
	assert.ErrorContains(t, err, "failed to parse catalog")
}
