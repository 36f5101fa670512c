package cli

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	builtindocs "github.com/aidanlsb/quarry/docs"
)

func TestBundledDocsIndexIsComplete(t *testing.T) {
	sections, err := loadDocsSections(builtindocs.FS)
	require.NoError(t, err)
	require.NotEmpty(t, sections)

	for _, s := range sections {
		require.NotEmpty(t, s.Topics, "section %s", s.ID)
		for _, topic := range s.Topics {
			_, err := builtindocs.FS.ReadFile(topic.Path)
			assert.NoError(t, err, "%s/%s", s.ID, topic.ID)
		}
	}
}

func testDocsFS() fstest.MapFS {
	return fstest.MapFS{
		"index.yaml": {Data: []byte(`sections:
  reference:
    title: Reference
    topics:
      verbs:
        title: Verbs
        path: reference/verbs.md
  guide:
    title: Guide
    topics:
      querying:
        title: Querying
        path: guide/querying.md
      basics:
        title: Basics
        path: guide/basics.md
`)},
		"guide/querying.md":  {Data: []byte("# Querying\n\nUse ::any for quantifiers.\n")},
		"guide/basics.md":    {Data: []byte("# Basics\n")},
		"reference/verbs.md": {Data: []byte("# Verbs\n\n::ANY matches one\n::every matches all\n")},
	}
}

func TestLoadDocsSectionsSorted(t *testing.T) {
	sections, err := loadDocsSections(testDocsFS())
	require.NoError(t, err)

	require.Len(t, sections, 2)
	assert.Equal(t, "guide", sections[0].ID)
	assert.Equal(t, "reference", sections[1].ID)
	assert.Equal(t, "basics", sections[0].Topics[0].ID)
	assert.Equal(t, "querying", sections[0].Topics[1].ID)
}

func TestFindDocsTopic(t *testing.T) {
	sections, err := loadDocsSections(testDocsFS())
	require.NoError(t, err)

	section, ok := findDocsSection(sections, " Guide ")
	require.True(t, ok)
	topic, ok := findDocsTopic(section, "querying.md")
	require.True(t, ok)
	assert.Equal(t, "guide/querying.md", topic.Path)

	_, ok = findDocsTopic(section, "missing")
	assert.False(t, ok)
	_, ok = findDocsSection(sections, "design")
	assert.False(t, ok)
}

func TestSearchDocs(t *testing.T) {
	fsys := testDocsFS()
	sections, err := loadDocsSections(fsys)
	require.NoError(t, err)

	matches, err := searchDocs(fsys, sections, "::any", 10)
	require.NoError(t, err)
	assert.Equal(t, []docsSearchMatch{
		{Section: "guide", Topic: "querying", Heading: "Querying", Line: 3, Snippet: "Use ::any for quantifiers."},
		{Section: "reference", Topic: "verbs", Heading: "Verbs", Line: 3, Snippet: "::ANY matches one"},
	}, matches)

	matches, err = searchDocs(fsys, sections, "matches", 1)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestDocsHeadings(t *testing.T) {
	content := []byte("# Title\n\nIntro\n\n```sh\n# not a heading\n```\n\n## Filters\n\ntext\n")
	headings, err := docsHeadings(content)
	require.NoError(t, err)
	assert.Equal(t, []docsHeading{{Text: "Title", Line: 1}, {Text: "Filters", Line: 9}}, headings)

	assert.Equal(t, "", headingAt(headings, 0))
	assert.Equal(t, "Title", headingAt(headings, 6))
	assert.Equal(t, "Filters", headingAt(headings, 11))
}
