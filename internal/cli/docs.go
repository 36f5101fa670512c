package cli

import (
	"bufio"
	"bytes"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	builtindocs "github.com/aidanlsb/quarry/docs"
	"github.com/aidanlsb/quarry/internal/ui"
)

const docsIndexPath = "index.yaml"

var (
	docsSearchLimit int

	docsDisplayContext = ui.NewDisplayContext
	docsMarkdownRender = ui.RenderMarkdown
)

type docsSectionView struct {
	ID     string          `json:"id"`
	Title  string          `json:"title"`
	Topics []docsTopicView `json:"topics,omitempty"`
}

type docsTopicView struct {
	Section string `json:"section"`
	ID      string `json:"id"`
	Title   string `json:"title"`
	Path    string `json:"path"`
}

type docsSearchMatch struct {
	Section string `json:"section"`
	Topic   string `json:"topic"`
	Heading string `json:"heading,omitempty"`
	Line    int    `json:"line"`
	Snippet string `json:"snippet"`
}

// docsHeading is a markdown heading and the 1-based line it starts on.
type docsHeading struct {
	Text string
	Line int
}

type docsIndex struct {
	Sections map[string]docsIndexSection `yaml:"sections"`
}

type docsIndexSection struct {
	Title  string                    `yaml:"title"`
	Topics map[string]docsIndexTopic `yaml:"topics"`
}

type docsIndexTopic struct {
	Title string `yaml:"title"`
	Path  string `yaml:"path"`
}

var docsCmd = &cobra.Command{
	Use:   "docs [section] [topic]",
	Short: "Browse long-form Markdown documentation",
	Long: `Browse documentation bundled into the quarry binary.

Examples:
  quarry docs
  quarry docs guide
  quarry docs guide querying
  quarry docs search quantifier`,
	Args: cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sections, err := loadDocsSections(builtindocs.FS)
		if err != nil {
			return handleError(ErrInternal, err, "Rebuild quarry so bundled docs are available")
		}

		if len(args) == 0 {
			return outputDocsSections(sections)
		}

		section, ok := findDocsSection(sections, args[0])
		if !ok {
			return handleError(ErrInvalidInput, errors.Newf("unknown docs section %q", args[0]), "Run 'quarry docs' to list sections")
		}
		if len(args) == 1 {
			return outputDocsTopics(section)
		}

		topic, ok := findDocsTopic(section, args[1])
		if !ok {
			return handleError(ErrInvalidInput, errors.Newf("unknown topic %q in section %s", args[1], section.ID),
				fmt.Sprintf("Run 'quarry docs %s' to list topics", section.ID))
		}
		return outputDocsTopicContent(topic)
	},
}

var docsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the bundled documentation",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.TrimSpace(strings.Join(args, " "))
		if query == "" {
			return handleError(ErrInvalidInput, errors.New("specify a search query"), "Usage: quarry docs search <query>")
		}
		if docsSearchLimit < 1 {
			return handleError(ErrInvalidInput, errors.New("--limit must be >= 1"), "")
		}

		sections, err := loadDocsSections(builtindocs.FS)
		if err != nil {
			return handleError(ErrInternal, err, "")
		}
		matches, err := searchDocs(builtindocs.FS, sections, query, docsSearchLimit)
		if err != nil {
			return handleError(ErrInternal, err, "")
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"query":   query,
				"matches": matches,
			}, &Meta{Count: len(matches)})
			return nil
		}

		if len(matches) == 0 {
			fmt.Fprintf(stdout, "No docs matched %q.\n", query)
			return nil
		}
		fmt.Fprintf(stdout, "Matches for %q (%d):\n", query, len(matches))
		for _, m := range matches {
			where := fmt.Sprintf("%s/%s:%d", m.Section, m.Topic, m.Line)
			if m.Heading != "" {
				where += " " + ui.Hint("("+m.Heading+")")
			}
			fmt.Fprintf(stdout, "- %s %s\n", where, m.Snippet)
		}
		return nil
	},
}

// loadDocsSections reads the docs index, sorted by section and topic id.
func loadDocsSections(fsys fs.FS) ([]docsSectionView, error) {
	data, err := fs.ReadFile(fsys, docsIndexPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read docs index")
	}
	var idx docsIndex
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return nil, errors.Wrap(err, "failed to parse docs index")
	}

	sections := make([]docsSectionView, 0, len(idx.Sections))
	for id, s := range idx.Sections {
		view := docsSectionView{ID: id, Title: s.Title}
		for topicID, t := range s.Topics {
			view.Topics = append(view.Topics, docsTopicView{Section: id, ID: topicID, Title: t.Title, Path: t.Path})
		}
		sort.Slice(view.Topics, func(i, j int) bool { return view.Topics[i].ID < view.Topics[j].ID })
		sections = append(sections, view)
	}
	sort.Slice(sections, func(i, j int) bool { return sections[i].ID < sections[j].ID })
	return sections, nil
}

func findDocsSection(sections []docsSectionView, id string) (docsSectionView, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, s := range sections {
		if s.ID == id {
			return s, true
		}
	}
	return docsSectionView{}, false
}

func findDocsTopic(section docsSectionView, id string) (docsTopicView, bool) {
	id = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(id), ".md"))
	for _, t := range section.Topics {
		if t.ID == id {
			return t, true
		}
	}
	return docsTopicView{}, false
}

// searchDocs does a case-insensitive line search over every topic.
func searchDocs(fsys fs.FS, sections []docsSectionView, query string, limit int) ([]docsSearchMatch, error) {
	needle := strings.ToLower(query)
	matches := []docsSearchMatch{}
	for _, s := range sections {
		for _, t := range s.Topics {
			content, err := fs.ReadFile(fsys, t.Path)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to read %s", t.Path)
			}
			headings, err := docsHeadings(content)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to parse %s", t.Path)
			}
			scanner := bufio.NewScanner(bytes.NewReader(content))
			for line := 1; scanner.Scan(); line++ {
				text := scanner.Text()
				if !strings.Contains(strings.ToLower(text), needle) {
					continue
				}
				matches = append(matches, docsSearchMatch{
					Section: s.ID,
					Topic:   t.ID,
					Heading: headingAt(headings, line),
					Line:    line,
					Snippet: strings.TrimSpace(text),
				})
				if len(matches) >= limit {
					return matches, nil
				}
			}
		}
	}
	return matches, nil
}

// docsHeadings returns the headings of a markdown document in order.
// Headings inside code blocks are not headings to goldmark, so they are
// skipped.
func docsHeadings(content []byte) ([]docsHeading, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(content))

	var headings []docsHeading
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok || heading.Lines().Len() == 0 {
			return ast.WalkContinue, nil
		}
		var sb strings.Builder
		for child := heading.FirstChild(); child != nil; child = child.NextSibling() {
			if t, ok := child.(*ast.Text); ok {
				sb.Write(t.Segment.Value(content))
			}
		}
		offset := heading.Lines().At(0).Start
		headings = append(headings, docsHeading{
			Text: strings.TrimSpace(sb.String()),
			Line: bytes.Count(content[:offset], []byte("\n")) + 1,
		})
		return ast.WalkSkipChildren, nil
	})
	return headings, err
}

// headingAt returns the closest heading at or above line.
func headingAt(headings []docsHeading, line int) string {
	var current string
	for _, h := range headings {
		if h.Line > line {
			break
		}
		current = h.Text
	}
	return current
}

func outputDocsSections(sections []docsSectionView) error {
	if isJSONOutput() {
		outputSuccess(map[string]interface{}{"sections": sections}, &Meta{Count: len(sections)})
		return nil
	}

	fmt.Fprintln(stdout, ui.Header("Documentation"))
	for _, s := range sections {
		fmt.Fprintf(stdout, "  %-28s %s (%s)\n", "quarry docs "+s.ID, s.Title, ui.Count(len(s.Topics), "topic", "topics"))
	}
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, ui.Hint("quarry docs search <query> searches every topic"))
	return nil
}

func outputDocsTopics(section docsSectionView) error {
	if isJSONOutput() {
		outputSuccess(section, &Meta{Count: len(section.Topics)})
		return nil
	}

	fmt.Fprintln(stdout, ui.Header(section.Title))
	for _, t := range section.Topics {
		fmt.Fprintf(stdout, "  %-36s %s\n", fmt.Sprintf("quarry docs %s %s", section.ID, t.ID), t.Title)
	}
	return nil
}

func outputDocsTopicContent(topic docsTopicView) error {
	content, err := fs.ReadFile(builtindocs.FS, topic.Path)
	if err != nil {
		return handleError(ErrInternal, err, "")
	}

	if isJSONOutput() {
		outputSuccess(map[string]interface{}{
			"section": topic.Section,
			"topic":   topic.ID,
			"title":   topic.Title,
			"content": string(content),
		}, nil)
		return nil
	}

	rendered := string(content)
	display := docsDisplayContext()
	if display.IsTTY {
		if out, renderErr := docsMarkdownRender(rendered, display.TermWidth); renderErr == nil {
			rendered = out
		}
	}
	fmt.Fprint(stdout, rendered)
	if !strings.HasSuffix(rendered, "\n") {
		fmt.Fprintln(stdout)
	}
	return nil
}

func init() {
	docsSearchCmd.Flags().IntVar(&docsSearchLimit, "limit", 20, "Maximum number of matches")
	docsCmd.AddCommand(docsSearchCmd)
	rootCmd.AddCommand(docsCmd)
}
