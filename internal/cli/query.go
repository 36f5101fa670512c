package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/aidanlsb/quarry/internal/format"
	"github.com/aidanlsb/quarry/internal/logging"
	"github.com/aidanlsb/quarry/internal/query"
	"github.com/aidanlsb/quarry/internal/store"
	"github.com/aidanlsb/quarry/internal/ui"
)

const (
	outputTable = "table"
	outputTSV   = "tsv"
	outputRaw   = "json"
	outputSQL   = "sql"
)

var (
	queryPage             int
	queryPageSize         int
	queryOrder            []string
	queryRestrict         bool
	queryShowDisconnected bool
	queryTimeout          time.Duration
	queryOutput           string
)

var queryCmd = &cobra.Command{
	Use:   "query <tokens>",
	Short: "Run a path query against the catalog",
	Long: `Run a path query and print its answer.

The query is a JSON array of tokens. Pass "-" to read it from stdin.

Output formats:
  table   Flattened columns, one row per root record (default)
  tsv     Tab-separated values with a header line
  json    The nested answer as JSON
  sql     The compiled SQL and its arguments, without running it

Examples:
  quarry query '["labor", "::count"]'
  quarry query '["labor", ["prize", ["worth","::>",2], "::any"], "::all", "::identifier"]'
  quarry query --page 2 --page-size 10 --order worth '["prize", "::all", "worth"]'
  echo '["project", "::all", "labor", "::count"]' | quarry query - --output tsv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := getConfig()
		ctx := cmd.Context()

		raw, err := readQueryArg(args[0], cmd.InOrStdin())
		if err != nil {
			return handleError(ErrInvalidInput, err, "")
		}
		tokens, err := query.ParseTokens(raw)
		if err != nil {
			return handleError(ErrQueryInvalid, err, "A query is a JSON array such as [\"labor\", \"::count\"]")
		}

		switch queryOutput {
		case outputTable, outputTSV, outputRaw, outputSQL:
		default:
			return handleError(ErrInvalidInput, errors.Newf("unknown output format %q", queryOutput), "Use table, tsv, json or sql")
		}

		cat, err := loadCatalog(c)
		if err != nil {
			return err
		}
		dialect, err := store.DialectFor(c.Database.Driver)
		if err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}

		opts := queryOptions(cmd)
		q, err := query.NewQuestion(cat, tokens, opts,
			query.WithLogger(logging.Named("query")),
			query.WithDialect(dialect))
		if err != nil {
			return handleError(queryErrorCode(err), err, suggestion(err))
		}

		if queryOutput == outputSQL {
			return outputQuestionSQL(q)
		}

		s, err := openStore(ctx, c)
		if err != nil {
			return err
		}
		defer s.Close()

		start := time.Now()
		spinner := ui.NewSpinner("Running query...")
		if !isJSONOutput() {
			spinner.Start()
		}
		answer, err := q.Answer(ctx, s.DB())
		spinner.Stop()
		if err != nil {
			return handleError(queryErrorCode(err), err, querySuggestion(err))
		}
		elapsed := time.Since(start).Milliseconds()

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"format": q.Format(),
				"answer": answer,
			}, &Meta{Count: answerCount(answer), QueryTimeMs: elapsed, QuestionID: q.ID()})
			return nil
		}
		return outputAnswer(q.Format(), answer)
	},
}

// readQueryArg returns the query text, reading stdin for "-".
func readQueryArg(arg string, in io.Reader) ([]byte, error) {
	if arg != "-" {
		return []byte(arg), nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read query from stdin")
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, errors.New("no query on stdin")
	}
	return data, nil
}

// queryOptions starts from the [query] config section and applies any flag
// the user set explicitly.
func queryOptions(cmd *cobra.Command) query.Options {
	c := getConfig()
	opts := query.Options{
		Restrict:         c.Query.Restrict,
		ShowDisconnected: c.Query.ShowDisconnected,
		Timeout:          c.Timeout(),
		PageSize:         c.Query.PageSize,
		Order:            queryOrder,
		Page:             queryPage,
	}
	flags := cmd.Flags()
	if flags.Changed("restrict") {
		opts.Restrict = queryRestrict
	}
	if flags.Changed("show-disconnected") {
		opts.ShowDisconnected = queryShowDisconnected
	}
	if flags.Changed("timeout") {
		opts.Timeout = queryTimeout
	}
	if flags.Changed("page-size") {
		opts.PageSize = queryPageSize
	}
	if opts.PageSize > 0 && !flags.Changed("page") {
		opts.Page = 1
	}
	return opts
}

func querySuggestion(err error) string {
	switch {
	case errors.Is(err, query.ErrTimeout):
		return "Raise --timeout or [query] timeout_ms"
	case errors.Is(err, query.ErrPageNotFound):
		return "Pages start at 1; try an earlier page"
	}
	return suggestion(err)
}

func answerCount(answer any) int {
	if list, ok := answer.([]any); ok {
		return len(list)
	}
	return 1
}

func outputQuestionSQL(q *query.Question) error {
	sql, args := q.SQL()
	if isJSONOutput() {
		outputSuccess(map[string]interface{}{
			"sql":  sql,
			"args": args,
		}, &Meta{QuestionID: q.ID()})
		return nil
	}
	fmt.Fprintln(stdout, sql)
	if len(args) > 0 {
		data, err := json.Marshal(args)
		if err != nil {
			return handleError(ErrInternal, err, "")
		}
		fmt.Fprintln(stdout, ui.Hint("args: "+string(data)))
	}
	return nil
}

func outputAnswer(f format.Format, answer any) error {
	switch queryOutput {
	case outputRaw:
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(answer)
	}

	headers, cells := format.Table(f, answer)
	rows := make([][]string, len(cells))
	for i, row := range cells {
		rows[i] = make([]string, len(row))
		for j, v := range row {
			rows[i][j] = format.Cell(v)
		}
	}

	if queryOutput == outputTSV {
		fmt.Fprint(stdout, ui.TSV(headers, rows))
		return nil
	}
	if len(rows) == 0 {
		fmt.Fprintln(stdout, ui.Hint("No results."))
		return nil
	}
	fmt.Fprintln(stdout, ui.AnswerTable(docsDisplayContext(), headers, rows))
	if _, isList := answer.([]any); isList {
		fmt.Fprintln(stderr, ui.Hint(ui.Count(len(rows), "row", "rows")))
	}
	return nil
}

func init() {
	queryCmd.Flags().IntVar(&queryPage, "page", 0, "Page of root records to return, starting at 1")
	queryCmd.Flags().IntVar(&queryPageSize, "page-size", 0, "Root records per page (at least 2)")
	queryCmd.Flags().StringSliceVar(&queryOrder, "order", nil, "Root attributes to order by before the identity")
	queryCmd.Flags().BoolVar(&queryRestrict, "restrict", false, "Hide restricted records and attributes")
	queryCmd.Flags().BoolVar(&queryShowDisconnected, "show-disconnected", false, "Only return records whose parent is missing")
	queryCmd.Flags().DurationVar(&queryTimeout, "timeout", 0, "Abort the query after this long (0 means no limit)")
	queryCmd.Flags().StringVarP(&queryOutput, "output", "o", outputTable, "Output format: table, tsv, json or sql")
	rootCmd.AddCommand(queryCmd)
}
