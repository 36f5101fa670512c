package cli

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidanlsb/quarry/internal/config"
	"github.com/aidanlsb/quarry/internal/format"
)

func TestReadQueryArg(t *testing.T) {
	data, err := readQueryArg(`["labor", "::count"]`, strings.NewReader("ignored"))
	require.NoError(t, err)
	assert.Equal(t, `["labor", "::count"]`, string(data))

	data, err = readQueryArg("-", strings.NewReader(`["prize", "::count"]`+"\n"))
	require.NoError(t, err)
	assert.Equal(t, `["prize", "::count"]`+"\n", string(data))

	_, err = readQueryArg("-", strings.NewReader("  \n"))
	assert.Error(t, err)
}

// newQueryFlagsCommand binds the query flags to a fresh command so tests
// can mark flags as changed without touching queryCmd.
func newQueryFlagsCommand() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().IntVar(&queryPage, "page", 0, "")
	cmd.Flags().IntVar(&queryPageSize, "page-size", 0, "")
	cmd.Flags().StringSliceVar(&queryOrder, "order", nil, "")
	cmd.Flags().BoolVar(&queryRestrict, "restrict", false, "")
	cmd.Flags().BoolVar(&queryShowDisconnected, "show-disconnected", false, "")
	cmd.Flags().DurationVar(&queryTimeout, "timeout", 0, "")
	return cmd
}

func TestQueryOptionsFromConfig(t *testing.T) {
	prev := cfg
	t.Cleanup(func() { cfg = prev })

	cfg = config.Default()
	cfg.Query = config.QueryConfig{Restrict: true, TimeoutMS: 2500, PageSize: 20}

	opts := queryOptions(newQueryFlagsCommand())
	assert.True(t, opts.Restrict)
	assert.Equal(t, 2500*time.Millisecond, opts.Timeout)
	assert.Equal(t, 20, opts.PageSize)
	assert.Equal(t, 1, opts.Page, "a configured page size starts at page 1")
}

func TestQueryOptionsFlagsOverrideConfig(t *testing.T) {
	prev := cfg
	t.Cleanup(func() { cfg = prev })

	cfg = config.Default()
	cfg.Query = config.QueryConfig{Restrict: true, TimeoutMS: 2500, PageSize: 20}

	cmd := newQueryFlagsCommand()
	require.NoError(t, cmd.Flags().Parse([]string{
		"--restrict=false", "--timeout", "1s", "--page-size", "0", "--order", "worth,name", "--show-disconnected",
	}))

	opts := queryOptions(cmd)
	assert.False(t, opts.Restrict)
	assert.True(t, opts.ShowDisconnected)
	assert.Equal(t, time.Second, opts.Timeout)
	assert.Equal(t, 0, opts.PageSize)
	assert.Equal(t, 0, opts.Page)
	assert.Equal(t, []string{"worth", "name"}, opts.Order)
}

func TestAnswerCount(t *testing.T) {
	assert.Equal(t, 2, answerCount([]any{"a", "b"}))
	assert.Equal(t, 0, answerCount([]any{}))
	assert.Equal(t, 1, answerCount(int64(7)))
}

func TestOutputAnswerFormats(t *testing.T) {
	prev := queryOutput
	t.Cleanup(func() { queryOutput = prev })

	f := format.Branch{Key: "labor::name", Value: format.Leaf("labor::number")}
	answer := []any{
		[]any{"Nemean Lion", int64(1)},
		[]any{"Lernean Hydra", int64(2)},
	}

	queryOutput = outputTSV
	out := captureOutput(t, func() { require.NoError(t, outputAnswer(f, answer)) })
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Nemean Lion\t1", lines[1])
	assert.Equal(t, "Lernean Hydra\t2", lines[2])

	queryOutput = outputRaw
	out = captureOutput(t, func() { require.NoError(t, outputAnswer(f, answer)) })
	var decoded []any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, []any{
		[]any{"Nemean Lion", float64(1)},
		[]any{"Lernean Hydra", float64(2)},
	}, decoded)
}
