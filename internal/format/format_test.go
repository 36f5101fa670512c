package format

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// laborPrizes describes [[labor, [[prize, worth], ...]], ...].
var laborPrizes = Branch{
	Key:   "labor::name",
	Value: Branch{Key: "prize::name", Value: Leaf("prize::worth")},
}

func TestColumns(t *testing.T) {
	cols := Columns(Vector{Leaf("labor::name"), laborPrizes.Value})

	var headers, paths []string
	for _, c := range cols {
		headers = append(headers, c.Header)
		paths = append(paths, c.Path.String())
	}
	assert.Equal(t, []string{"labor::name", "prize::name", "prize::worth"}, headers)
	assert.Equal(t, []string{"0", "1.*0", "1.*1"}, paths)

	assert.Equal(t, []Column{{Header: "labor::number", Path: Path{}}}, Columns(Leaf("labor::number")))
}

func TestLocate(t *testing.T) {
	elem := []any{"Lernean Hydra", []any{
		[]any{"Hydra teeth", int64(3)},
		[]any{"Hydra venom", int64(1)},
	}}

	assert.Equal(t, "Lernean Hydra", Locate(elem, Path{{Index: 0}}))
	assert.Equal(t, []any{"Hydra teeth", "Hydra venom"}, Locate(elem, Path{{Index: 1}, {Index: 0, Each: true}}))
	assert.Equal(t, []any{int64(3), int64(1)}, Locate(elem, Path{{Index: 1}, {Index: 1, Each: true}}))
	assert.Nil(t, Locate(elem, Path{{Index: 5}}))
	assert.Nil(t, Locate("scalar", Path{{Index: 0}}))
}

func TestLocateFlattensNestedBranches(t *testing.T) {
	project := []any{
		[]any{"Nemean Lion", []any{[]any{"Lion pelt", int64(5)}}},
		[]any{"Lernean Hydra", []any{[]any{"Hydra teeth", int64(3)}, []any{"Hydra venom", int64(1)}}},
	}
	path := Path{{Index: 1, Each: true}, {Index: 0, Each: true}}
	assert.Equal(t, []any{"Lion pelt", "Hydra teeth", "Hydra venom"}, Locate(project, path))
}

func TestTable(t *testing.T) {
	answer := []any{
		[]any{"Lernean Hydra", []any{
			[]any{"Hydra teeth", int64(3)},
			[]any{"Hydra venom", int64(1)},
		}},
		[]any{"Erymanthian Boar", []any{}},
	}

	headers, rows := Table(laborPrizes, answer)
	assert.Equal(t, []string{"labor::name", "prize::name", "prize::worth"}, headers)
	require.Len(t, rows, 2)
	assert.Equal(t, []any{"Lernean Hydra", []any{"Hydra teeth", "Hydra venom"}, []any{int64(3), int64(1)}}, rows[0])
	assert.Equal(t, []any{"Erymanthian Boar", []any{}, []any{}}, rows[1])
}

func TestTableScalarAnswer(t *testing.T) {
	headers, rows := Table(Leaf("labor::count"), int64(6))
	assert.Equal(t, []string{"labor::count"}, headers)
	assert.Equal(t, [][]any{{int64(6)}}, rows)

	_, rows = Table(laborPrizes, []any{})
	assert.Empty(t, rows)
}

func TestCell(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"Hydra", "Hydra"},
		{int64(3), "3"},
		{2.5, "2.5"},
		{true, "true"},
		{[]any{"a", int64(1), nil}, "a, 1, "},
		{[]any{}, ""},
		{map[string]any{"filename": "lion.txt"}, `{"filename":"lion.txt"}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Cell(tt.in), "%#v", tt.in)
	}
}

func TestMarshalJSON(t *testing.T) {
	data, err := json.Marshal(laborPrizes)
	require.NoError(t, err)
	assert.JSONEq(t, `["labor::name", ["prize::name", "prize::worth"]]`, string(data))

	data, err = json.Marshal(Vector(nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	data, err = json.Marshal(Vector{Leaf("labor::name"), Leaf("labor::number")})
	require.NoError(t, err)
	assert.Equal(t, `["labor::name","labor::number"]`, string(data))
}
