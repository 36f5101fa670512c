package query

// resultSet is the flat answer of the main statement.
type resultSet struct {
	index map[string]int
	rows  [][]any
}

func newResultSet(columns []string, rows [][]any) *resultSet {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}
	return &resultSet{index: index, rows: rows}
}

func (rs *resultSet) all() []int {
	out := make([]int, len(rs.rows))
	for i := range out {
		out[i] = i
	}
	return out
}

func (rs *resultSet) value(row int, label string) any {
	i, ok := rs.index[label]
	if !ok || row < 0 || row >= len(rs.rows) {
		return nil
	}
	return rs.rows[row][i]
}

type group struct {
	key  any
	rows []int
}

// group partitions rows by the value under label, in first-seen order.
// Rows where the value is NULL (an empty outer join) belong to no group.
func (rs *resultSet) group(rows []int, label string) []group {
	var out []group
	pos := make(map[any]int)
	for _, r := range rows {
		key := rs.value(r, label)
		if key == nil {
			continue
		}
		i, ok := pos[key]
		if !ok {
			i = len(out)
			pos[key] = i
			out = append(out, group{key: key})
		}
		out[i].rows = append(out[i].rows, r)
	}
	return out
}
