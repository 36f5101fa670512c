package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Table is a borderless, space-aligned table for listings such as the
// schema. Widths are measured after styling, so styled cells align.
type Table struct {
	rows       [][]string
	colWidths  []int
	colPadding int
}

// NewTable creates a new table with the specified number of columns
func NewTable(cols int) *Table {
	return &Table{
		colWidths:  make([]int, cols),
		colPadding: 2,
	}
}

// AddRow adds a row to the table
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.colWidths))
	for i := 0; i < len(t.colWidths) && i < len(cells); i++ {
		row[i] = cells[i]
		if w := lipgloss.Width(cells[i]); w > t.colWidths[i] {
			t.colWidths[i] = w
		}
	}
	t.rows = append(t.rows, row)
}

// String renders the table as a string
func (t *Table) String() string {
	if len(t.rows) == 0 {
		return ""
	}

	var sb strings.Builder
	padding := strings.Repeat(" ", t.colPadding)
	for _, row := range t.rows {
		for i, cell := range row {
			if i > 0 {
				sb.WriteString(padding)
			}
			sb.WriteString(cell)
			if i < len(row)-1 {
				sb.WriteString(strings.Repeat(" ", t.colWidths[i]-lipgloss.Width(cell)))
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// AnswerTable renders flattened answer rows with a bordered header. Cells
// wider than the terminal allows are truncated with an ellipsis; empty
// cells render as a muted NULL.
func AnswerTable(display *DisplayContext, headers []string, rows [][]string) string {
	limit := display.CellWidth(len(headers))

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(Muted).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return AccentBold.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			switch {
			case cell == "":
				cells[i] = Muted.Render("NULL")
			default:
				cells[i] = Truncate(cell, limit)
			}
		}
		t.Row(cells...)
	}
	return t.String() + "\n"
}

// Truncate shortens s to at most width runes, marking the cut with "…".
func Truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

// TSV renders rows as tab separated values. Tabs and newlines inside cells
// are replaced by spaces.
func TSV(headers []string, rows [][]string) string {
	clean := strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")
	var sb strings.Builder
	write := func(cells []string) {
		for i, c := range cells {
			if i > 0 {
				sb.WriteByte('\t')
			}
			sb.WriteString(clean.Replace(c))
		}
		sb.WriteByte('\n')
	}
	write(headers)
	for _, row := range rows {
		write(row)
	}
	return sb.String()
}
