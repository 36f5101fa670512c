package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAccentColor(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		ok       bool
	}{
		{"", "", false},
		{"39", "39", true},
		{"  244 ", "244", true},
		{"256", "", false},
		{"-1", "", false},
		{"#7AA2F7", "#7aa2f7", true},
		{"#abc", "#aabbcc", true},
		{"#zzzzzz", "", false},
		{"blue", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := normalizeAccentColor(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestConfigureTheme(t *testing.T) {
	origAccent, origAccentBold, origColor := Accent, AccentBold, accentColor
	t.Cleanup(func() {
		Accent, AccentBold, accentColor = origAccent, origAccentBold, origColor
	})

	ConfigureTheme("39")
	got, ok := AccentColor()
	require.True(t, ok)
	assert.Equal(t, "39", got)

	ConfigureTheme("purple")
	got, _ = AccentColor()
	assert.Equal(t, "39", got, "invalid colors keep the current accent")

	ConfigureTheme("none")
	_, ok = AccentColor()
	assert.False(t, ok)
}

func TestTableAlignsStyledCells(t *testing.T) {
	tbl := NewTable(3)
	tbl.AddRow(Bold.Render("labor"), "name", "identifier")
	tbl.AddRow("prize", "worth", "integer")

	lines := strings.Split(strings.TrimRight(tbl.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, lipgloss.Width(lines[0])-len("identifier"), lipgloss.Width(lines[1])-len("integer"))
}

func TestAnswerTable(t *testing.T) {
	out := AnswerTable(NewDisplayContextWithWidth(40),
		[]string{"labor::name", "prize::worth"},
		[][]string{{"Nemean Lion", "5"}, {"Augean Stables", ""}})

	assert.Contains(t, out, "labor::name")
	assert.Contains(t, out, "Nemean Lion")
	assert.Contains(t, out, "NULL")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Nemean Lion", Truncate("Nemean Lion", 20))
	assert.Equal(t, "Nemea…", Truncate("Nemean Lion", 6))
	assert.Equal(t, "…", Truncate("Nemean Lion", 1))
}

func TestTSV(t *testing.T) {
	out := TSV([]string{"a", "b"}, [][]string{{"x\ty", "line\nbreak"}})
	assert.Equal(t, "a\tb\nx y\tline break\n", out)
}

func TestRenderMarkdownNormalizesTrailingNewline(t *testing.T) {
	out, err := RenderMarkdown("# Heading\n\nSome `code`.", 80)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "\n"))
	assert.False(t, strings.HasSuffix(out, "\n\n"))
	assert.Contains(t, out, "Heading")
}
