package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table renders rows in fixed-width columns.
type Table struct {
	Headers []string
	Rows    [][]string
	// RightAlign marks numeric columns by index.
	RightAlign map[int]bool
}

func (t *Table) columnWidths() []int {
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}
	return widths
}

// Render returns the table as a string.
func (t *Table) Render() string {
	if len(t.Headers) == 0 {
		return ""
	}
	widths := t.columnWidths()
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)

	var sb strings.Builder
	cells := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		cells[i] = headerStyle.Render(t.pad(i, h, widths[i]))
	}
	sb.WriteString(" " + strings.Join(cells, "  ") + "\n")

	seps := make([]string, len(widths))
	for i, w := range widths {
		seps[i] = strings.Repeat("─", w)
	}
	sb.WriteString(" " + StyleSubtle.Render(strings.Join(seps, "──")) + "\n")

	for _, row := range t.Rows {
		for i := range t.Headers {
			val := ""
			if i < len(row) {
				val = row[i]
			}
			cells[i] = t.pad(i, val, widths[i])
		}
		sb.WriteString(" " + strings.Join(cells, "  ") + "\n")
	}
	return sb.String()
}

func (t *Table) pad(col int, s string, width int) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	if t.RightAlign[col] {
		return strings.Repeat(" ", gap) + s
	}
	return s + strings.Repeat(" ", gap)
}

// Truncate shortens s to maxLen runes with a trailing ellipsis.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 0 || len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
