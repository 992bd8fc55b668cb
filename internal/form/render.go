package form

import (
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Padding(0, 1).
	Foreground(lipgloss.AdaptiveColor{Light: "#2563eb", Dark: "#9ecbff"})

var cellStyle = lipgloss.NewStyle().
	Padding(0, 1)

var disabledCellStyle = cellStyle.
	Foreground(lipgloss.AdaptiveColor{Light: "#8c8c8c", Dark: "#8c8c8c"})

var placeholderStyle = lipgloss.NewStyle().
	Italic(true).
	Padding(0, 1).
	Foreground(lipgloss.Color("240"))

var titleStyle = lipgloss.NewStyle().
	Bold(true).
	MarginBottom(1)

// Render draws the item table for a terminal.
func (t *Table) Render() string {
	headers := make([]string, 0, len(t.config)+1)
	headers = append(headers, "#")
	for _, f := range t.config {
		headers = append(headers, f.Label)
	}

	rendered := t.Rows()
	rows := make([][]string, 0, len(rendered))
	disabled := map[int]bool{}
	for i, f := range t.config {
		disabled[i+1] = f.Disabled
	}

	empty := len(rendered) == 1 && rendered[0].Placeholder != ""
	if empty {
		row := make([]string, len(headers))
		row[1%len(headers)] = rendered[0].Placeholder
		rows = append(rows, row)
	} else {
		for i, r := range rendered {
			row := make([]string, 0, len(headers))
			row = append(row, strconv.Itoa(i+1))
			for _, c := range r.Cells {
				row = append(row, c.Text)
			}
			rows = append(rows, row)
		}
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == 0:
				return headerStyle
			case empty:
				return placeholderStyle
			case disabled[col]:
				return disabledCellStyle
			default:
				return cellStyle
			}
		}).
		String()
}

// Render draws the form title, the basic fields and the item table.
func (f *Form) Render() string {
	var b strings.Builder
	if f.Title != "" {
		b.WriteString(titleStyle.Render(f.Title))
		b.WriteString("\n")
	}
	for _, key := range sortedKeys(f.State.Basic) {
		b.WriteString(headerStyle.Render(key))
		b.WriteString(cellStyle.Render(cellText(Field{Key: key}, ItemRow{Values: f.State.Basic})))
		b.WriteString("\n")
	}
	b.WriteString(f.Table.Render())
	return b.String()
}

func sortedKeys(values map[string]any) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
