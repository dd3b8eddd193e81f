package ui

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

// Column is one table column. A zero Width sizes the column to its widest
// cell; Right aligns amounts and counters.
type Column struct {
	Title string
	Width int
	Right bool
}

type Row []string

type Table struct {
	Columns []Column
	Rows    []Row
}

var (
	tableHeader = lipgloss.NewStyle().Foreground(ColorHighlight).Bold(true)
	tableCell   = lipgloss.NewStyle().Foreground(ColorValue)
)

func NewTable(cols []Column) *Table {
	return &Table{Columns: cols}
}

func (t *Table) AddRow(r Row) {
	t.Rows = append(t.Rows, r)
}

// pad fits s into exactly width runes, truncating with an ellipsis.
func pad(s string, width int, right bool) string {
	n := utf8.RuneCountInString(s)
	if n > width {
		if width <= 1 {
			return string([]rune(s)[:width])
		}
		return string([]rune(s)[:width-1]) + "…"
	}
	fill := strings.Repeat(" ", width-n)
	if right {
		return fill + s
	}
	return s + fill
}

func (t *Table) widths() []int {
	w := make([]int, len(t.Columns))
	for i, col := range t.Columns {
		if col.Width > 0 {
			w[i] = col.Width
			continue
		}
		w[i] = utf8.RuneCountInString(col.Title)
		for _, row := range t.Rows {
			if i < len(row) {
				w[i] = max(w[i], utf8.RuneCountInString(row[i]))
			}
		}
	}
	return w
}

// Render pads cells before styling so lipgloss never wraps them. Missing
// trailing cells render blank.
func (t *Table) Render() string {
	widths := t.widths()
	line := func(style lipgloss.Style, cells func(i int) string) string {
		out := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			out[i] = style.Render(pad(cells(i), widths[i], col.Right))
		}
		return strings.Join(out, " ") + "\n"
	}

	var sb strings.Builder
	sb.WriteString(line(tableHeader, func(i int) string { return t.Columns[i].Title }))
	sb.WriteString(line(StyleMeta, func(i int) string { return strings.Repeat("-", widths[i]) }))
	for _, row := range t.Rows {
		sb.WriteString(line(tableCell, func(i int) string {
			if i < len(row) {
				return row[i]
			}
			return ""
		}))
	}
	return sb.String()
}

// KeyValueBlock renders labelled values in a bordered box, keys aligned to
// the longest one.
func KeyValueBlock(title string, pairs [][2]string) string {
	keyWidth := 12
	for _, p := range pairs {
		keyWidth = max(keyWidth, utf8.RuneCountInString(p[0])+1)
	}

	var sb strings.Builder
	if title != "" {
		sb.WriteString(StyleTitle.Render(title) + "\n")
	}
	for _, p := range pairs {
		key := StyleMeta.Render(pad(p[0]+":", keyWidth, false))
		sb.WriteString("  " + key + " " + StyleValue.Render(p[1]) + "\n")
	}
	return StyleBorder.Render(sb.String())
}
