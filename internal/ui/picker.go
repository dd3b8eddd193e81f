package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// PickerItem is one selectable row.
type PickerItem struct {
	Label  string
	Detail string // dimmed, also searched by the filter
	Value  string // returned on selection
}

func (it PickerItem) matches(query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(it.Label), q) ||
		strings.Contains(strings.ToLower(it.Detail), q)
}

// pickerModel is a list picker with a "/" filter. The cursor indexes the
// filtered rows.
type pickerModel struct {
	title     string
	items     []PickerItem
	cursor    int
	query     string
	filtering bool
	selected  *PickerItem
	quitting  bool
}

func newPicker(title string, items []PickerItem) pickerModel {
	return pickerModel{title: title, items: items}
}

// PickerIndex returns the index of value in items, or 0.
func PickerIndex(items []PickerItem, value string) int {
	for i, it := range items {
		if it.Value == value {
			return i
		}
	}
	return 0
}

func (m pickerModel) visible() []PickerItem {
	if m.query == "" {
		return m.items
	}
	var out []PickerItem
	for _, it := range m.items {
		if it.matches(m.query) {
			out = append(out, it)
		}
	}
	return out
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	rows := m.visible()

	switch k.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "up":
		m.cursor = max(m.cursor-1, 0)
		return m, nil
	case "down":
		m.cursor = min(m.cursor+1, max(len(rows)-1, 0))
		return m, nil
	case "enter":
		if len(rows) > 0 {
			item := rows[m.cursor]
			m.selected = &item
			return m, tea.Quit
		}
		return m, nil
	}

	if m.filtering {
		switch k.Type {
		case tea.KeyEsc:
			m.filtering, m.query, m.cursor = false, "", 0
		case tea.KeyBackspace:
			if r := []rune(m.query); len(r) > 0 {
				m.query = string(r[:len(r)-1])
			}
			m.cursor = 0
		case tea.KeyRunes:
			m.query += string(k.Runes)
			m.cursor = 0
		case tea.KeySpace:
			m.query += " "
			m.cursor = 0
		}
		return m, nil
	}

	switch k.String() {
	case "q", "esc":
		m.quitting = true
		return m, tea.Quit
	case "/":
		m.filtering = true
	case "k":
		m.cursor = max(m.cursor-1, 0)
	case "j":
		m.cursor = min(m.cursor+1, max(len(rows)-1, 0))
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = max(len(rows)-1, 0)
	case " ":
		if len(rows) > 0 {
			item := rows[m.cursor]
			m.selected = &item
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n" + StyleTitle.Render("  "+m.title) + "\n")
	if m.filtering || m.query != "" {
		sb.WriteString("  " + StyleMeta.Render("/") + m.query + "\n")
	}
	sb.WriteString("\n")

	rows := m.visible()
	if len(rows) == 0 {
		sb.WriteString(StyleMeta.Render("    no matches") + "\n")
	}
	for i, item := range rows {
		line := "    " + StyleValue.Render(item.Label)
		if item.Detail != "" {
			line += "  " + StyleMeta.Render(item.Detail)
		}
		if i == m.cursor {
			sb.WriteString(StyleSelected.Render("  ▸ "+strings.TrimPrefix(line, "    ")) + "\n")
			continue
		}
		sb.WriteString(line + "\n")
	}

	help := "  [ ↑↓ / jk ] move  [ / ] filter  [ Enter ] select  [ q ] cancel"
	if m.filtering {
		help = "  type to filter  [ ↑↓ ] move  [ Enter ] select  [ Esc ] clear"
	}
	sb.WriteString("\n" + StyleMeta.Render(help) + "\n")
	return sb.String()
}

// PickItem shows items with the cursor on current and returns the chosen
// Value, or "" if the user cancels.
func PickItem(title string, items []PickerItem, current string) (string, error) {
	if len(items) == 0 {
		return "", fmt.Errorf("no items to pick from")
	}

	m := newPicker(title, items)
	m.cursor = PickerIndex(items, current)
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return "", fmt.Errorf("picker: %w", err)
	}

	fm := final.(pickerModel)
	if fm.quitting || fm.selected == nil {
		return "", nil
	}
	return fm.selected.Value, nil
}
