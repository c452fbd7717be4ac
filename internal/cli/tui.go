package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// OutlineListModel - Interactive outline selection
// =============================================================================

// OutlineItem is one selectable outline.
type OutlineItem struct {
	Name string
	Deps []string
}

// OutlineListModel is the bubbletea model for picking outlines to build.
type OutlineListModel struct {
	Items  []OutlineItem
	Cursor int
	Height int
	Offset int

	picked map[int]bool
	// Done is set when the user confirmed; Selected then holds the picks in
	// declaration order.
	Done     bool
	Selected []string
}

// NewOutlineListModel creates a picker over items.
func NewOutlineListModel(items []OutlineItem) OutlineListModel {
	return OutlineListModel{Items: items, Height: 15, picked: map[int]bool{}}
}

func (m OutlineListModel) Init() tea.Cmd {
	return nil
}

func (m OutlineListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Items)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case " ", "x":
			m.picked = toggled(m.picked, m.Cursor)
		case "a":
			all := len(m.picked) == len(m.Items)
			m.picked = map[int]bool{}
			if !all {
				for i := range m.Items {
					m.picked[i] = true
				}
			}
		case "enter":
			if len(m.Items) == 0 {
				return m, tea.Quit
			}
			if len(m.picked) == 0 {
				m.picked = map[int]bool{m.Cursor: true}
			}
			m.Done = true
			m.Selected = nil
			for i, it := range m.Items {
				if m.picked[i] {
					m.Selected = append(m.Selected, it.Name)
				}
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

// toggled returns a copy of picked with i flipped, so earlier model values
// are left untouched.
func toggled(picked map[int]bool, i int) map[int]bool {
	out := make(map[int]bool, len(picked)+1)
	for k := range picked {
		out[k] = true
	}
	if out[i] {
		delete(out, i)
	} else {
		out[i] = true
	}
	return out
}

func (m OutlineListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Outlines"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  a all  ⏎ build  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Items))

	var rows [][]string
	for i := m.Offset; i < end; i++ {
		it := m.Items[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		check := "[ ]"
		if m.picked[i] {
			check = "[x]"
		}
		deps := "-"
		if len(it.Deps) > 0 {
			deps = strings.Join(it.Deps, ", ")
		}
		rows = append(rows, []string{cursor, check, it.Name, deps})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "", "Outline", "Uses").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			idx := m.Offset + row
			base := lipgloss.NewStyle()
			if col == 3 {
				base = base.Foreground(colorDim)
			}
			switch {
			case idx == m.Cursor:
				return base.Foreground(colorCyan).Bold(true)
			case m.picked[idx]:
				return base.Foreground(colorGreen)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d] %d selected", m.Cursor+1, len(m.Items), len(m.picked))))

	return b.String()
}

// pickOutlines runs the picker and returns the chosen names, or nil when
// the user quit.
func pickOutlines(items []OutlineItem) ([]string, error) {
	final, err := tea.NewProgram(NewOutlineListModel(items)).Run()
	if err != nil {
		return nil, fmt.Errorf("outline picker: %w", err)
	}
	m := final.(OutlineListModel)
	if !m.Done {
		return nil, nil
	}
	return m.Selected, nil
}
