package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// View renders the list pane, the note pane and the status line.
func (m *Model) View() string {
	if m.width == 0 {
		return "loading…"
	}

	left := pane(m.focus == paneList).
		Width(m.listWidth).
		Height(max(m.height-4, 3)).
		Render(m.list.View())

	titleBox := pane(m.focus == paneTitle).
		Width(m.bodyWidth()).
		Render(titleStyle.Render(m.title.View()))

	var body string
	if m.preview {
		body = lipgloss.NewStyle().
			Width(m.bodyWidth()).
			Height(m.bodyHeight()).
			MaxHeight(m.bodyHeight()).
			Render(m.rendered)
	} else {
		body = m.editor.area.View()
	}
	bodyBox := pane(m.focus == paneBody).Render(body)

	right := lipgloss.JoinVertical(lipgloss.Left, titleBox, bodyBox)
	main := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	return lipgloss.JoinVertical(lipgloss.Left, main, m.statusLine(), m.help.View(m.keys))
}

func (m *Model) statusLine() string {
	if err := m.shell.LastError(); err != nil {
		return errorStyle.Render("not saved: " + err.Error())
	}
	if m.status != "" {
		return statusStyle.Render(m.status)
	}
	mode := "edit"
	if m.preview {
		mode = "preview"
	}
	return statusStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top,
		pluralNotes(len(m.shell.Notes())), " · ", mode))
}

func pluralNotes(n int) string {
	if n == 1 {
		return "1 note"
	}
	return fmt.Sprintf("%d notes", n)
}
