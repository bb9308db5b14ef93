package tui

import (
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
)

// markdownEditor is the textarea behind the shell's Editor contract. It lives
// behind a pointer so the shell and the bubbletea model share one widget.
type markdownEditor struct {
	area    textarea.Model
	pending tea.Cmd // cursor blink returned by the last Focus
}

func newMarkdownEditor() *markdownEditor {
	ta := textarea.New()
	ta.Placeholder = "Start writing…"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.MaxHeight = 0
	return &markdownEditor{area: ta}
}

func (e *markdownEditor) Markdown() string {
	return e.area.Value()
}

func (e *markdownEditor) SetMarkdown(markdown string) {
	e.area.SetValue(markdown)
	e.area.CursorStart()
}

func (e *markdownEditor) Focus() {
	e.pending = e.area.Focus()
}

func (e *markdownEditor) Blur() {
	e.area.Blur()
}

func (e *markdownEditor) Focused() bool {
	return e.area.Focused()
}

func (e *markdownEditor) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	e.area, cmd = e.area.Update(msg)
	return cmd
}

// takePending returns and clears the command produced by Focus.
func (e *markdownEditor) takePending() tea.Cmd {
	cmd := e.pending
	e.pending = nil
	return cmd
}
