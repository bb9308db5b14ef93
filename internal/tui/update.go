package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aretw0/tabnotes/internal/shell"
)

// Update handles messages and updates the model accordingly.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		if m.preview {
			m.renderPreview()
		}
		return m, nil

	case storeChangedMsg:
		if err := m.shell.ApplyExternal(m.ctx, shell.StoreChange(msg)); err != nil {
			m.logger.Warn("failed to apply store change", "error", err)
		}
		m.sync()
		return m, tea.Batch(waitForChange(m.shell), m.editor.takePending())

	case refreshMsg:
		m.sync()
		return m, refreshTick()

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}

	// Blink and other widget messages.
	return m, m.updateFocused(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.shell.Unmount()
		return tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return nil

	case key.Matches(msg, m.keys.NewNote):
		if _, err := m.shell.NewNote(m.ctx); err != nil {
			m.status = "new note not saved"
		}
		m.sync()
		m.focus = paneBody
		m.applyFocus()
		return m.editor.takePending()

	case key.Matches(msg, m.keys.NextPane):
		m.focus = (m.focus + 1) % 3
		m.applyFocus()
		return m.editor.takePending()

	case key.Matches(msg, m.keys.PrevPane):
		m.focus = (m.focus + 2) % 3
		m.applyFocus()
		return m.editor.takePending()

	case key.Matches(msg, m.keys.TogglePreview):
		m.preview = !m.preview
		if m.preview {
			m.renderPreview()
		}
		m.applyFocus()
		return m.editor.takePending()
	}

	switch m.focus {
	case paneList:
		if key.Matches(msg, m.keys.Open) {
			return m.openSelected()
		}
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return cmd

	case paneTitle:
		if key.Matches(msg, m.keys.Open) {
			m.focus = paneBody
			m.applyFocus()
			return m.editor.takePending()
		}
		var cmd tea.Cmd
		m.title, cmd = m.title.Update(msg)
		m.save(m.shell.EditTitle(m.ctx, m.title.Value()))
		return cmd

	case paneBody:
		if m.preview {
			return nil
		}
		cmd := m.editor.update(msg)
		m.save(m.shell.EditorChanged(m.ctx))
		return cmd
	}
	return nil
}

func (m *Model) updateFocused(msg tea.Msg) tea.Cmd {
	switch m.focus {
	case paneTitle:
		var cmd tea.Cmd
		m.title, cmd = m.title.Update(msg)
		return cmd
	case paneBody:
		return m.editor.update(msg)
	}
	return nil
}

// openSelected selects the note under the list cursor.
func (m *Model) openSelected() tea.Cmd {
	item, ok := m.list.SelectedItem().(noteItem)
	if !ok {
		return nil
	}
	if err := m.shell.Select(item.card.ID); err != nil {
		m.logger.Warn("select failed", "id", int64(item.card.ID), "error", err)
		return nil
	}
	m.sync()
	m.focus = paneBody
	m.applyFocus()
	return m.editor.takePending()
}

// save refreshes the list after an edit. Write errors stay in the shell and
// show up in the status line.
func (m *Model) save(err error) {
	if err == nil {
		m.status = ""
	}
	m.sync()
}
