// Package tui is the terminal front end: a note list on the left, the title
// and markdown body of the selected note on the right.
package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/aretw0/tabnotes/internal/render"
	"github.com/aretw0/tabnotes/internal/shell"
	"github.com/aretw0/tabnotes/pkg/core"
)

const (
	defaultListWidth = 32
	minListWidth     = 20
	refreshInterval  = 30 * time.Second
)

type paneID int

const (
	paneList paneID = iota
	paneTitle
	paneBody
)

// Config configures the TUI.
type Config struct {
	Logger        *slog.Logger
	Clock         core.Clock
	Preview       bool // start with the rendered preview instead of the editor
	ListWidth     int
	PreviewLength int
	GlamourStyle  string
	Keys          *KeyMap
}

// Model is the bubbletea model of the notes TUI.
type Model struct {
	ctx    context.Context
	shell  *shell.Shell
	editor *markdownEditor
	title  textinput.Model
	list   list.Model
	help   help.Model
	keys   KeyMap
	logger *slog.Logger
	clock  core.Clock

	focus         paneID
	preview       bool
	rendered      string
	renderer      *glamour.TermRenderer
	glamourStyle  string
	listWidth     int
	previewLength int
	width         int
	height        int

	shownID  core.NoteID // note whose title and body are loaded in the widgets
	hasShown bool
	status   string
}

// New creates the TUI model over repo. The shell is mounted by Init.
func New(ctx context.Context, repo core.Repository, cfg Config) *Model {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Clock == nil {
		cfg.Clock = core.SystemClock
	}
	if cfg.ListWidth < minListWidth {
		cfg.ListWidth = defaultListWidth
	}
	if cfg.PreviewLength <= 0 {
		cfg.PreviewLength = render.DefaultPreviewLength
	}
	if cfg.GlamourStyle == "" {
		cfg.GlamourStyle = "dark"
	}
	keys := DefaultKeyMap
	if cfg.Keys != nil {
		keys = *cfg.Keys
	}

	editor := newMarkdownEditor()
	sh := shell.New(repo, editor, shell.WithClock(cfg.Clock), shell.WithLogger(cfg.Logger))

	ti := textinput.New()
	ti.Placeholder = render.UntitledLabel
	ti.Prompt = ""
	ti.CharLimit = 200

	delegate := list.NewDefaultDelegate()
	l := list.New(nil, delegate, cfg.ListWidth, 0)
	l.Title = "Notes"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	return &Model{
		ctx:           ctx,
		shell:         sh,
		editor:        editor,
		title:         ti,
		list:          l,
		help:          help.New(),
		keys:          keys,
		logger:        cfg.Logger,
		clock:         cfg.Clock,
		focus:         paneBody,
		preview:       cfg.Preview,
		glamourStyle:  cfg.GlamourStyle,
		listWidth:     cfg.ListWidth,
		previewLength: cfg.PreviewLength,
	}
}

// Shell exposes the application shell driven by the model.
func (m *Model) Shell() *shell.Shell {
	return m.shell
}

type storeChangedMsg shell.StoreChange

type refreshMsg time.Time

// Init mounts the shell and starts listening for store changes.
func (m *Model) Init() tea.Cmd {
	if err := m.shell.Mount(m.ctx); err != nil {
		m.logger.Error("mount failed", "error", err)
	}
	m.sync()
	m.applyFocus()
	return tea.Batch(
		waitForChange(m.shell),
		refreshTick(),
		m.editor.takePending(),
	)
}

// waitForChange blocks until the shell has a store change to apply.
func waitForChange(s *shell.Shell) tea.Cmd {
	return func() tea.Msg {
		select {
		case c := <-s.Changes():
			return storeChangedMsg(c)
		case <-s.Done():
			return nil
		}
	}
}

func refreshTick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

// sync brings the widgets in line with the shell after any shell operation.
// Title and body are only reloaded when the selected note changed.
func (m *Model) sync() {
	items := noteItems(m.shell.Notes(), m.clock.Now(), m.previewLength)
	m.list.SetItems(items)

	id, ok := m.shell.Selected()
	if !ok {
		return
	}
	// While the list has focus the cursor belongs to the user until the
	// selection itself changes.
	moved := !m.hasShown || id != m.shownID
	if idx := indexOf(items, id); idx >= 0 && (moved || m.focus != paneList) {
		m.list.Select(idx)
	}
	if moved {
		note, _ := m.shell.Current()
		m.title.SetValue(note.Title)
		m.title.CursorEnd()
		m.shownID = id
		m.hasShown = true
	}
	if m.preview {
		m.renderPreview()
	}
}

func (m *Model) renderPreview() {
	if m.renderer == nil {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(m.glamourStyle),
			glamour.WithWordWrap(max(m.bodyWidth()-2, 20)),
		)
		if err != nil {
			m.logger.Warn("preview renderer unavailable", "error", err)
			m.rendered = m.editor.Markdown()
			return
		}
		m.renderer = r
	}
	out, err := m.renderer.Render(m.editor.Markdown())
	if err != nil {
		m.rendered = m.editor.Markdown()
		return
	}
	m.rendered = out
}

func (m *Model) applyFocus() {
	m.title.Blur()
	m.editor.Blur()
	switch m.focus {
	case paneTitle:
		m.title.Focus()
	case paneBody:
		if !m.preview {
			m.editor.Focus()
		}
	}
}

func (m *Model) bodyWidth() int {
	w := m.width - m.listWidth - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m *Model) bodyHeight() int {
	// title pane (3) + status line (1) + help line (1) + body borders (2)
	h := m.height - 7
	if h < 3 {
		h = 3
	}
	return h
}

func (m *Model) layout() {
	m.list.SetSize(m.listWidth, max(m.height-4, 3))
	m.title.Width = m.bodyWidth() - 2
	m.editor.area.SetWidth(m.bodyWidth())
	m.editor.area.SetHeight(m.bodyHeight())
	m.help.Width = m.width
	m.renderer = nil
}
