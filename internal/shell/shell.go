// Package shell holds the application state machine: which note is selected,
// the in-memory mirror of the notes store, and the mediation between the
// editor widget and the notes service.
//
// A Shell is owned by a single goroutine (the UI loop). Store changes observed
// by the storage layer are handed over through Changes and applied with
// ApplyExternal on that goroutine.
package shell

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/tabnotes/pkg/core"
)

// Editor is the markdown editing widget the shell drives.
type Editor interface {
	Markdown() string
	SetMarkdown(markdown string)
	Focus()
}

// Phase is the selection state of the shell.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseEmpty
	PhaseSelected
)

func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhaseSelected:
		return "selected"
	default:
		return "uninitialized"
	}
}

// StoreChange is a persisted store change waiting to be applied.
type StoreChange struct {
	New core.Notes
	Old core.Notes
}

// Shell mediates between the editor, the in-memory mirror and the repository.
type Shell struct {
	svc    *core.Service
	repo   core.Repository
	editor Editor
	logger *slog.Logger

	notes    core.Notes
	phase    Phase
	selected core.NoteID
	lastErr  error

	mailMu  sync.Mutex
	writing core.Notes // store being written by this shell, nil when idle
	mailbox chan StoreChange

	unsubscribe core.Unsubscribe
	done        chan struct{}
	closeOnce   sync.Once
}

// Option configures a Shell.
type Option func(*options)

type options struct {
	clock  core.Clock
	logger *slog.Logger
}

// WithClock sets the clock used for note ids and modification times.
func WithClock(c core.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithLogger sets the shell logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates an unmounted Shell.
func New(repo core.Repository, editor Editor, opts ...Option) *Shell {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Shell{
		repo:    repo,
		editor:  editor,
		logger:  o.logger,
		notes:   core.Notes{},
		mailbox: make(chan StoreChange, 1),
		done:    make(chan struct{}),
	}
	s.svc = core.NewService(&echoFilter{Repository: repo, shell: s},
		core.WithClock(o.clock), core.WithServiceLogger(o.logger))
	return s
}

// Mount loads the store, subscribes to its changes and selects a note. An
// empty store gets one synthesized note. A store that fails to load is treated
// as empty; when the repository supports it the old bytes are backed up first,
// since the synthesized note overwrites them.
func (s *Shell) Mount(ctx context.Context) error {
	if s.phase != PhaseUninitialized {
		return nil
	}

	loaded, err := s.repo.Load(ctx)
	if err != nil {
		s.logger.Warn("failed to load notes, starting empty", "error", err)
		s.keepUnreadable(ctx)
		loaded = core.Notes{}
	}
	s.notes = loaded
	s.phase = PhaseEmpty

	unsubscribe, err := s.repo.Subscribe(s.receive)
	if err != nil {
		s.logger.Warn("failed to subscribe to notes changes", "error", err)
	} else {
		s.unsubscribe = unsubscribe
	}

	if first, ok := s.notes.First(); ok {
		return s.Select(first)
	}
	_, err = s.NewNote(ctx)
	return err
}

// backuper is implemented by repositories that can keep a copy of the stored
// bytes aside.
type backuper interface {
	Backup(ctx context.Context) (string, error)
}

func (s *Shell) keepUnreadable(ctx context.Context) {
	b, ok := s.repo.(backuper)
	if !ok {
		s.logger.Warn("unreadable notes store will be overwritten")
		return
	}
	key, err := b.Backup(ctx)
	switch {
	case err != nil:
		s.logger.Warn("unreadable notes store will be overwritten", "error", err)
	case key != "":
		s.logger.Warn("unreadable notes store backed up", "backup", key)
	}
}

// Select makes id the current note and loads its markdown into the editor.
// Nothing is written.
func (s *Shell) Select(id core.NoteID) error {
	note, ok := s.notes[id]
	if !ok {
		return fmt.Errorf("%w: %d", core.ErrNoteNotFound, id)
	}
	s.phase = PhaseSelected
	s.selected = id
	s.editor.SetMarkdown(note.Markdown)
	return nil
}

// NewNote creates an empty note, selects it and focuses the editor. The note
// stays selected even if the write fails.
func (s *Shell) NewNote(ctx context.Context) (core.NoteID, error) {
	id, next, err := s.svc.NewNote(ctx, s.notes)
	s.notes = next
	s.record(err)

	if selErr := s.Select(id); selErr != nil {
		return id, selErr
	}
	s.editor.Focus()
	return id, err
}

// EditTitle sets the title of the selected note.
func (s *Shell) EditTitle(ctx context.Context, title string) error {
	note, ok := s.Current()
	if !ok || note.Title == title {
		return nil
	}
	return s.edit(ctx, core.TitlePatch(title))
}

// EditMarkdown sets the markdown of the selected note.
func (s *Shell) EditMarkdown(ctx context.Context, markdown string) error {
	note, ok := s.Current()
	if !ok || note.Markdown == markdown {
		return nil
	}
	return s.edit(ctx, core.MarkdownPatch(markdown))
}

// EditorChanged is the editor change event: it saves the editor content into
// the selected note.
func (s *Shell) EditorChanged(ctx context.Context) error {
	return s.EditMarkdown(ctx, s.editor.Markdown())
}

func (s *Shell) edit(ctx context.Context, patch core.Patch) error {
	next, err := s.svc.Edit(ctx, s.notes, s.selected, patch)
	s.notes = next
	s.record(err)
	return err
}

// Changes delivers the latest persisted store change not yet applied. Older
// pending changes are dropped in favour of newer ones.
func (s *Shell) Changes() <-chan StoreChange {
	return s.mailbox
}

// Done is closed by Unmount.
func (s *Shell) Done() <-chan struct{} {
	return s.done
}

// ApplyExternal replaces the mirror with the changed store. The editor keeps
// its content unless the selected note no longer exists, in which case the
// first note is selected, or a new one is created when the store is empty.
func (s *Shell) ApplyExternal(ctx context.Context, change StoreChange) error {
	if s.phase == PhaseUninitialized {
		return nil
	}
	s.notes = change.New
	if s.notes == nil {
		s.notes = core.Notes{}
	}

	if s.phase == PhaseSelected && s.notes.Has(s.selected) {
		return nil
	}
	if first, ok := s.notes.First(); ok {
		s.logger.Info("selected note disappeared, selecting first", "id", int64(s.selected))
		return s.Select(first)
	}
	s.phase = PhaseEmpty
	_, err := s.NewNote(ctx)
	return err
}

// Unmount stops observing the store. It is safe to call more than once.
func (s *Shell) Unmount() {
	s.closeOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		close(s.done)
	})
}

// Notes returns the in-memory mirror of the store.
func (s *Shell) Notes() core.Notes {
	return s.notes
}

// Phase returns the selection state.
func (s *Shell) Phase() Phase {
	return s.phase
}

// Selected returns the selected note id.
func (s *Shell) Selected() (core.NoteID, bool) {
	return s.selected, s.phase == PhaseSelected
}

// Current returns the selected note.
func (s *Shell) Current() (core.Note, bool) {
	if s.phase != PhaseSelected {
		return core.Note{}, false
	}
	note, ok := s.notes[s.selected]
	return note, ok
}

// LastError returns the error of the most recent write, nil once a write succeeds.
func (s *Shell) LastError() error {
	return s.lastErr
}

// Service exposes the notes service, mostly for introspection.
func (s *Shell) Service() *core.Service {
	return s.svc
}

func (s *Shell) record(err error) {
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Error("failed to save notes", "error", err)
		}
		s.lastErr = err
		return
	}
	s.lastErr = nil
}

// receive runs on whichever goroutine the storage layer notifies from.
func (s *Shell) receive(newStore, oldStore core.Notes) {
	s.mailMu.Lock()
	defer s.mailMu.Unlock()

	if s.writing != nil && newStore.Equal(s.writing) {
		return
	}
	select {
	case <-s.mailbox:
	default:
	}
	s.mailbox <- StoreChange{New: newStore, Old: oldStore}
}

// echoFilter marks the store this shell is writing so that the notification
// of its own write is not queued as an external change.
type echoFilter struct {
	core.Repository
	shell *Shell
}

func (f *echoFilter) Replace(ctx context.Context, notes core.Notes) error {
	f.shell.mailMu.Lock()
	f.shell.writing = notes
	f.shell.mailMu.Unlock()

	err := f.Repository.Replace(ctx, notes)

	f.shell.mailMu.Lock()
	f.shell.writing = nil
	f.shell.mailMu.Unlock()
	return err
}
