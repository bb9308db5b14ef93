package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Service applies note creation and edits to a store and writes the result
// through the repository.
//
// Every write is a read-modify-write over the whole collection: the caller
// passes the store it last observed, the service derives the next store from it
// and replaces the persisted value. Two writers working from stale snapshots
// can overwrite each other's sibling notes; last writer wins.
type Service struct {
	repo   Repository
	clock  Clock
	logger *slog.Logger

	mu        sync.RWMutex
	lastID    NoteID
	writes    int
	failures  int
	lastWrite *time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock sets the clock used for note ids and modification times.
func WithClock(c Clock) ServiceOption {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithServiceLogger sets the service logger.
func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a new Service.
func NewService(repo Repository, opts ...ServiceOption) *Service {
	s := &Service{
		repo:   repo,
		clock:  SystemClock,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the persisted store.
func (s *Service) Load(ctx context.Context) (Notes, error) {
	return s.repo.Load(ctx)
}

// Subscribe observes changes of the persisted store.
func (s *Service) Subscribe(fn SubscribeFunc) (Unsubscribe, error) {
	return s.repo.Subscribe(fn)
}

// NewNote adds an empty note to current and writes the whole store.
//
// The id is the current time in milliseconds, moved forward one millisecond at a
// time until it is unused in current and greater than any id this service
// issued before, so rapid creation never collides.
//
// The returned store contains the new note even when the write fails.
func (s *Service) NewNote(ctx context.Context, current Notes) (NoteID, Notes, error) {
	now := s.clock.Now()

	s.mu.Lock()
	id := NoteID(now.UnixMilli())
	if id <= s.lastID {
		id = s.lastID + 1
	}
	for current.Has(id) {
		id++
	}
	s.lastID = id
	s.mu.Unlock()

	next := current.With(id, Note{TimeLastModified: now.UnixMilli()})
	if err := s.write(ctx, next); err != nil {
		return id, next, fmt.Errorf("failed to create note %d: %w", id, err)
	}

	s.logger.Debug("note created", "id", int64(id))
	return id, next, nil
}

// Edit overlays patch on note id of current, refreshes its modification time
// and writes the whole store.
//
// The modification time never moves backwards for a given note, even if the
// clock does. The returned store reflects the edit even when the write fails.
func (s *Service) Edit(ctx context.Context, current Notes, id NoteID, patch Patch) (Notes, error) {
	note, ok := current[id]
	if !ok {
		return current, fmt.Errorf("%w: %d", ErrNoteNotFound, id)
	}
	if patch.Empty() {
		return current, nil
	}

	updated := patch.Apply(note)
	updated.TimeLastModified = max(s.clock.Now().UnixMilli(), note.TimeLastModified)

	next := current.With(id, updated)
	if err := s.write(ctx, next); err != nil {
		return next, fmt.Errorf("failed to save note %d: %w", id, err)
	}
	return next, nil
}

func (s *Service) write(ctx context.Context, next Notes) error {
	err := s.repo.Replace(ctx, next)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.failures++
		return err
	}
	s.writes++
	now := s.clock.Now()
	s.lastWrite = &now
	return nil
}
