// Package lifecycle exposes notes store changes as a lifecycle event source.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/tabnotes/pkg/core"
)

// pendingBuffer bounds the events queued between the store watcher and the consumer.
const pendingBuffer = 64

type notesSource struct {
	repo    core.Repository
	pending chan core.Event
	out     chan lifecycle.Event
	onDrop  func(core.Event)
}

// NewSource creates a lifecycle.Source that emits one core.Event per note
// created or modified in repo, whoever wrote it. onDrop, when not nil, is
// called for events discarded because the consumer fell behind.
func NewSource(repo core.Repository, onDrop func(core.Event)) lifecycle.Source {
	return &notesSource{
		repo:    repo,
		pending: make(chan core.Event, pendingBuffer),
		out:     make(chan lifecycle.Event),
		onDrop:  onDrop,
	}
}

func (s *notesSource) Events() <-chan lifecycle.Event {
	return s.out
}

// Start subscribes to the store. Events flow until ctx is cancelled, then
// the subscription ends and Events is closed.
func (s *notesSource) Start(ctx context.Context) error {
	unsubscribe, err := s.repo.Subscribe(func(newStore, oldStore core.Notes) {
		for _, e := range core.Diff(oldStore, newStore) {
			select {
			case s.pending <- e:
			default:
				if s.onDrop != nil {
					s.onDrop(e)
				}
			}
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to notes: %w", err)
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return nil
			case e := <-s.pending:
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
