// Package notes persists the notes store under a single storage key.
package notes

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/introspection"

	"github.com/aretw0/tabnotes/pkg/core"
	"github.com/aretw0/tabnotes/pkg/typed"
)

// DefaultKey is the storage key holding the notes store.
const DefaultKey = "local:notes"

// BackupSuffix is appended to the key of a store kept aside by Backup.
const BackupSuffix = ".bak"

// Store implements core.Repository on top of a typed storage item.
type Store struct {
	backend core.Backend
	item    *typed.Item[core.Notes]
	logger  *slog.Logger

	mu          sync.Mutex
	subscribers int
	loads       int
	replaces    int
	corrupt     int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Store persisted under key in backend. An empty key means DefaultKey.
func New(backend core.Backend, key string, opts ...Option) (*Store, error) {
	if key == "" {
		key = DefaultKey
	}
	s := &Store{backend: backend, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}

	item, err := typed.NewItem(backend, key, func() core.Notes { return core.Notes{} },
		typed.WithErrorHandler(s.reportCorrupt))
	if err != nil {
		return nil, fmt.Errorf("invalid notes key: %w", err)
	}
	s.item = item
	return s, nil
}

// Key returns the storage key.
func (s *Store) Key() string {
	return s.item.Key()
}

// Load implements core.Repository.
func (s *Store) Load(ctx context.Context) (core.Notes, error) {
	notes, err := s.item.GetValue(ctx)

	s.mu.Lock()
	s.loads++
	s.mu.Unlock()

	return orEmpty(notes), err
}

// Replace implements core.Repository.
func (s *Store) Replace(ctx context.Context, notes core.Notes) error {
	if err := s.item.SetValue(ctx, orEmpty(notes)); err != nil {
		return err
	}
	s.mu.Lock()
	s.replaces++
	s.mu.Unlock()
	return nil
}

// Backup copies the stored bytes, readable or not, to the key with
// BackupSuffix and returns that key. It returns "" when nothing is stored.
func (s *Store) Backup(ctx context.Context) (string, error) {
	key := s.item.Key()
	raw, found, err := s.backend.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !found {
		return "", nil
	}
	backup := key + BackupSuffix
	if err := s.backend.Set(ctx, backup, raw); err != nil {
		return "", fmt.Errorf("failed to back up %s: %w", key, err)
	}
	return backup, nil
}

// Subscribe implements core.Repository.
func (s *Store) Subscribe(fn core.SubscribeFunc) (core.Unsubscribe, error) {
	unwatch, err := s.item.Watch(func(newValue, oldValue core.Notes) {
		fn(orEmpty(newValue), orEmpty(oldValue))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to watch %s: %w", s.item.Key(), err)
	}

	s.mu.Lock()
	s.subscribers++
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			unwatch()
			s.mu.Lock()
			s.subscribers--
			s.mu.Unlock()
		})
	}, nil
}

func (s *Store) reportCorrupt(err error) {
	s.mu.Lock()
	s.corrupt++
	s.mu.Unlock()
	s.logger.Warn("ignoring unreadable notes store change", "error", err)
}

func orEmpty(n core.Notes) core.Notes {
	if n == nil {
		return core.Notes{}
	}
	return n
}

// StoreState exposes internal state for observability.
type StoreState struct {
	Key           string `json:"key"`
	Subscribers   int    `json:"subscribers"`
	Loads         int    `json:"loads"`
	Replaces      int    `json:"replaces"`
	CorruptValues int    `json:"corrupt_values"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StoreState{
		Key:           s.item.Key(),
		Subscribers:   s.subscribers,
		Loads:         s.loads,
		Replaces:      s.replaces,
		CorruptValues: s.corrupt,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "notes-store"
}

var _ core.Repository = (*Store)(nil)
var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
