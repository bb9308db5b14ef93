// Package memory is an in-process storage backend. It serves the session area
// and stands in for persistent backends in tests.
package memory

import (
	"bytes"
	"context"
	"sync"

	"github.com/aretw0/introspection"

	"github.com/aretw0/tabnotes/internal/broker"
	"github.com/aretw0/tabnotes/pkg/core"
)

// Backend keeps values in a map. It is safe for concurrent use.
type Backend struct {
	// writeMu orders a store update with its publish.
	writeMu sync.Mutex

	mu     sync.RWMutex
	values map[string][]byte
	closed bool
	hub    *broker.Hub
}

// New creates an empty Backend.
func New() *Backend {
	return &Backend{
		values: make(map[string][]byte),
		hub:    broker.New(),
	}
}

// Get implements core.Backend.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if _, _, err := core.ParseKey(key); err != nil {
		return nil, false, err
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, false, core.ErrClosed
	}
	v, ok := b.values[key]
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(v), true, nil
}

// Set implements core.Backend.
func (b *Backend) Set(ctx context.Context, key string, value []byte) error {
	if _, _, err := core.ParseKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return core.ErrClosed
	}
	b.values[key] = bytes.Clone(value)
	b.mu.Unlock()

	b.hub.Publish(key, value)
	return nil
}

// Watch implements core.Backend.
func (b *Backend) Watch(key string, fn core.WatchFunc) (core.Unwatch, error) {
	if _, _, err := core.ParseKey(key); err != nil {
		return nil, err
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return nil, core.ErrClosed
	}
	current, ok := b.values[key]
	b.mu.RUnlock()

	if ok {
		b.hub.Seed(key, current)
	} else {
		b.hub.Seed(key, nil)
	}
	return b.hub.Subscribe(key, fn), nil
}

// Close implements core.Backend.
func (b *Backend) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.hub.Close()
	return nil
}

// BackendState exposes internal state for observability.
type BackendState struct {
	Keys     int  `json:"keys"`
	Watchers int  `json:"watchers"`
	Closed   bool `json:"closed"`
}

// State implements introspection.Introspectable.
func (b *Backend) State() any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return BackendState{
		Keys:     len(b.values),
		Watchers: b.hub.Watchers(),
		Closed:   b.closed,
	}
}

// ComponentType implements introspection.Component.
func (b *Backend) ComponentType() string {
	return "memory-backend"
}

var _ core.Backend = (*Backend)(nil)
var _ introspection.Introspectable = (*Backend)(nil)
var _ introspection.Component = (*Backend)(nil)
