// Package broker fans storage changes out to watchers. Every backend uses one
// Hub, which remembers the last value observed per key so a change is only
// announced when the bytes really differ, whoever wrote them.
package broker

import (
	"bytes"
	"slices"
	"sync"

	"github.com/aretw0/tabnotes/pkg/core"
)

// Hub tracks the last observed value per key and notifies watchers on change.
//
// Notifications are delivered synchronously, in publish order, one publish at a
// time. A WatchFunc must not write to the backend that owns the hub from the
// same goroutine.
type Hub struct {
	deliver sync.Mutex

	mu     sync.Mutex
	last   map[string][]byte
	subs   map[string]map[uint64]core.WatchFunc
	nextID uint64
	closed bool
}

// New creates an empty Hub.
func New() *Hub {
	return &Hub{
		last: make(map[string][]byte),
		subs: make(map[string]map[uint64]core.WatchFunc),
	}
}

// Seed records value as the last known value of key, unless one is known already.
// A nil value means the key has no value.
func (h *Hub) Seed(key string, value []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.last[key]; ok {
		return
	}
	h.last[key] = clone(value)
}

// Last returns the last observed value of key.
func (h *Hub) Last(key string) ([]byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.last[key]
	return clone(v), ok
}

// Publish records value as the latest value of key and notifies the key's
// watchers when it differs from the previous one. It reports whether the value
// changed.
func (h *Hub) Publish(key string, value []byte) bool {
	h.deliver.Lock()
	defer h.deliver.Unlock()

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	old, known := h.last[key]
	if known && bytes.Equal(old, value) && (old == nil) == (value == nil) {
		h.mu.Unlock()
		return false
	}
	h.last[key] = clone(value)
	fns := h.watchersLocked(key)
	h.mu.Unlock()

	change := core.Change{Key: key, NewValue: clone(value), OldValue: clone(old)}
	for _, fn := range fns {
		fn(change)
	}
	return true
}

// Subscribe registers fn for changes of key. The returned Unwatch is idempotent.
func (h *Hub) Subscribe(key string, fn core.WatchFunc) core.Unwatch {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return func() {}
	}

	h.nextID++
	id := h.nextID
	if h.subs[key] == nil {
		h.subs[key] = make(map[uint64]core.WatchFunc)
	}
	h.subs[key][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if m, ok := h.subs[key]; ok {
				delete(m, id)
				if len(m) == 0 {
					delete(h.subs, key)
				}
			}
		})
	}
}

// Keys returns the keys that currently have watchers, sorted.
func (h *Hub) Keys() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	keys := make([]string, 0, len(h.subs))
	for k := range h.subs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Watchers returns the number of registered watchers across all keys.
func (h *Hub) Watchers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, m := range h.subs {
		n += len(m)
	}
	return n
}

// Close drops every watcher. Later publishes are ignored.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.subs = make(map[string]map[uint64]core.WatchFunc)
}

func (h *Hub) watchersLocked(key string) []core.WatchFunc {
	m := h.subs[key]
	ids := make([]uint64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]core.WatchFunc, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, m[id])
	}
	return fns
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return bytes.Clone(b)
}
