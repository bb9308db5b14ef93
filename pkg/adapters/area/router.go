// Package area routes storage keys to a backend by their area prefix.
package area

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/introspection"

	"github.com/aretw0/tabnotes/pkg/core"
)

// Router implements core.Backend by dispatching each key to the backend
// registered for its area.
type Router struct {
	backends map[core.Area]core.Backend
}

// New creates a Router. Areas without a backend reject their keys with
// core.ErrUnsupportedArea.
func New(backends map[core.Area]core.Backend) *Router {
	m := make(map[core.Area]core.Backend, len(backends))
	for a, b := range backends {
		if b != nil {
			m[a] = b
		}
	}
	return &Router{backends: m}
}

func (r *Router) route(key string) (core.Backend, error) {
	a, _, err := core.ParseKey(key)
	if err != nil {
		return nil, err
	}
	b, ok := r.backends[a]
	if !ok {
		return nil, fmt.Errorf("%w: no backend for %q", core.ErrUnsupportedArea, a)
	}
	return b, nil
}

// Get implements core.Backend.
func (r *Router) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.route(key)
	if err != nil {
		return nil, false, err
	}
	return b.Get(ctx, key)
}

// Set implements core.Backend.
func (r *Router) Set(ctx context.Context, key string, value []byte) error {
	b, err := r.route(key)
	if err != nil {
		return err
	}
	return b.Set(ctx, key, value)
}

// Watch implements core.Backend.
func (r *Router) Watch(key string, fn core.WatchFunc) (core.Unwatch, error) {
	b, err := r.route(key)
	if err != nil {
		return nil, err
	}
	return b.Watch(key, fn)
}

// Backend returns the backend serving a, if any.
func (r *Router) Backend(a core.Area) (core.Backend, bool) {
	b, ok := r.backends[a]
	return b, ok
}

// Close closes every routed backend once, joining their errors.
func (r *Router) Close() error {
	seen := make(map[core.Backend]bool)
	var errs []error
	for _, a := range []core.Area{core.AreaLocal, core.AreaSession} {
		b, ok := r.backends[a]
		if !ok || seen[b] {
			continue
		}
		seen[b] = true
		if err := b.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s backend: %w", a, err))
		}
	}
	return errors.Join(errs...)
}

// RouterState exposes the state of every routed backend.
type RouterState struct {
	Areas map[string]any `json:"areas"`
}

// State implements introspection.Introspectable.
func (r *Router) State() any {
	areas := make(map[string]any, len(r.backends))
	for a, b := range r.backends {
		entry := map[string]any{"type": "backend"}
		if c, ok := b.(introspection.Component); ok {
			entry["type"] = c.ComponentType()
		}
		if i, ok := b.(introspection.Introspectable); ok {
			entry["state"] = i.State()
		}
		areas[string(a)] = entry
	}
	return RouterState{Areas: areas}
}

// ComponentType implements introspection.Component.
func (r *Router) ComponentType() string {
	return "area-router"
}

var _ core.Backend = (*Router)(nil)
var _ introspection.Introspectable = (*Router)(nil)
var _ introspection.Component = (*Router)(nil)
