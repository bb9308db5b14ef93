package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// BackendState exposes internal state for observability.
type BackendState struct {
	Path            string     `json:"path"`
	Pattern         string     `json:"pattern"`
	Debounce        string     `json:"debounce"`
	Keys            []string   `json:"watched_keys,omitempty"`
	Watchers        int        `json:"watchers"`
	WatcherActive   bool       `json:"watcher_active"`
	Writes          int        `json:"writes"`
	ExternalChanges int        `json:"external_changes"`
	LastExternal    *time.Time `json:"last_external,omitempty"`
	Closed          bool       `json:"closed"`
}

// State implements introspection.Introspectable.
func (b *Backend) State() any {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return BackendState{
		Path:            b.Path,
		Pattern:         b.config.Pattern,
		Debounce:        b.config.Debounce.String(),
		Keys:            b.hub.Keys(),
		Watchers:        b.hub.Watchers(),
		WatcherActive:   b.watcherActive,
		Writes:          b.writes,
		ExternalChanges: b.externalSeen,
		LastExternal:    b.lastExternal,
		Closed:          b.closed,
	}
}

// ComponentType implements introspection.Component.
func (b *Backend) ComponentType() string {
	return "fs-backend"
}

var _ introspection.Introspectable = (*Backend)(nil)
var _ introspection.Component = (*Backend)(nil)

func (b *Backend) setWatcherActive(active bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.watcherActive = active
}
