package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/tabnotes/pkg/core"
)

// options holds the internal configuration for opening a notes store.
type options struct {
	backend  core.Backend
	logger   *slog.Logger
	adapter  string
	clock    core.Clock
	storeKey string
	config   map[string]any
}

// Option defines a functional option for configuring the store.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		adapter: AdapterFS,
		config:  make(map[string]any),
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithBackend injects a persistent backend (e.g. a shared memory backend in
// tests). The adapter name is ignored when a backend is injected.
func WithBackend(b core.Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithAdapter selects the persistent backend by name: "fs", "sqlite" or "memory".
// Defaults to "fs".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithStoreKey sets the storage key of the notes store. Defaults to "local:notes".
func WithStoreKey(key string) Option {
	return func(o *options) {
		o.storeKey = key
	}
}

// WithClock sets the clock used for note ids and modification times.
func WithClock(c core.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithForceTemp forces the store into a temporary directory.
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.config["temp_dir"] = force
	}
}

// WithMustExist requires the store directory to exist already.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.config["must_exist"] = must
	}
}

// WithEventBuffer sets how long filesystem events are coalesced before the
// store is re-read. Zero means the backend default.
func WithEventBuffer(window time.Duration) Option {
	return func(o *options) {
		o.config["debounce"] = window
	}
}

// WithPollInterval sets how often the sqlite backend checks for writes from
// other connections.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		o.config["poll_interval"] = d
	}
}

// WithWatchPattern restricts which files under the store directory the
// filesystem watcher reacts to (doublestar syntax).
func WithWatchPattern(pattern string) Option {
	return func(o *options) {
		o.config["pattern"] = pattern
	}
}

// WithWatcherErrorHandler registers a callback for errors raised by background
// watchers (fsnotify worker, sqlite poller). They are only logged otherwise.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.config["watcher_error_handler"] = fn
	}
}

// WithDevSafety controls the sandbox used when running via `go run` or `go test`.
// By default (true) the store is re-rooted under the system temp directory so
// development runs never touch real notes.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.config["dev_safety"] = enabled
	}
}
