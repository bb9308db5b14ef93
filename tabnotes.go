package tabnotes

import (
	"log/slog"
	"time"

	"github.com/aretw0/introspection"

	"github.com/aretw0/tabnotes/internal/platform"
	"github.com/aretw0/tabnotes/pkg/adapters/area"
	"github.com/aretw0/tabnotes/pkg/core"
	"github.com/aretw0/tabnotes/pkg/notes"
)

// --- Configuration ---

// Option configures how a store is opened.
type Option = platform.Option

// Config is the store configuration file (.tabnotes/tabnotes.yaml).
type Config = platform.Config

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithAdapter selects the persistent backend: "fs" (default), "sqlite" or "memory".
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithBackend injects a persistent backend.
func WithBackend(b core.Backend) Option {
	return platform.WithBackend(b)
}

// WithStoreKey sets the storage key of the notes store.
func WithStoreKey(key string) Option {
	return platform.WithStoreKey(key)
}

// WithClock sets the clock used for note ids and modification times.
func WithClock(c core.Clock) Option {
	return platform.WithClock(c)
}

// WithForceTemp forces the store into a temporary directory.
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithMustExist refuses to create a store that does not exist yet.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithDevSafety controls the temp-dir sandbox used under `go run` and `go test`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithEventBuffer sets the window filesystem events are coalesced in.
func WithEventBuffer(window time.Duration) Option {
	return platform.WithEventBuffer(window)
}

// WithWatchPattern restricts the files the filesystem watcher reacts to.
func WithWatchPattern(pattern string) Option {
	return platform.WithWatchPattern(pattern)
}

// WithWatcherErrorHandler receives errors raised by background watchers.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// LoadConfig reads the config file of the store rooted at root.
func LoadConfig(root string) (Config, error) {
	return platform.LoadConfig(root)
}

// --- Factory ---

// App is an opened notes store.
type App struct {
	stack *platform.Stack
}

// Open opens (creating if needed) the store rooted at path.
func Open(path string, opts ...Option) (*App, error) {
	stack, err := platform.New(path, opts...)
	if err != nil {
		return nil, err
	}
	return &App{stack: stack}, nil
}

// Root is the directory the store actually lives in, after dev sandboxing.
func (a *App) Root() string { return a.stack.Root }

// Store is the repository over the notes key.
func (a *App) Store() *notes.Store { return a.stack.Store }

// Service creates and edits notes.
func (a *App) Service() *core.Service { return a.stack.Service }

// Backend is the key-value storage the store is persisted through.
func (a *App) Backend() *area.Router { return a.stack.Backend }

// Logger is the logger the app was opened with.
func (a *App) Logger() *slog.Logger { return a.stack.Logger }

// Close stops watchers and releases the backends.
func (a *App) Close() error {
	return a.stack.Close()
}

// AppState is a snapshot of every component's introspection state.
type AppState struct {
	Root       string         `json:"root"`
	Adapter    string         `json:"adapter"`
	Version    string         `json:"version"`
	Components map[string]any `json:"components"`
}

// State implements introspection.Introspectable.
func (a *App) State() any {
	components := make(map[string]any)
	for _, c := range []any{a.stack.Backend, a.stack.Store, a.stack.Service} {
		comp, ok := c.(introspection.Component)
		if !ok {
			continue
		}
		if in, ok := c.(introspection.Introspectable); ok {
			components[comp.ComponentType()] = in.State()
		}
	}
	return AppState{
		Root:       a.stack.Root,
		Adapter:    a.stack.Adapter,
		Version:    trimVersion(),
		Components: components,
	}
}

// ComponentType implements introspection.Component.
func (a *App) ComponentType() string {
	return "app"
}

var _ introspection.Introspectable = (*App)(nil)
var _ introspection.Component = (*App)(nil)

// --- Safety & Utils ---

// IsDevRun reports whether the process runs via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// ResolveStorePath returns where a store at userPath actually lives.
func ResolveStorePath(userPath string, forceTemp bool) string {
	return platform.ResolveStorePath(userPath, forceTemp)
}

// FindStoreRoot looks upwards from startDir for a directory holding .tabnotes/.
func FindStoreRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
