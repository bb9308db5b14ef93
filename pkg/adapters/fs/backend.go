// Package fs is the default persistent storage backend: one JSON file per key
// under a store directory, replaced atomically on every write and watched with
// fsnotify so that writes from other processes are observed.
//
// Layout:
//
//	<root>/local/notes.json    <- key "local:notes"
//	<root>/session/draft.json  <- key "session:draft"
package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/tabnotes/internal/broker"
	"github.com/aretw0/tabnotes/pkg/core"
)

const (
	// DefaultDebounce is the quiet window before an external change is re-read.
	DefaultDebounce = 50 * time.Millisecond
	// DefaultPattern selects which files under the root produce change events.
	DefaultPattern = "**/*.json"

	fileExt = ".json"
)

// Config holds the configuration for the filesystem backend.
type Config struct {
	Path         string
	MustExist    bool
	Logger       *slog.Logger
	Debounce     time.Duration
	Pattern      string      // doublestar pattern over slash paths relative to Path
	ErrorHandler func(error) // watcher runtime errors; they are logged when nil
}

// Backend implements core.Backend on the filesystem.
type Backend struct {
	Path   string
	config Config
	hub    *broker.Hub

	writeMu sync.Mutex

	mu            sync.RWMutex
	closed        bool
	watcherActive bool
	writes        int
	externalSeen  int
	lastExternal  *time.Time

	startOnce sync.Once
	startErr  error
	worker    *watchWorker
	ctx       context.Context
	cancel    context.CancelFunc
}

// New creates a filesystem backend rooted at config.Path and prepares its directories.
func New(config Config) (*Backend, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("store path is required")
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if config.Pattern == "" {
		config.Pattern = DefaultPattern
	}

	b := &Backend{
		Path:   config.Path,
		config: config,
		hub:    broker.New(),
	}
	if err := b.initialize(); err != nil {
		return nil, err
	}
	b.ctx, b.cancel = context.WithCancel(context.Background())
	return b, nil
}

func (b *Backend) initialize() error {
	if b.config.MustExist {
		info, err := os.Stat(b.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("store path does not exist: %s", b.Path)
		}
		if err != nil {
			return fmt.Errorf("failed to stat store path: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("store path is not a directory: %s", b.Path)
		}
	}

	for _, area := range []core.Area{core.AreaLocal, core.AreaSession} {
		if err := os.MkdirAll(filepath.Join(b.Path, string(area)), 0755); err != nil {
			return fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	return nil
}

// Get implements core.Backend.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path, err := b.pathFor(key)
	if err != nil {
		return nil, false, err
	}
	if err := b.checkOpen(ctx); err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, true, nil
}

// Set implements core.Backend. The file is replaced atomically and local
// watchers are notified before Set returns.
func (b *Backend) Set(ctx context.Context, key string, value []byte) error {
	path, err := b.pathFor(key)
	if err != nil {
		return err
	}
	if err := b.checkOpen(ctx); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	if err := writeFileAtomic(path, value, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	b.mu.Lock()
	b.writes++
	b.mu.Unlock()

	b.hub.Publish(key, value)
	return nil
}

// Watch implements core.Backend. The first call starts the filesystem watcher.
func (b *Backend) Watch(key string, fn core.WatchFunc) (core.Unwatch, error) {
	path, err := b.pathFor(key)
	if err != nil {
		return nil, err
	}
	if err := b.checkOpen(context.Background()); err != nil {
		return nil, err
	}
	if err := b.startWatcher(); err != nil {
		return nil, err
	}

	current, err := os.ReadFile(path)
	switch {
	case err == nil:
		b.hub.Seed(key, current)
	case errors.Is(err, os.ErrNotExist):
		b.hub.Seed(key, nil)
	default:
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	return b.hub.Subscribe(key, fn), nil
}

// Close stops the watcher and drops every subscription.
func (b *Backend) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	w := b.worker
	b.mu.Unlock()

	var err error
	if w != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = w.Stop(ctx)
	}
	b.cancel()
	b.hub.Close()
	return err
}

func (b *Backend) startWatcher() error {
	b.startOnce.Do(func() {
		w := newWatchWorker(b, b.config.Pattern)
		if err := w.Start(b.ctx); err != nil {
			b.startErr = fmt.Errorf("failed to start watcher: %w", err)
			return
		}
		b.mu.Lock()
		b.worker = w
		b.mu.Unlock()
	})
	return b.startErr
}

// refresh re-reads key from disk and publishes it. It runs on the watcher side
// after an external write settles.
func (b *Backend) refresh(key string) {
	path, err := b.pathFor(key)
	if err != nil {
		return
	}

	// Set publishes under writeMu too, so a slow re-read never lands after a newer write.
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		data = nil
	default:
		b.reportError(fmt.Errorf("failed to re-read %s: %w", key, err))
		return
	}

	if b.hub.Publish(key, data) {
		now := time.Now()
		b.mu.Lock()
		b.externalSeen++
		b.lastExternal = &now
		b.mu.Unlock()
		b.config.Logger.Debug("external change", "key", key, "bytes", len(data))
	}
}

// pathFor maps "area:name" to <root>/<area>/<name>.json.
func (b *Backend) pathFor(key string) (string, error) {
	area, name, err := core.ParseKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(b.Path, string(area), name+fileExt), nil
}

// resolveKey maps a file path under the root back to its key.
func (b *Backend) resolveKey(path string) (string, error) {
	rel, err := filepath.Rel(b.Path, path)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)

	area, file, ok := strings.Cut(rel, "/")
	if !ok || strings.Contains(file, "/") || filepath.Ext(file) != fileExt {
		return "", fmt.Errorf("%w: %s is not a key file", core.ErrInvalidKey, rel)
	}
	key := area + ":" + strings.TrimSuffix(file, fileExt)
	if _, _, err := core.ParseKey(key); err != nil {
		return "", err
	}
	return key, nil
}

func (b *Backend) checkOpen(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return core.ErrClosed
	}
	return nil
}

func (b *Backend) reportError(err error) {
	if b.config.ErrorHandler != nil {
		b.config.ErrorHandler(err)
		return
	}
	b.config.Logger.Error("watcher error", "error", err)
}

var _ core.Backend = (*Backend)(nil)
