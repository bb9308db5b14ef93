// Package sqlite stores keys as rows of a single table in a SQLite database.
//
// Every row carries a version that is bumped on each write. Processes sharing
// the database file notice each other's writes by polling the versions of the
// keys they watch.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle"
	_ "github.com/mattn/go-sqlite3"

	"github.com/aretw0/tabnotes/internal/broker"
	"github.com/aretw0/tabnotes/pkg/core"
)

// DefaultPollInterval is how often watched keys are checked for foreign writes.
const DefaultPollInterval = 200 * time.Millisecond

const schema = `CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value BLOB NOT NULL,
	version INTEGER NOT NULL DEFAULT 1
);`

const upsert = `INSERT INTO kv (key, value, version) VALUES (?, ?, 1)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, version = kv.version + 1`

// Config holds the configuration for the SQLite backend.
type Config struct {
	Path         string // database file
	Logger       *slog.Logger
	PollInterval time.Duration
	ErrorHandler func(error)
}

// Backend implements core.Backend on SQLite.
type Backend struct {
	db     *sql.DB
	config Config
	hub    *broker.Hub

	// publishMu orders a read or write of a key with its publish.
	publishMu sync.Mutex

	mu       sync.Mutex
	versions map[string]int64 // last seen version per watched key
	closed   bool
	polling  bool
	polls    int
	writes   int

	pollOnce sync.Once
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// New opens (or creates) the database and prepares the kv table.
func New(config Config) (*Backend, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", config.Path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create kv table: %w", err)
	}

	b := &Backend{
		db:       db,
		config:   config,
		hub:      broker.New(),
		versions: make(map[string]int64),
		done:     make(chan struct{}),
	}
	b.ctx, b.cancel = context.WithCancel(context.Background())
	return b, nil
}

// Get implements core.Backend.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if _, _, err := core.ParseKey(key); err != nil {
		return nil, false, err
	}
	if err := b.checkOpen(); err != nil {
		return nil, false, err
	}

	value, _, found, err := b.read(ctx, key)
	return value, found, err
}

// Set implements core.Backend.
func (b *Backend) Set(ctx context.Context, key string, value []byte) error {
	if _, _, err := core.ParseKey(key); err != nil {
		return err
	}
	if err := b.checkOpen(); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}

	b.publishMu.Lock()
	defer b.publishMu.Unlock()

	if _, err := b.db.ExecContext(ctx, upsert, key, value); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	b.mu.Lock()
	b.writes++
	b.mu.Unlock()

	b.hub.Publish(key, value)
	return nil
}

// Watch implements core.Backend. The first call starts the poller.
func (b *Backend) Watch(key string, fn core.WatchFunc) (core.Unwatch, error) {
	if _, _, err := core.ParseKey(key); err != nil {
		return nil, err
	}
	if err := b.checkOpen(); err != nil {
		return nil, err
	}

	value, version, found, err := b.read(context.Background(), key)
	if err != nil {
		return nil, err
	}
	if !found {
		value = nil
	}
	b.hub.Seed(key, value)

	b.mu.Lock()
	if _, ok := b.versions[key]; !ok {
		b.versions[key] = version
	}
	b.mu.Unlock()

	b.pollOnce.Do(b.startPoller)
	return b.hub.Subscribe(key, fn), nil
}

// Close stops the poller and closes the database.
func (b *Backend) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	polling := b.polling
	b.mu.Unlock()

	b.cancel()
	if polling {
		select {
		case <-b.done:
		case <-time.After(5 * time.Second):
			b.config.Logger.Warn("sqlite poller did not stop in time")
		}
	}
	b.hub.Close()
	return b.db.Close()
}

func (b *Backend) startPoller() {
	b.mu.Lock()
	b.polling = true
	b.mu.Unlock()

	lifecycle.Go(b.ctx, func(ctx context.Context) error {
		defer close(b.done)
		ticker := time.NewTicker(b.config.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				b.poll(ctx)
			}
		}
	}, lifecycle.WithErrorHandler(b.reportError))
}

// poll publishes every watched key whose version moved since the last check.
func (b *Backend) poll(ctx context.Context) {
	b.mu.Lock()
	keys := make([]string, 0, len(b.versions))
	for k := range b.versions {
		keys = append(keys, k)
	}
	b.polls++
	b.mu.Unlock()

	for _, key := range keys {
		if err := b.pollKey(ctx, key); err != nil {
			if ctx.Err() == nil {
				b.reportError(err)
			}
			return
		}
	}
}

func (b *Backend) pollKey(ctx context.Context, key string) error {
	b.publishMu.Lock()
	defer b.publishMu.Unlock()

	value, version, found, err := b.read(ctx, key)
	if err != nil {
		return err
	}

	b.mu.Lock()
	seen := b.versions[key]
	b.versions[key] = version
	b.mu.Unlock()

	if version == seen {
		return nil
	}
	if !found {
		value = nil
	}
	if b.hub.Publish(key, value) {
		b.config.Logger.Debug("external change", "key", key, "version", version)
	}
	return nil
}

func (b *Backend) read(ctx context.Context, key string) ([]byte, int64, bool, error) {
	var value []byte
	var version int64
	err := b.db.QueryRowContext(ctx, `SELECT value, version FROM kv WHERE key = ?`, key).Scan(&value, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, version, true, nil
}

func (b *Backend) checkOpen() error {
	b.mu.Lock()
	defer b.mu.Unlock()
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
	b.config.Logger.Error("sqlite poller error", "error", err)
}

// BackendState exposes internal state for observability.
type BackendState struct {
	Path         string   `json:"path"`
	PollInterval string   `json:"poll_interval"`
	Keys         []string `json:"watched_keys,omitempty"`
	Watchers     int      `json:"watchers"`
	Polls        int      `json:"polls"`
	Writes       int      `json:"writes"`
	Closed       bool     `json:"closed"`
}

// State implements introspection.Introspectable.
func (b *Backend) State() any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BackendState{
		Path:         b.config.Path,
		PollInterval: b.config.PollInterval.String(),
		Keys:         b.hub.Keys(),
		Watchers:     b.hub.Watchers(),
		Polls:        b.polls,
		Writes:       b.writes,
		Closed:       b.closed,
	}
}

// ComponentType implements introspection.Component.
func (b *Backend) ComponentType() string {
	return "sqlite-backend"
}

var _ core.Backend = (*Backend)(nil)
var _ introspection.Introspectable = (*Backend)(nil)
var _ introspection.Component = (*Backend)(nil)
