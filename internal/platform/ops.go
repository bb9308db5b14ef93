package platform

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/tabnotes/pkg/adapters/fs"
	"github.com/aretw0/tabnotes/pkg/adapters/memory"
	"github.com/aretw0/tabnotes/pkg/adapters/sqlite"
	"github.com/aretw0/tabnotes/pkg/core"
)

// Adapter names accepted by WithAdapter and the config file.
const (
	AdapterFS     = "fs"
	AdapterSQLite = "sqlite"
	AdapterMemory = "memory"
)

// databaseFile is the sqlite database inside the system directory.
const databaseFile = "tabnotes.db"

// initBackend resolves the store root and opens the persistent backend
// selected by o. The 'uri' argument is the store root; its SystemDir holds the data.
func initBackend(uri string, o *options) (string, core.Backend, error) {
	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	root := resolveRoot(uri, o, logger)

	if o.backend != nil {
		return root, o.backend, nil
	}

	mustExist, _ := o.config["must_exist"].(bool)
	if mustExist && !isDir(DataDir(root)) {
		return "", nil, fmt.Errorf("no store at %s", root)
	}

	switch o.adapter {
	case AdapterFS, "":
		b, err := initFS(root, o, logger)
		return root, b, err
	case AdapterSQLite:
		b, err := initSQLite(root, o, logger)
		return root, b, err
	case AdapterMemory:
		return root, memory.New(), nil
	default:
		return "", nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}
}

// resolveRoot applies the dev sandbox rules to the requested root.
func resolveRoot(uri string, o *options, logger *slog.Logger) string {
	forceTemp, _ := o.config["temp_dir"].(bool)
	devSafety := true
	if val, ok := o.config["dev_safety"].(bool); ok {
		devSafety = val
	}

	dev := IsDevRun()
	useTemp := forceTemp || (dev && devSafety)
	root := ResolveStorePath(uri, useTemp)

	if dev {
		if devSafety {
			logger.Debug("running in SAFE mode (dev sandbox enabled)", "path", root)
		} else {
			logger.Warn("running in UNSAFE mode (bypassing dev sandbox)", "path", root)
		}
	}
	if useTemp && filepath.Clean(uri) != root {
		logger.Warn("store re-rooted into temp directory", "original_path", uri, "resolved_path", root)
	}
	return root
}

func initFS(root string, o *options, logger *slog.Logger) (*fs.Backend, error) {
	debounce, _ := o.config["debounce"].(time.Duration)
	pattern, _ := o.config["pattern"].(string)
	onError, _ := o.config["watcher_error_handler"].(func(error))

	return fs.New(fs.Config{
		Path:         DataDir(root),
		Logger:       logger,
		Debounce:     debounce,
		Pattern:      pattern,
		ErrorHandler: onError,
	})
}

func initSQLite(root string, o *options, logger *slog.Logger) (*sqlite.Backend, error) {
	poll, _ := o.config["poll_interval"].(time.Duration)
	onError, _ := o.config["watcher_error_handler"].(func(error))

	dir := DataDir(root)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return sqlite.New(sqlite.Config{
		Path:         filepath.Join(dir, databaseFile),
		Logger:       logger,
		PollInterval: poll,
		ErrorHandler: onError,
	})
}
