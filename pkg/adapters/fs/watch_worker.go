package fs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// watchWorker turns filesystem events under the store root into key refreshes.
type watchWorker struct {
	*worker.BaseWorker
	backend   *Backend
	pattern   string
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	cancel    context.CancelFunc
}

func newWatchWorker(b *Backend, pattern string) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("fs-watcher"),
		backend:    b,
		pattern:    pattern,
	}
}

func (w *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	// Files are replaced by rename, so the watch sits on the area directories
	// rather than on the files themselves.
	for _, dir := range w.dirs() {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	w.watcher = watcher
	w.debouncer = newDebouncer(w.backend.config.Debounce)
	w.backend.setWatcherActive(true)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *watchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}

	return w.BaseWorker.Stop(ctx)
}

func (w *watchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"pattern":           w.pattern,
		}
	})
}

func (w *watchWorker) dirs() []string {
	root := w.backend.Path
	return []string{
		root,
		filepath.Join(root, "local"),
		filepath.Join(root, "session"),
	}
}

// shouldIgnore filters temp files, directories and paths outside the pattern.
func (w *watchWorker) shouldIgnore(event fsnotify.Event) bool {
	if isTempFile(event.Name) {
		return true
	}
	if filepath.Ext(event.Name) != fileExt {
		return true
	}
	rel, err := filepath.Rel(w.backend.Path, event.Name)
	if err != nil {
		return true
	}
	ok, err := doublestar.Match(w.pattern, filepath.ToSlash(rel))
	if err != nil {
		w.backend.reportError(fmt.Errorf("invalid watch pattern %q: %w", w.pattern, err))
		return true
	}
	return !ok
}

// processFilesystemEvent maps one fsnotify event to a debounced key refresh.
func (w *watchWorker) processFilesystemEvent(event fsnotify.Event) bool {
	w.backend.config.Logger.Debug("event received", "name", event.Name, "op", event.Op.String())

	if w.shouldIgnore(event) {
		return false
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return false
	}

	key, err := w.backend.resolveKey(event.Name)
	if err != nil {
		w.backend.config.Logger.Debug("resolveKey failed", "path", event.Name, "err", err)
		return false
	}

	w.debouncer.add(key, w.backend.refresh)
	return true
}

func (w *watchWorker) handleWatcherError(err error) {
	w.backend.reportError(fmt.Errorf("fsnotify: %w", err))
}

// run is the main event loop for the watcher worker.
func (w *watchWorker) run(ctx context.Context) (err error) {
	logger := w.backend.config.Logger
	defer func() {
		if recovered := recover(); recovered != nil {
			panicErr := fmt.Errorf("watcher panic: %v", recovered)
			if logger.Enabled(ctx, slog.LevelDebug) {
				logger.Error("watcher panic", "error", panicErr, "stack", string(debug.Stack()))
			} else {
				logger.Error("watcher panic", "error", panicErr)
			}
			err = panicErr
		}
	}()
	defer w.backend.setWatcherActive(false)
	defer w.watcher.Close()

	err = w.mainEventLoop(ctx)

	// Pending refreshes must finish before the backend drops its subscribers.
	w.debouncer.stopAndWait(5 * time.Second)

	return err
}

func (w *watchWorker) mainEventLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.processFilesystemEvent(event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.handleWatcherError(wErr)
		}
	}
}
