package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/c360studio/semcite/registry"
	"github.com/c360studio/semcite/resolver"
)

const defaultDebounce = 500 * time.Millisecond

// SnapshotWatcher watches the registry snapshot file and rebuilds the
// resolver handler when the file changes. The snapshot is written with
// a rename, so the watch is placed on the containing directory rather
// than the file itself.
type SnapshotWatcher struct {
	path            string
	compilePatterns bool
	debounce        time.Duration
	watcher         *fsnotify.Watcher
	onSwap          func(*resolver.Handler)
	logger          *slog.Logger

	pendingMu sync.Mutex
	pending   bool
}

// NewSnapshotWatcher creates a watcher for the snapshot at path. onSwap
// receives each successfully rebuilt handler.
func NewSnapshotWatcher(path string, compilePatterns bool, onSwap func(*resolver.Handler), logger *slog.Logger) (*SnapshotWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotWatcher{
		path:            path,
		compilePatterns: compilePatterns,
		debounce:        defaultDebounce,
		watcher:         fsw,
		onSwap:          onSwap,
		logger:          logger,
	}, nil
}

// Start begins watching the snapshot directory for changes.
func (w *SnapshotWatcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	go w.processEvents(ctx)

	w.logger.Info("Snapshot watcher started",
		"path", w.path,
		"debounce", w.debounce)
	return nil
}

// Stop stops the watcher.
func (w *SnapshotWatcher) Stop() error {
	return w.watcher.Close()
}

// processEvents handles fsnotify events with debouncing.
func (w *SnapshotWatcher) processEvents(ctx context.Context) {
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending()
		}
	}
}

// handleFSEvent marks a rebuild pending when the snapshot file changed.
func (w *SnapshotWatcher) handleFSEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return
	}

	w.pendingMu.Lock()
	w.pending = true
	w.pendingMu.Unlock()

	w.logger.Debug("Snapshot change detected", "op", event.Op.String())
}

// flushPending rebuilds the handler if a change is pending.
func (w *SnapshotWatcher) flushPending() {
	w.pendingMu.Lock()
	pending := w.pending
	w.pending = false
	w.pendingMu.Unlock()

	if !pending {
		return
	}
	w.Reload()
}

// Reload parses the snapshot and publishes a rebuilt handler. Parse
// failures keep the previous handler in place.
func (w *SnapshotWatcher) Reload() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		w.logger.Warn("Failed to read registry snapshot",
			"path", w.path,
			"error", err)
		return
	}

	reg, err := registry.ParseRegistry(data, w.compilePatterns)
	if err != nil {
		w.logger.Error("Failed to parse registry snapshot, keeping current handler",
			"path", w.path,
			"error", err)
		return
	}

	w.onSwap(resolver.New(reg))
	w.logger.Info("Registry snapshot reloaded", "records", len(reg))
}
