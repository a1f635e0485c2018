package storage

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeCallback is called with the collection name after its file
// changed on disk.
type ChangeCallback func(collection string)

// Watch starts an fsnotify watcher on the data directory and reports
// collection file changes until ctx is cancelled. Events are debounced
// so that the store's own tmp-write-rename sequence collapses into a
// single callback per collection.
//
// The store loads collections from disk on every call, so there is no
// cache to invalidate here; the callback surfaces any on-disk change
// to connected clients, whether from the store's own writes or an
// external edit (an operator hand-fixing a data file).
func Watch(ctx context.Context, root string, logger *slog.Logger, cb ChangeCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	const debounce = 200 * time.Millisecond
	pending := make(map[string]struct{})
	var flushTimer *time.Timer
	var flushCh <-chan time.Time

	scheduleFlush := func() {
		if flushTimer == nil {
			flushTimer = time.NewTimer(debounce)
			flushCh = flushTimer.C
		} else {
			flushTimer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if flushTimer != nil {
				flushTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-flushCh:
			for name := range pending {
				logger.Debug("watcher: collection changed", slog.String("collection", name))
				if cb != nil {
					cb(name)
				}
				delete(pending, name)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			base := filepath.Base(ev.Name)
			if !strings.HasSuffix(base, ".json") || strings.HasPrefix(base, ".") {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			pending[strings.TrimSuffix(base, ".json")] = struct{}{}
			scheduleFlush()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
