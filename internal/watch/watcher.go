// Package watch reports changes to a single data file. Coalescing bursts
// of events is left to the caller (the CLI feeds them into a debounced
// filter).
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ChangeHandler is called for every write, create or rename of the file.
type ChangeHandler func(path string)

// FileWatcher watches one file through its parent directory, so editors
// that replace the file atomically are still observed.
type FileWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	handler ChangeHandler
	logger  *slog.Logger

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewFileWatcher creates a watcher for path. Call Start to begin.
func NewFileWatcher(path string, handler ChangeHandler, logger *slog.Logger) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &FileWatcher{
		path:    abs,
		watcher: watcher,
		handler: handler,
		logger:  logger,
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching. The event loop exits when Stop is called or ctx
// is canceled.
func (w *FileWatcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.processEvents(ctx)
	}()
	return nil
}

func (w *FileWatcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.logger.Debug("data file changed", "path", w.path, "op", event.Op.String())
				w.handler(w.path)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Log error but continue watching
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

// Stop ends the event loop and releases the underlying watcher.
func (w *FileWatcher) Stop() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}
