package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/plume/pkg/core"
)

// Watch reports changes made to the document file at path by other
// processes. The directory is watched rather than the file, so editors that
// replace the file by renaming are seen too. Saves made through this store
// are not reported. The channel is closed when ctx is done.
func (s *Store) Watch(ctx context.Context, path string) (<-chan core.Event, error) {
	events := make(chan core.Event)
	w := newWatchWorker(s, path, events)
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return events, nil
}

type watchWorker struct {
	*worker.BaseWorker
	store   *Store
	path    string
	events  chan<- core.Event
	watcher *fsnotify.Watcher
	last    time.Time // mod time of the last reported change
	cancel  context.CancelFunc
}

func newWatchWorker(store *Store, path string, events chan<- core.Event) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("fs-watcher"),
		store:      store,
		path:       filepath.Clean(path),
		events:     events,
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
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}

	w.watcher = watcher
	if info, err := os.Stat(w.path); err == nil {
		w.last = info.ModTime()
	}
	w.store.watcherStarted(1)

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
			"path":              w.path,
		}
	})
}

// classify maps a filesystem event on the watched file to a document
// event. The zero EventType means the event is ignored.
func (w *watchWorker) classify(event fsnotify.Event) core.EventType {
	if filepath.Clean(event.Name) != w.path || isTempFile(event.Name) {
		return ""
	}
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if _, err := os.Stat(w.path); err == nil {
			// replaced by rename: the new file is already in place
			return w.modified()
		}
		w.last = time.Time{}
		return core.EventDelete
	case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
		return w.modified()
	}
	return ""
}

func (w *watchWorker) modified() core.EventType {
	info, err := os.Stat(w.path)
	if err != nil {
		return ""
	}
	mod := info.ModTime()
	if mod.Equal(w.last) || w.store.ownWrite(w.path, mod) {
		w.last = mod
		return ""
	}
	w.last = mod
	return core.EventModify
}

func (w *watchWorker) send(ctx context.Context, event core.Event) {
	select {
	case w.events <- event:
	case <-ctx.Done():
	}
}

func (w *watchWorker) handleWatcherError(err error) {
	w.store.config.Logger.Error("fsnotify error", "error", err)
	if w.store.config.ErrorHandler != nil {
		w.store.config.ErrorHandler(err)
	}
}

// run is the main event loop for the watcher worker.
func (w *watchWorker) run(ctx context.Context) (err error) {
	logger := w.store.config.Logger
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			if logger.Enabled(ctx, slog.LevelDebug) {
				logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				logger.Error("watcher panic", "error", err)
			}
		}
	}()
	defer w.store.watcherStarted(-1)
	defer close(w.events)
	defer w.watcher.Close()

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
			logger.Debug("event received", "name", event.Name, "op", event.Op.String())
			if t := w.classify(event); t != "" {
				w.send(ctx, core.Event{Type: t, Path: w.path, Timestamp: time.Now().Unix()})
			}

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
