package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/lifecycle"
)

// Saveable is the session an Autosaver keeps on disk.
type Saveable interface {
	// Modified reports unsaved changes.
	Modified() bool
	// Path is the document file; empty while the document was never saved.
	Path() string
	Save(ctx context.Context) error
}

// Autosaver saves a document periodically. A tick saves only when the
// document has unsaved changes, its file still exists (a deleted file is not
// recreated behind the user's back) and no earlier save is still running.
type Autosaver struct {
	target   Saveable
	interval time.Duration
	logger   *slog.Logger
	onError  func(error)

	pending atomic.Bool
	done    chan struct{}

	mu       sync.Mutex
	started  bool
	running  bool
	saves    int
	skips    int
	lastSave *time.Time
	lastErr  error
}

// AutosaveOption configures an Autosaver.
type AutosaveOption func(*Autosaver)

func WithAutosaveLogger(l *slog.Logger) AutosaveOption {
	return func(a *Autosaver) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithAutosaveErrorHandler receives failed saves.
func WithAutosaveErrorHandler(fn func(error)) AutosaveOption {
	return func(a *Autosaver) { a.onError = fn }
}

func NewAutosaver(target Saveable, interval time.Duration, opts ...AutosaveOption) *Autosaver {
	a := &Autosaver{
		target:   target,
		interval: interval,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start runs the autosave loop until ctx is done. An Autosaver runs once.
func (a *Autosaver) Start(ctx context.Context) error {
	if a.interval <= 0 {
		return fmt.Errorf("autosave interval must be positive, got %s", a.interval)
	}
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return errors.New("autosaver already started")
	}
	a.started, a.running = true, true
	a.mu.Unlock()

	lifecycle.Go(ctx, a.run, lifecycle.WithErrorHandler(func(err error) {
		a.logger.Error("autosave loop failed", "error", err)
	}))
	return nil
}

// Done is closed when the loop started by Start has exited.
func (a *Autosaver) Done() <-chan struct{} { return a.done }

func (a *Autosaver) run(ctx context.Context) error {
	defer close(a.done)
	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	a.logger.Debug("autosave started", "interval", a.interval)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := a.Tick(ctx); err != nil {
				a.logger.Error("autosave failed", "path", a.target.Path(), "error", err)
				if a.onError != nil {
					a.onError(err)
				}
			}
		}
	}
}

// Tick performs one autosave check. It reports whether a save happened.
func (a *Autosaver) Tick(ctx context.Context) (bool, error) {
	if !a.pending.CompareAndSwap(false, true) {
		a.skip("save pending")
		return false, nil
	}
	defer a.pending.Store(false)

	if !a.target.Modified() {
		return false, nil
	}
	path := a.target.Path()
	if path == "" {
		a.skip("never saved")
		return false, nil
	}
	if _, err := os.Stat(path); err != nil {
		a.skip("file missing")
		return false, nil
	}

	err := a.target.Save(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastErr = err
	if err != nil {
		return false, err
	}
	now := time.Now()
	a.lastSave = &now
	a.saves++
	a.logger.Debug("autosaved", "path", path)
	return true, nil
}

func (a *Autosaver) skip(reason string) {
	a.mu.Lock()
	a.skips++
	a.mu.Unlock()
	a.logger.Debug("autosave skipped", "reason", reason)
}
