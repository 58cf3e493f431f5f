package platform

import (
	"log/slog"
	"os"
	"time"

	lifecycleadapter "github.com/aretw0/plume/pkg/adapters/lifecycle"
	"github.com/aretw0/plume/pkg/core"
)

// options holds the internal configuration for a plume session.
type options struct {
	store         core.Store
	logger        *slog.Logger
	historyLimit  int
	kdfIterations int
	textFont      *core.Font
	nodeFont      *core.Font
	autosave      time.Duration
	fileMode      os.FileMode
	onWatchError  func(error)
	watchSettle   time.Duration
	devSafety     bool
	forceTemp     bool
	mustExist     bool
}

// Option defines a functional option for configuring plume.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		devSafety:   true,
		watchSettle: lifecycleadapter.DefaultSettle,
	}
}

func apply(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger for the session and its store.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStore injects a custom document store (e.g. a test double).
// If provided, the default filesystem store is skipped.
func WithStore(store core.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithHistoryLimit bounds the number of undo steps. Zero means default (100).
func WithHistoryLimit(n int) Option {
	return func(o *options) {
		o.historyLimit = n
	}
}

// WithKDFIterations sets the key derivation cost for passwords set or
// saved in this session.
func WithKDFIterations(n int) Option {
	return func(o *options) {
		o.kdfIterations = n
	}
}

// WithTextFont sets the default body font of new documents.
func WithTextFont(f core.Font) Option {
	return func(o *options) {
		o.textFont = &f
	}
}

// WithNodeFont sets the tree font of new documents.
func WithNodeFont(f core.Font) Option {
	return func(o *options) {
		o.nodeFont = &f
	}
}

// WithAutosave saves a modified document every d. Zero disables autosave.
func WithAutosave(d time.Duration) Option {
	return func(o *options) {
		o.autosave = d
	}
}

// WithFileMode sets the permissions of newly created document files.
func WithFileMode(mode os.FileMode) Option {
	return func(o *options) {
		o.fileMode = mode
	}
}

// WithWatchSettle sets how long the document file must stay quiet before a
// change is reported by Watch. Zero reports every change at once.
func WithWatchSettle(d time.Duration) Option {
	return func(o *options) {
		o.watchSettle = d
	}
}

// WithWatcherErrorHandler registers a callback for errors in background
// workers (file watcher, autosave) which are otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.onWatchError = fn
	}
}

// WithForceTemp re-roots document paths into a temporary directory.
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithMustExist makes Create fail when the document directory is missing
// instead of creating it.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithDevSafety controls the sandbox used when running via `go run`.
// By default (true) document paths outside the temp directory are
// redirected into it so a dev build never overwrites real notes.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}
