package plume

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/plume/internal/platform"
	"github.com/aretw0/plume/pkg/adapters/fs"
	"github.com/aretw0/plume/pkg/core"
	"github.com/aretw0/plume/pkg/notebook"
	"github.com/aretw0/plume/pkg/search"
)

// --- Types ---

// Notebook is an editing session on one document.
type Notebook = notebook.Notebook

// Document is the in-memory tree of notes.
type Document = core.Document

// Node is one entry of the tree.
type Node = core.Node

// Query describes a search.
type Query = search.Query

// --- Configuration ---

// DefaultFileName is the document name used when none is given.
const DefaultFileName = platform.DefaultFileName

// Option defines a functional option for configuring plume.
type Option = platform.Option

// WithLogger sets the logger for the session and its store.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithStore allows injecting a custom document store.
func WithStore(store core.Store) Option {
	return platform.WithStore(store)
}

// WithHistoryLimit bounds the number of undo steps.
func WithHistoryLimit(n int) Option {
	return platform.WithHistoryLimit(n)
}

// WithKDFIterations sets the password key derivation cost.
func WithKDFIterations(n int) Option {
	return platform.WithKDFIterations(n)
}

// WithTextFont sets the default body font of new documents.
func WithTextFont(f core.Font) Option {
	return platform.WithTextFont(f)
}

// WithNodeFont sets the tree font of new documents.
func WithNodeFont(f core.Font) Option {
	return platform.WithNodeFont(f)
}

// WithAutosave enables periodic saving of modified documents.
func WithAutosave(d time.Duration) Option {
	return platform.WithAutosave(d)
}

// WithFileMode sets the permissions of new document files.
func WithFileMode(mode os.FileMode) Option {
	return platform.WithFileMode(mode)
}

// WithWatcherErrorHandler receives errors from background workers.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// WithWatchSettle sets how long the file must stay quiet before Watch
// reports a change.
func WithWatchSettle(d time.Duration) Option {
	return platform.WithWatchSettle(d)
}

// WithForceTemp forces documents into a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithMustExist makes Create fail when the target directory is missing.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithDevSafety controls the sandbox used when running via `go run`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// --- Factory ---

// New starts an unsaved session on a fresh document.
func New(opts ...Option) *Notebook {
	return platform.New(opts...)
}

// Create writes a fresh document to path and opens it.
func Create(ctx context.Context, path string, opts ...Option) (*Notebook, error) {
	return platform.Create(ctx, path, opts...)
}

// Open loads the document at path.
func Open(ctx context.Context, path, password string, opts ...Option) (*Notebook, error) {
	return platform.Open(ctx, path, password, opts...)
}

// Autosave starts periodic saving of nb if WithAutosave enabled it.
func Autosave(ctx context.Context, nb *Notebook, opts ...Option) (*fs.Autosaver, error) {
	return platform.Autosave(ctx, nb, opts...)
}

// Watch reports external changes to the document file.
func Watch(ctx context.Context, path string, opts ...Option) (lifecycle.Source, error) {
	return platform.Watch(ctx, path, opts...)
}

// --- Safety & Utils ---

// ResolveDocumentPath determines where a document is kept under the safety rules.
func ResolveDocumentPath(userPath string, forceTemp bool) string {
	return platform.ResolveDocumentPath(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindDocument looks upwards from startDir for a document file.
func FindDocument(startDir, name string) (string, error) {
	return platform.FindDocument(startDir, name)
}
