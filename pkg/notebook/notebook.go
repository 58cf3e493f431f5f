// Package notebook holds an editing session: one open document, the file it
// belongs to, its undo history and the search state.
//
// A Notebook is safe for concurrent use, which lets an autosave goroutine
// save it while the host keeps editing.
package notebook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/plume/pkg/core"
	"github.com/aretw0/plume/pkg/search"
)

// DefaultNodeTitle is the title of the node a new document starts with.
const DefaultNodeTitle = "New Node"

// ErrNoPath is returned by Save for a document that was never saved.
var ErrNoPath = errors.New("document has no file")

// Config holds what a Notebook needs besides the document itself.
type Config struct {
	Store  core.Store
	Logger *slog.Logger

	HistoryLimit  int // zero selects core.DefaultHistoryLimit
	TextFont      *core.Font
	NodeFont      *core.Font
	KDFIterations int
}

type Notebook struct {
	mu      sync.RWMutex
	config  Config
	doc     *core.Document
	path    string
	history *core.History
	engine  *search.Engine

	lastSave *time.Time
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
}

// New starts a session on a fresh document holding a single empty node.
func New(config Config) *Notebook {
	config.defaults()
	doc := core.NewDocument()
	if config.TextFont != nil {
		doc.DefaultFont = *config.TextFont
	}
	if config.NodeFont != nil {
		doc.NodeFont = *config.NodeFont
	}
	doc.KDFIterations = config.KDFIterations
	// cannot fail on an empty document
	_ = doc.AppendChild(core.RootID, core.NewNode(DefaultNodeTitle))
	doc.MarkSaved()
	return newNotebook(config, doc, "")
}

// Open starts a session on the document stored at path.
func Open(ctx context.Context, config Config, path, password string) (*Notebook, error) {
	config.defaults()
	if config.Store == nil {
		return nil, errors.New("notebook: no store configured")
	}
	doc, err := config.Store.Load(ctx, path, password)
	if err != nil {
		return nil, err
	}
	doc.KDFIterations = config.KDFIterations
	return newNotebook(config, doc, path), nil
}

func newNotebook(config Config, doc *core.Document, path string) *Notebook {
	return &Notebook{
		config:  config,
		doc:     doc,
		path:    path,
		history: core.NewHistory(config.HistoryLimit),
		engine:  search.NewEngine(search.Query{Scope: search.ScopeEverywhere}),
	}
}

// Path returns the file the session saves to, or "" for a new document.
func (nb *Notebook) Path() string {
	nb.mu.RLock()
	defer nb.mu.RUnlock()
	return nb.path
}

func (nb *Notebook) Modified() bool {
	nb.mu.RLock()
	defer nb.mu.RUnlock()
	return nb.doc.Modified()
}

func (nb *Notebook) Stats() core.Stats {
	nb.mu.RLock()
	defer nb.mu.RUnlock()
	return nb.doc.Stats()
}

// View runs fn with read access to the document. fn must not keep the
// document or mutate it.
func (nb *Notebook) View(fn func(doc *core.Document) error) error {
	nb.mu.RLock()
	defer nb.mu.RUnlock()
	return fn(nb.doc)
}

// Save writes the document to its file.
func (nb *Notebook) Save(ctx context.Context) error {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	if nb.path == "" {
		return ErrNoPath
	}
	return nb.save(ctx, nb.path)
}

// SaveAs writes the document to path, which becomes the session's file.
func (nb *Notebook) SaveAs(ctx context.Context, path string) error {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	if err := nb.save(ctx, path); err != nil {
		return err
	}
	nb.path = path
	return nil
}

func (nb *Notebook) save(ctx context.Context, path string) error {
	if nb.config.Store == nil {
		return errors.New("notebook: no store configured")
	}
	if err := nb.config.Store.Save(ctx, path, nb.doc); err != nil {
		return err
	}
	now := time.Now()
	nb.lastSave = &now
	nb.config.Logger.Info("document saved", "path", path, "nodes", nb.doc.Len())
	return nil
}

// Reload replaces the document with the one stored at path. On failure the
// open document is kept as it was.
func (nb *Notebook) Reload(ctx context.Context, path, password string) error {
	if nb.config.Store == nil {
		return errors.New("notebook: no store configured")
	}
	doc, err := nb.config.Store.Load(ctx, path, password)
	if err != nil {
		return err
	}
	nb.mu.Lock()
	defer nb.mu.Unlock()
	doc.KDFIterations = nb.config.KDFIterations
	nb.doc = doc
	nb.path = path
	nb.history.Clear()
	nb.engine.Reset()
	return nil
}

// Do applies an edit and records it for Undo.
func (nb *Notebook) Do(c core.Command) error {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	if err := nb.history.Do(nb.doc, c); err != nil {
		return err
	}
	nb.config.Logger.Debug("command applied", "command", fmt.Sprintf("%T", c))
	return nil
}

func (nb *Notebook) Undo() error {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	return nb.history.Undo(nb.doc)
}

func (nb *Notebook) Redo() error {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	return nb.history.Redo(nb.doc)
}

func (nb *Notebook) CanUndo() bool {
	nb.mu.RLock()
	defer nb.mu.RUnlock()
	return nb.history.CanUndo()
}

func (nb *Notebook) CanRedo() bool {
	nb.mu.RLock()
	defer nb.mu.RUnlock()
	return nb.history.CanRedo()
}

// SetPassword protects the document from the next save on. A mismatched
// confirmation keeps the previous password.
func (nb *Notebook) SetPassword(password, confirm string) error {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	return nb.doc.SetPassword(password, confirm)
}

// RemovePassword makes the next save unprotected.
func (nb *Notebook) RemovePassword() {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	nb.doc.RemovePassword()
}

func (nb *Notebook) Encrypted() bool {
	nb.mu.RLock()
	defer nb.mu.RUnlock()
	return nb.doc.Encrypted()
}
