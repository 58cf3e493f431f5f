package platform

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/plume/pkg/adapters/fs"
	lifecycleadapter "github.com/aretw0/plume/pkg/adapters/lifecycle"
	"github.com/aretw0/plume/pkg/core"
	"github.com/aretw0/plume/pkg/notebook"
)

// ErrExists is returned by Create when the document file is already there.
var ErrExists = errors.New("document already exists")

func (o *options) notebookConfig(store core.Store) notebook.Config {
	return notebook.Config{
		Store:         store,
		Logger:        o.logger,
		HistoryLimit:  o.historyLimit,
		TextFont:      o.textFont,
		NodeFont:      o.nodeFont,
		KDFIterations: o.kdfIterations,
	}
}

// New starts an unsaved session on a fresh document.
//
//	nb := plume.New(plume.WithTextFont(font))
func New(opts ...Option) *notebook.Notebook {
	o := apply(opts)
	store := o.store
	if store == nil {
		store = fs.NewStore(fs.Config{Logger: o.logger, FileMode: o.fileMode})
	}
	return notebook.New(o.notebookConfig(store))
}

// Create writes a fresh document to path and opens a session on it.
func Create(ctx context.Context, path string, opts ...Option) (*notebook.Notebook, error) {
	o := apply(opts)
	store, resolved, err := initStore(path, o)
	if err != nil {
		return nil, err
	}
	if store.Exists(resolved) {
		return nil, fmt.Errorf("%w: %s", ErrExists, resolved)
	}
	if err := ensureDir(resolved, o.mustExist); err != nil {
		return nil, err
	}

	nb := notebook.New(o.notebookConfig(store))
	if err := nb.SaveAs(ctx, resolved); err != nil {
		return nil, err
	}
	o.log().Info("document created", "path", resolved)
	return nb, nil
}

// Open loads the document at path. password is only used when the file is
// protected.
func Open(ctx context.Context, path, password string, opts ...Option) (*notebook.Notebook, error) {
	o := apply(opts)
	store, resolved, err := initStore(path, o)
	if err != nil {
		return nil, err
	}
	return notebook.Open(ctx, o.notebookConfig(store), resolved, password)
}

// Autosave starts the autosave loop for nb when the options enable it.
// It returns nil when autosave is disabled. The loop stops with ctx.
func Autosave(ctx context.Context, nb *notebook.Notebook, opts ...Option) (*fs.Autosaver, error) {
	o := apply(opts)
	if o.autosave <= 0 {
		return nil, nil
	}
	saver := fs.NewAutosaver(nb, o.autosave,
		fs.WithAutosaveLogger(o.log()),
		fs.WithAutosaveErrorHandler(o.onWatchError),
	)
	if err := saver.Start(ctx); err != nil {
		return nil, err
	}
	return saver, nil
}

// Watch reports changes made to the document file by other processes.
// The source stops when ctx is done.
func Watch(ctx context.Context, path string, opts ...Option) (lifecycle.Source, error) {
	o := apply(opts)
	store, resolved, err := initStore(path, o)
	if err != nil {
		return nil, err
	}
	w, ok := store.(core.Watchable)
	if !ok {
		return nil, fmt.Errorf("store %T does not support watching", store)
	}
	if _, err := os.Stat(resolved); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrIO, err)
	}
	events, err := w.Watch(ctx, resolved)
	if err != nil {
		return nil, err
	}
	src := lifecycleadapter.NewSource(resolved, events, o.watchSettle)
	if err := src.Start(ctx); err != nil {
		return nil, err
	}
	return src, nil
}
