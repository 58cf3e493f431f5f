package platform

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/plume/pkg/adapters/fs"
	"github.com/aretw0/plume/pkg/core"
)

// Init resolves the document path under the safety rules and returns the
// store to use for it.
func Init(path string, opts ...Option) (core.Store, string, error) {
	o := apply(opts)
	return initStore(path, o)
}

func (o *options) log() *slog.Logger {
	if o.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.logger
}

func initStore(path string, o *options) (core.Store, string, error) {
	if path == "" {
		return nil, "", fmt.Errorf("document path is empty")
	}

	useTemp := o.forceTemp || (IsDevRun() && o.devSafety)
	resolved := ResolveDocumentPath(path, useTemp)
	if IsDevRun() {
		if o.devSafety {
			o.log().Debug("running in SAFE mode (dev sandbox enabled)", "path", resolved)
		} else {
			o.log().Warn("running in UNSAFE mode (bypassing dev sandbox)", "path", resolved)
		}
	}
	if useTemp && resolved != path {
		o.log().Warn("running in SAFE MODE (Dev/Test)", "original_path", path, "resolved_path", resolved)
	}

	if o.store != nil {
		return o.store, resolved, nil
	}

	store := fs.NewStore(fs.Config{
		Logger:       o.logger,
		FileMode:     o.fileMode,
		ErrorHandler: o.onWatchError,
	})
	return store, resolved, nil
}

// ensureDir creates the directory that will hold path unless mustExist.
func ensureDir(path string, mustExist bool) error {
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); err == nil {
		return nil
	} else if !os.IsNotExist(err) || mustExist {
		return fmt.Errorf("%w: %s: %w", core.ErrIO, dir, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: failed to create %s: %w", core.ErrIO, dir, err)
	}
	return nil
}
