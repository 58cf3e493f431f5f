package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/aretw0/plume"
	"github.com/aretw0/plume/internal/config"
	"github.com/aretw0/plume/pkg/adapters/fs"
	"github.com/aretw0/plume/pkg/adapters/keyring"
	"github.com/aretw0/plume/pkg/codec"
	"github.com/aretw0/plume/pkg/core"
	"github.com/aretw0/plume/pkg/crypto"
)

// PasswordEnv overrides the interactive password prompt.
const PasswordEnv = "PLUME_PASSWORD"

// app carries what every command needs: global flags, loaded settings and
// the collaborators tests replace.
type app struct {
	file     string
	cfgFile  string
	verbose  bool
	remember bool

	settings config.Settings
	logger   *slog.Logger
	store    *fs.Store
	keyring  *keyring.Cache

	// prompt asks for a password; the default reads the terminal.
	prompt func(label string) (string, error)
	stderr io.Writer
}

func newApp() *app {
	return &app{
		keyring: keyring.New(keyring.DefaultService),
		prompt:  promptTerminal,
		stderr:  os.Stderr,
	}
}

// setup loads the configuration and installs the logger.
func (a *app) setup() error {
	s, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.settings = s

	level := s.LogLevel
	if a.verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{
		Level: level,
	}
	a.logger = slog.New(slog.NewTextHandler(a.stderr, opts))
	slog.SetDefault(a.logger)
	if s.Source != "" {
		a.logger.Debug("using config file", "path", s.Source)
	}

	// one store for the whole run, so the watcher recognises our own saves
	a.store = fs.NewStore(fs.Config{
		Logger: a.logger,
		ErrorHandler: func(err error) {
			a.logger.Error("watcher failed", "error", err)
		},
	})
	return nil
}

func (a *app) options() []plume.Option {
	return []plume.Option{
		plume.WithLogger(a.logger),
		plume.WithStore(a.store),
		plume.WithKDFIterations(a.settings.KDFIterations),
		plume.WithTextFont(a.settings.TextFont),
		plume.WithNodeFont(a.settings.NodeFont),
		plume.WithAutosave(time.Duration(a.settings.AutosaveMinutes) * time.Minute),
		plume.WithWatcherErrorHandler(func(err error) {
			a.logger.Error("background worker failed", "error", err)
		}),
	}
}

func (a *app) rememberPasswords() bool {
	return a.remember || a.settings.Remember
}

// docPath picks the document: --file, then the nearest notes.fnx above the
// working directory, then the configured default.
func (a *app) docPath() string {
	if a.file != "" {
		return a.file
	}
	if wd, err := os.Getwd(); err == nil {
		if path, err := plume.FindDocument(wd, ""); err == nil {
			return path
		}
	}
	return a.settings.File
}

// open loads the document, asking for a password when it is protected.
func (a *app) open(ctx context.Context) (*plume.Notebook, error) {
	path := a.docPath()

	var password string
	fromKeyring := false
	if a.rememberPasswords() {
		if pw, err := a.keyring.Get(path); err == nil {
			password, fromKeyring = pw, true
		} else if !errors.Is(err, keyring.ErrNotFound) {
			a.logger.Warn("keyring unavailable", "error", err)
		}
	}
	if password == "" {
		password = os.Getenv(PasswordEnv)
	}

	nb, err := plume.Open(ctx, path, password, a.options()...)
	retry := errors.Is(err, core.ErrPasswordRequired) ||
		(fromKeyring && errors.Is(err, crypto.ErrWrongPassword))
	if retry {
		if password, err = a.prompt(fmt.Sprintf("Password for %s: ", path)); err != nil {
			return nil, err
		}
		nb, err = plume.Open(ctx, path, password, a.options()...)
	}
	if err != nil {
		return nil, err
	}

	if nb.Encrypted() && a.rememberPasswords() && !fromKeyring {
		if err := a.keyring.Set(nb.Path(), password); err != nil {
			a.logger.Warn("failed to remember password", "error", err)
		}
	}
	return nb, nil
}

// edit opens the document, runs fn and saves when fn changed anything.
func (a *app) edit(ctx context.Context, fn func(nb *plume.Notebook) error) error {
	nb, err := a.open(ctx)
	if err != nil {
		return err
	}
	if err := fn(nb); err != nil {
		return err
	}
	if !nb.Modified() {
		return nil
	}
	return nb.Save(ctx)
}

// resolveNode finds a node by id, unique id prefix or title path
// (a doublestar pattern such as "Projects/*/Notes").
func resolveNode(doc *core.Document, ref string) (core.NodeID, error) {
	if ref == "" {
		return "", fmt.Errorf("%w: empty reference", core.ErrNodeNotFound)
	}
	id := core.NodeID(ref)
	if _, ok := doc.Node(id); ok && id != core.RootID {
		return id, nil
	}

	var prefixed []core.NodeID
	if len(ref) >= 4 {
		for n := range doc.Walk() {
			if strings.HasPrefix(string(n.ID), ref) {
				prefixed = append(prefixed, n.ID)
			}
		}
	}
	if len(prefixed) == 1 {
		return prefixed[0], nil
	}

	nodes, err := codec.MatchNodes(doc, ref)
	if err != nil {
		return "", err
	}
	switch len(nodes) {
	case 0:
		return "", fmt.Errorf("%w: %q", core.ErrNodeNotFound, ref)
	case 1:
		return nodes[0].ID, nil
	}
	return "", fmt.Errorf("%q matches %d nodes, use an id", ref, len(nodes))
}

func promptTerminal(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("%w: set %s or run in a terminal", core.ErrPasswordRequired, PasswordEnv)
	}
	fmt.Fprint(os.Stderr, label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}
