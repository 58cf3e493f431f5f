package notebook_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/plume/pkg/adapters/fs"
	"github.com/aretw0/plume/pkg/core"
	"github.com/aretw0/plume/pkg/crypto"
	"github.com/aretw0/plume/pkg/notebook"
	"github.com/aretw0/plume/pkg/richtext"
	"github.com/aretw0/plume/pkg/search"
)

var _ fs.Saveable = (*notebook.Notebook)(nil)

func newConfig() notebook.Config {
	return notebook.Config{
		Store:         fs.NewStore(fs.Config{}),
		KDFIterations: 1000,
	}
}

func firstNode(t *testing.T, nb *notebook.Notebook) core.NodeID {
	t.Helper()
	var id core.NodeID
	require.NoError(t, nb.View(func(d *core.Document) error {
		kids := d.Root().Children()
		require.NotEmpty(t, kids)
		id = kids[0]
		return nil
	}))
	return id
}

func TestNew(t *testing.T) {
	font := core.Font{Family: "Serif", Size: 12}
	cfg := newConfig()
	cfg.TextFont = &font
	nb := notebook.New(cfg)

	assert.Equal(t, "", nb.Path())
	assert.False(t, nb.Modified())
	assert.Equal(t, core.Stats{Main: 1, All: 1}, nb.Stats())
	require.NoError(t, nb.View(func(d *core.Document) error {
		assert.Equal(t, font, d.DefaultFont)
		assert.Equal(t, core.DefaultNodeFont, d.NodeFont)
		n, _ := d.Node(d.Root().Children()[0])
		assert.Equal(t, notebook.DefaultNodeTitle, n.Title)
		return nil
	}))
	assert.ErrorIs(t, nb.Save(context.Background()), notebook.ErrNoPath)
}

func TestNotebook_DoUndoRedo(t *testing.T) {
	nb := notebook.New(newConfig())
	id := firstNode(t, nb)

	require.NoError(t, nb.Do(core.Rename{ID: id, Title: "Ideas"}))
	assert.True(t, nb.Modified())
	assert.True(t, nb.CanUndo())

	require.NoError(t, nb.Undo())
	assert.True(t, nb.CanRedo())
	require.NoError(t, nb.View(func(d *core.Document) error {
		n, _ := d.Node(id)
		assert.Equal(t, notebook.DefaultNodeTitle, n.Title)
		return nil
	}))

	require.NoError(t, nb.Redo())
	require.NoError(t, nb.View(func(d *core.Document) error {
		n, _ := d.Node(id)
		assert.Equal(t, "Ideas", n.Title)
		return nil
	}))

	assert.ErrorIs(t, nb.Do(core.Delete{ID: core.RootID}), core.ErrRootDeletion)
	assert.ErrorIs(t, nb.Redo(), core.ErrHistoryEmpty)
}

func TestNotebook_SaveAsAndOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "notes.fnx")

	nb := notebook.New(newConfig())
	id := firstNode(t, nb)
	body := richtext.Styled("secret plans", richtext.Style{Bold: true})
	require.NoError(t, nb.Do(core.SetBody{ID: id, Body: body}))
	require.NoError(t, nb.SetPassword("abc123", "abc123"))

	require.NoError(t, nb.SaveAs(ctx, path))
	assert.Equal(t, path, nb.Path())
	assert.False(t, nb.Modified())
	assert.NotNil(t, nb.State().(notebook.NotebookState).LastSave)

	_, err := notebook.Open(ctx, newConfig(), path, "wrong")
	assert.ErrorIs(t, err, crypto.ErrWrongPassword)
	_, err = notebook.Open(ctx, newConfig(), path, "")
	assert.ErrorIs(t, err, core.ErrPasswordRequired)

	back, err := notebook.Open(ctx, newConfig(), path, "abc123")
	require.NoError(t, err)
	assert.True(t, back.Encrypted())
	require.NoError(t, back.View(func(d *core.Document) error {
		n, ok := d.Node(id)
		require.True(t, ok)
		assert.True(t, body.Equal(n.Body))
		return nil
	}))

	// the password travels with the session, so a plain Save stays encrypted
	require.NoError(t, back.Do(core.Rename{ID: id, Title: "Plans"}))
	require.NoError(t, back.Save(ctx))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, crypto.IsEncrypted(data))

	back.RemovePassword()
	require.NoError(t, back.Save(ctx))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, crypto.IsEncrypted(data))
}

func TestNotebook_SetPasswordMismatch(t *testing.T) {
	nb := notebook.New(newConfig())
	require.NoError(t, nb.SetPassword("one", "one"))
	assert.ErrorIs(t, nb.SetPassword("two", "tow"), core.ErrPasswordMismatch)
	require.NoError(t, nb.View(func(d *core.Document) error {
		assert.True(t, d.CheckPassword("one"))
		return nil
	}))
}

func TestNotebook_ReloadFailureKeepsDocument(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.fnx")
	require.NoError(t, os.WriteFile(bad, []byte("<not-a-document"), 0600))

	nb := notebook.New(newConfig())
	id := firstNode(t, nb)
	require.NoError(t, nb.Do(core.Rename{ID: id, Title: "keep me"}))

	err := nb.Reload(ctx, bad, "")
	assert.True(t, errors.Is(err, core.ErrMalformedDocument), "got %v", err)
	assert.True(t, nb.Modified())
	assert.True(t, nb.CanUndo())
	assert.Equal(t, "", nb.Path())

	good := filepath.Join(dir, "good.fnx")
	require.NoError(t, nb.SaveAs(ctx, good))
	require.NoError(t, nb.Reload(ctx, good, ""))
	assert.False(t, nb.CanUndo())
	assert.Equal(t, good, nb.Path())
}

func TestNotebook_Search(t *testing.T) {
	nb := notebook.New(newConfig())
	id := firstNode(t, nb)
	require.NoError(t, nb.Do(core.SetBody{ID: id, Body: richtext.Plain("alpha beta alpha")}))
	require.NoError(t, nb.Do(core.InsertNode(core.RootID, 1, core.NewNode("alpha title"))))

	q := search.Query{Pattern: "alpha", Scope: search.ScopeEverywhere}
	assert.Equal(t, 3, nb.Count(q))
	assert.Len(t, nb.Matches(q), 3)

	nb.SetQuery(q)
	assert.Equal(t, q, nb.Query())
	var seen int
	for {
		_, wrapped, err := nb.FindNext()
		require.NoError(t, err)
		if wrapped {
			break
		}
		seen++
	}
	assert.Equal(t, 3, seen)

	_, _, err := nb.FindPrevious()
	require.NoError(t, err)

	nb.SetQuery(search.Query{Pattern: "gamma", Scope: search.ScopeEverywhere})
	_, _, err = nb.FindNext()
	assert.ErrorIs(t, err, search.ErrNoMatch)
}

func TestNotebook_ReplaceAllIsOneUndoStep(t *testing.T) {
	nb := notebook.New(newConfig())
	id := firstNode(t, nb)
	require.NoError(t, nb.Do(core.Rename{ID: id, Title: "cat"}))
	require.NoError(t, nb.Do(core.SetBody{ID: id, Body: richtext.Plain("cat and cat")}))

	res, err := nb.ReplaceAll(search.Query{Pattern: "cat", Scope: search.ScopeEverywhere}, "dog")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Replaced)
	assert.False(t, nb.CanRedo())

	require.NoError(t, nb.Undo())
	require.NoError(t, nb.View(func(d *core.Document) error {
		n, _ := d.Node(id)
		assert.Equal(t, "cat", n.Title)
		assert.Equal(t, "cat and cat", n.Body.PlainText())
		return nil
	}))

	require.NoError(t, nb.Redo())
	assert.Equal(t, 0, nb.Count(search.Query{Pattern: "cat", Scope: search.ScopeEverywhere}))
}

func TestNotebook_ConcurrentAutosave(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "notes.fnx")
	nb := notebook.New(newConfig())
	require.NoError(t, nb.SaveAs(ctx, path))
	id := firstNode(t, nb)

	saver := fs.NewAutosaver(nb, time.Minute)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range 50 {
			_ = nb.Do(core.Rename{ID: id, Title: string(rune('a' + i%26))})
		}
	}()
	go func() {
		defer wg.Done()
		for range 20 {
			_, _ = saver.Tick(ctx)
		}
	}()
	wg.Wait()

	_, err := saver.Tick(ctx)
	require.NoError(t, err)
	assert.False(t, nb.Modified())
}

func TestNotebook_State(t *testing.T) {
	nb := notebook.New(newConfig())
	nb.SetQuery(search.Query{Pattern: "x"})
	st, ok := nb.State().(notebook.NotebookState)
	require.True(t, ok)
	assert.Equal(t, 1, st.Nodes)
	assert.Equal(t, "x", st.Query)
	assert.Equal(t, "notebook", nb.ComponentType())
}
