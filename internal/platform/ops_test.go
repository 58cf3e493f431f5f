package platform_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/plume/internal/platform"
	"github.com/aretw0/plume/pkg/core"
)

var testOpts = []platform.Option{platform.WithKDFIterations(1000)}

func TestCreateAndOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "deep", "notes.fnx")

	nb, err := platform.Create(ctx, path, append(testOpts, platform.WithNodeFont(core.Font{Family: "Mono", Size: 11}))...)
	require.NoError(t, err)
	assert.Equal(t, path, nb.Path())
	assert.FileExists(t, path)

	_, err = platform.Create(ctx, path, testOpts...)
	assert.ErrorIs(t, err, platform.ErrExists)

	back, err := platform.Open(ctx, path, "", testOpts...)
	require.NoError(t, err)
	assert.Equal(t, core.Stats{Main: 1, All: 1}, back.Stats())
	require.NoError(t, back.View(func(d *core.Document) error {
		assert.Equal(t, core.Font{Family: "Mono", Size: 11}, d.NodeFont)
		return nil
	}))
}

func TestCreate_MustExist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "notes.fnx")
	_, err := platform.Create(context.Background(), path, append(testOpts, platform.WithMustExist(true))...)
	assert.ErrorIs(t, err, core.ErrIO)
	_, statErr := os.Stat(filepath.Dir(path))
	assert.True(t, os.IsNotExist(statErr))
}

func TestOpen_Missing(t *testing.T) {
	_, err := platform.Open(context.Background(), filepath.Join(t.TempDir(), "nope.fnx"), "", testOpts...)
	assert.ErrorIs(t, err, core.ErrIO)

	_, err = platform.Open(context.Background(), "", "", testOpts...)
	assert.Error(t, err)
}

type memStore struct {
	docs map[string]*core.Document
}

func (m *memStore) Load(_ context.Context, path, _ string) (*core.Document, error) {
	d, ok := m.docs[path]
	if !ok {
		return nil, core.ErrIO
	}
	return d, nil
}

func (m *memStore) Save(_ context.Context, path string, doc *core.Document) error {
	m.docs[path] = doc
	doc.MarkSaved()
	return nil
}

func (m *memStore) Exists(path string) bool {
	_, ok := m.docs[path]
	return ok
}

func TestWithStore(t *testing.T) {
	ctx := context.Background()
	store := &memStore{docs: map[string]*core.Document{}}
	path := filepath.Join(t.TempDir(), "mem.fnx")

	_, err := platform.Create(ctx, path, platform.WithStore(store))
	require.NoError(t, err)
	assert.True(t, store.Exists(path))
	assert.NoFileExists(t, path)

	_, err = platform.Watch(ctx, path, platform.WithStore(store))
	assert.Error(t, err, "an in-memory store cannot be watched")
}

func TestAutosave(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	path := filepath.Join(t.TempDir(), "notes.fnx")
	nb, err := platform.Create(ctx, path, testOpts...)
	require.NoError(t, err)

	saver, err := platform.Autosave(ctx, nb, testOpts...)
	require.NoError(t, err)
	assert.Nil(t, saver, "autosave is off by default")

	saver, err = platform.Autosave(ctx, nb, platform.WithAutosave(20*time.Millisecond))
	require.NoError(t, err)
	require.NotNil(t, saver)

	var id core.NodeID
	require.NoError(t, nb.View(func(d *core.Document) error {
		id = d.Root().Children()[0]
		return nil
	}))
	require.NoError(t, nb.Do(core.Rename{ID: id, Title: "autosaved"}))

	assert.Eventually(t, func() bool { return !nb.Modified() }, 3*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case <-saver.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("autosave loop did not stop")
	}
}

func TestWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	path := filepath.Join(t.TempDir(), "notes.fnx")
	_, err := platform.Create(ctx, path, testOpts...)
	require.NoError(t, err)

	src, err := platform.Watch(ctx, path, testOpts...)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("changed"), 0600))
	select {
	case e := <-src.Events():
		assert.Equal(t, "MODIFY "+path, e.String())
	case <-time.After(3 * time.Second):
		t.Fatal("no event from the watch source")
	}

	_, err = platform.Watch(ctx, filepath.Join(t.TempDir(), "gone.fnx"), testOpts...)
	assert.True(t, errors.Is(err, core.ErrIO), "got %v", err)
}
