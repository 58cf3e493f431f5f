package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/plume/pkg/core"
	"github.com/aretw0/plume/pkg/richtext"
)

// snapshotDoc copies d by replaying it into a fresh document, keeping ids.
func snapshotDoc(t *testing.T, d *core.Document) *core.Document {
	t.Helper()
	c := core.NewDocument()
	root := d.Root()
	for i, id := range root.Children() {
		s, err := d.Snapshot(id)
		require.NoError(t, err)
		require.NoError(t, c.Restore(core.RootID, i, s))
	}
	return c
}

func TestCommands_InverseRestoresDocument(t *testing.T) {
	base, ids := fixture(t)

	testCases := []struct {
		name string
		cmd  core.Command
	}{
		{"insert", core.InsertNode(ids["A"], 1, core.NewNode("new"))},
		{"delete leaf", core.Delete{ID: ids["A2"]}},
		{"delete subtree", core.Delete{ID: ids["A"]}},
		{"move up", core.Move{ID: ids["B"], Dir: core.Up}},
		{"move down", core.Move{ID: ids["A1"], Dir: core.Down}},
		{"move left", core.Move{ID: ids["A2"], Dir: core.Left}},
		{"move right", core.Move{ID: ids["C"], Dir: core.Right}},
		{"move at boundary", core.Move{ID: ids["A1"], Dir: core.Up}},
		{"relocate", core.Relocate{ID: ids["C"], Parent: ids["A3"], Index: 0}},
		{"rename", core.Rename{ID: ids["B"], Title: "Beta"}},
		{"set tags", core.SetTags{ID: ids["B"], Tags: core.NewTagSet("x")}},
		{"set body", core.SetBody{ID: ids["B"], Body: richtext.Plain("text")}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := snapshotDoc(t, base)
			want := snapshotDoc(t, base)

			inv, err := tc.cmd.Apply(d)
			require.NoError(t, err)

			_, err = inv.Apply(d)
			require.NoError(t, err)

			assert.True(t, want.Equal(d), "undo must restore the original tree")
		})
	}
}

func TestCommands_FailureLeavesDocumentUnchanged(t *testing.T) {
	d, ids := fixture(t)
	want := snapshotDoc(t, d)

	for _, c := range []core.Command{
		core.Delete{ID: core.RootID},
		core.Delete{ID: "ghost"},
		core.Move{ID: ids["A"], Dir: core.Left},
		core.Move{ID: ids["A1"], Dir: core.Right},
		core.Relocate{ID: ids["A"], Parent: ids["A1"]},
		core.InsertNode("ghost", 0, core.NewNode("x")),
		core.SetBody{ID: ids["B"], Body: richtext.Plain("\x01")},
	} {
		_, err := c.Apply(d)
		assert.Error(t, err, "%#v", c)
	}
	assert.True(t, want.Equal(d))
	assert.False(t, d.Modified())
}

func TestInsertSiblingOf(t *testing.T) {
	d, ids := fixture(t)

	c, err := core.InsertSiblingOf(d, ids["A1"], core.Before, core.NewNode("first"))
	require.NoError(t, err)
	_, err = c.Apply(d)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "A1", "A2", "A3"}, childTitles(d, ids["A"]))

	_, err = core.InsertSiblingOf(d, core.RootID, core.After, core.NewNode("x"))
	assert.ErrorIs(t, err, core.ErrInvalidAnchor)
}

func TestHistory(t *testing.T) {
	d, ids := fixture(t)
	h := core.NewHistory(2)

	assert.ErrorIs(t, h.Undo(d), core.ErrHistoryEmpty)

	require.NoError(t, h.Do(d, core.Rename{ID: ids["B"], Title: "one"}))
	require.NoError(t, h.Do(d, core.Rename{ID: ids["B"], Title: "two"}))
	require.NoError(t, h.Do(d, core.Rename{ID: ids["B"], Title: "three"}))

	n, _ := d.Node(ids["B"])
	require.NoError(t, h.Undo(d))
	assert.Equal(t, "two", n.Title)
	require.NoError(t, h.Undo(d))
	assert.Equal(t, "one", n.Title)

	// limit of two: the first rename is no longer undoable
	assert.False(t, h.CanUndo())
	assert.ErrorIs(t, h.Undo(d), core.ErrHistoryEmpty)

	require.NoError(t, h.Redo(d))
	assert.Equal(t, "two", n.Title)
	assert.True(t, h.CanRedo())

	// a new command drops the redo branch
	require.NoError(t, h.Do(d, core.Delete{ID: ids["A"]}))
	assert.False(t, h.CanRedo())

	require.NoError(t, h.Undo(d))
	assert.Equal(t, []string{"A", "A1", "A2", "A3", "two", "C"}, titles(d))
}

func TestBatch(t *testing.T) {
	d, ids := fixture(t)
	before := snapshotDoc(t, d)

	inv, err := core.Batch{
		core.Rename{ID: ids["B"], Title: "b"},
		core.SetTags{ID: ids["B"], Tags: core.NewTagSet("x")},
		core.Move{ID: ids["C"], Dir: core.Up},
	}.Apply(d)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "A1", "A2", "A3", "C", "b"}, titles(d))

	_, err = inv.Apply(d)
	require.NoError(t, err)
	assert.True(t, before.Equal(d))

	// a failing step rolls back the earlier ones
	_, err = core.Batch{
		core.Rename{ID: ids["B"], Title: "changed"},
		core.Delete{ID: core.RootID},
	}.Apply(d)
	assert.ErrorIs(t, err, core.ErrRootDeletion)
	assert.True(t, before.Equal(d))
}
