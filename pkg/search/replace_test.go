package search_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/plume/pkg/core"
	"github.com/aretw0/plume/pkg/richtext"
	"github.com/aretw0/plume/pkg/search"
)

func TestReplaceAll_PreservesFormatting(t *testing.T) {
	d := core.NewDocument()
	n := core.NewNode("n")
	bold := richtext.Style{Bold: true}
	n.Body = richtext.New(
		richtext.Run{Text: "say "},
		richtext.Run{Text: "hel", Style: bold},
		richtext.Run{Text: "lo and "},
		richtext.Run{Text: "goodbye", Style: richtext.Style{Italic: true}},
	)
	require.NoError(t, d.AppendChild(core.RootID, n))

	res, err := search.ReplaceAll(d, search.Query{Pattern: "hello", Scope: search.ScopeBodies}, "hi")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Replaced)

	got, _ := d.Node(n.ID)
	want := richtext.New(
		richtext.Run{Text: "say "},
		richtext.Run{Text: "hi", Style: bold},
		richtext.Run{Text: " and "},
		richtext.Run{Text: "goodbye", Style: richtext.Style{Italic: true}},
	)
	assert.True(t, want.Equal(got.Body), "got %#v", got.Body)
}

func TestReplaceAll_TagsStayASet(t *testing.T) {
	d := core.NewDocument()
	n := core.NewNode("n")
	n.Tags = core.NewTagSet("todo", "todo-later", "later")
	require.NoError(t, d.AppendChild(core.RootID, n))

	res, err := search.ReplaceAll(d, search.Query{Pattern: "todo-", Scope: search.ScopeTags}, "")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Replaced)
	got, _ := d.Node(n.ID)
	assert.Equal(t, core.TagSet{"later", "todo"}, got.Tags)

	res, err = search.ReplaceAll(d, search.Query{Pattern: "later", Scope: search.ScopeTags, WholeWord: true}, "")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Replaced)
	assert.Equal(t, core.TagSet{"todo"}, got.Tags)
}

func TestReplaceAll_InvalidResultFailsWholeNode(t *testing.T) {
	d, alpha, beta := alphaBeta(t)
	require.NoError(t, d.Rename(alpha, "hello"))

	// a control character is not valid body text
	res, err := search.ReplaceAll(d, search.Query{Pattern: "hello", Scope: search.ScopeEverywhere}, "\x00")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Replaced)
	assert.Equal(t, 3, res.Failed)
	assert.Nil(t, res.Undo)

	a, _ := d.Node(alpha)
	assert.Equal(t, "hello", a.Title, "the title of a failed node is left alone")
	assert.Equal(t, "hello world", body(t, d, alpha))
	assert.Equal(t, "hello there", body(t, d, beta))
}

func TestReplaceAll_Undo(t *testing.T) {
	d, alpha, beta := alphaBeta(t)
	require.NoError(t, d.Rename(beta, "hello beta"))

	res, err := search.ReplaceAll(d, search.Query{Pattern: "hello", Scope: search.ScopeEverywhere}, "bye")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Replaced)
	require.NotNil(t, res.Undo)

	b, _ := d.Node(beta)
	assert.Equal(t, "bye beta", b.Title)

	h := core.NewHistory(0)
	require.NoError(t, h.Do(d, res.Undo))
	assert.Equal(t, "hello beta", b.Title)
	assert.Equal(t, "hello world", body(t, d, alpha))
	assert.Equal(t, "hello there", body(t, d, beta))

	require.NoError(t, h.Undo(d))
	assert.Equal(t, "bye beta", b.Title)
	assert.Equal(t, "bye world", body(t, d, alpha))
}

func TestReplaceAll_WholeWordAndCase(t *testing.T) {
	d := core.NewDocument()
	n := core.NewNode("Cat cat concat CAT")
	require.NoError(t, d.AppendChild(core.RootID, n))

	res, err := search.ReplaceAll(d, search.Query{Pattern: "cat", Scope: search.ScopeTitles, WholeWord: true}, "dog")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Replaced)
	assert.Equal(t, "dog dog concat dog", n.Title)

	res, err = search.ReplaceAll(d, search.Query{Pattern: "Dog", Scope: search.ScopeTitles, MatchCase: true}, "x")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Replaced)
	assert.Equal(t, "No Replacement", search.ReplaceSummary(res.Replaced))
}

func TestReplaceAll_ReplacementContainingPattern(t *testing.T) {
	d := core.NewDocument()
	n := core.NewNode("")
	n.Body = richtext.Plain("a a")
	require.NoError(t, d.AppendChild(core.RootID, n))

	res, err := search.ReplaceAll(d, search.Query{Pattern: "a", Scope: search.ScopeBodies}, "aa")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Replaced)
	assert.Equal(t, "aa aa", body(t, d, n.ID))
}
