package search_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/plume/pkg/core"
	"github.com/aretw0/plume/pkg/richtext"
	"github.com/aretw0/plume/pkg/search"
)

// alphaBeta builds Alpha (tags {x}, "hello world") with child Beta
// ("hello there").
func alphaBeta(t *testing.T) (*core.Document, core.NodeID, core.NodeID) {
	t.Helper()
	d := core.NewDocument()
	alpha := core.NewNode("Alpha")
	alpha.Tags = core.NewTagSet("x")
	alpha.Body = richtext.Plain("hello world")
	require.NoError(t, d.AppendChild(core.RootID, alpha))
	beta := core.NewNode("Beta")
	beta.Body = richtext.Plain("hello there")
	require.NoError(t, d.AppendChild(alpha.ID, beta))
	return d, alpha.ID, beta.ID
}

func body(t *testing.T, d *core.Document, id core.NodeID) string {
	t.Helper()
	n, ok := d.Node(id)
	require.True(t, ok)
	return n.Body.PlainText()
}

func TestAlphaBeta(t *testing.T) {
	d, alpha, beta := alphaBeta(t)
	q := search.Query{Pattern: "hello", Scope: search.ScopeEverywhere}

	assert.Equal(t, 2, search.Count(d, q))

	res, err := search.ReplaceAll(d, q, "hi")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Replaced)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, "hi world", body(t, d, alpha))
	assert.Equal(t, "hi there", body(t, d, beta))
	assert.Equal(t, "2 Replacements", search.ReplaceSummary(res.Replaced))
	assert.Equal(t, 0, search.Count(d, q))
}

func TestCount_Scopes(t *testing.T) {
	d := core.NewDocument()
	n := core.NewNode("Go notes")
	n.Tags = core.NewTagSet("go", "golang", "misc")
	n.Body = richtext.Plain("GO go Go gopher")
	require.NoError(t, d.AppendChild(core.RootID, n))

	testCases := []struct {
		name string
		q    search.Query
		want int
	}{
		{"titles", search.Query{Pattern: "go", Scope: search.ScopeTitles}, 1},
		{"tags", search.Query{Pattern: "go", Scope: search.ScopeTags}, 2},
		{"bodies", search.Query{Pattern: "go", Scope: search.ScopeBodies}, 4},
		{"everywhere", search.Query{Pattern: "go", Scope: search.ScopeEverywhere}, 7},
		{"match case", search.Query{Pattern: "go", Scope: search.ScopeBodies, MatchCase: true}, 2},
		{"whole word", search.Query{Pattern: "go", Scope: search.ScopeEverywhere, WholeWord: true}, 5},
		{"empty pattern", search.Query{Pattern: "", Scope: search.ScopeEverywhere}, 0},
		{"no scope", search.Query{Pattern: "go"}, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, search.Count(d, tc.q))
		})
	}
}

func TestCount_NonOverlapping(t *testing.T) {
	d := core.NewDocument()
	n := core.NewNode("aaaa")
	require.NoError(t, d.AppendChild(core.RootID, n))
	assert.Equal(t, 2, search.Count(d, search.Query{Pattern: "aa", Scope: search.ScopeTitles}))
	assert.Equal(t, 1, search.Count(d, search.Query{Pattern: "aaa", Scope: search.ScopeTitles}))
}

func TestCount_WholeWordNeverExceedsSubstring(t *testing.T) {
	d := core.NewDocument()
	for _, title := range []string{"cat", "concat cat_x", "cat-cat", "ünicat cat", "CAT Cat", "scatter"} {
		n := core.NewNode(title)
		n.Body = richtext.Plain(title + " " + title)
		n.Tags = core.NewTagSet(title)
		require.NoError(t, d.AppendChild(core.RootID, n))
	}
	for _, pattern := range []string{"cat", "at", "c", "cat cat", "-", "x"} {
		for _, matchCase := range []bool{false, true} {
			q := search.Query{Pattern: pattern, Scope: search.ScopeEverywhere, MatchCase: matchCase}
			all := search.Count(d, q)
			q.WholeWord = true
			whole := search.Count(d, q)
			assert.LessOrEqual(t, whole, all, "pattern %q, match case %v", pattern, matchCase)
		}
	}
}

func TestMatches_PositionsAreRunesWithinFlows(t *testing.T) {
	d := core.NewDocument()
	tbl := richtext.NewTable(1, 1)
	tbl.SetCell(0, 0, richtext.Plain("née"))
	n := core.NewNode("t")
	n.Body = richtext.New(
		richtext.Run{Text: "ne"},
		richtext.Run{Text: "e", Style: richtext.Style{Bold: true}},
		tbl,
		richtext.Run{Text: "né"},
	)
	require.NoError(t, d.AppendChild(core.RootID, n))

	// "ne" + "e" joins into "nee" in the first flow; the cell and the last
	// run are separate flows, so "en" never matches across them
	got := search.Matches(d, search.Query{Pattern: "e", Scope: search.ScopeBodies, MatchCase: true})
	require.Len(t, got, 3)
	assert.Equal(t, search.Match{Node: n.ID, Field: search.FieldBody, Index: 0, Start: 1, End: 2}, got[0])
	assert.Equal(t, search.Match{Node: n.ID, Field: search.FieldBody, Index: 0, Start: 2, End: 3}, got[1])
	assert.Equal(t, search.Match{Node: n.ID, Field: search.FieldBody, Index: 1, Start: 2, End: 3}, got[2])

	assert.Equal(t, 0, search.Count(d, search.Query{Pattern: "en", Scope: search.ScopeBodies}))
	assert.Equal(t, 2, search.Count(d, search.Query{Pattern: "É", Scope: search.ScopeBodies}))
}

func TestSummaries(t *testing.T) {
	assert.Equal(t, "No Match", search.MatchSummary(0))
	assert.Equal(t, "One Match", search.MatchSummary(1))
	assert.Equal(t, "5 Matches", search.MatchSummary(5))
	assert.Equal(t, "No Replacement", search.ReplaceSummary(0))
	assert.Equal(t, "One Replacement", search.ReplaceSummary(1))
}

func TestParseScope(t *testing.T) {
	for _, s := range []search.Scope{search.ScopeTitles, search.ScopeTags, search.ScopeBodies, search.ScopeEverywhere} {
		got, err := search.ParseScope(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := search.ParseScope("nowhere")
	assert.Error(t, err)
}

func TestTaggedWith(t *testing.T) {
	d := core.NewDocument()
	for title, tags := range map[string][]string{
		"a": {"work/plume", "todo"},
		"b": {"work/other"},
		"c": {"home"},
	} {
		n := core.NewNode(title)
		n.Tags = core.NewTagSet(tags...)
		require.NoError(t, d.AppendChild(core.RootID, n))
	}

	nodes, err := search.TaggedWith(d, "work/*")
	require.NoError(t, err)
	assert.Len(t, nodes, 2)

	nodes, err = search.TaggedWith(d, "todo")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "a", nodes[0].Title)

	_, err = search.TaggedWith(d, "[")
	assert.Error(t, err)
}
