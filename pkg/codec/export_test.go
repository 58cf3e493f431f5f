package codec_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/plume/pkg/codec"
	"github.com/aretw0/plume/pkg/core"
	"github.com/aretw0/plume/pkg/richtext"
)

// outline builds Projects > Plume > Notes, plus a separate Inbox.
func outline(t *testing.T) (*core.Document, map[string]core.NodeID) {
	t.Helper()
	d := core.NewDocument()
	ids := map[string]core.NodeID{}
	add := func(parent core.NodeID, title string, body richtext.Text) {
		n := core.NewNode(title)
		n.Body = body
		require.NoError(t, d.AppendChild(parent, n))
		ids[title] = n.ID
	}
	add(core.RootID, "Projects", richtext.Plain("all projects"))
	add(ids["Projects"], "Plume", richtext.New(
		richtext.Run{Text: "a "},
		richtext.Run{Text: "bold", Style: richtext.Style{Bold: true}},
		richtext.Run{Text: " move"},
	))
	add(ids["Plume"], "Notes", richtext.Plain("line one\nline two"))
	add(core.RootID, "Inbox", richtext.Text{})
	require.NoError(t, d.SetTags(ids["Plume"], core.NewTagSet("go")))
	return d, ids
}

func TestSelection_Nodes(t *testing.T) {
	d, ids := outline(t)

	nodes, err := codec.Selection{Node: ids["Plume"], Extent: codec.ExtentSubtree}.Nodes(d)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "Plume", nodes[0].Title)
	assert.Equal(t, "Notes", nodes[1].Title)

	nodes, err = codec.Selection{Node: ids["Plume"], Extent: codec.ExtentNode}.Nodes(d)
	require.NoError(t, err)
	assert.Len(t, nodes, 1)

	nodes, err = codec.Whole().Nodes(d)
	require.NoError(t, err)
	assert.Len(t, nodes, 4)

	_, err = codec.Selection{Node: "ghost"}.Nodes(d)
	assert.ErrorIs(t, err, core.ErrNodeNotFound)
}

func TestHTMLExporter(t *testing.T) {
	d, ids := outline(t)

	var buf bytes.Buffer
	err := codec.NewHTMLExporter().Export(&buf, d, codec.Selection{Node: ids["Plume"], Extent: codec.ExtentSubtree})
	require.NoError(t, err)
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<title>Plume</title>")
	assert.Contains(t, out, "<h2>Projects &gt; Plume</h2>")
	assert.Contains(t, out, "<h2>Projects &gt; Plume &gt; Notes</h2>")
	assert.Contains(t, out, "<p>a <b>bold</b> move</p>")
	assert.Contains(t, out, "<p>line one</p><p>line two</p>")
	assert.NotContains(t, out, "Inbox")
}

func TestMarkdownExporter(t *testing.T) {
	d, _ := outline(t)

	var buf bytes.Buffer
	require.NoError(t, codec.NewMarkdownExporter().Export(&buf, d, codec.Whole()))
	out := buf.String()

	assert.Contains(t, out, "# Projects\n\nall projects\n")
	assert.Contains(t, out, "## Plume\n\nTags: `go`\n\na **bold** move\n")
	assert.Contains(t, out, "### Notes\n\nline one  \nline two\n")
	assert.Contains(t, out, "# Inbox\n")
}

func TestMarkdownText(t *testing.T) {
	tbl := richtext.NewTable(2, 2)
	tbl.SetCell(0, 0, richtext.Plain("h1"))
	tbl.SetCell(0, 1, richtext.Plain("h2"))
	tbl.SetCell(1, 0, richtext.Plain("a|b"))

	txt := richtext.New(
		richtext.Run{Text: "see "},
		richtext.Run{Text: "docs", Style: richtext.Style{Link: "https://example.org", Italic: true}},
		richtext.Run{Text: " *now*"},
		tbl,
	)
	got := codec.MarkdownText(txt)

	assert.Contains(t, got, "see [_docs_](https://example.org) \\*now\\*")
	assert.Contains(t, got, "| h1 | h2 |\n| --- | --- |\n| a\\|b |  |")
}

func TestYAMLExporter(t *testing.T) {
	d, ids := outline(t)

	var buf bytes.Buffer
	require.NoError(t, codec.NewYAMLExporter().Export(&buf, d, codec.Selection{Node: ids["Projects"], Extent: codec.ExtentSubtree}))

	var got []struct {
		Title    string   `yaml:"title"`
		Text     string   `yaml:"text"`
		Children []struct {
			Title    string   `yaml:"title"`
			Tags     []string `yaml:"tags"`
			Children []struct {
				Title string `yaml:"title"`
				Text  string `yaml:"text"`
			} `yaml:"children"`
		} `yaml:"children"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Projects", got[0].Title)
	require.Len(t, got[0].Children, 1)
	assert.Equal(t, []string{"go"}, got[0].Children[0].Tags)
	require.Len(t, got[0].Children[0].Children, 1)
	assert.Equal(t, "line one\nline two", got[0].Children[0].Children[0].Text)
}

func TestTextExporter(t *testing.T) {
	d, ids := outline(t)

	var buf bytes.Buffer
	require.NoError(t, codec.NewTextExporter().Export(&buf, d, codec.Selection{Node: ids["Notes"], Extent: codec.ExtentNode}))
	assert.Equal(t, "Projects > Plume > Notes\n========================\nline one\nline two\n", buf.String())
}

func TestExporterFor(t *testing.T) {
	for _, path := range []string{"out.html", "OUT.HTM", "a.md", "b.yaml", "c.yml", "d.txt"} {
		e, err := codec.ExporterFor(path)
		require.NoError(t, err, path)
		assert.NotNil(t, e)
	}
	_, err := codec.ExporterFor("x.pdf")
	assert.ErrorIs(t, err, codec.ErrUnknownFormat)
}

func TestMatchNodes(t *testing.T) {
	d, _ := outline(t)

	titles := func(pattern string) []string {
		nodes, err := codec.MatchNodes(d, pattern)
		require.NoError(t, err)
		var out []string
		for _, n := range nodes {
			out = append(out, n.Title)
		}
		return out
	}

	assert.Equal(t, []string{"Plume"}, titles("Projects/*"))
	assert.Equal(t, []string{"Notes"}, titles("**/Notes"))
	assert.Equal(t, []string{"Projects", "Inbox"}, titles("*"))
	assert.Empty(t, titles("Nothing/**"))

	_, err := codec.MatchNodes(d, "[")
	assert.Error(t, err)
}
