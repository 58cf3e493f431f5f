package codec

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/plume/pkg/core"
	"github.com/aretw0/plume/pkg/richtext"
)

// --- HTML Exporter ---

// HTMLExporter writes a standalone HTML page. Every node is preceded by an
// <h2> heading holding its address ("A > B > C").
type HTMLExporter struct {
	// Title of the page; defaults to the first exported node's title.
	Title string
}

func NewHTMLExporter() *HTMLExporter {
	return &HTMLExporter{}
}

func (e *HTMLExporter) Export(w io.Writer, doc *core.Document, sel Selection) error {
	nodes, err := sel.Nodes(doc)
	if err != nil {
		return err
	}

	title := e.Title
	if title == "" && len(nodes) > 0 {
		title = nodes[0].Title
	}

	page := htmlElement(atom.Html)
	head := htmlElement(atom.Head)
	head.AppendChild(htmlElement(atom.Meta, html.Attribute{Key: "charset", Val: "utf-8"}))
	titleEl := htmlElement(atom.Title)
	titleEl.AppendChild(textNode(title))
	head.AppendChild(titleEl)
	page.AppendChild(head)

	body := htmlElement(atom.Body)
	for _, n := range nodes {
		h := htmlElement(atom.H2)
		h.AppendChild(textNode(address(doc, n.ID)))
		body.AppendChild(h)
		for _, el := range htmlNodes(n.Body) {
			body.AppendChild(el)
		}
	}
	page.AppendChild(body)

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("<!DOCTYPE html>\n"); err != nil {
		return err
	}
	if err := html.Render(bw, page); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	return bw.Flush()
}

// --- Markdown Exporter ---

// MarkdownExporter writes each node as a heading whose level follows its
// depth within the selection, followed by its tags and body.
type MarkdownExporter struct{}

func NewMarkdownExporter() *MarkdownExporter {
	return &MarkdownExporter{}
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`",
	"[", `\[`, "]", `\]`, "#", `\#`, "~", `\~`, "|", `\|`, "<", `\<`,
)

func (e *MarkdownExporter) Export(w io.Writer, doc *core.Document, sel Selection) error {
	nodes, err := sel.Nodes(doc)
	if err != nil {
		return err
	}
	var sb strings.Builder
	for i, n := range nodes {
		if i > 0 {
			sb.WriteString("\n")
		}
		level := min(depthIn(doc, n, sel)+1, 6)
		title := n.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(&sb, "%s %s\n\n", strings.Repeat("#", level), mdEscaper.Replace(title))
		if len(n.Tags) > 0 {
			tags := make([]string, len(n.Tags))
			for j, t := range n.Tags {
				tags[j] = "`" + t + "`"
			}
			fmt.Fprintf(&sb, "Tags: %s\n\n", strings.Join(tags, " "))
		}
		if body := MarkdownText(n.Body); body != "" {
			sb.WriteString(body)
			sb.WriteString("\n")
		}
	}
	_, err = io.WriteString(w, sb.String())
	return err
}

// MarkdownText renders formatted text as Markdown. Underline and vertical
// alignment have no Markdown form and are dropped; colours likewise.
func MarkdownText(t richtext.Text) string {
	var sb strings.Builder
	for _, el := range t.Elements {
		switch v := el.(type) {
		case richtext.Run:
			writeMarkdownRun(&sb, v)
		case richtext.Table:
			if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
				sb.WriteString("\n")
			}
			sb.WriteString("\n")
			writeMarkdownTable(&sb, v)
			sb.WriteString("\n")
		case richtext.Image:
			switch {
			case v.Path != "":
				fmt.Fprintf(&sb, "![](%s)", v.Path)
			case len(v.Data) > 0:
				format := v.Format
				if format == "" {
					format = "png"
				}
				fmt.Fprintf(&sb, "![image](data:image/%s;base64,%s)", format, base64.StdEncoding.EncodeToString(v.Data))
			}
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func writeMarkdownRun(sb *strings.Builder, r richtext.Run) {
	// markers may not wrap line breaks, so style each line separately
	lines := strings.Split(r.Text, "\n")
	for i, line := range lines {
		if i > 0 {
			sb.WriteString("  \n")
		}
		if strings.TrimSpace(line) == "" {
			sb.WriteString(line)
			continue
		}
		// keep surrounding blanks outside the markers
		lead := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		trail := line[len(strings.TrimRight(line, " \t")):]
		inner := mdEscaper.Replace(strings.TrimSpace(line))
		if r.Style.Strike {
			inner = "~~" + inner + "~~"
		}
		if r.Style.Italic {
			inner = "_" + inner + "_"
		}
		if r.Style.Bold {
			inner = "**" + inner + "**"
		}
		if r.Style.Link != "" {
			inner = "[" + inner + "](" + r.Style.Link + ")"
		}
		sb.WriteString(lead + inner + trail)
	}
}

func writeMarkdownTable(sb *strings.Builder, t richtext.Table) {
	cell := func(r, c int) string {
		s := MarkdownText(t.Cell(r, c))
		return strings.ReplaceAll(s, "  \n", "<br>")
	}
	for r := 0; r < t.Rows; r++ {
		sb.WriteString("|")
		for c := 0; c < t.Cols; c++ {
			fmt.Fprintf(sb, " %s |", cell(r, c))
		}
		sb.WriteString("\n")
		if r == 0 {
			sb.WriteString("|" + strings.Repeat(" --- |", t.Cols) + "\n")
		}
	}
}

// --- YAML Exporter ---

// YAMLExporter writes the selection as a nested outline of titles, tags and
// plain text.
type YAMLExporter struct{}

func NewYAMLExporter() *YAMLExporter {
	return &YAMLExporter{}
}

type outlineNode struct {
	Title    string        `yaml:"title"`
	Tags     []string      `yaml:"tags,omitempty"`
	Text     string        `yaml:"text,omitempty"`
	Children []outlineNode `yaml:"children,omitempty"`
}

func (e *YAMLExporter) Export(w io.Writer, doc *core.Document, sel Selection) error {
	var top []core.NodeID
	switch sel.Extent {
	case ExtentDocument:
		top = doc.Root().Children()
	default:
		if _, err := sel.Nodes(doc); err != nil {
			return err
		}
		top = []core.NodeID{sel.Node}
	}

	var build func(id core.NodeID) outlineNode
	build = func(id core.NodeID) outlineNode {
		n, _ := doc.Node(id)
		o := outlineNode{Title: n.Title, Tags: n.Tags, Text: n.Body.PlainText()}
		if sel.Extent != ExtentNode {
			for _, c := range n.Children() {
				o.Children = append(o.Children, build(c))
			}
		}
		return o
	}
	outline := make([]outlineNode, 0, len(top))
	for _, id := range top {
		outline = append(outline, build(id))
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(outline); err != nil {
		return err
	}
	return enc.Close()
}

// --- Plain Text Exporter ---

// TextExporter writes each node's address followed by its plain text.
type TextExporter struct{}

func NewTextExporter() *TextExporter {
	return &TextExporter{}
}

func (e *TextExporter) Export(w io.Writer, doc *core.Document, sel Selection) error {
	nodes, err := sel.Nodes(doc)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	for i, n := range nodes {
		if i > 0 {
			bw.WriteString("\n")
		}
		heading := address(doc, n.ID)
		bw.WriteString(heading + "\n")
		bw.WriteString(strings.Repeat("=", max(3, len([]rune(heading)))) + "\n")
		if text := n.Body.PlainText(); text != "" {
			bw.WriteString(text)
			if !strings.HasSuffix(text, "\n") {
				bw.WriteString("\n")
			}
		}
	}
	return bw.Flush()
}
