package codec

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/plume/pkg/core"
)

// Extent selects how much of the document an export covers.
type Extent int

const (
	// ExtentNode exports a single node.
	ExtentNode Extent = iota
	// ExtentSubtree exports a node and its descendants.
	ExtentSubtree
	// ExtentDocument exports every node.
	ExtentDocument
)

func (e Extent) String() string {
	switch e {
	case ExtentNode:
		return "node"
	case ExtentSubtree:
		return "subtree"
	case ExtentDocument:
		return "document"
	}
	return fmt.Sprintf("Extent(%d)", int(e))
}

// ParseExtent is the inverse of Extent.String.
func ParseExtent(s string) (Extent, error) {
	for _, e := range []Extent{ExtentNode, ExtentSubtree, ExtentDocument} {
		if e.String() == s {
			return e, nil
		}
	}
	return 0, fmt.Errorf("unknown export extent %q", s)
}

// Selection is the part of a document to export.
type Selection struct {
	Node   core.NodeID // ignored for ExtentDocument
	Extent Extent
}

// Whole selects the entire document.
func Whole() Selection {
	return Selection{Node: core.RootID, Extent: ExtentDocument}
}

// Nodes returns the selected nodes in pre-order.
func (s Selection) Nodes(doc *core.Document) ([]*core.Node, error) {
	if s.Extent == ExtentDocument {
		return collect(doc.Walk()), nil
	}
	n, ok := doc.Node(s.Node)
	if !ok || s.Node == core.RootID {
		return nil, fmt.Errorf("%w: %s", core.ErrNodeNotFound, s.Node)
	}
	if s.Extent == ExtentNode {
		return []*core.Node{n}, nil
	}
	return collect(doc.WalkFrom(s.Node)), nil
}

func collect(seq iter.Seq[*core.Node]) []*core.Node {
	var out []*core.Node
	for n := range seq {
		out = append(out, n)
	}
	return out
}

// Exporter renders a selection of a document into an export format.
type Exporter interface {
	Export(w io.Writer, doc *core.Document, sel Selection) error
}

// DefaultExporters returns the standard set of exporters keyed by file
// extension.
func DefaultExporters() map[string]Exporter {
	return map[string]Exporter{
		".html":     NewHTMLExporter(),
		".htm":      NewHTMLExporter(),
		".md":       NewMarkdownExporter(),
		".markdown": NewMarkdownExporter(),
		".yaml":     NewYAMLExporter(),
		".yml":      NewYAMLExporter(),
		".txt":      NewTextExporter(),
	}
}

// ErrUnknownFormat is returned by ExporterFor for unregistered extensions.
var ErrUnknownFormat = errors.New("unknown export format")

// ExporterFor picks an exporter by the extension of path.
func ExporterFor(path string) (Exporter, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if e, ok := DefaultExporters()[ext]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
}

// TitlePath returns the "/"-joined title chain of id, the form MatchNodes
// matches against. Slashes inside titles are replaced by "∕" (U+2215).
func TitlePath(doc *core.Document, id core.NodeID) (string, error) {
	path, err := doc.Path(id)
	if err != nil {
		return "", err
	}
	for i, p := range path {
		path[i] = strings.ReplaceAll(p, "/", "∕")
	}
	return strings.Join(path, "/"), nil
}

// MatchNodes returns, in pre-order, the nodes whose title path matches the
// doublestar pattern (e.g. "Projects/**").
func MatchNodes(doc *core.Document, pattern string) ([]*core.Node, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: %q", doublestar.ErrBadPattern, pattern)
	}
	var out []*core.Node
	for n := range doc.Walk() {
		p, err := TitlePath(doc, n.ID)
		if err != nil {
			return nil, err
		}
		if ok, _ := doublestar.Match(pattern, p); ok {
			out = append(out, n)
		}
	}
	return out, nil
}

// address renders the heading of a node in exports: its title path joined
// by " > ".
func address(doc *core.Document, id core.NodeID) string {
	path, _ := doc.Path(id)
	return strings.Join(path, " > ")
}

// depthIn returns the depth of n relative to the top of the selection.
func depthIn(doc *core.Document, n *core.Node, sel Selection) int {
	depth, _ := doc.Depth(n.ID)
	if sel.Extent == ExtentDocument {
		return depth
	}
	top, _ := doc.Depth(sel.Node)
	return depth - top
}
