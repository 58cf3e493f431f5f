package codec

import (
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aretw0/plume/pkg/core"
	"github.com/aretw0/plume/pkg/crypto"
	"github.com/aretw0/plume/pkg/richtext"
)

const (
	rootElement   = "plume"
	legacyElement = "feathernotes"
)

// XMLCodec reads and writes the nested XML document format.
//
// It writes version 2 only. It reads version 2 and the legacy version 1
// layout (root element "feathernotes" with HTML bodies).
type XMLCodec struct {
	// KDFIterations is applied to documents whose legacy plaintext password
	// is converted into a verifier. Zero selects the crypto default.
	KDFIterations int
}

// NewXMLCodec creates a codec with default settings.
func NewXMLCodec() *XMLCodec {
	return &XMLCodec{}
}

var _ Codec = (*XMLCodec)(nil)

// --- Encoding ---

func (c *XMLCodec) Encode(w io.Writer, doc *core.Document) error {
	if err := doc.DefaultFont.Validate(); err != nil {
		return fmt.Errorf("text font: %w", err)
	}
	if err := doc.NodeFont.Validate(); err != nil {
		return fmt.Errorf("node font: %w", err)
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", " ")

	attrs := []xml.Attr{
		{Name: xml.Name{Local: "version"}, Value: strconv.Itoa(CurrentVersion)},
		{Name: xml.Name{Local: "txtfont"}, Value: doc.DefaultFont.String()},
		{Name: xml.Name{Local: "nodefont"}, Value: doc.NodeFont.String()},
	}
	if doc.Verifier != nil {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "verifier"}, Value: doc.Verifier.String()})
	}
	root := xml.StartElement{Name: xml.Name{Local: rootElement}, Attr: attrs}

	if err := enc.EncodeToken(root); err != nil {
		return err
	}
	for _, id := range doc.Root().Children() {
		if err := encodeNode(enc, doc, id); err != nil {
			return err
		}
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

func start(name string, attrs ...xml.Attr) xml.StartElement {
	return xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs}
}

// leaf writes <name attrs>text</name>.
func leaf(enc *xml.Encoder, el xml.StartElement, text string) error {
	if err := enc.EncodeToken(el); err != nil {
		return err
	}
	if text != "" {
		if err := enc.EncodeToken(xml.CharData(text)); err != nil {
			return err
		}
	}
	return enc.EncodeToken(el.End())
}

func encodeNode(enc *xml.Encoder, doc *core.Document, id core.NodeID) error {
	n, _ := doc.Node(id)
	// fields are exported, so a node may have been edited in place
	if err := n.Validate(); err != nil {
		return fmt.Errorf("node %s: %w", n.ID, err)
	}

	attrs := []xml.Attr{attr("id", string(n.ID)), attr("name", n.Title)}
	if n.Expanded {
		attrs = append(attrs, attr("expanded", "1"))
	}
	if n.Font != nil {
		attrs = append(attrs, attr("font", n.Font.String()))
	}
	if n.Icon != nil {
		if len(n.Icon.Data) > 0 {
			attrs = append(attrs, attr("icon", base64.StdEncoding.EncodeToString(n.Icon.Data)))
		}
		if n.Icon.Name != "" {
			attrs = append(attrs, attr("iconname", n.Icon.Name))
		}
	}
	el := start("node", attrs...)
	if err := enc.EncodeToken(el); err != nil {
		return err
	}

	for _, tag := range n.Tags {
		if err := leaf(enc, start("tag"), tag); err != nil {
			return err
		}
	}
	if !n.Body.IsEmpty() {
		body := start("body")
		if err := enc.EncodeToken(body); err != nil {
			return err
		}
		if err := encodeElements(enc, n.Body.Elements); err != nil {
			return err
		}
		if err := enc.EncodeToken(body.End()); err != nil {
			return err
		}
	}
	for _, child := range n.Children() {
		if err := encodeNode(enc, doc, child); err != nil {
			return err
		}
	}
	return enc.EncodeToken(el.End())
}

func encodeElements(enc *xml.Encoder, elems []richtext.Element) error {
	for _, e := range elems {
		var err error
		switch v := e.(type) {
		case richtext.Run:
			err = leaf(enc, start("run", styleAttrs(v.Style)...), v.Text)
		case richtext.Table:
			err = encodeTable(enc, v)
		case richtext.Image:
			var attrs []xml.Attr
			if v.Format != "" {
				attrs = append(attrs, attr("format", v.Format))
			}
			if v.Scale != 0 {
				attrs = append(attrs, attr("scale", strconv.Itoa(v.Scale)))
			}
			if v.Path != "" {
				attrs = append(attrs, attr("path", v.Path))
			}
			err = leaf(enc, start("image", attrs...), base64.StdEncoding.EncodeToString(v.Data))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func encodeTable(enc *xml.Encoder, t richtext.Table) error {
	table := start("table", attr("cols", strconv.Itoa(t.Cols)))
	if err := enc.EncodeToken(table); err != nil {
		return err
	}
	for r := 0; r < t.Rows; r++ {
		row := start("row")
		if err := enc.EncodeToken(row); err != nil {
			return err
		}
		for c := 0; c < t.Cols; c++ {
			cell := start("cell")
			if err := enc.EncodeToken(cell); err != nil {
				return err
			}
			if err := encodeElements(enc, t.Cell(r, c).Elements); err != nil {
				return err
			}
			if err := enc.EncodeToken(cell.End()); err != nil {
				return err
			}
		}
		if err := enc.EncodeToken(row.End()); err != nil {
			return err
		}
	}
	return enc.EncodeToken(table.End())
}

func styleAttrs(s richtext.Style) []xml.Attr {
	var attrs []xml.Attr
	flag := func(name string, on bool) {
		if on {
			attrs = append(attrs, attr(name, "1"))
		}
	}
	flag("b", s.Bold)
	flag("i", s.Italic)
	flag("u", s.Underline)
	flag("s", s.Strike)
	if s.VAlign != richtext.VAlignNormal {
		attrs = append(attrs, attr("va", s.VAlign.String()))
	}
	if s.Foreground != "" {
		attrs = append(attrs, attr("fg", s.Foreground))
	}
	if s.Background != "" {
		attrs = append(attrs, attr("bg", s.Background))
	}
	if s.Align != richtext.AlignDefault {
		attrs = append(attrs, attr("align", s.Align.String()))
	}
	if s.Link != "" {
		attrs = append(attrs, attr("href", s.Link))
	}
	return attrs
}

// --- Decoding ---

// element is a generic XML element. Children keep their document order.
type element struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []element  `xml:",any"`
}

func (e *element) attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", core.ErrMalformedDocument, fmt.Sprintf(format, args...))
}

func (c *XMLCodec) Decode(r io.Reader) (*core.Document, error) {
	var root element
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedDocument, err)
	}
	if err := expectEOF(dec); err != nil {
		return nil, err
	}

	var (
		doc *core.Document
		err error
	)
	switch root.XMLName.Local {
	case rootElement:
		doc, err = decodeCurrent(&root)
	case legacyElement:
		doc, err = c.decodeLegacy(&root)
	default:
		return nil, malformed("unexpected root element <%s>", root.XMLName.Local)
	}
	if err != nil {
		return nil, err
	}
	doc.MarkSaved()
	return doc, nil
}

// expectEOF allows only whitespace, comments and processing instructions
// after the root element.
func expectEOF(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", core.ErrMalformedDocument, err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			if len(strings.TrimSpace(string(t))) > 0 {
				return malformed("text after root element")
			}
		case xml.Comment, xml.ProcInst:
		default:
			return malformed("content after root element")
		}
	}
}

func decodeCurrent(root *element) (*core.Document, error) {
	v, ok := root.attr("version")
	if !ok {
		return nil, malformed("missing version")
	}
	version, err := strconv.Atoi(v)
	if err != nil {
		return nil, malformed("invalid version %q", v)
	}
	if version > CurrentVersion {
		return nil, fmt.Errorf("%w: %d (newest known is %d)", core.ErrUnsupportedVersion, version, CurrentVersion)
	}
	if version != CurrentVersion {
		return nil, malformed("unknown version %d", version)
	}

	doc := core.NewDocument()
	if s, ok := root.attr("txtfont"); ok {
		f, err := core.ParseFont(s)
		if err != nil {
			return nil, malformed("txtfont: %v", err)
		}
		doc.DefaultFont = f
	}
	if s, ok := root.attr("nodefont"); ok {
		f, err := core.ParseFont(s)
		if err != nil {
			return nil, malformed("nodefont: %v", err)
		}
		doc.NodeFont = f
	}
	if s, ok := root.attr("verifier"); ok {
		ver, err := crypto.ParseVerifier(s)
		if err != nil {
			return nil, malformed("verifier: %v", err)
		}
		doc.Verifier = ver
	}

	for i := range root.Children {
		child := &root.Children[i]
		if child.XMLName.Local != "node" {
			return nil, malformed("unexpected <%s> in document", child.XMLName.Local)
		}
		if err := decodeNode(doc, core.RootID, child); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func decodeNode(doc *core.Document, parent core.NodeID, e *element) error {
	id, ok := e.attr("id")
	if !ok || id == "" {
		return malformed("node without id")
	}
	n := &core.Node{ID: core.NodeID(id)}
	n.Title, _ = e.attr("name")
	if v, ok := e.attr("expanded"); ok {
		n.Expanded = v == "1"
	}
	if v, ok := e.attr("font"); ok {
		f, err := core.ParseFont(v)
		if err != nil {
			return malformed("node %s font: %v", id, err)
		}
		n.Font = &f
	}
	icon, err := decodeIcon(e)
	if err != nil {
		return malformed("node %s: %v", id, err)
	}
	n.Icon = icon

	var (
		tags     []string
		children []*element
	)
	for i := range e.Children {
		child := &e.Children[i]
		switch child.XMLName.Local {
		case "tag":
			tags = append(tags, child.Text)
		case "body":
			elems, err := decodeElements(child)
			if err != nil {
				return malformed("node %s body: %v", id, err)
			}
			n.Body = richtext.New(elems...)
		case "node":
			children = append(children, child)
		default:
			return malformed("unexpected <%s> in node %s", child.XMLName.Local, id)
		}
	}
	n.Tags = core.NewTagSet(tags...)

	if err := doc.AppendChild(parent, n); err != nil {
		return fmt.Errorf("%w: %w", core.ErrMalformedDocument, err)
	}
	for _, child := range children {
		if err := decodeNode(doc, n.ID, child); err != nil {
			return err
		}
	}
	return nil
}

func decodeIcon(e *element) (*core.Icon, error) {
	data, hasData := e.attr("icon")
	name, hasName := e.attr("iconname")
	if !hasData && !hasName {
		return nil, nil
	}
	icon := &core.Icon{Name: name}
	if hasData && data != "" {
		b, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("icon: %v", err)
		}
		icon.Data = b
	}
	return icon, nil
}

func decodeElements(parent *element) ([]richtext.Element, error) {
	var out []richtext.Element
	for i := range parent.Children {
		e := &parent.Children[i]
		switch e.XMLName.Local {
		case "run":
			st, err := decodeStyle(e)
			if err != nil {
				return nil, err
			}
			out = append(out, richtext.Run{Text: e.Text, Style: st})
		case "table":
			t, err := decodeTable(e)
			if err != nil {
				return nil, err
			}
			out = append(out, t)
		case "image":
			img, err := decodeImage(e)
			if err != nil {
				return nil, err
			}
			out = append(out, img)
		default:
			return nil, fmt.Errorf("unexpected <%s>", e.XMLName.Local)
		}
	}
	return out, nil
}

func decodeStyle(e *element) (richtext.Style, error) {
	var s richtext.Style
	for _, a := range e.Attrs {
		var err error
		switch a.Name.Local {
		case "b":
			s.Bold = a.Value == "1"
		case "i":
			s.Italic = a.Value == "1"
		case "u":
			s.Underline = a.Value == "1"
		case "s":
			s.Strike = a.Value == "1"
		case "va":
			s.VAlign, err = richtext.ParseVAlign(a.Value)
		case "fg":
			s.Foreground = a.Value
		case "bg":
			s.Background = a.Value
		case "align":
			s.Align, err = richtext.ParseAlign(a.Value)
		case "href":
			s.Link = a.Value
		default:
			err = fmt.Errorf("unknown run attribute %q", a.Name.Local)
		}
		if err != nil {
			return s, err
		}
	}
	return s, s.Validate()
}

func decodeTable(e *element) (richtext.Table, error) {
	v, ok := e.attr("cols")
	if !ok {
		return richtext.Table{}, fmt.Errorf("table without cols")
	}
	cols, err := strconv.Atoi(v)
	if err != nil || cols < 1 {
		return richtext.Table{}, fmt.Errorf("invalid table cols %q", v)
	}
	t := richtext.Table{Cols: cols}
	for i := range e.Children {
		row := &e.Children[i]
		if row.XMLName.Local != "row" {
			return richtext.Table{}, fmt.Errorf("unexpected <%s> in table", row.XMLName.Local)
		}
		if len(row.Children) != cols {
			return richtext.Table{}, fmt.Errorf("table row %d has %d cells, want %d", t.Rows, len(row.Children), cols)
		}
		for j := range row.Children {
			cell := &row.Children[j]
			if cell.XMLName.Local != "cell" {
				return richtext.Table{}, fmt.Errorf("unexpected <%s> in table row", cell.XMLName.Local)
			}
			elems, err := decodeElements(cell)
			if err != nil {
				return richtext.Table{}, err
			}
			t.Cells = append(t.Cells, richtext.New(elems...))
		}
		t.Rows++
	}
	if t.Rows == 0 {
		return richtext.Table{}, fmt.Errorf("table without rows")
	}
	return t, nil
}

func decodeImage(e *element) (richtext.Image, error) {
	img := richtext.Image{}
	img.Format, _ = e.attr("format")
	img.Path, _ = e.attr("path")
	if v, ok := e.attr("scale"); ok {
		scale, err := strconv.Atoi(v)
		if err != nil || scale < 1 || scale > richtext.MaxScale {
			return img, fmt.Errorf("invalid image scale %q", v)
		}
		img.Scale = scale
	}
	if data := strings.TrimSpace(e.Text); data != "" {
		b, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return img, fmt.Errorf("image data: %v", err)
		}
		img.Data = b
	}
	return img, nil
}
