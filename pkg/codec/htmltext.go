package codec

import (
	"bytes"
	"encoding/base64"
	"image"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	// decoders used to read natural image sizes
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/aretw0/plume/pkg/richtext"
)

// --- HTML to rich text (legacy bodies) ---

var (
	colorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	pxRe    = regexp.MustCompile(`^(\d+)(px)?$`)
)

// textFromHTML converts a rich-text HTML document (as written by Qt text
// widgets) into a run list. Unknown markup is flattened to its text.
func textFromHTML(src string) (richtext.Text, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return richtext.Text{}, err
	}
	body := findElement(root, atom.Body)
	if body == nil {
		body = root
	}
	var c htmlConverter
	c.blockChildren(body, richtext.Style{})
	return richtext.New(c.out...), nil
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if f := findElement(c, a); f != nil {
			return f
		}
	}
	return nil
}

type htmlConverter struct {
	out []richtext.Element
	// paragraph is true once a paragraph has been emitted in the current
	// flow, so the next one needs a separating newline.
	paragraph bool
}

func (c *htmlConverter) text(s string, st richtext.Style) {
	c.out = append(c.out, richtext.Run{Text: s, Style: st})
}

func isBlock(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.P, atom.Div, atom.Li, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Pre, atom.Blockquote, atom.Ul, atom.Ol, atom.Table:
		return true
	}
	return false
}

// blockChildren handles a container whose whitespace-only text children are
// layout noise.
func (c *htmlConverter) blockChildren(n *html.Node, st richtext.Style) {
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if ch.Type == html.TextNode && strings.TrimSpace(ch.Data) == "" {
			continue
		}
		c.node(ch, st)
	}
}

func (c *htmlConverter) node(n *html.Node, st richtext.Style) {
	switch n.Type {
	case html.TextNode:
		c.text(n.Data, st)
		return
	case html.ElementNode:
	default:
		return
	}

	st = applyElementStyle(n, st)
	switch n.DataAtom {
	case atom.Head, atom.Style, atom.Script, atom.Title:
	case atom.Br:
		c.text("\n", st)
	case atom.Img:
		if img, ok := imageFromHTML(n); ok {
			c.out = append(c.out, img)
		}
	case atom.Table:
		c.out = append(c.out, tableFromHTML(n, st))
		c.paragraph = false
	case atom.Ul, atom.Ol:
		c.blockChildren(n, st)
	case atom.P, atom.Div, atom.Li, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Pre, atom.Blockquote:
		if c.paragraph {
			c.text("\n", richtext.Style{Align: st.Align})
		}
		c.paragraph = true
		if isEmptyParagraph(n) {
			return
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			if isBlock(ch) && ch.DataAtom != atom.Table {
				// nested block starts its own paragraph
				c.paragraph = true
			}
			c.node(ch, st)
		}
	default:
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			c.node(ch, st)
		}
	}
}

// isEmptyParagraph matches the placeholder Qt writes for blank lines:
// a paragraph holding at most one <br>.
func isEmptyParagraph(n *html.Node) bool {
	breaks := 0
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		switch {
		case ch.Type == html.ElementNode && ch.DataAtom == atom.Br:
			breaks++
		case ch.Type == html.TextNode && ch.Data == "":
		default:
			return false
		}
	}
	return breaks <= 1
}

func attrOf(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func applyElementStyle(n *html.Node, st richtext.Style) richtext.Style {
	switch n.DataAtom {
	case atom.B, atom.Strong:
		st.Bold = true
	case atom.I, atom.Em:
		st.Italic = true
	case atom.U, atom.Ins:
		st.Underline = true
	case atom.S, atom.Strike, atom.Del:
		st.Strike = true
	case atom.Sup:
		st.VAlign = richtext.VAlignSuper
	case atom.Sub:
		st.VAlign = richtext.VAlignSub
	case atom.A:
		if href, ok := attrOf(n, "href"); ok {
			st.Link = href
		}
	case atom.Font:
		if col, ok := attrOf(n, "color"); ok && colorRe.MatchString(col) {
			st.Foreground = strings.ToLower(col)
		}
	}
	if al, ok := attrOf(n, "align"); ok {
		if a, err := richtext.ParseAlign(strings.ToLower(al)); err == nil {
			st.Align = a
		}
	}
	if css, ok := attrOf(n, "style"); ok {
		st = applyCSS(css, st)
	}
	return st
}

// applyCSS interprets the inline declarations Qt emits for character and
// block formats.
func applyCSS(css string, st richtext.Style) richtext.Style {
	for _, decl := range strings.Split(css, ";") {
		prop, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		val = strings.ToLower(strings.TrimSpace(val))
		switch prop {
		case "font-weight":
			if w, err := strconv.Atoi(val); err == nil {
				st.Bold = w >= 600
			} else {
				st.Bold = val == "bold" || val == "bolder"
			}
		case "font-style":
			st.Italic = val == "italic" || val == "oblique"
		case "text-decoration":
			for _, d := range strings.Fields(val) {
				switch d {
				case "underline":
					st.Underline = true
				case "line-through":
					st.Strike = true
				case "none":
					st.Underline, st.Strike = false, false
				}
			}
		case "vertical-align":
			switch val {
			case "super":
				st.VAlign = richtext.VAlignSuper
			case "sub":
				st.VAlign = richtext.VAlignSub
			case "baseline":
				st.VAlign = richtext.VAlignNormal
			}
		case "color":
			if colorRe.MatchString(val) {
				st.Foreground = val
			}
		case "background-color":
			if colorRe.MatchString(val) {
				st.Background = val
			}
		case "text-align":
			if a, err := richtext.ParseAlign(val); err == nil {
				st.Align = a
			}
		}
	}
	return st
}

func tableFromHTML(n *html.Node, st richtext.Style) richtext.Table {
	var rows [][]richtext.Text
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			if ch.Type != html.ElementNode {
				continue
			}
			switch ch.DataAtom {
			case atom.Tr:
				var row []richtext.Text
				for cell := ch.FirstChild; cell != nil; cell = cell.NextSibling {
					if cell.Type == html.ElementNode && (cell.DataAtom == atom.Td || cell.DataAtom == atom.Th) {
						var c htmlConverter
						c.blockChildren(cell, applyElementStyle(cell, richtext.Style{Link: st.Link}))
						row = append(row, richtext.New(c.out...))
					}
				}
				rows = append(rows, row)
			case atom.Thead, atom.Tbody, atom.Tfoot:
				walk(ch)
			}
		}
	}
	walk(n)

	cols := 1
	for _, r := range rows {
		cols = max(cols, len(r))
	}
	if len(rows) == 0 {
		rows = [][]richtext.Text{nil}
	}
	t := richtext.NewTable(len(rows), cols)
	for r, row := range rows {
		for c, cell := range row {
			t.SetCell(r, c, cell)
		}
	}
	return t
}

// imageFromHTML reads an <img>. Embedded data URIs become image data;
// anything else is kept as a path reference. A width attribute is turned
// into a scale relative to the natural image width.
func imageFromHTML(n *html.Node) (richtext.Image, bool) {
	src, ok := attrOf(n, "src")
	if !ok || src == "" {
		return richtext.Image{}, false
	}
	var img richtext.Image
	if rest, ok := strings.CutPrefix(src, "data:"); ok {
		meta, data, ok := strings.Cut(rest, ",")
		if !ok || !strings.HasSuffix(meta, ";base64") {
			return richtext.Image{}, false
		}
		b, err := base64.StdEncoding.DecodeString(data)
		if err != nil || len(b) == 0 {
			return richtext.Image{}, false
		}
		img.Data = b
		img.Format = strings.TrimPrefix(strings.TrimSuffix(meta, ";base64"), "image/")
	} else {
		img.Path = src
	}

	if w, ok := attrOf(n, "width"); ok && len(img.Data) > 0 {
		if m := pxRe.FindStringSubmatch(strings.TrimSpace(w)); m != nil {
			width, _ := strconv.Atoi(m[1])
			if cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data)); err == nil && cfg.Width > 0 {
				scale := width * 100 / cfg.Width
				if scale != 100 {
					img.Scale = max(1, min(scale, richtext.MaxScale))
				}
			}
		}
	}
	return img, true
}

// --- Rich text to HTML (export) ---

// htmlNodes renders t as a sequence of HTML nodes. Runs are grouped into
// <p> elements at newlines; tables and images become block elements.
func htmlNodes(t richtext.Text) []*html.Node {
	var (
		out  []*html.Node
		para *html.Node
	)
	flush := func() {
		if para != nil {
			out = append(out, para)
			para = nil
		}
	}
	newPara := func(align richtext.Align) {
		para = htmlElement(atom.P)
		if align != richtext.AlignDefault {
			para.Attr = append(para.Attr, html.Attribute{Key: "style", Val: "text-align:" + align.String()})
		}
	}

	for _, e := range t.Elements {
		switch v := e.(type) {
		case richtext.Run:
			lines := strings.Split(v.Text, "\n")
			for i, line := range lines {
				if i > 0 {
					if para == nil {
						newPara(v.Style.Align)
					}
					flush()
				}
				if line == "" {
					continue
				}
				if para == nil {
					newPara(v.Style.Align)
				}
				para.AppendChild(runNode(line, v.Style))
			}
		case richtext.Table:
			flush()
			out = append(out, tableNode(v))
		case richtext.Image:
			if para == nil {
				newPara(richtext.AlignDefault)
			}
			if img := imageNode(v); img != nil {
				para.AppendChild(img)
			}
		}
	}
	flush()
	return out
}

func htmlElement(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func runNode(s string, st richtext.Style) *html.Node {
	node := textNode(s)
	wrap := func(a atom.Atom, attrs ...html.Attribute) {
		el := htmlElement(a, attrs...)
		el.AppendChild(node)
		node = el
	}
	if st.Bold {
		wrap(atom.B)
	}
	if st.Italic {
		wrap(atom.I)
	}
	if st.Underline {
		wrap(atom.U)
	}
	if st.Strike {
		wrap(atom.S)
	}
	switch st.VAlign {
	case richtext.VAlignSuper:
		wrap(atom.Sup)
	case richtext.VAlignSub:
		wrap(atom.Sub)
	}
	var css []string
	if st.Foreground != "" {
		css = append(css, "color:"+st.Foreground)
	}
	if st.Background != "" {
		css = append(css, "background-color:"+st.Background)
	}
	if len(css) > 0 {
		wrap(atom.Span, html.Attribute{Key: "style", Val: strings.Join(css, ";")})
	}
	if st.Link != "" {
		wrap(atom.A, html.Attribute{Key: "href", Val: st.Link})
	}
	return node
}

func tableNode(t richtext.Table) *html.Node {
	table := htmlElement(atom.Table, html.Attribute{Key: "border", Val: "1"})
	for r := 0; r < t.Rows; r++ {
		tr := htmlElement(atom.Tr)
		for c := 0; c < t.Cols; c++ {
			td := htmlElement(atom.Td)
			for _, n := range htmlNodes(t.Cell(r, c)) {
				td.AppendChild(n)
			}
			tr.AppendChild(td)
		}
		table.AppendChild(tr)
	}
	return table
}

func imageNode(img richtext.Image) *html.Node {
	var src string
	switch {
	case len(img.Data) > 0:
		format := img.Format
		if format == "" {
			format = "png"
		}
		src = "data:image/" + format + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
	case img.Path != "":
		src = img.Path
	default:
		return nil
	}
	node := htmlElement(atom.Img, html.Attribute{Key: "src", Val: src})
	if img.Scale != 0 && len(img.Data) > 0 {
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data)); err == nil {
			node.Attr = append(node.Attr, html.Attribute{Key: "width", Val: strconv.Itoa(cfg.Width * img.Scale / 100)})
		}
	}
	return node
}
