package codec

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/aretw0/plume/pkg/core"
)

// decodeLegacy reads the version 1 layout:
//
//	<feathernotes txtfont=".." nodefont=".." pswrd="..">
//	  <node name=".." tag="a,b" icon="base64">HTML body<node ...>...</node></node>
//	</feathernotes>
//
// Legacy files carry no node ids, so fresh ones are assigned. A plaintext
// password attribute becomes a verifier and the in-memory password, which
// makes the next save encrypted.
func (c *XMLCodec) decodeLegacy(root *element) (*core.Document, error) {
	doc := core.NewDocument()
	doc.KDFIterations = c.KDFIterations

	// Qt font strings that fail to parse fall back to the defaults, as the
	// original application did.
	if s, ok := root.attr("txtfont"); ok {
		if f, err := core.ParseFont(s); err == nil {
			doc.DefaultFont = f
		}
	}
	if s, ok := root.attr("nodefont"); ok {
		if f, err := core.ParseFont(s); err == nil {
			doc.NodeFont = f
		}
	}

	for i := range root.Children {
		child := &root.Children[i]
		if child.XMLName.Local != "node" {
			continue
		}
		if err := decodeLegacyNode(doc, core.RootID, child); err != nil {
			return nil, err
		}
	}

	if pw, ok := root.attr("pswrd"); ok && pw != "" {
		if err := doc.SetPassword(pw, pw); err != nil {
			return nil, fmt.Errorf("failed to convert legacy password: %w", err)
		}
	}
	return doc, nil
}

func decodeLegacyNode(doc *core.Document, parent core.NodeID, e *element) error {
	n := core.NewNode("")
	n.Title, _ = e.attr("name")
	if tags, ok := e.attr("tag"); ok {
		n.Tags = core.NewTagSet(strings.Split(tags, ",")...)
	}
	if icon, ok := e.attr("icon"); ok && icon != "" {
		b, err := base64.StdEncoding.DecodeString(icon)
		if err != nil {
			return malformed("node %q icon: %v", n.Title, err)
		}
		n.Icon = &core.Icon{Data: b}
	}

	if src := strings.TrimSpace(e.Text); src != "" {
		body, err := textFromHTML(src)
		if err != nil {
			return malformed("node %q body: %v", n.Title, err)
		}
		n.Body = body
	}

	if err := doc.AppendChild(parent, n); err != nil {
		return fmt.Errorf("%w: %w", core.ErrMalformedDocument, err)
	}
	for i := range e.Children {
		child := &e.Children[i]
		if child.XMLName.Local != "node" {
			continue
		}
		if err := decodeLegacyNode(doc, n.ID, child); err != nil {
			return err
		}
	}
	return nil
}
