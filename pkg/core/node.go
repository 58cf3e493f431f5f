package core

import (
	"bytes"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/aretw0/plume/pkg/richtext"
)

// NodeID identifies a node within its document.
type NodeID string

// RootID is the id of the synthetic, invisible root every document has.
// Top-level nodes are its children.
const RootID NodeID = "root"

// NewID returns a fresh node id.
func NewID() NodeID {
	return NodeID(uuid.NewString())
}

// Icon is a node icon: either a named resource or embedded image bytes.
type Icon struct {
	Name string
	Data []byte
}

func (i *Icon) equal(o *Icon) bool {
	if i == nil || o == nil {
		return i == o
	}
	return i.Name == o.Name && bytes.Equal(i.Data, o.Data)
}

// orNil maps an icon with neither name nor data to nil, which is how it
// reads back from a file.
func (i *Icon) orNil() *Icon {
	if i == nil || (i.Name == "" && len(i.Data) == 0) {
		return nil
	}
	return i
}

// Node is one entry in the document tree.
//
// Structure (parent and children) is owned by the Document; use its methods
// to change it.
type Node struct {
	ID       NodeID
	Title    string
	Tags     TagSet
	Body     richtext.Text
	Icon     *Icon
	Font     *Font
	Expanded bool

	parent   NodeID
	children []NodeID
}

// NewNode returns a detached node with a fresh id.
func NewNode(title string) *Node {
	return &Node{ID: NewID(), Title: title}
}

// Validate checks that every string of n can be stored unchanged and that
// its body and font are well formed. Structure is not checked.
func (n *Node) Validate() error {
	if err := richtext.CheckText(string(n.ID)); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	if err := richtext.CheckText(n.Title); err != nil {
		return fmt.Errorf("title: %w", err)
	}
	if err := validateTags(n.Tags); err != nil {
		return err
	}
	if n.Icon != nil {
		if err := richtext.CheckText(n.Icon.Name); err != nil {
			return fmt.Errorf("icon name: %w", err)
		}
	}
	if n.Font != nil {
		if err := n.Font.Validate(); err != nil {
			return fmt.Errorf("font: %w", err)
		}
	}
	if err := n.Body.Validate(); err != nil {
		return fmt.Errorf("invalid body: %w", err)
	}
	return nil
}

func validateTags(tags []string) error {
	for _, t := range tags {
		if err := richtext.CheckText(t); err != nil {
			return fmt.Errorf("tag %q: %w", t, err)
		}
	}
	return nil
}

// Parent returns the id of the parent node. It is empty for the root and
// for detached nodes.
func (n *Node) Parent() NodeID { return n.parent }

// Children returns a copy of the ordered child ids.
func (n *Node) Children() []NodeID { return slices.Clone(n.children) }

// HasChildren reports whether the node has at least one child.
func (n *Node) HasChildren() bool { return len(n.children) > 0 }

// clone deep-copies n including its structural links.
func (n *Node) clone() *Node {
	c := *n
	c.Tags = slices.Clone(n.Tags)
	c.Body = n.Body.Clone()
	if n.Icon != nil {
		icon := Icon{Name: n.Icon.Name, Data: bytes.Clone(n.Icon.Data)}
		c.Icon = &icon
	}
	if n.Font != nil {
		f := *n.Font
		c.Font = &f
	}
	c.children = slices.Clone(n.children)
	return &c
}

// equal compares content and child order, ignoring the parent link.
func (n *Node) equal(o *Node) bool {
	return n.ID == o.ID &&
		n.Title == o.Title &&
		n.Tags.Equal(o.Tags) &&
		n.Body.Equal(o.Body) &&
		n.Icon.equal(o.Icon) &&
		n.Font.equal(o.Font) &&
		n.Expanded == o.Expanded &&
		slices.Equal(n.children, o.children)
}

// TagSet is a sorted set of non-empty, case-sensitive tags.
type TagSet []string

// NewTagSet builds a set from tags, dropping duplicates and empty strings.
func NewTagSet(tags ...string) TagSet {
	out := make(TagSet, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Has reports whether tag is in the set.
func (s TagSet) Has(tag string) bool {
	_, ok := slices.BinarySearch(s, tag)
	return ok
}

// With returns a set that also contains tag.
func (s TagSet) With(tag string) TagSet {
	return NewTagSet(append(slices.Clone(s), tag)...)
}

// Without returns a set that does not contain tag.
func (s TagSet) Without(tag string) TagSet {
	return slices.DeleteFunc(slices.Clone(s), func(t string) bool { return t == tag })
}

func (s TagSet) Equal(o TagSet) bool {
	return slices.Equal(s, o)
}

// String joins the tags with ", ".
func (s TagSet) String() string {
	return strings.Join(s, ", ")
}

// Font describes a font override.
type Font struct {
	Family string
	Size   float64 // points
	Bold   bool
	Italic bool
}

func (f *Font) equal(o *Font) bool {
	if f == nil || o == nil {
		return f == o
	}
	return *f == *o
}

// Validate checks that the family is a non-empty storable string and the
// size a finite, non-negative number.
func (f Font) Validate() error {
	if f.Family == "" {
		return fmt.Errorf("empty font family")
	}
	if err := richtext.CheckText(f.Family); err != nil {
		return fmt.Errorf("font family: %w", err)
	}
	if f.Size < 0 || math.IsNaN(f.Size) || math.IsInf(f.Size, 0) {
		return fmt.Errorf("invalid font size %v", f.Size)
	}
	return nil
}

var fontEscaper = strings.NewReplacer(`\`, `\\`, `,`, `\,`)

// String renders the font as "Family,Size[,bold][,italic]". Commas and
// backslashes inside the family are escaped with a backslash.
func (f Font) String() string {
	var sb strings.Builder
	sb.WriteString(fontEscaper.Replace(f.Family))
	sb.WriteByte(',')
	sb.WriteString(strconv.FormatFloat(f.Size, 'f', -1, 64))
	if f.Bold {
		sb.WriteString(",bold")
	}
	if f.Italic {
		sb.WriteString(",italic")
	}
	return sb.String()
}

// ParseFont parses the String form. It also accepts the comma-separated
// description written by Qt (family, point size, pixel size, style hint,
// weight, italic, ...), which legacy files carry.
func ParseFont(s string) (Font, error) {
	parts := splitFont(s)
	if len(parts) < 2 || parts[0] == "" {
		return Font{}, fmt.Errorf("invalid font %q", s)
	}
	f := Font{Family: parts[0]}
	size, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || size < 0 || math.IsNaN(size) || math.IsInf(size, 0) {
		return Font{}, fmt.Errorf("invalid font size in %q", s)
	}
	f.Size = size

	if len(parts) > 2 {
		if _, err := strconv.Atoi(parts[2]); err == nil {
			f = parseQtFont(f, parts)
			return f, f.Validate()
		}
	}
	for _, p := range parts[2:] {
		switch p {
		case "bold":
			f.Bold = true
		case "italic":
			f.Italic = true
		default:
			return Font{}, fmt.Errorf("unknown font attribute %q", p)
		}
	}
	return f, f.Validate()
}

// splitFont splits s at commas that are not escaped and drops the escapes.
func splitFont(s string) []string {
	var (
		parts   []string
		cur     strings.Builder
		escaped bool
	)
	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ',':
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if escaped {
		cur.WriteRune('\\')
	}
	return append(parts, cur.String())
}

func parseQtFont(f Font, parts []string) Font {
	if f.Size <= 0 {
		// pixel sized; keep the family only
		f.Size = 0
	}
	if len(parts) > 4 {
		if w, err := strconv.Atoi(parts[4]); err == nil {
			// Qt 5 weights run 0..99 (bold 75), Qt 6 weights 100..900 (bold 700)
			if w > 100 {
				f.Bold = w >= 600
			} else {
				f.Bold = w >= 63
			}
		}
	}
	if len(parts) > 5 {
		f.Italic = parts[5] == "1"
	}
	return f
}
