// Package richtext models the formatted body of a note as an ordered list of
// styled runs interleaved with block elements (tables and images).
//
// A Text is a plain value: it has no rendering surface and can be
// serialized, compared and searched headlessly. All constructors return
// canonical text (no empty runs, adjacent runs with identical styles merged).
package richtext

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Element is one item of a Text: a Run, a Table or an Image.
type Element interface {
	isElement()
}

// Run is a contiguous span of text sharing one style.
type Run struct {
	Text  string
	Style Style
}

// Table is a rectangular grid of nested formatted cells, stored row-major.
type Table struct {
	Rows  int
	Cols  int
	Cells []Text
}

// Image is an inline image, either embedded (Data + Format) or referenced by
// Path. Scale is a percentage in 1..200; zero means the natural size.
type Image struct {
	Data   []byte
	Format string // e.g. "png", "jpeg"
	Path   string
	Scale  int
}

func (Run) isElement()   {}
func (Table) isElement() {}
func (Image) isElement() {}

// MaxScale is the largest image scale percentage accepted.
const MaxScale = 200

// Text is the formatted body of a node.
type Text struct {
	Elements []Element
}

// New builds canonical text from elements.
func New(elems ...Element) Text {
	return Text{Elements: normalize(elems)}
}

// Plain returns unstyled text holding s.
func Plain(s string) Text {
	return New(Run{Text: s})
}

// Styled returns a single run of text with the given style.
func Styled(s string, st Style) Text {
	return New(Run{Text: s, Style: st})
}

// NewTable returns a rows×cols table of empty cells.
func NewTable(rows, cols int) Table {
	return Table{Rows: rows, Cols: cols, Cells: make([]Text, rows*cols)}
}

// Cell returns the cell at row r, column c.
func (t Table) Cell(r, c int) Text {
	return t.Cells[r*t.Cols+c]
}

// SetCell replaces the cell at row r, column c.
func (t Table) SetCell(r, c int, cell Text) {
	t.Cells[r*t.Cols+c] = Text{Elements: normalize(cell.Elements)}
}

// Append returns t with elems added at the end, in canonical form.
func (t Text) Append(elems ...Element) Text {
	all := make([]Element, 0, len(t.Elements)+len(elems))
	all = append(all, t.Elements...)
	all = append(all, elems...)
	return New(all...)
}

// IsEmpty reports whether t has no elements.
func (t Text) IsEmpty() bool {
	return len(t.Elements) == 0
}

// PlainText concatenates every run in document order, descending into table
// cells row-major. Images contribute nothing.
func (t Text) PlainText() string {
	var sb strings.Builder
	t.writePlain(&sb)
	return sb.String()
}

func (t Text) writePlain(sb *strings.Builder) {
	for _, e := range t.Elements {
		switch v := e.(type) {
		case Run:
			sb.WriteString(v.Text)
		case Table:
			for _, c := range v.Cells {
				c.writePlain(sb)
			}
		}
	}
}

// Len returns the number of runes in PlainText.
func (t Text) Len() int {
	return utf8.RuneCountInString(t.PlainText())
}

// Runs returns the top-level runs of t, skipping blocks.
func (t Text) Runs() []Run {
	var out []Run
	for _, e := range t.Elements {
		if r, ok := e.(Run); ok {
			out = append(out, r)
		}
	}
	return out
}

// Clone returns a deep copy of t.
func (t Text) Clone() Text {
	if t.Elements == nil {
		return Text{}
	}
	out := make([]Element, len(t.Elements))
	for i, e := range t.Elements {
		switch v := e.(type) {
		case Table:
			cells := make([]Text, len(v.Cells))
			for j, c := range v.Cells {
				cells[j] = c.Clone()
			}
			v.Cells = cells
			out[i] = v
		case Image:
			if v.Data != nil {
				v.Data = bytes.Clone(v.Data)
			}
			out[i] = v
		default:
			out[i] = e
		}
	}
	return Text{Elements: out}
}

// Equal reports whether t and o have the same elements, styles and geometry.
func (t Text) Equal(o Text) bool {
	if len(t.Elements) != len(o.Elements) {
		return false
	}
	for i := range t.Elements {
		if !elementEqual(t.Elements[i], o.Elements[i]) {
			return false
		}
	}
	return true
}

func elementEqual(a, b Element) bool {
	switch x := a.(type) {
	case Run:
		y, ok := b.(Run)
		return ok && x == y
	case Image:
		y, ok := b.(Image)
		return ok && x.Format == y.Format && x.Path == y.Path &&
			x.Scale == y.Scale && bytes.Equal(x.Data, y.Data)
	case Table:
		y, ok := b.(Table)
		if !ok || x.Rows != y.Rows || x.Cols != y.Cols || len(x.Cells) != len(y.Cells) {
			return false
		}
		for i := range x.Cells {
			if !x.Cells[i].Equal(y.Cells[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Validate checks styles, table geometry, image scale and that every string
// can be stored (see CheckText).
func (t Text) Validate() error {
	for i, e := range t.Elements {
		switch v := e.(type) {
		case Run:
			if err := v.Style.Validate(); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
			if err := CheckText(v.Text); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		case Table:
			if v.Rows < 1 || v.Cols < 1 || len(v.Cells) != v.Rows*v.Cols {
				return fmt.Errorf("element %d: table geometry %dx%d does not match %d cells", i, v.Rows, v.Cols, len(v.Cells))
			}
			for j, c := range v.Cells {
				if err := c.Validate(); err != nil {
					return fmt.Errorf("element %d cell %d: %w", i, j, err)
				}
			}
		case Image:
			if v.Scale < 0 || v.Scale > MaxScale {
				return fmt.Errorf("element %d: image scale %d out of range", i, v.Scale)
			}
			if len(v.Data) == 0 && v.Path == "" {
				return fmt.Errorf("element %d: image has neither data nor path", i)
			}
			if err := CheckText(v.Path); err != nil {
				return fmt.Errorf("element %d: image path: %w", i, err)
			}
			if err := CheckText(v.Format); err != nil {
				return fmt.Errorf("element %d: image format: %w", i, err)
			}
		case nil:
			return fmt.Errorf("element %d: nil element", i)
		}
	}
	return nil
}

// ErrInvalidText is returned for strings an XML document cannot hold.
var ErrInvalidText = errors.New("text cannot be stored")

// CheckText reports whether s can be stored unchanged: valid UTF-8 with no
// control characters other than tab, newline and carriage return.
func CheckText(s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: not valid UTF-8", ErrInvalidText)
	}
	for _, r := range s {
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			return fmt.Errorf("%w: control character %U", ErrInvalidText, r)
		}
		if r == 0xFFFE || r == 0xFFFF {
			return fmt.Errorf("%w: non-character %U", ErrInvalidText, r)
		}
	}
	return nil
}

// normalize drops empty runs and merges adjacent runs sharing a style.
// Table cells are normalized recursively.
func normalize(elems []Element) []Element {
	if len(elems) == 0 {
		return nil
	}
	out := make([]Element, 0, len(elems))
	for _, e := range elems {
		switch v := e.(type) {
		case Run:
			if v.Text == "" {
				continue
			}
			if n := len(out); n > 0 {
				if prev, ok := out[n-1].(Run); ok && prev.Style == v.Style {
					prev.Text += v.Text
					out[n-1] = prev
					continue
				}
			}
			out = append(out, v)
		case Table:
			cells := make([]Text, len(v.Cells))
			for i, c := range v.Cells {
				cells[i] = Text{Elements: normalize(c.Elements)}
			}
			v.Cells = cells
			out = append(out, v)
		case nil:
		default:
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
