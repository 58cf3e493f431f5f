package richtext

import (
	"fmt"
	"regexp"
)

// Align is the paragraph alignment carried by a run.
type Align uint8

const (
	AlignDefault Align = iota
	AlignLeft
	AlignRight
	AlignCenter
	AlignJustify
)

var alignNames = [...]string{"", "left", "right", "center", "justify"}

func (a Align) String() string {
	if int(a) < len(alignNames) {
		return alignNames[a]
	}
	return fmt.Sprintf("align(%d)", uint8(a))
}

// ParseAlign is the inverse of Align.String.
func ParseAlign(s string) (Align, error) {
	for i, name := range alignNames {
		if name == s {
			return Align(i), nil
		}
	}
	return AlignDefault, fmt.Errorf("unknown alignment %q", s)
}

// VAlign selects superscript or subscript rendering.
// The two are mutually exclusive, so they share one field.
type VAlign uint8

const (
	VAlignNormal VAlign = iota
	VAlignSuper
	VAlignSub
)

var valignNames = [...]string{"", "super", "sub"}

func (v VAlign) String() string {
	if int(v) < len(valignNames) {
		return valignNames[v]
	}
	return fmt.Sprintf("valign(%d)", uint8(v))
}

// ParseVAlign is the inverse of VAlign.String.
func ParseVAlign(s string) (VAlign, error) {
	for i, name := range valignNames {
		if name == s {
			return VAlign(i), nil
		}
	}
	return VAlignNormal, fmt.Errorf("unknown vertical alignment %q", s)
}

// Style is the complete attribute set of a run. No other attribute exists:
// anything the model cannot express here is not representable at all.
type Style struct {
	Bold       bool
	Italic     bool
	Underline  bool
	Strike     bool
	VAlign     VAlign
	Foreground string // "#rrggbb" or empty
	Background string // "#rrggbb" or empty
	Align      Align
	Link       string // hyperlink target, empty for plain text
}

// IsZero reports whether s carries no formatting at all.
func (s Style) IsZero() bool {
	return s == Style{}
}

var colorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Validate checks that every attribute holds one of its enumerated values.
func (s Style) Validate() error {
	if s.VAlign > VAlignSub {
		return fmt.Errorf("invalid vertical alignment %d", s.VAlign)
	}
	if s.Align > AlignJustify {
		return fmt.Errorf("invalid alignment %d", s.Align)
	}
	if s.Foreground != "" && !colorRe.MatchString(s.Foreground) {
		return fmt.Errorf("invalid foreground color %q", s.Foreground)
	}
	if s.Background != "" && !colorRe.MatchString(s.Background) {
		return fmt.Errorf("invalid background color %q", s.Background)
	}
	if err := CheckText(s.Link); err != nil {
		return fmt.Errorf("link: %w", err)
	}
	return nil
}
