// Package search finds and replaces text across the titles, tags and bodies
// of a document.
//
// Matching is literal. Positions are rune offsets into the searched field,
// and a body is searched flow by flow (see richtext.Text.Flows), so a match
// never crosses a table cell or an image.
package search

import (
	"fmt"
	"unicode"

	"github.com/aretw0/plume/pkg/core"
	"github.com/aretw0/plume/pkg/richtext"
)

// Scope selects which parts of a node are searched.
type Scope uint8

const (
	ScopeTitles Scope = 1 << iota
	ScopeTags
	ScopeBodies

	ScopeEverywhere = ScopeTitles | ScopeTags | ScopeBodies
)

func (s Scope) String() string {
	switch s {
	case ScopeTitles:
		return "titles"
	case ScopeTags:
		return "tags"
	case ScopeBodies:
		return "bodies"
	case ScopeEverywhere:
		return "everywhere"
	}
	return fmt.Sprintf("Scope(%d)", uint8(s))
}

// ParseScope is the inverse of Scope.String.
func ParseScope(s string) (Scope, error) {
	for _, sc := range []Scope{ScopeTitles, ScopeTags, ScopeBodies, ScopeEverywhere} {
		if sc.String() == s {
			return sc, nil
		}
	}
	return 0, fmt.Errorf("unknown search scope %q", s)
}

// Query describes what to look for.
type Query struct {
	Pattern   string
	Scope     Scope
	MatchCase bool
	WholeWord bool
}

// Field is the part of a node a match was found in.
type Field uint8

const (
	FieldTitle Field = iota
	FieldTag
	FieldBody
)

func (f Field) String() string {
	switch f {
	case FieldTitle:
		return "title"
	case FieldTag:
		return "tag"
	case FieldBody:
		return "body"
	}
	return fmt.Sprintf("Field(%d)", uint8(f))
}

// Match locates one occurrence.
type Match struct {
	Node  core.NodeID
	Field Field
	// Index is the position of the tag in the sorted tag set, or the flow
	// number within the body. Always 0 for titles.
	Index int
	Start int
	End   int
}

// less orders matches within one node: title, then tags, then body flows.
func (m Match) less(o Match) bool {
	if m.Field != o.Field {
		return m.Field < o.Field
	}
	if m.Index != o.Index {
		return m.Index < o.Index
	}
	return m.Start < o.Start
}

// Matches returns every match of q in doc, in document order.
func Matches(doc *core.Document, q Query) []Match {
	if q.Pattern == "" {
		return nil
	}
	var out []Match
	for n := range doc.Walk() {
		out = append(out, nodeMatches(n, q)...)
	}
	return out
}

// Count returns the number of non-overlapping matches of q in doc.
func Count(doc *core.Document, q Query) int {
	if q.Pattern == "" {
		return 0
	}
	total := 0
	for n := range doc.Walk() {
		total += len(nodeMatches(n, q))
	}
	return total
}

func nodeMatches(n *core.Node, q Query) []Match {
	var out []Match
	add := func(field Field, index int, spans []richtext.Span) {
		for _, s := range spans {
			out = append(out, Match{Node: n.ID, Field: field, Index: index, Start: s.Start, End: s.End})
		}
	}
	if q.Scope&ScopeTitles != 0 {
		add(FieldTitle, 0, find(n.Title, q))
	}
	if q.Scope&ScopeTags != 0 {
		for i, tag := range n.Tags {
			add(FieldTag, i, find(tag, q))
		}
	}
	if q.Scope&ScopeBodies != 0 {
		for i, flow := range n.Body.Flows() {
			add(FieldBody, i, find(flow, q))
		}
	}
	return out
}

// find returns the non-overlapping occurrences of q.Pattern in s, scanning
// left to right.
func find(s string, q Query) []richtext.Span {
	hay, needle := []rune(s), []rune(q.Pattern)
	if len(needle) == 0 || len(needle) > len(hay) {
		return nil
	}
	var out []richtext.Span
	for i := 0; i+len(needle) <= len(hay); {
		if equalAt(hay, needle, i, q.MatchCase) && (!q.WholeWord || wholeWordAt(hay, i, i+len(needle))) {
			out = append(out, richtext.Span{Start: i, End: i + len(needle)})
			i += len(needle)
			continue
		}
		i++
	}
	return out
}

func equalAt(hay, needle []rune, at int, matchCase bool) bool {
	for j, r := range needle {
		h := hay[at+j]
		if matchCase {
			if h != r {
				return false
			}
		} else if unicode.ToLower(h) != unicode.ToLower(r) {
			return false
		}
	}
	return true
}

func wholeWordAt(hay []rune, start, end int) bool {
	if start > 0 && isWordChar(hay[start-1]) {
		return false
	}
	if end < len(hay) && isWordChar(hay[end]) {
		return false
	}
	return true
}

func isWordChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// MatchSummary renders a match count the way the status line reports it.
func MatchSummary(n int) string {
	switch n {
	case 0:
		return "No Match"
	case 1:
		return "One Match"
	}
	return fmt.Sprintf("%d Matches", n)
}

// ReplaceSummary renders a replacement count.
func ReplaceSummary(n int) string {
	switch n {
	case 0:
		return "No Replacement"
	case 1:
		return "One Replacement"
	}
	return fmt.Sprintf("%d Replacements", n)
}
