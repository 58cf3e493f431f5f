package search

import (
	"errors"

	"github.com/aretw0/plume/pkg/core"
)

// ErrNoMatch is returned by FindNext and FindPrevious when the query has no
// match in the document.
var ErrNoMatch = errors.New("no match")

// Engine keeps a query and a cursor on the last reported match, so that
// successive FindNext/FindPrevious calls walk the matches in document order.
//
// An Engine is not safe for concurrent use.
type Engine struct {
	query  Query
	cursor *Match
}

func NewEngine(q Query) *Engine {
	return &Engine{query: q}
}

func (e *Engine) Query() Query { return e.query }

// SetQuery replaces the query. The cursor returns to the start of the
// document unless q is identical to the current query.
func (e *Engine) SetQuery(q Query) {
	if q != e.query {
		e.query = q
		e.cursor = nil
	}
}

// Cursor returns the last reported match.
func (e *Engine) Cursor() (Match, bool) {
	if e.cursor == nil {
		return Match{}, false
	}
	return *e.cursor, true
}

// Reset moves the cursor back to the start of the document.
func (e *Engine) Reset() { e.cursor = nil }

// FindNext reports the first match after the cursor and moves the cursor
// onto it. wrapped is true when the search went past the end of the document
// and restarted from the beginning.
func (e *Engine) FindNext(doc *core.Document) (m Match, wrapped bool, err error) {
	return e.step(doc, true)
}

// FindPrevious is FindNext in reverse.
func (e *Engine) FindPrevious(doc *core.Document) (m Match, wrapped bool, err error) {
	return e.step(doc, false)
}

func (e *Engine) step(doc *core.Document, forward bool) (Match, bool, error) {
	all := Matches(doc, e.query)
	if len(all) == 0 {
		return Match{}, false, ErrNoMatch
	}

	rank := make(map[core.NodeID]int, doc.Len())
	for i, id := range doc.Order() {
		rank[id] = i
	}
	before := func(a, b Match) bool {
		if a.Node != b.Node {
			return rank[a.Node] < rank[b.Node]
		}
		return a.less(b)
	}

	var (
		found   Match
		ok      bool
		wrapped bool
	)
	cur := e.cursor
	if cur != nil {
		if _, live := rank[cur.Node]; !live {
			// the node under the cursor was deleted
			cur = nil
		}
	}
	switch {
	case cur == nil && forward:
		found, ok = all[0], true
	case cur == nil:
		found, ok = all[len(all)-1], true
	case forward:
		for _, m := range all {
			if before(*cur, m) {
				found, ok = m, true
				break
			}
		}
		if !ok {
			found, wrapped = all[0], true
		}
	default:
		for i := len(all) - 1; i >= 0; i-- {
			if before(all[i], *cur) {
				found, ok = all[i], true
				break
			}
		}
		if !ok {
			found, wrapped = all[len(all)-1], true
		}
	}
	e.cursor = &found
	return found, wrapped, nil
}

// Count returns the number of matches of the current query.
func (e *Engine) Count(doc *core.Document) int {
	return Count(doc, e.query)
}
