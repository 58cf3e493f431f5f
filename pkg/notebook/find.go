package notebook

import (
	"github.com/aretw0/plume/pkg/search"
)

// SetQuery changes the search. The cursor goes back to the start of the
// document when anything about the query changed.
func (nb *Notebook) SetQuery(q search.Query) {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	nb.engine.SetQuery(q)
}

func (nb *Notebook) Query() search.Query {
	nb.mu.RLock()
	defer nb.mu.RUnlock()
	return nb.engine.Query()
}

// FindNext moves to the next match of the current query.
func (nb *Notebook) FindNext() (m search.Match, wrapped bool, err error) {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	return nb.engine.FindNext(nb.doc)
}

// FindPrevious moves to the previous match of the current query.
func (nb *Notebook) FindPrevious() (m search.Match, wrapped bool, err error) {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	return nb.engine.FindPrevious(nb.doc)
}

// Count counts the matches of q without touching the cursor.
func (nb *Notebook) Count(q search.Query) int {
	nb.mu.RLock()
	defer nb.mu.RUnlock()
	return search.Count(nb.doc, q)
}

// Matches lists the matches of q in document order.
func (nb *Notebook) Matches(q search.Query) []search.Match {
	nb.mu.RLock()
	defer nb.mu.RUnlock()
	return search.Matches(nb.doc, q)
}

// ReplaceAll replaces every match of q. The whole replacement is one
// Undo step.
func (nb *Notebook) ReplaceAll(q search.Query, repl string) (search.Result, error) {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	res, err := search.ReplaceAll(nb.doc, q, repl)
	if err != nil {
		return res, err
	}
	if res.Undo != nil {
		nb.history.Record(res.Undo)
	}
	nb.engine.Reset()
	nb.config.Logger.Debug("replace all", "pattern", q.Pattern, "replaced", res.Replaced, "failed", res.Failed)
	return res, nil
}
