package search

import (
	"fmt"
	"slices"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/plume/pkg/core"
	"github.com/aretw0/plume/pkg/richtext"
)

// Result reports the outcome of ReplaceAll.
type Result struct {
	Replaced int
	// Failed counts matches that were found but left untouched.
	Failed int
	// Undo reverts every replacement made. Nil when nothing was replaced.
	Undo core.Command
}

// ReplaceAll substitutes repl for every match of q, in document order.
//
// Each node is rewritten as a whole or not at all: if the rewritten body
// does not read as expected, or the result is not valid text, the node
// keeps its content and its matches count as failures. Tags stay a set, so
// a replacement that produces a duplicate or an empty tag shrinks the set.
func ReplaceAll(doc *core.Document, q Query, repl string) (Result, error) {
	var res Result
	if q.Pattern == "" {
		return res, nil
	}

	var batch core.Batch
	for _, n := range slices.Collect(doc.Walk()) {
		edits, count, ok := rewriteNode(n, q, repl)
		if count == 0 {
			continue
		}
		if !ok {
			res.Failed += count
			continue
		}
		inv, err := core.Batch(edits).Apply(doc)
		if err != nil {
			res.Failed += count
			continue
		}
		batch = append(batch, inv)
		res.Replaced += count
	}
	if len(batch) > 0 {
		slices.Reverse(batch)
		res.Undo = batch
	}
	return res, nil
}

// rewriteNode computes the commands that apply q to one node. ok is false
// when the body replacement failed verification.
func rewriteNode(n *core.Node, q Query, repl string) (edits []core.Command, count int, ok bool) {
	if q.Scope&ScopeTitles != 0 {
		if spans := find(n.Title, q); len(spans) > 0 {
			count += len(spans)
			edits = append(edits, core.Rename{ID: n.ID, Title: replaceSpans(n.Title, spans, repl)})
		}
	}

	if q.Scope&ScopeTags != 0 {
		tags := make([]string, len(n.Tags))
		hits := 0
		for i, tag := range n.Tags {
			spans := find(tag, q)
			hits += len(spans)
			tags[i] = replaceSpans(tag, spans, repl)
		}
		if hits > 0 {
			count += hits
			edits = append(edits, core.SetTags{ID: n.ID, Tags: core.NewTagSet(tags...)})
		}
	}

	if q.Scope&ScopeBodies != 0 {
		flows := n.Body.Flows()
		spans := make([][]richtext.Span, len(flows))
		hits := 0
		var want string
		for i, flow := range flows {
			spans[i] = find(flow, q)
			hits += len(spans[i])
			want += replaceSpans(flow, spans[i], repl)
		}
		if hits > 0 {
			count += hits
			body, err := n.Body.Replace(spans, repl)
			if err != nil || body.PlainText() != want || body.Validate() != nil {
				return nil, count, false
			}
			edits = append(edits, core.SetBody{ID: n.ID, Body: body})
		}
	}
	return edits, count, true
}

func replaceSpans(s string, spans []richtext.Span, repl string) string {
	if len(spans) == 0 {
		return s
	}
	rs := []rune(s)
	out := make([]rune, 0, len(rs))
	cursor := 0
	for _, sp := range spans {
		out = append(out, rs[cursor:sp.Start]...)
		out = append(out, []rune(repl)...)
		cursor = sp.End
	}
	out = append(out, rs[cursor:]...)
	return string(out)
}

// TaggedWith returns, in document order, the nodes carrying a tag that
// matches the doublestar pattern.
func TaggedWith(doc *core.Document, pattern string) ([]*core.Node, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: %q", doublestar.ErrBadPattern, pattern)
	}
	var out []*core.Node
	for n := range doc.Walk() {
		for _, tag := range n.Tags {
			if ok, _ := doublestar.Match(pattern, tag); ok {
				out = append(out, n)
				break
			}
		}
	}
	return out, nil
}
