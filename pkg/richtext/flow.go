package richtext

import (
	"fmt"
	"strings"
)

// Span is a half-open rune range [Start, End) within one flow.
type Span struct {
	Start int
	End   int
}

// Flows returns the plain text of every flow of t in document order.
//
// A flow is a maximal sequence of adjacent runs not interrupted by a block.
// Each table cell contributes its own flows. Concatenating the result yields
// PlainText, so flows partition the text searched by callers; a match can
// never cross from one flow into the next.
func (t Text) Flows() []string {
	var out []string
	t.eachFlow(func(runs []Run) []Run {
		var sb strings.Builder
		for _, r := range runs {
			sb.WriteString(r.Text)
		}
		out = append(out, sb.String())
		return runs
	})
	return out
}

// Replace substitutes repl for every span, where spans[i] lists the
// non-overlapping, ascending spans of flow i (as numbered by Flows).
//
// Text outside the spans keeps its original run boundaries. A span that
// covers several runs collapses into one run with the style of the run
// holding its first character.
func (t Text) Replace(spans [][]Span, repl string) (Text, error) {
	var firstErr error
	out := t.mapFlows(func(i int, runs []Run) []Run {
		if i >= len(spans) || len(spans[i]) == 0 || firstErr != nil {
			return runs
		}
		replaced, err := replaceRuns(runs, spans[i], repl)
		if err != nil {
			firstErr = fmt.Errorf("flow %d: %w", i, err)
			return runs
		}
		return replaced
	})
	if firstErr != nil {
		return t, firstErr
	}
	return out, nil
}

// eachFlow visits flows without rebuilding the text.
func (t Text) eachFlow(fn func(runs []Run) []Run) {
	t.mapFlows(func(_ int, runs []Run) []Run { return fn(runs) })
}

// mapFlows rebuilds t, letting fn rewrite the runs of every flow.
func (t Text) mapFlows(fn func(i int, runs []Run) []Run) Text {
	idx := 0
	return Text{Elements: normalize(t.mapFlowsFrom(&idx, fn))}
}

func (t Text) mapFlowsFrom(idx *int, fn func(i int, runs []Run) []Run) []Element {
	out := make([]Element, 0, len(t.Elements))
	var pending []Run
	flush := func() {
		if len(pending) == 0 {
			return
		}
		for _, r := range fn(*idx, pending) {
			out = append(out, r)
		}
		*idx++
		pending = nil
	}
	for _, e := range t.Elements {
		switch v := e.(type) {
		case Run:
			pending = append(pending, v)
		case Table:
			flush()
			cells := make([]Text, len(v.Cells))
			for i, c := range v.Cells {
				cells[i] = Text{Elements: c.mapFlowsFrom(idx, fn)}
			}
			v.Cells = cells
			out = append(out, v)
		default:
			flush()
			out = append(out, e)
		}
	}
	flush()
	return out
}

// replaceRuns rewrites one flow. Offsets are runes into the concatenated
// run text.
func replaceRuns(runs []Run, spans []Span, repl string) ([]Run, error) {
	texts := make([][]rune, len(runs))
	total := 0
	for i, r := range runs {
		texts[i] = []rune(r.Text)
		total += len(texts[i])
	}

	prev := 0
	for _, s := range spans {
		if s.Start < prev || s.End < s.Start || s.End > total {
			return nil, fmt.Errorf("span [%d,%d) out of order or out of range (length %d)", s.Start, s.End, total)
		}
		prev = s.End
	}

	// slice copies [from,to) keeping each run's style.
	slice := func(from, to int) []Run {
		var out []Run
		pos := 0
		for i, rt := range texts {
			end := pos + len(rt)
			lo, hi := max(from, pos), min(to, end)
			if lo < hi {
				out = append(out, Run{Text: string(rt[lo-pos : hi-pos]), Style: runs[i].Style})
			}
			pos = end
		}
		return out
	}
	styleAt := func(at int) Style {
		pos := 0
		for i, rt := range texts {
			if at < pos+len(rt) {
				return runs[i].Style
			}
			pos += len(rt)
		}
		// empty match at the very end: inherit the last run
		return runs[len(runs)-1].Style
	}

	var out []Run
	cursor := 0
	for _, s := range spans {
		out = append(out, slice(cursor, s.Start)...)
		if repl != "" {
			out = append(out, Run{Text: repl, Style: styleAt(s.Start)})
		}
		cursor = s.End
	}
	out = append(out, slice(cursor, total)...)
	return out, nil
}
