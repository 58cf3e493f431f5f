package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aretw0/plume"
	"github.com/aretw0/plume/pkg/codec"
	"github.com/aretw0/plume/pkg/core"
	"github.com/aretw0/plume/pkg/search"
)

type queryFlags struct {
	scope     string
	matchCase bool
	wholeWord bool
	tagged    string
}

func (f *queryFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.scope, "scope", "s", "everywhere", "where to look: titles, tags, bodies, everywhere (comma separated)")
	fs.BoolVarP(&f.matchCase, "case", "c", false, "match case")
	fs.BoolVarP(&f.wholeWord, "word", "w", false, "match whole words only")
}

func (f *queryFlags) query(pattern string) (search.Query, error) {
	var scope search.Scope
	for _, name := range strings.Split(f.scope, ",") {
		sc, err := search.ParseScope(strings.TrimSpace(name))
		if err != nil {
			return search.Query{}, err
		}
		scope |= sc
	}
	return search.Query{
		Pattern:   pattern,
		Scope:     scope,
		MatchCase: f.matchCase,
		WholeWord: f.wholeWord,
	}, nil
}

func newSearchCmd(a *app) *cobra.Command {
	var (
		qf    queryFlags
		count bool
	)

	cmd := &cobra.Command{
		Use:   "search <pattern>",
		Short: "Find text in titles, tags and bodies",
		Long: `Search the document in tree order.

Examples:
  plume search milk                # everywhere, ignoring case
  plume search TODO -c -s bodies   # case sensitive, bodies only
  plume search --tagged 'proj*'    # nodes with a tag matching a glob`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nb, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if qf.tagged != "" {
				return nb.View(func(d *core.Document) error {
					nodes, err := search.TaggedWith(d, qf.tagged)
					if err != nil {
						return err
					}
					for _, n := range nodes {
						p, _ := codec.TitlePath(d, n.ID)
						fmt.Fprintf(out, "%s\t[%s]\n", p, n.Tags.String())
					}
					return nil
				})
			}
			if len(args) == 0 {
				return fmt.Errorf("a pattern or --tagged is required")
			}

			q, err := qf.query(args[0])
			if err != nil {
				return err
			}
			if count {
				fmt.Fprintln(out, search.MatchSummary(nb.Count(q)))
				return nil
			}
			matches := nb.Matches(q)
			err = nb.View(func(d *core.Document) error {
				return writeMatches(out, d, matches)
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(out, search.MatchSummary(len(matches)))
			return nil
		},
	}
	qf.register(cmd.Flags())
	cmd.Flags().BoolVar(&count, "count", false, "only print the number of matches")
	cmd.Flags().StringVar(&qf.tagged, "tagged", "", "list nodes having a tag matching this glob")
	return cmd
}

func writeMatches(w io.Writer, d *core.Document, matches []search.Match) error {
	for _, m := range matches {
		n, ok := d.Node(m.Node)
		if !ok {
			continue
		}
		p, err := codec.TitlePath(d, m.Node)
		if err != nil {
			return err
		}
		var text string
		switch m.Field {
		case search.FieldTitle:
			text = n.Title
		case search.FieldTag:
			text = n.Tags[m.Index]
		case search.FieldBody:
			text = n.Body.Flows()[m.Index]
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", p, m.Field, snippet(text, m.Start, m.End))
	}
	return nil
}

// snippet shows the match in context, marked with brackets.
func snippet(s string, start, end int) string {
	const context = 20
	r := []rune(s)
	if end > len(r) {
		end = len(r)
	}
	from, to := max(start-context, 0), min(end+context, len(r))
	var sb strings.Builder
	if from > 0 {
		sb.WriteString("…")
	}
	sb.WriteString(string(r[from:start]))
	sb.WriteString("[")
	sb.WriteString(string(r[start:end]))
	sb.WriteString("]")
	sb.WriteString(string(r[end:to]))
	if to < len(r) {
		sb.WriteString("…")
	}
	return strings.ReplaceAll(sb.String(), "\n", " ")
}

func newReplaceCmd(a *app) *cobra.Command {
	var qf queryFlags

	cmd := &cobra.Command{
		Use:   "replace <pattern> <replacement>",
		Short: "Replace every match and save",
		Long: `Replace every match of pattern. Formatting of the surrounding text is kept.
A node whose replacement would be invalid is left unchanged and reported.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := qf.query(args[0])
			if err != nil {
				return err
			}
			return a.edit(cmd.Context(), func(nb *plume.Notebook) error {
				res, err := nb.ReplaceAll(q, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), search.ReplaceSummary(res.Replaced))
				if res.Failed > 0 {
					a.logger.Warn("some matches were not replaced", "failed", res.Failed)
				}
				return nil
			})
		},
	}
	qf.register(cmd.Flags())
	return cmd
}
