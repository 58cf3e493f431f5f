package main

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/aretw0/plume/pkg/codec"
	"github.com/aretw0/plume/pkg/core"
)

func newShowCmd(a *app) *cobra.Command {
	var (
		raw   bool
		width int
	)

	cmd := &cobra.Command{
		Use:   "show <node>",
		Short: "Print the body of a node",
		Long:  `Print the body of a node rendered for the terminal, or as Markdown with --raw.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nb, err := a.open(cmd.Context())
			if err != nil {
				return err
			}

			var md string
			err = nb.View(func(d *core.Document) error {
				id, err := resolveNode(d, args[0])
				if err != nil {
					return err
				}
				n, _ := d.Node(id)
				title, err := codec.TitlePath(d, id)
				if err != nil {
					return err
				}
				md = fmt.Sprintf("# %s\n\n", title)
				if len(n.Tags) > 0 {
					md += fmt.Sprintf("*%s*\n\n", n.Tags.String())
				}
				md += codec.MarkdownText(n.Body)
				return nil
			})
			if err != nil {
				return err
			}

			if raw {
				fmt.Fprintln(cmd.OutOrStdout(), md)
				return nil
			}
			r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
			if err != nil {
				return fmt.Errorf("failed to create renderer: %w", err)
			}
			out, err := r.Render(md)
			if err != nil {
				return fmt.Errorf("failed to render: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print Markdown instead of rendering it")
	cmd.Flags().IntVar(&width, "width", 80, "wrap rendered text at this width")
	return cmd
}
