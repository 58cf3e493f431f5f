package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/plume/pkg/codec"
	"github.com/aretw0/plume/pkg/core"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		node   string
		extent string
		match  string
	)

	cmd := &cobra.Command{
		Use:   "export <output>",
		Short: "Export the document or part of it",
		Long: `Export to HTML, Markdown, a YAML outline or plain text, chosen by the
extension of output (.html, .md, .yaml, .txt).

Examples:
  plume export notes.html
  plume export plume.md --node "Projects/Plume" --extent subtree
  plume export inbox.txt --match "Inbox/**"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := args[0]
			exp, err := codec.ExporterFor(out)
			if err != nil {
				return err
			}
			nb, err := a.open(cmd.Context())
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			err = nb.View(func(d *core.Document) error {
				if match != "" {
					return exportMatching(&buf, exp, d, match)
				}
				sel := codec.Whole()
				if node != "" {
					id, err := resolveNode(d, node)
					if err != nil {
						return err
					}
					ext, err := codec.ParseExtent(extent)
					if err != nil {
						return err
					}
					sel = codec.Selection{Node: id, Extent: ext}
				}
				return exp.Export(&buf, d, sel)
			})
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, buf.Bytes(), 0644); err != nil {
				return fmt.Errorf("%w: %w", core.ErrIO, err)
			}
			a.logger.Info("exported", "path", out, "bytes", buf.Len())
			return nil
		},
	}
	cmd.Flags().StringVar(&node, "node", "", "export this node instead of the whole document")
	cmd.Flags().StringVar(&extent, "extent", "subtree", "with --node: node or subtree")
	cmd.Flags().StringVar(&match, "match", "", "export every node whose title path matches this glob")
	return cmd
}

// exportMatching exports each matching node on its own, in tree order.
func exportMatching(buf *bytes.Buffer, exp codec.Exporter, d *core.Document, pattern string) error {
	nodes, err := codec.MatchNodes(d, pattern)
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		return fmt.Errorf("%w: nothing matches %q", core.ErrNodeNotFound, pattern)
	}
	for _, n := range nodes {
		if err := exp.Export(buf, d, codec.Selection{Node: n.ID, Extent: codec.ExtentNode}); err != nil {
			return err
		}
	}
	return nil
}
