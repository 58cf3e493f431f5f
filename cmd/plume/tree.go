package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/aretw0/plume/pkg/core"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	tagStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	idStyle    = lipgloss.NewStyle().Faint(true)
)

func newTreeCmd(a *app) *cobra.Command {
	var showIDs bool

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the node tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			nb, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			return nb.View(func(d *core.Document) error {
				return writeTree(cmd.OutOrStdout(), d, showIDs)
			})
		},
	}
	cmd.Flags().BoolVar(&showIDs, "ids", false, "show node ids")
	return cmd
}

func writeTree(w io.Writer, d *core.Document, showIDs bool) error {
	for n := range d.Walk() {
		depth, err := d.Depth(n.ID)
		if err != nil {
			return err
		}
		var sb strings.Builder
		sb.WriteString(strings.Repeat("  ", depth))
		title := n.Title
		if title == "" {
			title = "(untitled)"
		}
		sb.WriteString(titleStyle.Render(title))
		if len(n.Tags) > 0 {
			sb.WriteString(" ")
			sb.WriteString(tagStyle.Render("[" + n.Tags.String() + "]"))
		}
		if showIDs {
			sb.WriteString(" ")
			sb.WriteString(idStyle.Render(string(n.ID)))
		}
		if _, err := fmt.Fprintln(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}
