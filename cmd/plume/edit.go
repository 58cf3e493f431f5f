package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/plume"
	"github.com/aretw0/plume/pkg/core"
	"github.com/aretw0/plume/pkg/richtext"
)

func newAddCmd(a *app) *cobra.Command {
	var (
		under  string
		after  string
		before string
		body   string
		tags   []string
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a node",
		Long: `Add a node. Without a position flag it becomes the last top-level node.

Examples:
  plume add "Groceries"
  plume add "Milk" --under Groceries --tag shop
  plume add "Eggs" --after "Groceries/Milk" --body "a dozen"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set := 0
			for _, s := range []string{under, after, before} {
				if s != "" {
					set++
				}
			}
			if set > 1 {
				return fmt.Errorf("use only one of --under, --after, --before")
			}

			n := core.NewNode(args[0])
			n.Tags = core.NewTagSet(tags...)
			if body != "" {
				n.Body = richtext.Plain(body)
			}

			return a.edit(cmd.Context(), func(nb *plume.Notebook) error {
				var c core.Command
				err := nb.View(func(d *core.Document) error {
					var err error
					c, err = insertCommand(d, n, under, after, before)
					return err
				})
				if err != nil {
					return err
				}
				if err := nb.Do(c); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&under, "under", "", "append as the last child of this node")
	cmd.Flags().StringVar(&after, "after", "", "insert after this sibling")
	cmd.Flags().StringVar(&before, "before", "", "insert before this sibling")
	cmd.Flags().StringVar(&body, "body", "", "plain text body")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "tags (repeatable or comma separated)")
	return cmd
}

func insertCommand(d *core.Document, n *core.Node, under, after, before string) (core.Command, error) {
	switch {
	case after != "" || before != "":
		ref, pos := after, core.After
		if before != "" {
			ref, pos = before, core.Before
		}
		anchor, err := resolveNode(d, ref)
		if err != nil {
			return nil, err
		}
		return core.InsertSiblingOf(d, anchor, pos, n)
	case under != "":
		parent, err := resolveNode(d, under)
		if err != nil {
			return nil, err
		}
		p, _ := d.Node(parent)
		return core.InsertNode(parent, len(p.Children()), n), nil
	}
	return core.InsertNode(core.RootID, len(d.Root().Children()), n), nil
}

// withNode resolves ref and runs fn on the command it builds.
func (a *app) withNode(cmd *cobra.Command, ref string, build func(d *core.Document, id core.NodeID) (core.Command, error)) error {
	return a.edit(cmd.Context(), func(nb *plume.Notebook) error {
		var c core.Command
		err := nb.View(func(d *core.Document) error {
			id, err := resolveNode(d, ref)
			if err != nil {
				return err
			}
			c, err = build(d, id)
			return err
		})
		if err != nil {
			return err
		}
		return nb.Do(c)
	})
}

func newRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <node>",
		Aliases: []string{"delete"},
		Short:   "Delete a node and its descendants",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withNode(cmd, args[0], func(_ *core.Document, id core.NodeID) (core.Command, error) {
				return core.Delete{ID: id}, nil
			})
		},
	}
}

func parseDirection(s string) (core.Direction, error) {
	for _, d := range []core.Direction{core.Up, core.Down, core.Left, core.Right} {
		if d.String() == strings.ToLower(s) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown direction %q (want up, down, left or right)", s)
}

func newMoveCmd(a *app) *cobra.Command {
	var under string

	cmd := &cobra.Command{
		Use:   "move <node> [up|down|left|right]",
		Short: "Move a node",
		Long: `Move a node one step, or under another node with --under.

left promotes the node next to its parent; right demotes it under its
previous sibling. up and down at the edge of the siblings do nothing.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 2) == (under != "") {
				return fmt.Errorf("give either a direction or --under")
			}
			return a.withNode(cmd, args[0], func(d *core.Document, id core.NodeID) (core.Command, error) {
				if under != "" {
					parent, err := resolveNode(d, under)
					if err != nil {
						return nil, err
					}
					p, _ := d.Node(parent)
					return core.Relocate{ID: id, Parent: parent, Index: len(p.Children())}, nil
				}
				dir, err := parseDirection(args[1])
				if err != nil {
					return nil, err
				}
				return core.Move{ID: id, Dir: dir}, nil
			})
		},
	}
	cmd.Flags().StringVar(&under, "under", "", "make the node the last child of this node")
	return cmd
}

func newRenameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <node> <title>",
		Short: "Change the title of a node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withNode(cmd, args[0], func(_ *core.Document, id core.NodeID) (core.Command, error) {
				return core.Rename{ID: id, Title: args[1]}, nil
			})
		},
	}
}

func newTagCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag <node> [+tag|-tag]...",
		Short: "List, add or remove tags",
		Long: `Without changes, prints the tags of the node. +name adds a tag and
-name removes one; a bare name adds it too. Flags go before the node.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				nb, err := a.open(cmd.Context())
				if err != nil {
					return err
				}
				return nb.View(func(d *core.Document) error {
					id, err := resolveNode(d, args[0])
					if err != nil {
						return err
					}
					n, _ := d.Node(id)
					for _, t := range n.Tags {
						fmt.Fprintln(cmd.OutOrStdout(), t)
					}
					return nil
				})
			}
			return a.withNode(cmd, args[0], func(d *core.Document, id core.NodeID) (core.Command, error) {
				n, _ := d.Node(id)
				tags := n.Tags
				for _, change := range args[1:] {
					switch {
					case strings.HasPrefix(change, "-"):
						tags = tags.Without(change[1:])
					default:
						tags = tags.With(strings.TrimPrefix(change, "+"))
					}
				}
				return core.SetTags{ID: id, Tags: tags}, nil
			})
		},
	}
	// "-tag" after the node is an argument, not a flag
	cmd.Flags().SetInterspersed(false)
	return cmd
}
