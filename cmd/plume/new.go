package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/plume"
)

func newNewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "new [file]",
		Short: "Create an empty document",
		Long:  `Create a document holding a single empty node. Fails if the file exists.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.file
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				path = a.settings.File
			}
			nb, err := plume.Create(cmd.Context(), path, a.options()...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Created", nb.Path())
			return nil
		},
	}
}
