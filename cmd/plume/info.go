package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/plume/pkg/notebook"
)

func newInfoCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show document statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			nb, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			st := nb.State().(notebook.NotebookState)
			out := cmd.OutOrStdout()

			if asJSON {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(map[string]any{
					"component": nb.ComponentType(),
					"state":     st,
				})
			}

			fmt.Fprintf(out, "File:       %s\n", st.Path)
			fmt.Fprintf(out, "Nodes:      %d (%d top-level)\n", st.Nodes, st.TopLevel)
			fmt.Fprintf(out, "Encrypted:  %t\n", st.Encrypted)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	return cmd
}
