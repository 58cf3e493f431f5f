package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/plume"
)

func newPasswdCmd(a *app) *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Set, change or remove the document password",
		Long: `Set or change the password protecting the document. The new password is
asked twice; if the two differ nothing changes. --remove stores the
document unencrypted from now on.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(cmd.Context(), func(nb *plume.Notebook) error {
				if remove {
					nb.RemovePassword()
					if err := a.keyring.Delete(nb.Path()); err != nil {
						a.logger.Warn("failed to forget password", "error", err)
					}
					fmt.Fprintln(cmd.OutOrStdout(), "Password removed")
					return nil
				}

				pw, err := a.prompt("New password: ")
				if err != nil {
					return err
				}
				confirm, err := a.prompt("Retype password: ")
				if err != nil {
					return err
				}
				if err := nb.SetPassword(pw, confirm); err != nil {
					return err
				}
				if a.rememberPasswords() {
					if err := a.keyring.Set(nb.Path(), pw); err != nil {
						a.logger.Warn("failed to remember password", "error", err)
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Password set")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&remove, "remove", false, "remove the password")
	return cmd
}
