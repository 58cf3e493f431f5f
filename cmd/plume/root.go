package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plume",
		Short: "A notes manager keeping a tree of rich-text notes in one file",
		Long: `Plume keeps your notes as a tree of titled nodes with tags and formatted
text, stored in a single portable file that can be password protected.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.stderr = cmd.ErrOrStderr()
			return a.setup()
		},
	}

	cmd.PersistentFlags().StringVarP(&a.file, "file", "f", "", "document file (default: nearest notes.fnx, then config)")
	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/plume/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().BoolVar(&a.remember, "remember", false, "remember document passwords in the OS keyring")

	cmd.AddCommand(
		newNewCmd(a),
		newTreeCmd(a),
		newAddCmd(a),
		newRmCmd(a),
		newMoveCmd(a),
		newRenameCmd(a),
		newTagCmd(a),
		newShowCmd(a),
		newSearchCmd(a),
		newReplaceCmd(a),
		newExportCmd(a),
		newPasswdCmd(a),
		newInfoCmd(a),
		newWatchCmd(a),
	)
	return cmd
}
