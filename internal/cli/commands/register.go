package commands

import "github.com/spf13/cobra"

// Register adds the global flags and every subcommand to root
func Register(root *cobra.Command) {
	root.PersistentFlags().String(apiFlag, "", "Backend API URL (or set "+apiURLEnv+", defaults to the one selected with 'partsline use')")
	root.PersistentFlags().StringP(outputFlag, "o", "table", "Output format: table, json, yaml")

	root.AddCommand(NewLoginCmd())
	root.AddCommand(NewLogoutCmd())
	root.AddCommand(NewWhoamiCmd())
	root.AddCommand(NewStatusCmd())
	root.AddCommand(NewUseCmd())
	root.AddCommand(NewSettingsCmd())
	root.AddCommand(NewUploadCmd())
	root.AddCommand(entityCommands()...)
}
