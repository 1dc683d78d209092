package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/partsline/partsline/internal/cli/commands"
	"github.com/partsline/partsline/internal/logger"
)

var version = "dev" // Will be set during build

var rootCmd = &cobra.Command{
	Use:   "partsline",
	Short: "Partsline - manage the shop from the terminal",
	Long: `Partsline CLI - manage products, portfolio, testimonials, contact requests,
users and site settings on a Partsline backend.

Start with 'partsline use <api-url>' and 'partsline login'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := os.Getenv("PARTSLINE_LOG_LEVEL")
		if level == "" {
			level = "warn"
		}
		commands.SetLogger(logger.New(os.Stderr, level, "console"))
	},
}

func init() {
	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("partsline version %s\n", version)
		},
	})

	commands.Register(rootCmd)
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
