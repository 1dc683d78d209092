package commands

import (
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/partsline/partsline/internal/cli/userconfig"
	"github.com/partsline/partsline/internal/session"
)

// NewUseCmd creates the use command
func NewUseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use [api-url]",
		Short: "Select the backend to use for commands",
		Long: `Select the backend to use for commands.

If no URL is provided, an interactive prompt lists backends used before.

Examples:
  $ partsline use                                  # Interactive selection
  $ partsline use https://api.partsline.example    # Select by URL`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var apiURL string
			if len(args) > 0 {
				apiURL = args[0]
			}
			return runUse(cmd, apiURL)
		},
	}

	return cmd
}

func runUse(cmd *cobra.Command, apiURL string) error {
	if apiURL == "" {
		cfg, err := userconfig.Load()
		if err != nil {
			return err
		}
		apiURL, err = promptBackend(cfg.KnownAPIs)
		if err != nil {
			return err
		}
	}

	apiURL = strings.TrimRight(apiURL, "/")

	// reject anything the gateway would refuse later
	if _, err := newGateway(apiURL, session.None{}); err != nil {
		return err
	}

	if err := userconfig.SetAPIURL(apiURL); err != nil {
		return fmt.Errorf("failed to save selected backend: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Selected backend: %s\n", apiURL)
	return nil
}

func promptBackend(known []string) (string, error) {
	if len(known) == 0 {
		return "", fmt.Errorf("no backends used yet. Run 'partsline use <api-url>'")
	}

	prompt := promptui.Select{
		Label: "Select a backend",
		Items: known,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "> {{ . | cyan }}",
			Inactive: "  {{ . }}",
			Selected: "{{ . | green }}",
		},
		Size: 10,
	}

	_, apiURL, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("backend selection cancelled: %w", err)
	}
	return apiURL, nil
}
