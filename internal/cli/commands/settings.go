package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/partsline/partsline/internal/models"
)

// NewSettingsCmd creates the settings command
func NewSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or replace the site settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show the site settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCLIContext(cmd)
			if err != nil {
				return err
			}
			return runSettingsGet(cmd, c)
		},
	})

	var file string
	update := &cobra.Command{
		Use:   "update -f <file>",
		Short: "Replace the site settings from a YAML or JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCLIContext(cmd)
			if err != nil {
				return err
			}
			return runSettingsUpdate(cmd, c, file)
		},
	}
	update.Flags().StringVarP(&file, "file", "f", "", "YAML or JSON file, - for stdin")
	update.MarkFlagRequired("file")
	cmd.AddCommand(update)

	return cmd
}

func runSettingsGet(cmd *cobra.Command, c *cliContext) error {
	if err := c.requireToken(); err != nil {
		return err
	}

	settings, err := c.client.Settings.Get(cmd.Context())
	if err != nil {
		return c.check(err)
	}

	return printValue(c.out, c.format, settings, func(w *tabwriter.Writer) {
		tableHeader(w, []string{"SETTING", "VALUE"})
		fmt.Fprintf(w, "site_name\t%s\n", settings.SiteName)
		fmt.Fprintf(w, "hero_title\t%s\n", settings.HeroTitle)
		fmt.Fprintf(w, "hero_subtitle\t%s\n", settings.HeroSubtitle)
		fmt.Fprintf(w, "hero_image_url\t%s\n", settings.HeroImageURL)
		fmt.Fprintf(w, "contact_email\t%s\n", settings.ContactEmail)
		fmt.Fprintf(w, "contact_phone\t%s\n", settings.ContactPhone)
		fmt.Fprintf(w, "address\t%s\n", settings.Address)
		fmt.Fprintf(w, "facebook_url\t%s\n", settings.FacebookURL)
		fmt.Fprintf(w, "instagram_url\t%s\n", settings.InstagramURL)
	})
}

func runSettingsUpdate(cmd *cobra.Command, c *cliContext, file string) error {
	if err := c.requireToken(); err != nil {
		return err
	}

	settings, err := readItem[models.Settings](cmd.InOrStdin(), file)
	if err != nil {
		return err
	}

	if _, err := c.client.Settings.Update(cmd.Context(), settings); err != nil {
		return c.check(err)
	}

	fmt.Fprintln(c.out, "✓ Settings updated")
	return nil
}
