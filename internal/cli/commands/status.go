package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the session and show dashboard counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCLIContext(cmd)
			if err != nil {
				return err
			}
			return runStatus(cmd, c)
		},
	}
}

func runStatus(cmd *cobra.Command, c *cliContext) error {
	if err := c.requireToken(); err != nil {
		return err
	}

	overview, err := c.client.Overview(cmd.Context())
	if err != nil {
		return c.check(err)
	}

	return printValue(c.out, c.format, overview, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "Connected to %s\n\n", c.apiURL)
		tableHeader(w, []string{"ENTITY", "COUNT"})
		fmt.Fprintf(w, "products\t%d\n", overview.Products)
		fmt.Fprintf(w, "portfolio\t%d\n", overview.Portfolio)
		fmt.Fprintf(w, "testimonials\t%d\n", overview.Testimonials)
		fmt.Fprintf(w, "contacts\t%d (%d new)\n", overview.ContactRequests, overview.NewContacts)
		fmt.Fprintf(w, "users\t%d\n", overview.Users)
	})
}
