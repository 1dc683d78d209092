package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/partsline/partsline/internal/api"
	"github.com/partsline/partsline/internal/gateway"
	"github.com/partsline/partsline/internal/models"
)

type column[T any] struct {
	header string
	value  func(*T) string
}

// entity describes one backend collection managed from the CLI
type entity[T any] struct {
	name      string
	singular  string
	aliases   []string
	creatable bool
	resource  func(*api.Client) *api.Resource[T]
	id        func(*T) string
	columns   []column[T]
}

func (e *entity[T]) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:     e.name,
		Aliases: e.aliases,
		Short:   fmt.Sprintf("Manage %s", e.name),
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   fmt.Sprintf("List %s", e.name),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCLIContext(cmd)
			if err != nil {
				return err
			}
			return e.runList(cmd, c)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: fmt.Sprintf("Show one %s", e.singular),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCLIContext(cmd)
			if err != nil {
				return err
			}
			return e.runGet(cmd, c, args[0])
		},
	})

	if e.creatable {
		var file string
		create := &cobra.Command{
			Use:   "create -f <file>",
			Short: fmt.Sprintf("Create a %s from a YAML or JSON file", e.singular),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := newCLIContext(cmd)
				if err != nil {
					return err
				}
				return e.runCreate(cmd, c, file)
			},
		}
		create.Flags().StringVarP(&file, "file", "f", "", "YAML or JSON file, - for stdin")
		create.MarkFlagRequired("file")
		cmd.AddCommand(create)
	}

	var updateFile string
	update := &cobra.Command{
		Use:   "update <id> -f <file>",
		Short: fmt.Sprintf("Replace a %s from a YAML or JSON file", e.singular),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCLIContext(cmd)
			if err != nil {
				return err
			}
			return e.runUpdate(cmd, c, args[0], updateFile)
		},
	}
	update.Flags().StringVarP(&updateFile, "file", "f", "", "YAML or JSON file, - for stdin")
	update.MarkFlagRequired("file")
	cmd.AddCommand(update)

	var yes bool
	del := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   fmt.Sprintf("Delete a %s", e.singular),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCLIContext(cmd)
			if err != nil {
				return err
			}
			return e.runDelete(cmd, c, args[0], yes)
		},
	}
	del.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.AddCommand(del)

	return cmd
}

func (e *entity[T]) runList(cmd *cobra.Command, c *cliContext) error {
	if err := c.requireToken(); err != nil {
		return err
	}

	items, err := e.resource(c.client).List(cmd.Context())
	if err != nil {
		return c.check(err)
	}

	if len(items) == 0 && c.format == "table" {
		fmt.Fprintf(c.out, "No %s found.\n", e.name)
		return nil
	}

	return printValue(c.out, c.format, items, func(w *tabwriter.Writer) {
		e.writeTable(w, items)
	})
}

func (e *entity[T]) runGet(cmd *cobra.Command, c *cliContext, id string) error {
	if err := c.requireToken(); err != nil {
		return err
	}

	item, err := e.resource(c.client).Get(cmd.Context(), id)
	if err != nil {
		if api.IsNotFound(err) {
			return fmt.Errorf("%s '%s' not found", e.singular, id)
		}
		return c.check(err)
	}

	return printValue(c.out, c.format, item, func(w *tabwriter.Writer) {
		e.writeTable(w, []T{*item})
	})
}

func (e *entity[T]) runCreate(cmd *cobra.Command, c *cliContext, file string) error {
	if err := c.requireToken(); err != nil {
		return err
	}

	item, err := readItem[T](cmd.InOrStdin(), file)
	if err != nil {
		return err
	}

	created, err := e.resource(c.client).Create(cmd.Context(), item)
	if err != nil {
		return c.check(err)
	}

	fmt.Fprintf(c.out, "✓ Created %s %s\n", e.singular, e.id(created))
	return nil
}

func (e *entity[T]) runUpdate(cmd *cobra.Command, c *cliContext, id, file string) error {
	if err := c.requireToken(); err != nil {
		return err
	}

	item, err := readItem[T](cmd.InOrStdin(), file)
	if err != nil {
		return err
	}

	if _, err := e.resource(c.client).Update(cmd.Context(), id, item); err != nil {
		if api.IsNotFound(err) {
			return fmt.Errorf("%s '%s' not found", e.singular, id)
		}
		return c.check(err)
	}

	fmt.Fprintf(c.out, "✓ Updated %s %s\n", e.singular, id)
	return nil
}

func (e *entity[T]) runDelete(cmd *cobra.Command, c *cliContext, id string, yes bool) error {
	if err := c.requireToken(); err != nil {
		return err
	}

	if !yes {
		if err := confirm(fmt.Sprintf("Delete %s %s", e.singular, id)); err != nil {
			return err
		}
	}

	if err := e.resource(c.client).Delete(cmd.Context(), id); err != nil {
		if api.IsNotFound(err) {
			return fmt.Errorf("%s '%s' not found", e.singular, id)
		}
		return c.check(err)
	}

	fmt.Fprintf(c.out, "✓ Deleted %s %s\n", e.singular, id)
	return nil
}

func (e *entity[T]) writeTable(w *tabwriter.Writer, items []T) {
	headers := []string{"ID"}
	for _, col := range e.columns {
		headers = append(headers, col.header)
	}
	tableHeader(w, headers)

	for i := range items {
		cells := []string{e.id(&items[i])}
		for _, col := range e.columns {
			cells = append(cells, col.value(&items[i]))
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
}

// confirm asks before a destructive action. Without a terminal it refuses.
func confirm(label string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("refusing to continue without confirmation in non-interactive mode (use --yes)")
	}

	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		return fmt.Errorf("aborted")
	}
	return nil
}

// readItem loads a record from a YAML or JSON file and validates it
func readItem[T any](stdin io.Reader, path string) (*T, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var item T
	// JSON is valid YAML, so one decoder covers both
	if err := yaml.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := gateway.Validate(&item); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return &item, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func entityCommands() []*cobra.Command {
	products := &entity[models.Product]{
		name:      "products",
		singular:  "product",
		aliases:   []string{"product"},
		creatable: true,
		resource:  func(c *api.Client) *api.Resource[models.Product] { return c.Products },
		id:        func(p *models.Product) string { return p.ID },
		columns: []column[models.Product]{
			{"NAME", func(p *models.Product) string { return p.Name }},
			{"CATEGORY", func(p *models.Product) string { return p.Category }},
			{"PRICE", func(p *models.Product) string { return fmt.Sprintf("%.2f", p.Price) }},
			{"FEATURED", func(p *models.Product) string { return yesNo(p.Featured) }},
			{"IN STOCK", func(p *models.Product) string { return yesNo(p.InStock) }},
		},
	}

	portfolio := &entity[models.PortfolioItem]{
		name:      "portfolio",
		singular:  "portfolio item",
		creatable: true,
		resource:  func(c *api.Client) *api.Resource[models.PortfolioItem] { return c.Portfolio },
		id:        func(p *models.PortfolioItem) string { return p.ID },
		columns: []column[models.PortfolioItem]{
			{"TITLE", func(p *models.PortfolioItem) string { return p.Title }},
			{"CATEGORY", func(p *models.PortfolioItem) string { return p.Category }},
			{"COMPLETED", func(p *models.PortfolioItem) string { return p.CompletedAt }},
		},
	}

	testimonials := &entity[models.Testimonial]{
		name:      "testimonials",
		singular:  "testimonial",
		aliases:   []string{"testimonial"},
		creatable: true,
		resource:  func(c *api.Client) *api.Resource[models.Testimonial] { return c.Testimonials },
		id:        func(t *models.Testimonial) string { return t.ID },
		columns: []column[models.Testimonial]{
			{"AUTHOR", func(t *models.Testimonial) string { return t.Author }},
			{"RATING", func(t *models.Testimonial) string { return strconv.Itoa(t.Rating) }},
			{"PUBLISHED", func(t *models.Testimonial) string { return yesNo(t.Published) }},
		},
	}

	contacts := &entity[models.ContactRequest]{
		name:     "contacts",
		singular: "contact request",
		aliases:  []string{"contact"},
		resource: func(c *api.Client) *api.Resource[models.ContactRequest] { return c.ContactRequests },
		id:       func(r *models.ContactRequest) string { return r.ID },
		columns: []column[models.ContactRequest]{
			{"NAME", func(r *models.ContactRequest) string { return r.Name }},
			{"EMAIL", func(r *models.ContactRequest) string { return r.Email }},
			{"STATUS", func(r *models.ContactRequest) string { return string(r.Status) }},
		},
	}

	users := &entity[models.User]{
		name:      "users",
		singular:  "user",
		aliases:   []string{"user"},
		creatable: true,
		resource:  func(c *api.Client) *api.Resource[models.User] { return c.Users },
		id:        func(u *models.User) string { return u.ID },
		columns: []column[models.User]{
			{"EMAIL", func(u *models.User) string { return u.Email }},
			{"NAME", func(u *models.User) string { return u.Name }},
			{"ROLE", func(u *models.User) string { return string(u.Role) }},
		},
	}

	return []*cobra.Command{
		products.command(),
		portfolio.command(),
		testimonials.command(),
		contacts.command(),
		users.command(),
	}
}
