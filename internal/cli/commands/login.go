package commands

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/partsline/partsline/internal/api"
	"github.com/partsline/partsline/internal/session"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with a Partsline backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set PARTSLINE_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set PARTSLINE_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(cmd *cobra.Command, email, password string) error {
	// Check for environment variables (useful for CI/CD)
	if email == "" {
		email = os.Getenv("PARTSLINE_EMAIL")
	}
	if password == "" {
		password = os.Getenv("PARTSLINE_PASSWORD")
	}

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or PARTSLINE_EMAIL env var)")
	}

	apiURL, err := resolveAPIURL(cmd)
	if err != nil {
		return err
	}

	// Prompt for password if not provided via flag or env var
	if password == "" {
		if !term.IsTerminal(int(syscall.Stdin)) {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or PARTSLINE_PASSWORD env var)")
		}
		fmt.Fprint(cmd.OutOrStdout(), "Password: ")
		bytePassword, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = string(bytePassword)
		fmt.Fprintln(cmd.OutOrStdout()) // New line after password input
	}

	// the login call itself never carries a token
	gw, err := newGateway(apiURL, session.None{})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Logging in to %s...\n", apiURL)

	resp, err := api.New(gw).Login(cmd.Context(), email, password)
	if err != nil {
		if errors.Is(err, api.ErrInvalidCredentials) {
			return fmt.Errorf("login failed: invalid email or password")
		}
		return fmt.Errorf("login failed: %w", err)
	}

	if err := newTokenStore(apiURL).Set(resp.Token); err != nil {
		return fmt.Errorf("failed to save authentication token: %w", err)
	}

	fmt.Fprintln(out, "✓ Login successful!")
	switch {
	case resp.User.Name != "":
		fmt.Fprintf(out, "  User: %s (%s)\n", resp.User.Name, resp.User.Email)
	case resp.User.Email != "":
		fmt.Fprintf(out, "  User: %s\n", resp.User.Email)
	}
	if resp.User.Role != "" {
		fmt.Fprintf(out, "  Role: %s\n", resp.User.Role)
	}

	return nil
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token for the selected backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiURL, err := resolveAPIURL(cmd)
			if err != nil {
				return err
			}
			if err := newTokenStore(apiURL).Clear(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged out of %s\n", apiURL)
			return nil
		},
	}
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show who the stored token belongs to",
		Long: `Show who the stored token belongs to.

The token's claims are read locally and are not verified. Run 'partsline status'
to check that the backend still accepts it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			apiURL, err := resolveAPIURL(cmd)
			if err != nil {
				return err
			}
			return runWhoami(cmd, newTokenStore(apiURL), apiURL)
		},
	}
}

func runWhoami(cmd *cobra.Command, store session.Store, apiURL string) error {
	out := cmd.OutOrStdout()

	token, ok := store.Get()
	if !ok {
		fmt.Fprintf(out, "Not logged in to %s. Run 'partsline login'.\n", apiURL)
		return nil
	}

	id, err := session.Inspect(token)
	if errors.Is(err, session.ErrOpaqueToken) {
		fmt.Fprintf(out, "Logged in to %s (token has no readable claims)\n", apiURL)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Backend: %s\n", apiURL)
	if id.Email != "" {
		fmt.Fprintf(out, "Email:   %s\n", id.Email)
	}
	if id.UserID != "" {
		fmt.Fprintf(out, "User ID: %s\n", id.UserID)
	}
	if id.Role != "" {
		fmt.Fprintf(out, "Role:    %s\n", id.Role)
	}
	if id.ExpiresAt != nil {
		fmt.Fprintf(out, "Expires: %s\n", id.ExpiresAt.Format("2006-01-02 15:04 MST"))
	}
	return nil
}
