package commands

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/partsline/partsline/internal/api"
	"github.com/partsline/partsline/internal/cli/userconfig"
	"github.com/partsline/partsline/internal/gateway"
	"github.com/partsline/partsline/internal/session"
)

const (
	apiFlag    = "api"
	outputFlag = "output"

	apiURLEnv = "PARTSLINE_API_URL"
)

// errSessionRejected is what users see when the backend refuses the stored token
var errSessionRejected = errors.New("session expired or rejected, run 'partsline login'")

// log is replaced by the root command once flags are parsed
var log = zerolog.Nop()

// SetLogger sets the logger used by all commands
func SetLogger(l zerolog.Logger) {
	log = l
}

// newTokenStore returns where the CLI keeps the token for apiURL. Tests swap it.
var newTokenStore = func(apiURL string) session.Store {
	return session.NewKeyring(apiURL, log)
}

// cliContext is what every backend command works with
type cliContext struct {
	apiURL string
	store  session.Store
	client *api.Client
	out    io.Writer
	format string
}

// resolveAPIURL picks the backend: --api, then PARTSLINE_API_URL, then the selected one
func resolveAPIURL(cmd *cobra.Command) (string, error) {
	if f := cmd.Flag(apiFlag); f != nil && f.Value.String() != "" {
		return f.Value.String(), nil
	}
	if v := os.Getenv(apiURLEnv); v != "" {
		return v, nil
	}

	apiURL, err := userconfig.GetAPIURL()
	if err != nil {
		return "", err
	}
	if apiURL == "" {
		return "", fmt.Errorf("no backend selected. Run 'partsline use <api-url>' or pass --api")
	}
	return apiURL, nil
}

func newGateway(apiURL string, store session.Store) (*gateway.Gateway, error) {
	return gateway.New(apiURL, store,
		gateway.WithHTTPClient(&http.Client{Timeout: 30 * time.Second}),
		gateway.WithLogger(log),
	)
}

func newCLIContext(cmd *cobra.Command) (*cliContext, error) {
	apiURL, err := resolveAPIURL(cmd)
	if err != nil {
		return nil, err
	}

	store := newTokenStore(apiURL)
	gw, err := newGateway(apiURL, store)
	if err != nil {
		return nil, err
	}

	format := "table"
	if f := cmd.Flag(outputFlag); f != nil && f.Value.String() != "" {
		format = f.Value.String()
	}

	return &cliContext{
		apiURL: apiURL,
		store:  store,
		client: api.New(gw),
		out:    cmd.OutOrStdout(),
		format: format,
	}, nil
}

// requireToken fails early when there is nothing to authenticate with
func (c *cliContext) requireToken() error {
	if session.StateOf(c.store) == session.Unauthenticated {
		return fmt.Errorf("not authenticated. Please run 'partsline login' first")
	}
	return nil
}

// check clears the stored token when the backend rejected it
func (c *cliContext) check(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gateway.ErrUnauthorized) {
		log.Debug().Err(err).Msg("Backend rejected token")
		if clearErr := c.store.Clear(); clearErr != nil {
			log.Warn().Err(clearErr).Msg("Failed to clear stored token")
		}
		return errSessionRejected
	}
	return err
}
