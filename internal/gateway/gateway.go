// Package gateway mediates every call to the REST backend.
//
// Request attaches the session's bearer token and the default JSON content
// type, and turns 401/403 into ErrUnauthorized. Every other status comes back
// as a normal response for the caller to inspect. There is no retry, queue or
// backoff: a failed call is reported once and the user retries.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/partsline/partsline/internal/session"
)

const bearerPrefix = "Bearer "

// ErrUnauthorized is the authentication-failure signal for 401 and 403 responses
var ErrUnauthorized = errors.New("unauthorized")

// UnauthorizedError carries the rejected status. It matches ErrUnauthorized.
type UnauthorizedError struct {
	Method string
	Path   string
	Status int
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("%s %s: unauthorized (status %d)", e.Method, e.Path, e.Status)
}

func (e *UnauthorizedError) Is(target error) bool {
	return target == ErrUnauthorized
}

// Options describes a single call
type Options struct {
	// Method defaults to GET
	Method string
	// Header entries replace the defaults of the same name
	Header http.Header
	// Body is sent as given
	Body io.Reader
	// JSON is marshalled into the body when Body is nil
	JSON any
}

// Gateway represents an HTTP client for the backend API
type Gateway struct {
	baseURL    *url.URL
	store      session.Store
	httpClient *http.Client
	logger     zerolog.Logger
}

// Option configures a Gateway
type Option func(*Gateway)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) {
		g.httpClient = c
	}
}

// WithLogger sets the logger used for per-call debug lines
func WithLogger(l zerolog.Logger) Option {
	return func(g *Gateway) {
		g.logger = l
	}
}

// New creates a gateway for baseURL reading tokens from store
func New(baseURL string, store session.Store, opts ...Option) (*Gateway, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}
	if store == nil {
		store = session.None{}
	}

	g := &Gateway{
		baseURL:    u,
		store:      store,
		httpClient: &http.Client{},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// WithStore returns a copy of g reading tokens from store
func (g *Gateway) WithStore(store session.Store) *Gateway {
	c := *g
	if store == nil {
		store = session.None{}
	}
	c.store = store
	return &c
}

// BaseURL returns the configured backend URL
func (g *Gateway) BaseURL() string {
	return g.baseURL.String()
}

// Request issues one call to path. 401 and 403 return an *UnauthorizedError
// and no response; any other status returns the response with a nil error and
// the caller must close its body.
func (g *Gateway) Request(ctx context.Context, path string, opts Options) (*http.Response, error) {
	target, err := g.resolve(path)
	if err != nil {
		return nil, err
	}

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	body := opts.Body
	if body == nil && opts.JSON != nil {
		data, err := json.Marshal(opts.JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = g.headers(opts.Header)

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	g.logger.Debug().
		Str("method", method).
		Str("path", target.Path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Backend call")

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &UnauthorizedError{Method: method, Path: path, Status: resp.StatusCode}
	}

	return resp, nil
}

// headers merges caller headers over the defaults and injects the bearer token
func (g *Gateway) headers(caller http.Header) http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	for k, vs := range caller {
		h[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}
	if token, ok := g.store.Get(); ok {
		h.Set("Authorization", bearerPrefix+token)
	}
	return h
}

// resolve joins path onto the base URL, keeping the base path prefix
func (g *Gateway) resolve(path string) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", path, err)
	}
	if ref.IsAbs() || ref.Host != "" {
		return nil, fmt.Errorf("invalid path %q: must be relative to the base URL", path)
	}

	u := *g.baseURL
	u.Path = strings.TrimRight(g.baseURL.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	u.RawPath = ""
	u.RawQuery = ref.RawQuery
	u.Fragment = ""
	return &u, nil
}
