// Package api is the typed client for the REST backend, built on the gateway.
package api

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

	"github.com/partsline/partsline/internal/gateway"
	"github.com/partsline/partsline/internal/models"
)

const (
	adminPrefix  = "/admin/api"
	publicPrefix = "/api"
)

// ErrInvalidCredentials is returned by Login when the backend rejects the email/password pair
var ErrInvalidCredentials = errors.New("invalid email or password")

// StatusError is a non-2xx response other than 401/403
type StatusError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s failed (status %d): %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s failed (status %d)", e.Method, e.Path, e.Status)
}

// IsNotFound reports whether err is a 404 from the backend
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == http.StatusNotFound
}

// Client represents the admin API surface
type Client struct {
	gw *gateway.Gateway

	Products        *Resource[models.Product]
	Portfolio       *Resource[models.PortfolioItem]
	Testimonials    *Resource[models.Testimonial]
	ContactRequests *Resource[models.ContactRequest]
	Users           *Resource[models.User]
	Settings        *Singleton[models.Settings]
}

// New creates a new admin API client
func New(gw *gateway.Gateway) *Client {
	return &Client{
		gw:              gw,
		Products:        NewResource[models.Product](gw, adminPrefix+"/products"),
		Portfolio:       NewResource[models.PortfolioItem](gw, adminPrefix+"/portfolio"),
		Testimonials:    NewResource[models.Testimonial](gw, adminPrefix+"/testimonials"),
		ContactRequests: NewResource[models.ContactRequest](gw, adminPrefix+"/contact-requests"),
		Users:           NewResource[models.User](gw, adminPrefix+"/users"),
		Settings:        &Singleton[models.Settings]{gw: gw, path: adminPrefix + "/settings"},
	}
}

// Login authenticates the user and returns the bearer token. The caller stores it.
func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	var resp models.LoginResponse
	err := do(ctx, c.gw, http.MethodPost, adminPrefix+"/auth/login", models.LoginRequest{
		Email:    email,
		Password: password,
	}, &resp)
	if errors.Is(err, gateway.ErrUnauthorized) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Overview returns the dashboard counts
func (c *Client) Overview(ctx context.Context) (*models.Overview, error) {
	var overview models.Overview
	if err := do(ctx, c.gw, http.MethodGet, adminPrefix+"/overview", nil, &overview); err != nil {
		return nil, err
	}
	return &overview, nil
}

// Public represents the unauthenticated storefront API surface
type Public struct {
	gw *gateway.Gateway
}

// NewPublic creates a storefront client
func NewPublic(gw *gateway.Gateway) *Public {
	return &Public{gw: gw}
}

// Settings returns the site settings
func (p *Public) Settings(ctx context.Context) (*models.Settings, error) {
	var s models.Settings
	if err := do(ctx, p.gw, http.MethodGet, publicPrefix+"/settings", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Products lists catalog products
func (p *Public) Products(ctx context.Context) ([]models.Product, error) {
	return list[models.Product](ctx, p.gw, publicPrefix+"/products")
}

// Product fetches one product
func (p *Public) Product(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := do(ctx, p.gw, http.MethodGet, publicPrefix+"/products/"+url.PathEscape(id), nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// Portfolio lists gallery items
func (p *Public) Portfolio(ctx context.Context) ([]models.PortfolioItem, error) {
	return list[models.PortfolioItem](ctx, p.gw, publicPrefix+"/portfolio")
}

// Testimonials lists published testimonials
func (p *Public) Testimonials(ctx context.Context) ([]models.Testimonial, error) {
	return list[models.Testimonial](ctx, p.gw, publicPrefix+"/testimonials")
}

// SubmitContact posts a contact form submission
func (p *Public) SubmitContact(ctx context.Context, req *models.ContactRequest) error {
	return do(ctx, p.gw, http.MethodPost, publicPrefix+"/contact", req, nil)
}

// do sends body as JSON and decodes a 2xx response into out. Other statuses
// become *StatusError; 401/403 stay gateway.ErrUnauthorized.
func do(ctx context.Context, gw *gateway.Gateway, method, path string, body, out any) error {
	resp, err := gw.Request(ctx, path, gateway.Options{Method: method, JSON: body})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Message: errorMessage(data),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return gateway.DecodeJSON(bytes.NewReader(data), out)
}

// errorMessage pulls {"error": "..."} or {"message": "..."} out of an error body
func errorMessage(data []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	msg := strings.TrimSpace(string(data))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
