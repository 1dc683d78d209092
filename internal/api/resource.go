package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/partsline/partsline/internal/gateway"
)

// Resource is the conventional list/get/create/update/delete collection at path
type Resource[T any] struct {
	gw   *gateway.Gateway
	path string
}

// NewResource binds a collection path to the gateway
func NewResource[T any](gw *gateway.Gateway, path string) *Resource[T] {
	return &Resource[T]{gw: gw, path: path}
}

// Path returns the collection path
func (r *Resource[T]) Path() string {
	return r.path
}

// List returns every record in the collection
func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	return list[T](ctx, r.gw, r.path)
}

// Get returns one record
func (r *Resource[T]) Get(ctx context.Context, id string) (*T, error) {
	var item T
	if err := do(ctx, r.gw, http.MethodGet, r.itemPath(id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create posts a new record and returns what the backend stored. An empty
// response body returns item unchanged.
func (r *Resource[T]) Create(ctx context.Context, item *T) (*T, error) {
	created := *item
	if err := do(ctx, r.gw, http.MethodPost, r.path, item, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update replaces record id. Last write wins at the backend.
func (r *Resource[T]) Update(ctx context.Context, id string, item *T) (*T, error) {
	updated := *item
	if err := do(ctx, r.gw, http.MethodPut, r.itemPath(id), item, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes record id
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	return do(ctx, r.gw, http.MethodDelete, r.itemPath(id), nil, nil)
}

func (r *Resource[T]) itemPath(id string) string {
	return r.path + "/" + url.PathEscape(id)
}

// Singleton is a resource with exactly one record (GET and PUT only)
type Singleton[T any] struct {
	gw   *gateway.Gateway
	path string
}

// Get returns the record
func (s *Singleton[T]) Get(ctx context.Context) (*T, error) {
	var item T
	if err := do(ctx, s.gw, http.MethodGet, s.path, nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Update replaces the record
func (s *Singleton[T]) Update(ctx context.Context, item *T) (*T, error) {
	updated := *item
	if err := do(ctx, s.gw, http.MethodPut, s.path, item, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// list accepts either a bare JSON array or a {"data": [...]} envelope
func list[T any](ctx context.Context, gw *gateway.Gateway, path string) ([]T, error) {
	var raw json.RawMessage
	if err := do(ctx, gw, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return []T{}, nil
	}

	if trimmed[0] == '{' {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, &gateway.DecodeError{Target: fmt.Sprintf("%s list", path), Err: err}
		}
		trimmed = bytes.TrimSpace(envelope.Data)
		if len(trimmed) == 0 || string(trimmed) == "null" {
			return []T{}, nil
		}
	}

	items := []T{}
	if err := gateway.DecodeJSON(bytes.NewReader(trimmed), &items); err != nil {
		return nil, err
	}
	return items, nil
}
