// Package session holds the admin bearer token between requests.
//
// A Store keeps at most one token. Setting a token replaces the previous one
// and nothing here checks whether a token is still valid: the backend is the
// only authority and says so with 401/403 on the next call.
package session

import (
	"sync"
)

// Store persists a single bearer token
type Store interface {
	// Get returns the stored token. It reports false, never an error, when
	// there is no token or no storage to read from.
	Get() (string, bool)
	// Set replaces any stored token. An empty token clears the store.
	Set(token string) error
	// Clear removes the stored token. It is a no-op when none exists.
	Clear() error
}

// State is the admin session state as far as the client can tell
type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// StateOf reports Authenticated when store holds a token
func StateOf(store Store) State {
	if store == nil {
		return Unauthenticated
	}
	if _, ok := store.Get(); ok {
		return Authenticated
	}
	return Unauthenticated
}

// Memory is an in-process Store
type Memory struct {
	mu    sync.RWMutex
	token string
}

// NewMemory returns an empty in-memory store
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Get() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.token != ""
}

func (m *Memory) Set(token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear() error {
	return m.Set("")
}

// None never holds a token. Public storefront calls use it.
type None struct{}

func (None) Get() (string, bool) { return "", false }
func (None) Set(string) error    { return nil }
func (None) Clear() error        { return nil }
