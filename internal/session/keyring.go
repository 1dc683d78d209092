package session

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"
	"github.com/zalando/go-keyring"
)

const keyringService = "partsline-cli"

// Keyring stores the token in the OS keychain/credential manager, one entry per backend host
type Keyring struct {
	key    string
	logger zerolog.Logger
}

// NewKeyring returns a store for the backend at apiURL
func NewKeyring(apiURL string, logger zerolog.Logger) *Keyring {
	return &Keyring{
		key:    keyringKey(apiURL),
		logger: logger,
	}
}

// keyringKey returns a unique key for storing tokens per backend
func keyringKey(apiURL string) string {
	host := apiURL
	if u, err := url.Parse(apiURL); err == nil && u.Host != "" {
		host = u.Host
	}
	return fmt.Sprintf("token-%s", host)
}

func (k *Keyring) Get() (string, bool) {
	token, err := keyring.Get(keyringService, k.key)
	if err != nil {
		if !errors.Is(err, keyring.ErrNotFound) {
			k.logger.Debug().Err(err).Msg("Keyring unavailable, treating session as absent")
		}
		return "", false
	}
	return token, token != ""
}

// Set persists the token securely in the OS keychain/credential manager
func (k *Keyring) Set(token string) error {
	if token == "" {
		return k.Clear()
	}
	if err := keyring.Set(keyringService, k.key, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Clear removes the token from the OS keychain/credential manager
func (k *Keyring) Clear() error {
	if err := keyring.Delete(keyringService, k.key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
