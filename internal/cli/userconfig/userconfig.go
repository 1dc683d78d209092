// Package userconfig persists the CLI's backend selection between runs.
package userconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// maxKnownAPIs bounds the history offered by `partsline use`
const maxKnownAPIs = 10

// UserConfig is the file at ~/.config/partsline/config.json
type UserConfig struct {
	APIURL string `json:"api_url"`

	// most recent first
	KnownAPIs []string `json:"known_apis,omitempty"`
}

// Path returns where the config file lives for the current user
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot locate home directory: %w", err)
	}
	return filepath.Join(home, ".config", "partsline", "config.json"), nil
}

// Load returns the saved selection. A missing file is an empty selection.
func Load() (*UserConfig, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &UserConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg := &UserConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s is corrupt, fix or delete it: %w", path, err)
	}
	return cfg, nil
}

// Save replaces the config file, creating its directory on first use
func Save(cfg *UserConfig) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode user config: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// SetAPIURL selects apiURL and moves it to the front of the history
func SetAPIURL(apiURL string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	cfg.APIURL = apiURL
	known := slices.DeleteFunc(cfg.KnownAPIs, func(u string) bool { return u == apiURL })
	known = append([]string{apiURL}, known...)
	if len(known) > maxKnownAPIs {
		known = known[:maxKnownAPIs]
	}
	cfg.KnownAPIs = known
	return Save(cfg)
}

// GetAPIURL returns the selected backend, or "" when none was chosen
func GetAPIURL() (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}
	return cfg.APIURL, nil
}
