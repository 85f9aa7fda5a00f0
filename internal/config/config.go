// ABOUTME: Configuration management with storage backend selection
// ABOUTME: Handles settings and the storage backend factory function

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harper/feedkeep/internal/charm"
	"github.com/harper/feedkeep/internal/store"
)

// Config stores feedkeep configuration.
type Config struct {
	// Backend selects the storage backend: "file" (default) or "charm".
	Backend string `json:"backend,omitempty"`

	// DataDir is the root directory for the file backend's data.
	// Supports ~ expansion for home directory. Defaults to
	// ~/.local/share/feedkeep.
	DataDir string `json:"data_dir,omitempty"`
}

// storageFilename is the file backend's JSON document name.
const storageFilename = "feedkeep.json"

// GetBackend returns the configured backend, defaulting to "file".
func (c *Config) GetBackend() string {
	if c.Backend == "" {
		return "file"
	}
	return c.Backend
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return defaultDataDir()
	}
	return ExpandPath(c.DataDir)
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenStorage creates a store.Storage implementation based on the
// configured backend.
func (c *Config) OpenStorage() (store.Storage, error) {
	switch backend := c.GetBackend(); backend {
	case "file":
		return store.NewFileStorage(c.GetDataDir(), storageFilename)
	case "charm":
		return charm.NewStorage()
	default:
		return nil, fmt.Errorf("unknown backend: %q", backend)
	}
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "feedkeep", "config.json")
}

// Load reads config from disk. A missing file yields the defaults.
func Load() (*Config, error) {
	path := GetConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// defaultDataDir returns the standard XDG data directory for feedkeep.
func defaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "feedkeep")
}
