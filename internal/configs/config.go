package configs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultBackendURL is used when the config does not name a backend.
const DefaultBackendURL = "http://127.0.0.1:8790"

// DefaultSyncInterval is how often a synced device serves newly registered devices.
const DefaultSyncInterval = 5 * time.Second

type UserConfig struct {
	Account Account `toml:"account"`
	Device  Device  `toml:"device"`
	Backend Backend `toml:"backend"`
	Sync    Sync    `toml:"sync"`
}

type Account struct {
	// Token identifies the account to the backend. Every device of one
	// account uses the same token.
	Token string `toml:"token"`
}

type Device struct {
	// Alias is the device-local identifier, generated once and removed on logout.
	Alias string `toml:"alias"`
	Name  string `toml:"name,omitempty"`
}

type Backend struct {
	URL string `toml:"url"`
}

type Sync struct {
	// Interval is a Go duration string, e.g. "5s".
	Interval string `toml:"interval,omitempty"`
}

// BackendURL returns the configured backend URL or the default.
func (c *UserConfig) BackendURL() string {
	if u := strings.TrimSpace(c.Backend.URL); u != "" {
		return strings.TrimRight(u, "/")
	}
	return DefaultBackendURL
}

// SyncInterval parses the configured interval, falling back to DefaultSyncInterval.
func (c *UserConfig) SyncInterval() time.Duration {
	if c.Sync.Interval == "" {
		return DefaultSyncInterval
	}
	d, err := time.ParseDuration(c.Sync.Interval)
	if err != nil || d <= 0 {
		return DefaultSyncInterval
	}
	return d
}

// UserConfigPath returns the path of the user config file.
func UserConfigPath() string {
	return filepath.Join(UserNotesSettings.UserConfigsPath, "config.toml")
}

// LoadUserConfig loads the user configuration from the config file.
func LoadUserConfig() (*UserConfig, error) {
	return LoadUserConfigFrom(UserConfigPath())
}

// LoadUserConfigFrom loads a user configuration from path. A missing file
// yields an empty config.
func LoadUserConfigFrom(configPath string) (*UserConfig, error) {
	config := &UserConfig{}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return config, nil
	}

	if err := LoadTOML(configPath, config); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	return config, nil
}

// SaveUserConfig saves the user configuration to the config file.
func SaveUserConfig(config *UserConfig) error {
	return SaveUserConfigTo(UserConfigPath(), config)
}

// SaveUserConfigTo saves a user configuration to path.
func SaveUserConfigTo(configPath string, config *UserConfig) error {
	if err := SaveTOML(configPath, config); err != nil {
		return fmt.Errorf("failed to save user config: %w", err)
	}
	return nil
}

// DeviceAliasStore is the device-local string store holding the device
// alias. It keeps the alias in the [device] table of a user config file.
type DeviceAliasStore struct {
	Path string
}

// NewDeviceAliasStore returns a store backed by the default user config file.
func NewDeviceAliasStore() DeviceAliasStore {
	return DeviceAliasStore{Path: UserConfigPath()}
}

// Alias returns the stored alias, or "" if none has been set.
func (s DeviceAliasStore) Alias() (string, error) {
	config, err := LoadUserConfigFrom(s.Path)
	if err != nil {
		return "", err
	}
	return config.Device.Alias, nil
}

// SetAlias stores alias.
func (s DeviceAliasStore) SetAlias(alias string) error {
	config, err := LoadUserConfigFrom(s.Path)
	if err != nil {
		return err
	}
	config.Device.Alias = alias
	return SaveUserConfigTo(s.Path, config)
}

// RemoveAlias clears the stored alias. Other settings are kept.
func (s DeviceAliasStore) RemoveAlias() error {
	if _, err := os.Stat(s.Path); os.IsNotExist(err) {
		return nil
	}
	return s.SetAlias("")
}
