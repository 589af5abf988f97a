// Package config manages user-level settings stored at
// ~/.fieldsync/config.yaml, backed by Viper with FIELDSYNC_* environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/fieldsync-labs/fieldsync/internal/branding"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Well-known configuration keys.
const (
	KeyServerURL        = "server.url"
	KeyServerToken      = "server.token"
	KeyDefaultNamespace = "defaults.namespace"
	KeyDeviceID         = "device.id"
)

// Dir returns the path to the config directory (~/.fieldsync/). The
// FIELDSYNC_HOME environment variable overrides it, which tests rely on.
func Dir() string {
	if v := os.Getenv(branding.EnvVar("HOME")); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file.
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper to read from the config file and environment.
func Load() {
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()

	// Ignore error if the config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// ServerURL returns the configured sync server, falling back to the default.
func ServerURL() string {
	if v := Get(KeyServerURL); v != "" {
		return v
	}
	return branding.DefaultServerURL()
}

// DeviceID returns the stable identifier for this installation, generating
// and persisting one on first use.
func DeviceID() (string, error) {
	if id := Get(KeyDeviceID); id != "" {
		return id, nil
	}
	id := uuid.NewString()
	if err := Set(KeyDeviceID, id); err != nil {
		return "", fmt.Errorf("persisting device id: %w", err)
	}
	return id, nil
}
