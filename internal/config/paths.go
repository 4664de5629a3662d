// Package config resolves weekplan settings from flags, environment and the
// config file, and writes user-level settings back.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// AppName names the config directory and environment prefix.
const AppName = "weekplan"

// GetGlobalConfigDir returns the path to the global configuration directory (~/.weekplan).
// It's a variable to allow overriding in tests.
var GetGlobalConfigDir = func() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "."+AppName), nil
}

// GetDataPath returns the directory holding the database.
// Resolution order (first match wins):
// 1. Explicit config via "data.path" (Viper/env/flag)
// 2. XDG_DATA_HOME/weekplan (if XDG_DATA_HOME is set)
// 3. Global fallback: ~/.weekplan/data
func GetDataPath() string {
	if path := viper.GetString("data.path"); path != "" {
		return path
	}

	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, AppName)
	}

	dir, err := GetGlobalConfigDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(dir, "data")
}

// GetConfigFilePath returns the global config file path.
func GetConfigFilePath() (string, error) {
	dir, err := GetGlobalConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}
