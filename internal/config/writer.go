package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/josephgoksu/weekplan/internal/llm"
	"github.com/josephgoksu/weekplan/internal/planner"
	"github.com/spf13/viper"
)

// SettableKeys lists the keys `weekplan config set` accepts.
var SettableKeys = []string{
	"llm.provider",
	"llm.model",
	"llm.baseURL",
	"data.path",
	"planner.daily_cap_minutes",
	"planner.early_days",
	"planner.max_tasks",
	"planner.oracle_timeout",
	"planner.llm.temperature",
	"planner.llm.max_tokens",
	"planner.llm.max_attempts",
	"server.port",
	"telemetry.enabled",
}

// openGlobalConfig returns a private Viper bound to the global config file,
// with existing content loaded.
func openGlobalConfig() (*viper.Viper, string, error) {
	path, err := GetConfigFilePath()
	if err != nil {
		return nil, "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, "", err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, "", fmt.Errorf("read %s: %w", path, err)
		}
	}
	return v, path, nil
}

func writeGlobalConfig(v *viper.Viper, path string) error {
	v.Set("version", "1")
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	// API keys live here.
	return os.Chmod(path, 0600)
}

// SaveGlobalLLMConfigWithModel saves the LLM provider, model, and API key to global config.
// An empty key leaves any stored key untouched.
func SaveGlobalLLMConfigWithModel(provider, model, key string) error {
	if provider == "" {
		return fmt.Errorf("provider cannot be empty")
	}
	if _, err := llm.ValidateProvider(provider); err != nil {
		return err
	}
	if model == "" {
		model = llm.DefaultModelForProvider(provider)
	}

	v, path, err := openGlobalConfig()
	if err != nil {
		return err
	}
	v.Set("llm.provider", provider)
	v.Set("llm.model", model)
	if key != "" {
		v.Set(fmt.Sprintf("llm.apiKeys.%s", provider), key)
	}
	return writeGlobalConfig(v, path)
}

// SaveAPIKeyForProvider saves only the API key for a specific provider without
// changing the default provider or model.
func SaveAPIKeyForProvider(provider, key string) error {
	if provider == "" {
		return fmt.Errorf("provider cannot be empty")
	}
	if key == "" {
		return fmt.Errorf("API key cannot be empty")
	}

	v, path, err := openGlobalConfig()
	if err != nil {
		return err
	}
	v.Set(fmt.Sprintf("llm.apiKeys.%s", provider), key)
	return writeGlobalConfig(v, path)
}

// SetValue writes one of SettableKeys to the global config.
func SetValue(key, value string) error {
	known := false
	for _, k := range SettableKeys {
		if strings.EqualFold(k, key) {
			key, known = k, true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown config key %q (settable: %s)", key, strings.Join(SettableKeys, ", "))
	}
	switch key {
	case "llm.provider":
		if _, err := llm.ValidateProvider(value); err != nil {
			return err
		}
	case "planner.early_days":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 || n > planner.MaxEarlyDays {
			return fmt.Errorf("planner.early_days must be between 0 and %d, got %q", planner.MaxEarlyDays, value)
		}
	}

	v, path, err := openGlobalConfig()
	if err != nil {
		return err
	}
	v.Set(key, value)
	return writeGlobalConfig(v, path)
}
