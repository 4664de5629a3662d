package config

import (
	"time"

	"github.com/josephgoksu/weekplan/internal/planner"
	"github.com/spf13/viper"
)

// PlannerConfig holds the knobs of a plan generation run.
type PlannerConfig struct {
	DailyCapMinutes int           `mapstructure:"daily_cap_minutes"`
	EarlyDays       int           `mapstructure:"early_days"`
	MaxTasks        int           `mapstructure:"max_tasks"`
	OracleTimeout   time.Duration `mapstructure:"oracle_timeout"`

	// LLM generation settings
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
}

// DefaultPlannerConfig returns the default planner configuration.
func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		DailyCapMinutes: planner.DefaultDailyCapMinutes,
		EarlyDays:       planner.DefaultEarlyDays,
		MaxTasks:        planner.DefaultMaxTasks,
		OracleTimeout:   planner.DefaultOracleTimeout,

		Temperature: 0.2,
		MaxTokens:   planner.DefaultMaxTokens,
		MaxAttempts: planner.MaxGenerationRetries,
		RetryDelay:  planner.RetryDelay,
	}
}

// LoadPlannerConfig loads planner configuration from Viper with defaults.
func LoadPlannerConfig() PlannerConfig {
	defaults := DefaultPlannerConfig()

	return PlannerConfig{
		DailyCapMinutes: getIntWithDefault("planner.daily_cap_minutes", defaults.DailyCapMinutes),
		EarlyDays:       getIntWithDefault("planner.early_days", defaults.EarlyDays),
		MaxTasks:        getIntWithDefault("planner.max_tasks", defaults.MaxTasks),
		OracleTimeout:   getDurationWithDefault("planner.oracle_timeout", defaults.OracleTimeout),

		Temperature: getFloat64WithDefault("planner.llm.temperature", defaults.Temperature),
		MaxTokens:   getIntWithDefault("planner.llm.max_tokens", defaults.MaxTokens),
		MaxAttempts: getIntWithDefault("planner.llm.max_attempts", defaults.MaxAttempts),
		RetryDelay:  getDurationWithDefault("planner.llm.retry_delay", defaults.RetryDelay),
	}
}

// Service converts the settings into a planner service configuration.
func (c PlannerConfig) Service() planner.ServiceConfig {
	return planner.ServiceConfig{
		Request: planner.RequestOptions{
			DailyCapMinutes: c.DailyCapMinutes,
			EarlyDays:       c.EarlyDays,
			MaxTasks:        c.MaxTasks,
		},
		OracleTimeout: c.OracleTimeout,
	}
}

// Oracle converts the settings into an LLM oracle configuration.
func (c PlannerConfig) Oracle() planner.LLMOracleConfig {
	return planner.LLMOracleConfig{
		Temperature: float32(c.Temperature),
		MaxTokens:   c.MaxTokens,
		MaxAttempts: c.MaxAttempts,
		RetryDelay:  c.RetryDelay,
	}
}

// Helper functions for Viper with defaults

func getFloat64WithDefault(key string, defaultVal float64) float64 {
	if viper.IsSet(key) {
		return viper.GetFloat64(key)
	}
	return defaultVal
}

func getIntWithDefault(key string, defaultVal int) int {
	if viper.IsSet(key) {
		return viper.GetInt(key)
	}
	return defaultVal
}

func getDurationWithDefault(key string, defaultVal time.Duration) time.Duration {
	if viper.IsSet(key) {
		return viper.GetDuration(key)
	}
	return defaultVal
}
