package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/josephgoksu/weekplan/internal/config"
	"github.com/josephgoksu/weekplan/internal/planner"
	"github.com/spf13/viper"
)

const (
	configName = ".weekplan"
	envPrefix  = "WEEKPLAN"
)

// settings is the subset of configuration checked on startup.
type settings struct {
	LLM struct {
		Provider string `mapstructure:"provider" validate:"omitempty,oneof=openai anthropic gemini ollama"`
		BaseURL  string `mapstructure:"baseURL" validate:"omitempty,url"`
	} `mapstructure:"llm"`
	Planner struct {
		DailyCapMinutes int           `mapstructure:"daily_cap_minutes" validate:"gte=0,lte=1440"`
		EarlyDays       int           `mapstructure:"early_days" validate:"gte=0,lte=2"`
		MaxTasks        int           `mapstructure:"max_tasks" validate:"gte=0"`
		OracleTimeout   time.Duration `mapstructure:"oracle_timeout" validate:"gte=0"`
	} `mapstructure:"planner"`
	Server struct {
		Port           int      `mapstructure:"port" validate:"gte=0,lte=65535"`
		AllowedOrigins []string `mapstructure:"allowed_origins" validate:"dive,url"`
	} `mapstructure:"server"`
}

// validate is a single instance of Validate, it caches struct info
var validate = validator.New()

// validateSettings checks the loaded configuration for values that would
// otherwise fail deep inside a command.
func validateSettings() error {
	var s settings
	if err := viper.Unmarshal(&s); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	if err := validate.Struct(&s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s (%s=%s)", fe.Namespace(), fe.Tag(), fe.Param()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

// InitConfig reads in config file and ENV variables if set.
func InitConfig() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	viper.SetEnvPrefix(envPrefix) // e.g., WEEKPLAN_LLM_PROVIDER
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if _, err := os.Stat(configName + ".yaml"); err == nil {
		// A project-local file wins over the global one.
		viper.SetConfigFile(configName + ".yaml")
	} else if path, err := config.GetConfigFilePath(); err == nil {
		viper.SetConfigFile(path)
	}

	viper.SetDefault("planner.daily_cap_minutes", planner.DefaultDailyCapMinutes)
	viper.SetDefault("planner.early_days", planner.DefaultEarlyDays)
	viper.SetDefault("planner.max_tasks", planner.DefaultMaxTasks)
	viper.SetDefault("planner.oracle_timeout", planner.DefaultOracleTimeout)
	viper.SetDefault("server.port", defaultServerPort)

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	} else {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound), errors.Is(err, os.ErrNotExist):
			if cfgFile != "" {
				fmt.Fprintln(os.Stderr, "Error: specified config file not found:", cfgFile)
				os.Exit(1)
			}
		default:
			fmt.Fprintln(os.Stderr, "Error reading config file:", viper.ConfigFileUsed(), "-", err)
			os.Exit(1)
		}
	}

	if err := validateSettings(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
