/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/josephgoksu/weekplan/internal/config"
	"github.com/josephgoksu/weekplan/internal/llm"
	"github.com/josephgoksu/weekplan/internal/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage weekplan configuration",
	Long: `View and change weekplan settings.

Settings are read from flags, WEEKPLAN_* environment variables, ./.weekplan.yaml
and ~/.weekplan/config.yaml, in that order. Changes are written to the
global file.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: fmt.Sprintf(`Set a configuration value in the global config file.

planner.early_days narrows the window overdue and urgent tasks must land in.
It accepts 1 or 2 (0 restores the default of 2); it never widens past the
second day.

Keys: %s`, strings.Join(config.SettableKeys, ", ")),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetValue(args[0], args[1]); err != nil {
			return err
		}
		if !isQuiet() {
			cmd.Printf("Set %s = %s\n", args[0], args[1])
		}
		return nil
	},
}

var configLLMCmd = &cobra.Command{
	Use:   "llm <provider> [model]",
	Short: "Choose the LLM provider and model",
	Long: fmt.Sprintf(`Choose the LLM provider and model used for planning.

Providers: %s

Examples:
  weekplan config llm openai --api-key sk-...
  weekplan config llm anthropic claude-3-5-haiku-latest
  weekplan config llm ollama llama3.2`, strings.Join(llm.SupportedProviders(), ", ")),
	Args: cobra.RangeArgs(1, 2),
	RunE: runConfigLLM,
}

var configKeyCmd = &cobra.Command{
	Use:   "key <provider> <api-key>",
	Short: "Store an API key without changing the active provider",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := llm.ValidateProvider(strings.ToLower(args[0]))
		if err != nil {
			return err
		}
		if err := config.SaveAPIKeyForProvider(string(provider), args[1]); err != nil {
			return err
		}
		if !isQuiet() {
			cmd.Printf("Stored API key for %s (%s).\n", provider, maskKey(args[1]))
		}
		return nil
	},
}

var configModelsCmd = &cobra.Command{
	Use:   "models [provider]",
	Short: "List known models and prices",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigModels,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configSetCmd, configLLMCmd, configKeyCmd, configModelsCmd)

	configLLMCmd.Flags().String("api-key", "", "API key to store for the provider")
}

// effectiveConfig is what `config show` reports.
type effectiveConfig struct {
	Provider        string `json:"provider"`
	Model           string `json:"model"`
	BaseURL         string `json:"baseUrl,omitempty"`
	APIKey          string `json:"apiKey"`
	DataPath        string `json:"dataPath"`
	ConfigFile      string `json:"configFile,omitempty"`
	DailyCapMinutes int    `json:"dailyCapMinutes"`
	EarlyDays       int    `json:"earlyDays"`
	MaxTasks        int    `json:"maxTasks"`
	OracleTimeout   string `json:"oracleTimeout"`
}

func maskKey(key string) string {
	switch {
	case key == "":
		return "(not set)"
	case len(key) <= 8:
		return "****"
	default:
		return key[:4] + "…" + key[len(key)-4:]
	}
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	llmCfg, err := config.LoadLLMConfig()
	if err != nil {
		return err
	}
	pcfg := config.LoadPlannerConfig()

	eff := effectiveConfig{
		Provider:        string(llmCfg.Provider),
		Model:           llmCfg.Model,
		BaseURL:         llmCfg.BaseURL,
		APIKey:          maskKey(llmCfg.APIKey),
		DataPath:        config.GetDataPath(),
		ConfigFile:      viper.ConfigFileUsed(),
		DailyCapMinutes: pcfg.DailyCapMinutes,
		EarlyDays:       pcfg.EarlyDays,
		MaxTasks:        pcfg.MaxTasks,
		OracleTimeout:   pcfg.OracleTimeout.String(),
	}
	if !llm.RequiresAPIKey(llmCfg.Provider) {
		eff.APIKey = "(not needed)"
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), eff)
	}

	table := &ui.Table{
		Headers: []string{"Setting", "Value"},
		Rows: [][]string{
			{"provider", eff.Provider},
			{"model", eff.Model},
			{"api key", eff.APIKey},
			{"data path", eff.DataPath},
			{"daily cap", fmt.Sprintf("%d min", eff.DailyCapMinutes)},
			{"early days", fmt.Sprint(eff.EarlyDays)},
			{"max tasks", fmt.Sprint(eff.MaxTasks)},
			{"oracle timeout", eff.OracleTimeout},
		},
	}
	if eff.BaseURL != "" {
		table.Rows = append(table.Rows, []string{"base url", eff.BaseURL})
	}
	if eff.ConfigFile != "" {
		table.Rows = append(table.Rows, []string{"config file", eff.ConfigFile})
	}
	cmd.Print(table.Render())
	return nil
}

func runConfigLLM(cmd *cobra.Command, args []string) error {
	provider := strings.ToLower(args[0])
	var model string
	if len(args) > 1 {
		model = args[1]
	}
	apiKey, _ := cmd.Flags().GetString("api-key")

	if err := config.SaveGlobalLLMConfigWithModel(provider, model, apiKey); err != nil {
		return err
	}
	if model == "" {
		model = llm.DefaultModelForProvider(provider)
	}
	if isQuiet() {
		return nil
	}
	cmd.Printf("Using %s with model %s.\n", provider, model)
	if apiKey == "" && llm.RequiresAPIKey(llm.Provider(provider)) && config.ResolveAPIKey(llm.Provider(provider)) == "" {
		cmd.Println(ui.StyleWarning.Render(fmt.Sprintf("No API key found for %s. Pass --api-key or set the provider's environment variable.", provider)))
	}
	return nil
}

func runConfigModels(cmd *cobra.Command, args []string) error {
	providers := llm.SupportedProviders()
	if len(args) > 0 {
		p, err := llm.ValidateProvider(strings.ToLower(args[0]))
		if err != nil {
			return err
		}
		providers = []string{string(p)}
	}

	type providerModels struct {
		Provider string            `json:"provider"`
		Models   []llm.ModelOption `json:"models"`
	}
	var all []providerModels
	for _, p := range providers {
		all = append(all, providerModels{Provider: p, Models: llm.GetModelsForProvider(p)})
	}
	if isJSON() {
		return printJSON(cmd.OutOrStdout(), all)
	}

	table := &ui.Table{Headers: []string{"Provider", "Model", "Price", ""}}
	for _, pm := range all {
		for _, m := range pm.Models {
			marker := ""
			if m.IsDefault {
				marker = "default"
			}
			table.Rows = append(table.Rows, []string{pm.Provider, m.ID, m.PriceInfo, marker})
		}
	}
	cmd.Print(table.Render())
	return nil
}
