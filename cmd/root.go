/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"os"

	"github.com/josephgoksu/weekplan/internal/config"
	"github.com/josephgoksu/weekplan/internal/logger"
	"github.com/josephgoksu/weekplan/internal/telemetry"
	"github.com/josephgoksu/weekplan/internal/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// cfgFile is the path to the configuration file.
	cfgFile string
	// version is the application version.
	version = "0.1.0"
	// telemetryAPIKey is set at build time via -ldflags.
	telemetryAPIKey = ""
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "weekplan",
	Short: "weekplan - turn your task backlog into a weekly plan",
	Long: `weekplan keeps a small backlog of tasks and asks an LLM to spread them
over the next seven days.

Overdue and urgent tasks always land in the first two days, every task is
scheduled exactly once, and each accepted plan is stored so you can look
back at earlier weeks.

Examples:
  weekplan task add "Renew passport" --priority high --deadline 2025-03-14
  weekplan task list
  weekplan plan generate
  weekplan plan export latest --format md`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.Setup(os.Stderr, isVerbose())
		logger.SetVersion(version)
		logger.SetCommand(cmd.CommandPath())
		logger.SetBasePath(config.GetDataPath())
		ui.ConfigureColor(viper.GetBool("no-color") || isJSON())
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		PrintError(userMessage(err), err)
		os.Exit(1)
	}
}

// GetVersion returns the CLI version.
func GetVersion() string {
	return version
}

func init() {
	cobra.OnInitialize(InitConfig)
	// cmd.Print* default to stderr; command output belongs on stdout.
	rootCmd.SetOut(os.Stdout)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./.weekplan.yaml or ~/.weekplan/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().Bool("json", false, "print machine-readable JSON")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "print only essential output")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	bindPersistentFlags()
}

// bindPersistentFlags exposes the global flags through Viper.
func bindPersistentFlags() {
	for _, name := range []string{"config", "verbose", "json", "quiet", "no-color"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

// newTracker returns the telemetry client for this run. Any problem with the
// stored opt-in state silently disables telemetry.
func newTracker() telemetry.Client {
	if viper.IsSet("telemetry.enabled") && !viper.GetBool("telemetry.enabled") {
		return telemetry.NewNoopClient()
	}
	cfg, err := telemetry.Load()
	if err != nil {
		LogError("load telemetry config", err)
		return telemetry.NewNoopClient()
	}
	apiKey := viper.GetString("telemetry.apiKey")
	if apiKey == "" {
		apiKey = telemetryAPIKey
	}
	client, err := telemetry.New(telemetry.ClientConfig{
		APIKey:   apiKey,
		Version:  version,
		Config:   cfg,
		Endpoint: viper.GetString("telemetry.endpoint"),
	})
	if err != nil {
		LogError("start telemetry", err)
		return telemetry.NewNoopClient()
	}
	return client
}
