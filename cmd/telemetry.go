/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"

	"github.com/josephgoksu/weekplan/internal/telemetry"
	"github.com/spf13/cobra"
)

var telemetryCmd = &cobra.Command{
	Use:   "telemetry",
	Short: "Manage anonymous usage statistics",
	Long: `View and manage weekplan's anonymous usage statistics.

Telemetry is off until you enable it. When on, weekplan reports counts
such as how many tasks a plan held and how many repairs it needed. Task
titles and descriptions are never sent. DO_NOT_TRACK=1 always disables it.`,
}

var telemetryStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current telemetry status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := telemetry.Load()
		if err != nil {
			return fmt.Errorf("read telemetry status: %w", err)
		}
		if isJSON() {
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"enabled":     cfg.IsEnabled(),
				"anonymousId": cfg.AnonymousID,
			})
		}
		switch {
		case cfg.IsEnabled():
			cmd.Println("Telemetry: enabled")
			cmd.Printf("  Anonymous ID: %s\n", cfg.AnonymousID)
			cmd.Println("  To disable: weekplan telemetry disable")
		case cfg.Enabled:
			cmd.Println("Telemetry: disabled by DO_NOT_TRACK")
		case cfg.NeedsConsent():
			cmd.Println("Telemetry: disabled (never configured)")
			cmd.Println("  To enable: weekplan telemetry enable")
		default:
			cmd.Println("Telemetry: disabled")
			cmd.Println("  To enable: weekplan telemetry enable")
		}
		return nil
	},
}

var telemetryEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Enable anonymous telemetry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setTelemetry(cmd, true)
	},
}

var telemetryDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable anonymous telemetry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setTelemetry(cmd, false)
	},
}

func setTelemetry(cmd *cobra.Command, enabled bool) error {
	cfg, err := telemetry.Load()
	if err != nil {
		return fmt.Errorf("read telemetry status: %w", err)
	}
	if enabled {
		cfg.Enable()
	} else {
		cfg.Disable()
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("save telemetry status: %w", err)
	}
	if isQuiet() {
		return nil
	}
	if enabled {
		cmd.Println("Telemetry enabled. Thank you for helping improve weekplan!")
	} else {
		cmd.Println("Telemetry disabled.")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(telemetryCmd)
	telemetryCmd.AddCommand(telemetryStatusCmd, telemetryEnableCmd, telemetryDisableCmd)
}
