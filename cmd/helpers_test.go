package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/josephgoksu/weekplan/internal/config"
	"github.com/josephgoksu/weekplan/internal/planner"
	"github.com/josephgoksu/weekplan/internal/telemetry"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// setupCLI isolates config, data and telemetry state in a temp dir and
// returns that dir.
func setupCLI(t *testing.T) string {
	t.Helper()

	viper.Reset()
	bindPersistentFlags()
	resetFlags(rootCmd)
	cfgFile = ""

	dir := t.TempDir()
	home := filepath.Join(dir, "home")

	origConfigDir := config.GetGlobalConfigDir
	config.GetGlobalConfigDir = func() (string, error) { return home, nil }
	telemetry.SetConfigDir(home)

	viper.Set("data.path", filepath.Join(dir, "data"))
	viper.Set("telemetry.enabled", false)

	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("DO_NOT_TRACK", "")

	t.Cleanup(func() {
		config.GetGlobalConfigDir = origConfigDir
		telemetry.SetConfigDir("")
		rootCmd.SetOut(os.Stdout)
		rootCmd.SetErr(os.Stderr)
		rootCmd.SetArgs(nil)
		viper.Reset()
		bindPersistentFlags()
	})
	return dir
}

// resetFlags restores every flag in the command tree to its default so
// values do not leak between executions.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCLI executes the root command with args and returns combined output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var b bytes.Buffer
	rootCmd.SetOut(&b)
	rootCmd.SetErr(&b)
	rootCmd.SetIn(bytes.NewReader(nil))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return b.String(), err
}

// stubOracle makes plan generation answer with raw, counting calls.
func stubOracle(t *testing.T, raw planner.RawCandidate) *int {
	t.Helper()
	calls := 0
	orig := newOracle
	newOracle = func(ctx context.Context, cfg config.PlannerConfig) (planner.Oracle, func() error, error) {
		return planner.OracleFunc(func(ctx context.Context, req planner.PlanRequest) (planner.RawCandidate, error) {
			calls++
			return raw, nil
		}), func() error { return nil }, nil
	}
	t.Cleanup(func() { newOracle = orig })
	return &calls
}
