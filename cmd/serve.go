/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/josephgoksu/weekplan/internal/config"
	"github.com/josephgoksu/weekplan/internal/planner"
	"github.com/josephgoksu/weekplan/internal/server"
	"github.com/josephgoksu/weekplan/internal/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultServerPort = 5001

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the backlog and planner over a JSON API",
	Long: `Start a local HTTP API over the same backlog and plan store the CLI uses.

The store and the model client are opened once and shared by every request.

Endpoints:
  GET    /api/health             store check
  GET    /api/tasks              backlog in planning order
  POST   /api/tasks              add a task
  GET    /api/tasks/{id}         show a task
  PATCH  /api/tasks/{id}         update a task (PUT is accepted too)
  DELETE /api/tasks/{id}         delete a task
  GET    /api/plans              stored plans, newest first
  POST   /api/plans              generate and store a plan
  GET    /api/plans/latest       newest plan
  GET    /api/plans/{id}         plan by id or unique prefix

Examples:
  weekplan serve
  weekplan serve --port 8080 --origin http://localhost:5173`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", defaultServerPort, "API server port")
	serveCmd.Flags().StringSlice("origin", nil, "allowed CORS origin (repeatable)")
}

// servePort prefers --port, then server.port from config.
func servePort(cmd *cobra.Command) int {
	port, _ := cmd.Flags().GetInt("port")
	if !cmd.Flags().Changed("port") && viper.GetInt("server.port") > 0 {
		port = viper.GetInt("server.port")
	}
	return port
}

// newAPIServer opens the shared collaborators and wires the API server. The
// returned cleanup releases them.
func newAPIServer(cmd *cobra.Command) (*server.Server, func(), error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	pcfg := config.LoadPlannerConfig()

	store, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	oracle, closeOracle, err := newOracle(ctx, pcfg)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	tracker := newTracker()
	cleanup := func() {
		_ = tracker.Close()
		_ = closeOracle()
		_ = store.Close()
	}

	svc, err := planner.NewService(store, promptRecordingOracle{oracle}, store, pcfg.Service(), planner.WithTracker(tracker))
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	origins := viper.GetStringSlice("server.allowed_origins")
	if extra, _ := cmd.Flags().GetStringSlice("origin"); len(extra) > 0 {
		origins = append(origins, extra...)
	}

	srv, err := server.New(store, svc, server.Config{
		Addr:            fmt.Sprintf("127.0.0.1:%d", servePort(cmd)),
		AllowedOrigins:  origins,
		DailyCapMinutes: pcfg.DailyCapMinutes,
		Version:         GetVersion(),
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return srv, cleanup, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	srv, cleanup, err := newAPIServer(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	var wg sync.WaitGroup
	errChan := make(chan error, 1)
	srv.Start(&wg, errChan)

	if !isQuiet() {
		ui.RenderPageHeader(cmd.OutOrStdout(), "weekplan API", "http://"+srv.Addr()+"  (Ctrl+C to stop)")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case sig := <-sigChan:
		if !isQuiet() {
			cmd.Printf("Received %v, shutting down...\n", sig)
		}
	case runErr = <-errChan:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		LogError("server shutdown", err)
	}
	wg.Wait()
	return runErr
}
