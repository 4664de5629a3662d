// Package server exposes the backlog and the weekly planner over a small JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/josephgoksu/weekplan/internal/memory"
	"github.com/josephgoksu/weekplan/internal/planner"
)

// Store is the persistence the API reads and writes.
type Store interface {
	memory.TaskStore
	LatestPlan(ctx context.Context) (planner.WeeklyPlan, error)
	GetPlan(ctx context.Context, id string) (planner.WeeklyPlan, error)
	ListPlans(ctx context.Context, limit int) ([]memory.PlanSummary, error)
	FindPlanIDsByPrefix(ctx context.Context, prefix string) ([]string, error)
	Ping(ctx context.Context) error
}

// Generator runs one plan generation cycle.
type Generator interface {
	GenerateWeeklyPlan(ctx context.Context) (planner.Result, error)
}

// Config holds the listener and presentation settings.
type Config struct {
	Addr            string
	AllowedOrigins  []string
	DailyCapMinutes int
	Version         string
}

type Server struct {
	store     Store
	generator Generator
	cfg       Config
	origins   map[string]struct{}
	server    *http.Server
}

// New wires a server around an open store and a generator. Both are owned
// by the caller and must outlive the server.
func New(store Store, generator Generator, cfg Config) (*Server, error) {
	if store == nil || generator == nil {
		return nil, errors.New("server: store and generator are required")
	}
	if cfg.DailyCapMinutes <= 0 {
		cfg.DailyCapMinutes = planner.DefaultDailyCapMinutes
	}

	s := &Server{
		store:     store,
		generator: generator,
		cfg:       cfg,
		origins:   make(map[string]struct{}, len(cfg.AllowedOrigins)),
	}
	for _, o := range cfg.AllowedOrigins {
		s.origins[o] = struct{}{}
	}

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.registerRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Start(wg *sync.WaitGroup, errChan chan<- error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("api server listening", "addr", s.cfg.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
