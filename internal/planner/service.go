package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/josephgoksu/weekplan/internal/task"
)

// DefaultOracleTimeout bounds a single oracle call.
const DefaultOracleTimeout = 30 * time.Second

// TaskSource lists the current backlog.
type TaskSource interface {
	ListTasks(ctx context.Context) ([]task.Task, error)
}

// PlanStore persists accepted plans. Implementations are append-only:
// SavePlan stamps CreatedAt and returns the stored plan, and LatestPlan is
// the plan saved last.
type PlanStore interface {
	SavePlan(ctx context.Context, plan WeeklyPlan) (WeeklyPlan, error)
	LatestPlan(ctx context.Context) (WeeklyPlan, error)
}

// Tracker receives anonymous usage events.
type Tracker interface {
	Track(event string, properties map[string]any)
}

// ServiceConfig configures a Service.
type ServiceConfig struct {
	Request       RequestOptions
	OracleTimeout time.Duration `validate:"gte=0"`
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// Service runs one plan generation cycle: rank, build, ask, validate, save.
type Service struct {
	tasks   TaskSource
	oracle  Oracle
	store   PlanStore
	tracker Tracker
	cfg     ServiceConfig
}

// Option customizes a Service.
type Option func(*Service)

// WithTracker reports a plan_generated event after every saved plan.
func WithTracker(t Tracker) Option {
	return func(s *Service) { s.tracker = t }
}

// NewService wires the pipeline collaborators.
func NewService(tasks TaskSource, oracle Oracle, store PlanStore, cfg ServiceConfig, opts ...Option) (*Service, error) {
	if tasks == nil || oracle == nil || store == nil {
		return nil, errors.New("planner: task source, oracle and plan store are required")
	}
	if res := validateStruct(&cfg); !res.Valid {
		return nil, fmt.Errorf("planner: invalid config: %s", res.ErrorSummary())
	}
	if cfg.OracleTimeout == 0 {
		cfg.OracleTimeout = DefaultOracleTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	s := &Service{tasks: tasks, oracle: oracle, store: store, cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// BuildRequest ranks the current backlog and builds the request that
// GenerateWeeklyPlan would send, without calling the oracle.
func (s *Service) BuildRequest(ctx context.Context) (PlanRequest, error) {
	tasks, err := s.tasks.ListTasks(ctx)
	if err != nil {
		return PlanRequest{}, fmt.Errorf("list tasks: %w", err)
	}
	return BuildRequest(task.Rank(tasks), s.cfg.Now(), s.cfg.Request)
}

// GenerateWeeklyPlan runs a full cycle and returns the saved plan with its
// repair report and per-day totals. Nothing is saved unless validation
// succeeds.
func (s *Service) GenerateWeeklyPlan(ctx context.Context) (Result, error) {
	start := time.Now()

	req, err := s.BuildRequest(ctx)
	if err != nil {
		return Result{}, err
	}
	if req.Omitted > 0 {
		slog.Warn("backlog exceeds request bound, lowest ranked tasks left out",
			"sent", len(req.Tasks), "omitted", req.Omitted)
	}

	raw, err := s.ask(ctx, req)
	if err != nil {
		return Result{}, err
	}

	res, err := Validate(raw, req)
	if err != nil {
		return Result{}, err
	}
	logRepairs(res)

	saved, err := s.store.SavePlan(ctx, res.Plan)
	if err != nil {
		return Result{}, fmt.Errorf("save plan: %w", err)
	}
	res.Plan = saved

	slog.Info("weekly plan saved", "plan_id", saved.ID, "tasks", res.Plan.TaskCount(), "duration", time.Since(start))
	if s.tracker != nil {
		s.tracker.Track("plan_generated", map[string]any{
			"task_count":      res.Plan.TaskCount(),
			"repaired":        res.Report.Repaired(),
			"missing_tasks":   len(res.Report.MissingTasks),
			"unknown_tasks":   len(res.Report.UnknownTasks),
			"moved_early":     len(res.Report.MovedEarly),
			"over_cap_days":   len(res.OverCapDays()),
			"duration_millis": time.Since(start).Milliseconds(),
		})
	}
	return res, nil
}

// LatestPlan returns the most recently saved plan.
func (s *Service) LatestPlan(ctx context.Context) (WeeklyPlan, error) {
	return s.store.LatestPlan(ctx)
}

type oracleOutcome struct {
	raw RawCandidate
	err error
}

// ask calls the oracle under the configured timeout. The bound holds even
// if the oracle ignores its context.
func (s *Service) ask(ctx context.Context, req PlanRequest) (RawCandidate, error) {
	octx, cancel := context.WithTimeout(ctx, s.cfg.OracleTimeout)
	defer cancel()

	done := make(chan oracleOutcome, 1)
	go func() {
		raw, err := s.oracle.Generate(octx, req)
		done <- oracleOutcome{raw: raw, err: err}
	}()

	select {
	case <-octx.Done():
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("%w after %s", ErrOracleTimeout, s.cfg.OracleTimeout)
	case out := <-done:
		if out.err == nil {
			return out.raw, nil
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if errors.Is(octx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", ErrOracleTimeout, s.cfg.OracleTimeout)
		}
		if errors.Is(out.err, ErrOracleTimeout) || errors.Is(out.err, ErrMalformedCandidate) {
			return "", out.err
		}
		var genErr *GenerationError
		if errors.As(out.err, &genErr) {
			return "", out.err
		}
		return "", &GenerationError{Attempts: 1, Err: out.err}
	}
}

func logRepairs(res Result) {
	r := res.Report
	if r.Repaired() {
		slog.Info("plan candidate repaired",
			"unknown_days", len(r.UnknownDays),
			"invalid_items", r.InvalidItems,
			"unknown_tasks", len(r.UnknownTasks),
			"duplicate_tasks", len(r.DuplicateTasks),
			"missing_tasks", len(r.MissingTasks),
			"moved_early", len(r.MovedEarly),
		)
	}
	if over := res.OverCapDays(); len(over) > 0 {
		slog.Warn("plan exceeds daily cap", "days", over)
	}
}
