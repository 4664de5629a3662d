package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/josephgoksu/weekplan/internal/memory"
	"github.com/josephgoksu/weekplan/internal/planner"
	"github.com/josephgoksu/weekplan/internal/task"
	"github.com/josephgoksu/weekplan/internal/util"
)

// maxPlanListLimit caps ?limit= on plan listings.
const maxPlanListLimit = 200

func writeAPIJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError maps domain errors to HTTP statuses. Unknown failures are
// logged and reported without detail.
func writeError(w http.ResponseWriter, err error) {
	var genErr *planner.GenerationError
	status, code := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, planner.ErrEmptyBacklog):
		status, code = http.StatusUnprocessableEntity, "empty_backlog"
	case errors.Is(err, planner.ErrOracleTimeout):
		status, code = http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, planner.ErrMalformedCandidate):
		status, code = http.StatusBadGateway, "malformed"
	case errors.As(err, &genErr):
		status, code = http.StatusBadGateway, "generation"
	case errors.Is(err, util.ErrAmbiguousID):
		status, code = http.StatusConflict, "ambiguous_id"
	case errors.Is(err, memory.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, task.ErrTitleRequired),
		errors.Is(err, task.ErrInvalidPriority),
		errors.Is(err, task.ErrInvalidDeadline),
		errors.Is(err, task.ErrInvalidMinutes):
		status, code = http.StatusBadRequest, "invalid_task"
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("api request failed", "error", err)
		msg = "internal error"
	}
	writeAPIJSON(w, status, ErrorResponse{Error: msg, Code: code, Retryable: planner.IsRetryable(err)})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeAPIJSON(w, http.StatusBadRequest, ErrorResponse{Error: msg, Code: "bad_request"})
}

func pathTaskID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimPrefix(r.PathValue("id"), "#"), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeAPIJSON(w, http.StatusOK, map[string]any{
		"version":         s.cfg.Version,
		"dailyCapMinutes": s.cfg.DailyCapMinutes,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		slog.Error("store ping failed", "error", err)
		writeAPIJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "store unavailable", Code: "unavailable"})
		return
	}
	writeAPIJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListTasks returns the backlog in planning order.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.store.ListTasks(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	now := time.Now()
	views := make([]TaskView, 0, len(tasks))
	for _, t := range task.Rank(tasks) {
		views = append(views, TaskView{Task: t, Urgency: t.Urgency(now)})
	}
	writeAPIJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	t, err := req.input().Normalize()
	if err != nil {
		writeError(w, err)
		return
	}
	created, err := s.store.CreateTask(r.Context(), t)
	if err != nil {
		writeError(w, err)
		return
	}
	writeAPIJSON(w, http.StatusCreated, TaskView{Task: created, Urgency: created.Urgency(time.Now())})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathTaskID(r)
	if !ok {
		badRequest(w, "invalid task id")
		return
	}
	t, err := s.store.GetTask(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeAPIJSON(w, http.StatusOK, TaskView{Task: t, Urgency: t.Urgency(time.Now())})
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathTaskID(r)
	if !ok {
		badRequest(w, "invalid task id")
		return
	}
	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	patch := req.patch()
	if patch.IsEmpty() {
		badRequest(w, "nothing to update")
		return
	}
	updated, err := s.store.UpdateTask(r.Context(), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeAPIJSON(w, http.StatusOK, TaskView{Task: updated, Urgency: updated.Urgency(time.Now())})
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathTaskID(r)
	if !ok {
		badRequest(w, "invalid task id")
		return
	}
	if err := s.store.DeleteTask(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	limit := memory.DefaultPlanListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 && l <= maxPlanListLimit {
			limit = l
		}
	}
	plans, err := s.store.ListPlans(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if plans == nil {
		plans = []memory.PlanSummary{}
	}
	writeAPIJSON(w, http.StatusOK, plans)
}

// handleGeneratePlan runs a generation cycle. The request context bounds
// the whole cycle; the oracle timeout still applies inside it.
func (s *Server) handleGeneratePlan(w http.ResponseWriter, r *http.Request) {
	res, err := s.generator.GenerateWeeklyPlan(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeAPIJSON(w, http.StatusCreated, res)
}

func (s *Server) handleLatestPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.store.LatestPlan(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	s.writePlan(w, plan)
}

// handleGetPlan accepts a full plan id or a unique prefix of one.
func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	id, err := util.ResolvePlanID(r.Context(), s.store, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	plan, err := s.store.GetPlan(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	s.writePlan(w, plan)
}

func (s *Server) writePlan(w http.ResponseWriter, plan planner.WeeklyPlan) {
	writeAPIJSON(w, http.StatusOK, planner.Result{Plan: plan, Totals: plan.Totals(s.cfg.DailyCapMinutes)})
}
