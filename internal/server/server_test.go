package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/josephgoksu/weekplan/internal/memory"
	"github.com/josephgoksu/weekplan/internal/planner"
	"github.com/josephgoksu/weekplan/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	res   planner.Result
	err   error
	calls int
}

func (g *stubGenerator) GenerateWeeklyPlan(ctx context.Context) (planner.Result, error) {
	g.calls++
	return g.res, g.err
}

func newTestServer(t *testing.T, gen Generator) (*Server, *memory.SQLiteStore) {
	t.Helper()
	store, err := memory.NewSQLiteStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	if gen == nil {
		gen = &stubGenerator{}
	}
	srv, err := New(store, gen, Config{Addr: ":0", AllowedOrigins: []string{"http://localhost:5173"}, Version: "test"})
	require.NoError(t, err)
	return srv, store
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(nil, &stubGenerator{}, Config{})
	assert.Error(t, err)
}

func TestTasks_CreateListUpdateDelete(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := do(t, srv, http.MethodPost, "/api/tasks", `{"title":"Pay rent","priority":"high","deadline":"2000-01-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[TaskView](t, rec)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, task.DefaultEstimatedMinutes, created.EstimatedMinutes)
	assert.Equal(t, task.UrgencyOverdue, created.Urgency)

	rec = do(t, srv, http.MethodPost, "/api/tasks", `{"title":"Read a book","priority":"low"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/tasks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]TaskView](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, "Pay rent", list[0].Title, "deadline tasks rank first")

	rec = do(t, srv, http.MethodPatch, "/api/tasks/2", `{"estimatedMinutes":90,"deadline":""}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 90, decode[TaskView](t, rec).EstimatedMinutes)

	rec = do(t, srv, http.MethodPut, "/api/tasks/2", `{"title":"Read two books"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Read two books", decode[TaskView](t, rec).Title)

	rec = do(t, srv, http.MethodPatch, "/api/tasks/2", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/api/tasks/2", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/tasks/2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[ErrorResponse](t, rec).Code)
}

func TestTasks_InvalidInput(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := do(t, srv, http.MethodPost, "/api/tasks", `{"title":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_task", decode[ErrorResponse](t, rec).Code)

	rec = do(t, srv, http.MethodPost, "/api/tasks", `{"title":"x","priority":"urgent"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/tasks", `not json`)
	assert.Equal(t, "bad_request", decode[ErrorResponse](t, rec).Code)

	rec = do(t, srv, http.MethodGet, "/api/tasks/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGeneratePlan_ThroughPipeline(t *testing.T) {
	store, err := memory.NewSQLiteStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	oracle := planner.OracleFunc(func(ctx context.Context, req planner.PlanRequest) (planner.RawCandidate, error) {
		return `{"Friday": [1]}`, nil
	})
	svc, err := planner.NewService(store, oracle, store, planner.ServiceConfig{})
	require.NoError(t, err)
	srv, err := New(store, svc, Config{})
	require.NoError(t, err)

	rec := do(t, srv, http.MethodPost, "/api/plans", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "empty_backlog", decode[ErrorResponse](t, rec).Code)

	for _, body := range []string{
		`{"title":"Overdue bill","deadline":"2000-01-01","estimatedMinutes":60}`,
		`{"title":"Stretch","estimatedMinutes":15}`,
	} {
		require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/tasks", body).Code)
	}

	rec = do(t, srv, http.MethodPost, "/api/plans", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode[planner.Result](t, rec)
	assert.Equal(t, []int64{1}, res.Report.MovedEarly)
	assert.Equal(t, []int64{2}, res.Report.MissingTasks)
	assert.Equal(t, 2, res.Plan.TaskCount())

	rec = do(t, srv, http.MethodGet, "/api/plans/latest", "")
	require.Equal(t, http.StatusOK, rec.Code)
	latest := decode[planner.Result](t, rec)
	assert.Equal(t, res.Plan.ID, latest.Plan.ID)
	assert.Len(t, latest.Totals, 7)

	rec = do(t, srv, http.MethodGet, "/api/plans/"+strings.TrimPrefix(res.Plan.ID, "plan-")[:4], "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, res.Plan.ID, decode[planner.Result](t, rec).Plan.ID)

	rec = do(t, srv, http.MethodGet, "/api/plans", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]memory.PlanSummary](t, rec), 1)
}

func TestGeneratePlan_ErrorStatuses(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"timeout", planner.ErrOracleTimeout, http.StatusGatewayTimeout, "timeout"},
		{"malformed", planner.ErrMalformedCandidate, http.StatusBadGateway, "malformed"},
		{"generation", &planner.GenerationError{Attempts: 2, Err: assert.AnError}, http.StatusBadGateway, "generation"},
		{"other", assert.AnError, http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newTestServer(t, &stubGenerator{err: tc.err})
			rec := do(t, srv, http.MethodPost, "/api/plans", "")
			assert.Equal(t, tc.status, rec.Code)
			body := decode[ErrorResponse](t, rec)
			assert.Equal(t, tc.code, body.Code)
			assert.Equal(t, tc.code != "internal", body.Retryable)
		})
	}
}

func TestPlans_EmptyStore(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/api/plans", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/plans/latest", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/plans/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	srv, store := newTestServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, store.Close())
	rec = do(t, srv, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCORS(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/info", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
