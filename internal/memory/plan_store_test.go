package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/josephgoksu/weekplan/internal/planner"
	"github.com/josephgoksu/weekplan/internal/task"
	"github.com/josephgoksu/weekplan/internal/util"
)

func samplePlan(ids ...int64) planner.WeeklyPlan {
	p := planner.NewWeeklyPlan()
	for i, id := range ids {
		d := planner.Weekdays[i%len(planner.Weekdays)]
		p.Days[d] = append(p.Days[d], planner.PlanItem{
			ID:               id,
			Title:            "task",
			Priority:         task.PriorityMedium,
			EstimatedMinutes: 60,
		})
	}
	return p
}

func TestSavePlan_LatestPlan(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	saved, err := store.SavePlan(ctx, samplePlan(1, 2))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	id := saved.ID
	if !strings.HasPrefix(id, util.PlanIDPrefix) || len(id) != util.PlanIDLength {
		t.Fatalf("unexpected plan id %q", id)
	}

	latest, err := store.LatestPlan(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.ID != id {
		t.Fatalf("latest id %q, want %q", latest.ID, id)
	}
	if len(latest.Days) != len(planner.Weekdays) {
		t.Fatalf("expected all seven days, got %d", len(latest.Days))
	}
	if got := latest.Days[planner.Monday]; len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("monday: %+v", got)
	}
	if got := latest.Days[planner.Tuesday]; len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("tuesday: %+v", got)
	}
	if latest.Days[planner.Sunday] == nil {
		t.Fatal("empty days must decode as empty lists")
	}
}

func TestLatestPlan_Empty(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	if _, err := store.LatestPlan(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSavePlan_StampsCreatedAt(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	// The caller's timestamp is ignored; the store records the save time.
	p := samplePlan(1)
	p.CreatedAt = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	before := time.Now()
	saved, err := store.SavePlan(ctx, p)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.CreatedAt.Before(before) || saved.CreatedAt.After(time.Now()) {
		t.Fatalf("created at %v not within the save", saved.CreatedAt)
	}

	got, err := store.GetPlan(ctx, saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.CreatedAt.Equal(saved.CreatedAt) {
		t.Fatalf("stored created at %v, returned %v", got.CreatedAt, saved.CreatedAt)
	}
}

func TestLatestPlan_LastSavedWins(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	newer := samplePlan(2)
	newer.CreatedAt = base.Add(time.Hour)
	older := samplePlan(1)
	older.CreatedAt = base

	if _, err := store.SavePlan(ctx, newer); err != nil {
		t.Fatalf("save newer: %v", err)
	}
	last, err := store.SavePlan(ctx, older)
	if err != nil {
		t.Fatalf("save older: %v", err)
	}

	latest, err := store.LatestPlan(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.ID != last.ID {
		t.Fatalf("latest = %q, want %q", latest.ID, last.ID)
	}
}

func TestLatestPlan_SameInstantLastSavedWins(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	var last string
	for i := range 3 {
		p := samplePlan(int64(i + 1))
		p.CreatedAt = at
		saved, err := store.SavePlan(ctx, p)
		if err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
		last = saved.ID
	}
	latest, err := store.LatestPlan(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.ID != last {
		t.Fatalf("latest = %q, want %q", latest.ID, last)
	}
}

func TestSavePlan_AppendOnly(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	saved, err := store.SavePlan(ctx, samplePlan(1, 2, 3))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	first := saved.ID
	if _, err := store.SavePlan(ctx, samplePlan(4)); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.GetPlan(ctx, first)
	if err != nil {
		t.Fatalf("get first: %v", err)
	}
	if got.TaskCount() != 3 {
		t.Fatalf("first plan changed: %d tasks", got.TaskCount())
	}

	// Reusing an id is rejected rather than overwriting.
	dup := samplePlan(9)
	dup.ID = first
	if _, err := store.SavePlan(ctx, dup); err == nil {
		t.Fatal("expected duplicate id to fail")
	}
	got, err = store.GetPlan(ctx, first)
	if err != nil {
		t.Fatalf("get first: %v", err)
	}
	if got.TaskCount() != 3 {
		t.Fatalf("first plan overwritten: %d tasks", got.TaskCount())
	}
}

func TestListPlans(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	var ids []string
	for i := range 3 {
		saved, err := store.SavePlan(ctx, samplePlan(int64(i+1)))
		if err != nil {
			t.Fatalf("save: %v", err)
		}
		ids = append(ids, saved.ID)
	}

	plans, err := store.ListPlans(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(plans) != 2 {
		t.Fatalf("expected limit 2, got %d", len(plans))
	}
	if plans[0].ID != ids[2] || plans[1].ID != ids[1] {
		t.Fatalf("expected last saved first, got %s then %s", plans[0].ID, plans[1].ID)
	}
	if plans[0].CreatedAt.Before(plans[1].CreatedAt) {
		t.Fatalf("created at out of order: %v then %v", plans[0].CreatedAt, plans[1].CreatedAt)
	}
	if plans[0].TaskCount != 1 || plans[0].TotalMinutes != 60 {
		t.Fatalf("unexpected summary: %+v", plans[0])
	}
}

func TestFindPlanIDsByPrefix(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	for _, id := range []string{"plan-aaa11111", "plan-aaa22222", "plan-bbb33333"} {
		p := samplePlan(1)
		p.ID = id
		if _, err := store.SavePlan(ctx, p); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	ids, err := store.FindPlanIDsByPrefix(ctx, "plan-aaa")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 matches, got %v", ids)
	}

	resolved, err := util.ResolvePlanID(ctx, store, "bbb")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved != "plan-bbb33333" {
		t.Fatalf("resolved %q", resolved)
	}
	if _, err := util.ResolvePlanID(ctx, store, "aaa"); !errors.Is(err, util.ErrAmbiguousID) {
		t.Fatalf("expected ambiguous, got %v", err)
	}
}

func TestMemoryPlanStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryPlanStore()

	if _, err := store.LatestPlan(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	a := samplePlan(1)
	a.CreatedAt = at
	b := samplePlan(2)
	b.CreatedAt = at
	if _, err := store.SavePlan(ctx, a); err != nil {
		t.Fatalf("save a: %v", err)
	}
	savedB, err := store.SavePlan(ctx, b)
	if err != nil {
		t.Fatalf("save b: %v", err)
	}
	bID := savedB.ID

	latest, err := store.LatestPlan(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.ID != bID {
		t.Fatalf("latest = %q, want %q", latest.ID, bID)
	}

	// Mutating the returned plan must not change the stored copy.
	latest.Days[planner.Monday] = nil
	again, _ := store.LatestPlan(ctx)
	if len(again.Days[planner.Monday]) != 1 {
		t.Fatal("stored plan was mutated through returned copy")
	}
}

func TestMemoryPlanStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryPlanStore()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			if _, err := store.SavePlan(ctx, samplePlan(id)); err != nil {
				t.Errorf("save: %v", err)
			}
			_, _ = store.LatestPlan(ctx)
		}(int64(i + 1))
	}
	wg.Wait()

	if store.Len() != 20 {
		t.Fatalf("expected 20 plans, got %d", store.Len())
	}
}

// Two generation cycles share the store: the one that started first finishes
// last, and its plan must be the latest.
func TestGenerateWeeklyPlan_LateFinisherIsLatest(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := store.CreateTask(ctx, task.Task{Title: "Pay rent", Priority: task.PriorityHigh}); err != nil {
		t.Fatalf("create task: %v", err)
	}

	started := make(chan struct{})
	release := make(chan struct{})
	slow := planner.OracleFunc(func(ctx context.Context, req planner.PlanRequest) (planner.RawCandidate, error) {
		close(started)
		select {
		case <-release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
		return `{"Monday": [1]}`, nil
	})
	fast := planner.OracleFunc(func(ctx context.Context, req planner.PlanRequest) (planner.RawCandidate, error) {
		return `{"Tuesday": [1]}`, nil
	})

	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	newService := func(oracle planner.Oracle, now time.Time) *planner.Service {
		svc, err := planner.NewService(store, oracle, store, planner.ServiceConfig{
			OracleTimeout: 5 * time.Second,
			Now:           func() time.Time { return now },
		})
		if err != nil {
			t.Fatalf("new service: %v", err)
		}
		return svc
	}
	early := newService(slow, base)
	late := newService(fast, base.Add(time.Second))

	type outcome struct {
		res planner.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := early.GenerateWeeklyPlan(ctx)
		done <- outcome{res, err}
	}()

	<-started
	first, err := late.GenerateWeeklyPlan(ctx)
	if err != nil {
		t.Fatalf("late cycle: %v", err)
	}
	close(release)
	out := <-done
	if out.err != nil {
		t.Fatalf("early cycle: %v", out.err)
	}
	second := out.res

	if second.Plan.CreatedAt.Before(first.Plan.CreatedAt) {
		t.Fatalf("created at %v is before the earlier save %v", second.Plan.CreatedAt, first.Plan.CreatedAt)
	}

	latest, err := store.LatestPlan(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.ID != second.Plan.ID {
		t.Fatalf("latest = %q, want the plan saved last %q", latest.ID, second.Plan.ID)
	}

	plans, err := store.ListPlans(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(plans) != 2 || plans[0].ID != second.Plan.ID || plans[1].ID != first.Plan.ID {
		t.Fatalf("unexpected listing order: %+v", plans)
	}
}
