package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/josephgoksu/weekplan/internal/planner"
	"github.com/josephgoksu/weekplan/internal/util"
)

// MemoryPlanStore keeps plans in process memory. Used for dry runs, where a
// generated plan is shown but never written to disk.
type MemoryPlanStore struct {
	mu    sync.RWMutex
	plans []planner.WeeklyPlan
}

var _ planner.PlanStore = (*MemoryPlanStore)(nil)

// NewMemoryPlanStore returns an empty store.
func NewMemoryPlanStore() *MemoryPlanStore {
	return &MemoryPlanStore{}
}

// SavePlan appends a copy of plan stamped with the time of the save.
func (m *MemoryPlanStore) SavePlan(ctx context.Context, plan planner.WeeklyPlan) (planner.WeeklyPlan, error) {
	if err := ctx.Err(); err != nil {
		return planner.WeeklyPlan{}, err
	}
	plan = clonePlan(plan)
	if plan.ID == "" {
		plan.ID = util.NewPlanID()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.plans {
		if p.ID == plan.ID {
			return planner.WeeklyPlan{}, fmt.Errorf("plan %s already exists", plan.ID)
		}
	}
	plan.CreatedAt = time.Now()
	m.plans = append(m.plans, plan)
	return clonePlan(plan), nil
}

// LatestPlan returns the plan saved last.
func (m *MemoryPlanStore) LatestPlan(ctx context.Context) (planner.WeeklyPlan, error) {
	if err := ctx.Err(); err != nil {
		return planner.WeeklyPlan{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.plans) == 0 {
		return planner.WeeklyPlan{}, fmt.Errorf("latest plan: %w", ErrNotFound)
	}
	return clonePlan(m.plans[len(m.plans)-1]), nil
}

// Len returns the number of stored plans.
func (m *MemoryPlanStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.plans)
}

func clonePlan(p planner.WeeklyPlan) planner.WeeklyPlan {
	out := p
	out.Days = make(map[planner.Weekday][]planner.PlanItem, len(planner.Weekdays))
	for d, items := range p.Days {
		out.Days[d] = append([]planner.PlanItem{}, items...)
	}
	out.Fill()
	return out
}
