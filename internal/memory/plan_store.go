package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/josephgoksu/weekplan/internal/planner"
	"github.com/josephgoksu/weekplan/internal/util"
)

// DefaultPlanListLimit bounds ListPlans when no limit is given.
const DefaultPlanListLimit = 20

// PlanSummary is a lightweight row for plan listings.
type PlanSummary struct {
	ID           string    `json:"id"`
	TaskCount    int       `json:"taskCount"`
	TotalMinutes int       `json:"totalMinutes"`
	CreatedAt    time.Time `json:"createdAt"`
}

var (
	_ planner.PlanStore   = (*SQLiteStore)(nil)
	_ util.PlanIDResolver = (*SQLiteStore)(nil)
)

// SavePlan appends a plan and returns it as stored. CreatedAt is always the
// time of the write. Earlier plans are never modified; the write either lands
// fully or not at all.
func (s *SQLiteStore) SavePlan(ctx context.Context, plan planner.WeeklyPlan) (planner.WeeklyPlan, error) {
	plan.Fill()
	if plan.ID == "" {
		plan.ID = util.NewPlanID()
	}
	plan.CreatedAt = time.Now()

	days, err := json.Marshal(plan.Days)
	if err != nil {
		return planner.WeeklyPlan{}, fmt.Errorf("encode plan days: %w", err)
	}
	total := 0
	for _, d := range planner.Weekdays {
		total += plan.DayMinutes(d)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return planner.WeeklyPlan{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO plans (id, days, task_count, total_minutes, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, plan.ID, string(days), plan.TaskCount(), total, formatTime(plan.CreatedAt))
	if err != nil {
		return planner.WeeklyPlan{}, fmt.Errorf("insert plan %s: %w", plan.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return planner.WeeklyPlan{}, fmt.Errorf("commit plan %s: %w", plan.ID, err)
	}
	return plan, nil
}

// LatestPlan returns the plan saved last or ErrNotFound.
func (s *SQLiteStore) LatestPlan(ctx context.Context) (planner.WeeklyPlan, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, days, created_at FROM plans
		ORDER BY seq DESC
		LIMIT 1
	`)
	p, err := scanPlan(row)
	if err != nil {
		return planner.WeeklyPlan{}, notFound(err, "latest plan")
	}
	return p, nil
}

// GetPlan returns a plan by its full ID.
func (s *SQLiteStore) GetPlan(ctx context.Context, id string) (planner.WeeklyPlan, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, days, created_at FROM plans WHERE id = ?`, id)
	p, err := scanPlan(row)
	if err != nil {
		return planner.WeeklyPlan{}, notFound(err, "plan "+id)
	}
	return p, nil
}

// ListPlans returns plan summaries, most recently saved first.
func (s *SQLiteStore) ListPlans(ctx context.Context, limit int) ([]PlanSummary, error) {
	if limit <= 0 {
		limit = DefaultPlanListLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task_count, total_minutes, created_at FROM plans
		ORDER BY seq DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []PlanSummary
	for rows.Next() {
		var (
			ps        PlanSummary
			createdAt string
		)
		if err := rows.Scan(&ps.ID, &ps.TaskCount, &ps.TotalMinutes, &createdAt); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		if ps.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, ps)
	}
	if err := checkRowsErr(rows); err != nil {
		return nil, err
	}
	return out, nil
}

// FindPlanIDsByPrefix implements util.PlanIDResolver.
func (s *SQLiteStore) FindPlanIDsByPrefix(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM plans WHERE substr(id, 1, ?) = ? ORDER BY id LIMIT 10
	`, len(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("query plan ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan plan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := checkRowsErr(rows); err != nil {
		return nil, err
	}
	return ids, nil
}

func scanPlan(sc rowScanner) (planner.WeeklyPlan, error) {
	var (
		p         planner.WeeklyPlan
		days      string
		createdAt string
	)
	if err := sc.Scan(&p.ID, &days, &createdAt); err != nil {
		return planner.WeeklyPlan{}, err
	}
	if err := json.Unmarshal([]byte(days), &p.Days); err != nil {
		return planner.WeeklyPlan{}, fmt.Errorf("decode plan %s: %w", p.ID, err)
	}
	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return planner.WeeklyPlan{}, err
	}
	p.Fill()
	return p, nil
}
