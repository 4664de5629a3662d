package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/josephgoksu/weekplan/internal/memory"
	"github.com/josephgoksu/weekplan/internal/planner"
	"github.com/josephgoksu/weekplan/internal/task"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plainColors(t *testing.T) {
	t.Helper()
	lipgloss.SetColorProfile(termenv.Ascii)
}

func renderedPlan() planner.WeeklyPlan {
	p := planner.NewWeeklyPlan()
	p.ID = "plan-1a2b3c4d"
	p.Days[planner.Monday] = []planner.PlanItem{
		{ID: 1, Title: "Fix outage", Priority: task.PriorityHigh, EstimatedMinutes: 300},
		{ID: 2, Title: "Write report", Priority: task.PriorityLow, EstimatedMinutes: 90},
	}
	p.Days[planner.Wednesday] = []planner.PlanItem{
		{ID: 3, Title: "Team sync", Priority: task.PriorityMedium, EstimatedMinutes: 30},
	}
	return p
}

func TestRenderPlan(t *testing.T) {
	plainColors(t)

	out := RenderPlan(renderedPlan(), 360, map[int64]task.Urgency{1: task.UrgencyOverdue, 3: task.UrgencyNormal})

	assert.Contains(t, out, "plan-1a2b3c4d")
	assert.Contains(t, out, "Monday  6.5h / 6.0h over cap")
	assert.Contains(t, out, "#1 Fix outage  high  5h  OVERDUE")
	assert.Contains(t, out, "#3 Team sync  medium  30m\n")
	assert.Contains(t, out, "Tuesday  0.0h / 6.0h")
	assert.Contains(t, out, "No tasks scheduled")
	assert.Contains(t, out, "Total: 3 tasks, 7h")

	assert.Less(t, strings.Index(out, "Monday"), strings.Index(out, "Sunday"))
}

func TestRenderPlan_NoCap(t *testing.T) {
	plainColors(t)

	out := RenderPlan(renderedPlan(), 0, nil)
	assert.Contains(t, out, "Monday  6.5h\n")
	assert.NotContains(t, out, "over cap")
}

func TestRenderReport(t *testing.T) {
	plainColors(t)

	assert.Empty(t, RenderReport(planner.Result{}))

	plan := planner.NewWeeklyPlan()
	plan.Days[planner.Monday] = []planner.PlanItem{{ID: 2}}
	plan.Days[planner.Thursday] = []planner.PlanItem{{ID: 4}}
	out := RenderReport(planner.Result{
		Plan: plan,
		Report: planner.Report{
			UnknownTasks: []int64{99},
			MissingTasks: []int64{4, 5},
			MovedEarly:   []int64{2},
			InvalidItems: 1,
		},
	})
	assert.Contains(t, out, "Plan adjusted")
	assert.Contains(t, out, "dropped unknown tasks: #99")
	// #5 is not in the plan, so no day is shown for it
	assert.Contains(t, out, "added omitted tasks: #4 (Thursday), #5")
	assert.Contains(t, out, "moved to the first days: #2")
	assert.Contains(t, out, "dropped 1 unreadable entries")
}

func TestRenderOverCap(t *testing.T) {
	plainColors(t)

	assert.Empty(t, RenderOverCap(nil, 360))
	assert.Equal(t, "Over the 6.0h daily cap: Monday, Friday",
		RenderOverCap([]planner.Weekday{planner.Monday, planner.Friday}, 360))
}

func TestRenderTasks(t *testing.T) {
	plainColors(t)

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)
	soon := now.Add(2 * time.Hour)
	tasks := []task.Task{
		{ID: 7, Title: "Renew passport", Priority: task.PriorityHigh, EstimatedMinutes: 45, Deadline: &soon},
		{ID: 8, Title: "Tidy desk", Priority: task.PriorityLow, EstimatedMinutes: 15},
	}

	out := RenderTasks(tasks, now, 100)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Deadline")
	assert.Contains(t, lines[2], "Renew passport")
	assert.Contains(t, lines[2], "2025-03-10 11:00")
	assert.Contains(t, lines[2], "URGENT")
	assert.Contains(t, lines[3], "Tidy desk")
	assert.Contains(t, lines[3], "-")
}

func TestRenderTasks_Empty(t *testing.T) {
	plainColors(t)
	assert.Contains(t, RenderTasks(nil, time.Now(), 80), "No tasks")
}

func TestRenderTask(t *testing.T) {
	plainColors(t)

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)
	past := now.Add(-time.Hour)
	out := RenderTask(task.Task{
		ID: 3, Title: "File taxes", Priority: task.PriorityMedium,
		EstimatedMinutes: 120, Deadline: &past, Description: "Bring receipts",
	}, now)

	assert.Contains(t, out, "#3 File taxes")
	assert.Contains(t, out, "Estimate: 2h")
	assert.Contains(t, out, "OVERDUE")
	assert.Contains(t, out, "Bring receipts")
}

func TestRenderPlanList(t *testing.T) {
	plainColors(t)

	assert.Contains(t, RenderPlanList(nil), "No plans yet")

	out := RenderPlanList([]memory.PlanSummary{
		{ID: "plan-b", TaskCount: 4, TotalMinutes: 150, CreatedAt: time.Date(2025, 3, 11, 8, 0, 0, 0, time.Local)},
		{ID: "plan-a", TaskCount: 1, TotalMinutes: 30, CreatedAt: time.Date(2025, 3, 4, 8, 0, 0, 0, time.Local)},
	})
	assert.Contains(t, out, "plan-b")
	assert.Contains(t, out, "2h 30m")
	assert.Less(t, strings.Index(out, "plan-b"), strings.Index(out, "plan-a"))
}

func TestRenderPlan_TruncatesLongTitles(t *testing.T) {
	plainColors(t)

	p := planner.NewWeeklyPlan()
	long := strings.Repeat("x", maxPlanTitleWidth+20)
	p.Days[planner.Tuesday] = []planner.PlanItem{{ID: 9, Title: long, Priority: task.PriorityLow, EstimatedMinutes: 30}}

	out := RenderPlan(p, 0, nil)
	assert.NotContains(t, out, long)
	assert.Contains(t, out, strings.Repeat("x", maxPlanTitleWidth-3)+"...")
}
