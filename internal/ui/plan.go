package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/josephgoksu/weekplan/internal/memory"
	"github.com/josephgoksu/weekplan/internal/planner"
	"github.com/josephgoksu/weekplan/internal/task"
)

// maxPlanTitleWidth bounds item titles in the day view.
const maxPlanTitleWidth = 60

// RenderPlan formats a weekly plan day by day with per-day load against the
// advisory cap. urgency marks tasks by id and may be nil.
func RenderPlan(plan planner.WeeklyPlan, capMinutes int, urgency map[int64]task.Urgency) string {
	var sb strings.Builder

	header := "Weekly Plan"
	if plan.ID != "" {
		header += " " + StyleSubtle.Render(plan.ID)
	}
	sb.WriteString(StyleHeader.Render(header) + "\n")
	if !plan.CreatedAt.IsZero() {
		sb.WriteString(" " + StyleSubtle.Render("created "+plan.CreatedAt.Local().Format("Mon Jan 2 15:04")) + "\n")
	}

	for _, total := range plan.Totals(capMinutes) {
		sb.WriteString("\n")
		load := task.FormatHours(total.Minutes)
		if capMinutes > 0 {
			load += " / " + task.FormatHours(capMinutes)
		}
		loadStyle := StyleSubtle
		if total.OverCap {
			loadStyle = StyleWarning
			load += " over cap"
		}
		sb.WriteString(" " + StyleDayTitle.Render(string(total.Day)) + "  " + loadStyle.Render(load) + "\n")

		items := plan.Days[total.Day]
		if len(items) == 0 {
			sb.WriteString("   " + StyleSubtle.Render("No tasks scheduled") + "\n")
			continue
		}
		for _, it := range items {
			line := fmt.Sprintf("   %s %s  %s  %s",
				StyleSubtle.Render("#"+strconv.FormatInt(it.ID, 10)),
				StyleText.Render(Truncate(it.Title, maxPlanTitleWidth)),
				PriorityStyle(it.Priority).Render(string(it.Priority)),
				StyleSubtle.Render(task.FormatDuration(it.EstimatedMinutes)),
			)
			if u, ok := urgency[it.ID]; ok && u.Label() != "" {
				line += "  " + UrgencyStyle(u).Render(u.Label())
			}
			sb.WriteString(line + "\n")
		}
	}

	minutes := 0
	for _, d := range planner.Weekdays {
		minutes += plan.DayMinutes(d)
	}
	sb.WriteString(fmt.Sprintf("\n %s %d tasks, %s\n", StyleTitle.Render("Total:"), plan.TaskCount(), task.FormatDuration(minutes)))
	return sb.String()
}

// RenderReport lists the repairs applied to an oracle answer, naming the day
// each added task landed on. It returns an empty string when nothing was
// repaired.
func RenderReport(res planner.Result) string {
	report := res.Report
	if !report.Repaired() {
		return ""
	}
	var lines []string
	if len(report.UnknownDays) > 0 {
		lines = append(lines, "ignored days: "+strings.Join(report.UnknownDays, ", "))
	}
	if report.InvalidItems > 0 {
		lines = append(lines, fmt.Sprintf("dropped %d unreadable entries", report.InvalidItems))
	}
	if len(report.UnknownTasks) > 0 {
		lines = append(lines, "dropped unknown tasks: "+joinIDs(report.UnknownTasks))
	}
	if len(report.DuplicateTasks) > 0 {
		lines = append(lines, "dropped duplicates of: "+joinIDs(report.DuplicateTasks))
	}
	if len(report.MissingTasks) > 0 {
		lines = append(lines, "added omitted tasks: "+joinPlacedIDs(report.MissingTasks, res.Plan))
	}
	if len(report.MovedEarly) > 0 {
		lines = append(lines, "moved to the first days: "+joinIDs(report.MovedEarly))
	}
	return RenderWarningPanel("Plan adjusted", strings.Join(lines, "\n"))
}

// RenderOverCap warns about days whose load exceeds the cap.
func RenderOverCap(days []planner.Weekday, capMinutes int) string {
	if len(days) == 0 {
		return ""
	}
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = string(d)
	}
	return StyleWarning.Render(fmt.Sprintf("Over the %s daily cap: %s", task.FormatHours(capMinutes), strings.Join(names, ", ")))
}

// RenderTasks renders the ranked backlog as a table sized to width.
func RenderTasks(tasks []task.Task, now time.Time, width int) string {
	if len(tasks) == 0 {
		return StyleSubtle.Render("No tasks. Add one with `weekplan task add`.") + "\n"
	}

	titleWidth := max(width-60, 20)
	table := &Table{
		Headers: []string{"ID", "Title", "Priority", "Estimate", "Deadline", "Urgency"},
	}
	urgencies := make([]task.Urgency, len(tasks))
	for i, t := range tasks {
		u := t.Urgency(now)
		urgencies[i] = u
		deadline := "-"
		if t.Deadline != nil {
			deadline = t.Deadline.Local().Format(planner.DeadlineLayout)
		}
		table.Rows = append(table.Rows, []string{
			strconv.FormatInt(t.ID, 10),
			fitWidth(t.Title, titleWidth),
			string(t.Priority),
			task.FormatDuration(t.EstimatedMinutes),
			deadline,
			u.Label(),
		})
	}
	table.CellStyle = func(row, col int) (lipgloss.Style, bool) {
		switch col {
		case 2:
			return PriorityStyle(tasks[row].Priority), true
		case 5:
			return UrgencyStyle(urgencies[row]), true
		}
		return lipgloss.Style{}, false
	}
	return table.Render()
}

// maxPanelWidth keeps task panels readable on wide terminals.
const maxPanelWidth = 80

// RenderTask shows one task in a panel.
func RenderTask(t task.Task, now time.Time) string {
	var lines []string
	lines = append(lines, "Priority: "+PriorityStyle(t.Priority).Render(string(t.Priority)))
	lines = append(lines, "Estimate: "+task.FormatDuration(t.EstimatedMinutes))
	if t.Deadline != nil {
		u := t.Urgency(now)
		deadline := t.Deadline.Local().Format(planner.DeadlineLayout)
		if label := u.Label(); label != "" {
			deadline += "  " + UrgencyStyle(u).Render(label)
		}
		lines = append(lines, "Deadline: "+deadline)
	}
	if !t.CreatedAt.IsZero() {
		lines = append(lines, "Created:  "+t.CreatedAt.Local().Format(planner.DeadlineLayout))
	}
	if t.Description != "" {
		lines = append(lines, "", WrapText(t.Description, 70))
	}
	return NewPanel(fmt.Sprintf("#%d %s", t.ID, t.Title), strings.Join(lines, "\n")).
		WithWidth(min(TerminalWidth()-2, maxPanelWidth)).
		Render()
}

// RenderPlanList renders stored plan summaries, newest first.
func RenderPlanList(plans []memory.PlanSummary) string {
	if len(plans) == 0 {
		return StyleSubtle.Render("No plans yet. Run `weekplan plan generate`.") + "\n"
	}
	table := &Table{Headers: []string{"ID", "Created", "Tasks", "Load"}}
	for _, p := range plans {
		table.Rows = append(table.Rows, []string{
			p.ID,
			p.CreatedAt.Local().Format(planner.DeadlineLayout),
			strconv.Itoa(p.TaskCount),
			task.FormatDuration(p.TotalMinutes),
		})
	}
	return table.Render()
}

// joinPlacedIDs is joinIDs with the scheduled day after each id.
func joinPlacedIDs(ids []int64, plan planner.WeeklyPlan) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = "#" + strconv.FormatInt(id, 10)
		if day, ok := plan.DayOf(id); ok {
			parts[i] += " (" + string(day) + ")"
		}
	}
	return strings.Join(parts, ", ")
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = "#" + strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}
