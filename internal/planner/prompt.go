package planner

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"text/template"
	"time"

	"github.com/josephgoksu/weekplan/internal/task"
)

// DeadlineLayout is how deadlines are written into prompts.
const DeadlineLayout = "2006-01-02 15:04"

var promptTmpl = template.Must(template.New("plan").Parse(planPromptTemplate))

// Prompt renders the request as the textual prompt sent to a chat model.
func (r PlanRequest) Prompt() (string, error) {
	return r.render("")
}

// render executes the prompt template, optionally with feedback from a
// previous failed attempt.
func (r PlanRequest) render(feedback string) (string, error) {
	lines := make([]string, len(r.Tasks))
	for i, t := range r.Tasks {
		lines[i] = t.PromptLine(r.GeneratedAt)
	}
	early := make([]string, 0, r.EarlyDays)
	for _, d := range r.Days[:min(r.EarlyDays, len(r.Days))] {
		early = append(early, string(d))
	}

	var buf bytes.Buffer
	err := promptTmpl.Execute(&buf, map[string]any{
		"Days":             r.Days,
		"EarlyDays":        strings.Join(early, " or "),
		"DailyCapMinutes":  r.DailyCapMinutes,
		"DailyCapHours":    task.FormatDuration(r.DailyCapMinutes),
		"Tasks":            lines,
		"Today":            r.GeneratedAt.Format("Monday, 2006-01-02"),
		"ValidationErrors": feedback,
	})
	if err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}

// PromptLine describes one task for the oracle, e.g.
//
//	- [id 3] Ship release (high priority, 120 minutes) - DEADLINE: 2025-01-07 17:00 (URGENT - due in 8 hours): final checks
func (t RequestTask) PromptLine(now time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "- [id %d] %s (%s priority, %d minutes)", t.ID, t.Title, t.Priority, t.EstimatedMinutes)

	if t.Deadline != nil {
		fmt.Fprintf(&sb, " - DEADLINE: %s", t.Deadline.In(now.Location()).Format(DeadlineLayout))
		hours := task.HoursRemaining(*t.Deadline, now)
		switch t.Urgency {
		case task.UrgencyOverdue:
			fmt.Fprintf(&sb, " (OVERDUE by %d hours)", int(math.Abs(math.Round(hours))))
		case task.UrgencyUrgent:
			fmt.Fprintf(&sb, " (URGENT - due in %d hours)", int(math.Round(hours)))
		case task.UrgencySoon:
			fmt.Fprintf(&sb, " (due in %d days)", int(math.Round(hours/24)))
		}
	}
	if t.Description != "" {
		sb.WriteString(": ")
		sb.WriteString(t.Description)
	}
	return sb.String()
}

const planPromptTemplate = `You are a weekly planning assistant. Today is {{.Today}}.

TASK: Distribute the following tasks into a 7-day weekly plan ({{range $i, $d := .Days}}{{if $i}}, {{end}}{{$d}}{{end}}).

HARD CONSTRAINTS:
- Every task listed below must appear exactly once. Do not invent tasks.
- Tasks marked OVERDUE or URGENT must be scheduled on {{.EarlyDays}}.
- Tasks with a deadline must be scheduled before their deadline.

SOFT CONSTRAINTS:
- Try not to exceed {{.DailyCapMinutes}} minutes ({{.DailyCapHours}}) of work per day.
- Prefer higher priority tasks earlier in the week.
- Spread similar tasks across different days and leave buffer time.
{{if .ValidationErrors}}
{{.ValidationErrors}}
{{end}}
REQUIRED OUTPUT FORMAT:
Return only a JSON object with exactly these keys, each mapping to a list of tasks:

{
{{- range $i, $d := .Days}}
  "{{$d}}": [ { "id": number, "title": string, "priority": string, "estimatedMinutes": number } ]{{if lt $i 6}},{{end}}
{{- end}}
}

TASKS TO SCHEDULE:
{{range .Tasks}}{{.}}
{{end}}`
