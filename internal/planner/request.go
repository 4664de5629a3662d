package planner

import (
	"fmt"
	"time"

	"github.com/josephgoksu/weekplan/internal/task"
)

const (
	// DefaultDailyCapMinutes is the advisory per-day workload (6 hours).
	DefaultDailyCapMinutes = 360

	// DefaultEarlyDays is how many leading days overdue and urgent tasks must land in.
	DefaultEarlyDays = 2

	// MaxEarlyDays bounds EarlyDays: overdue and urgent work never drifts
	// past the second day. A smaller window is allowed.
	MaxEarlyDays = 2

	// DefaultMaxTasks bounds how many tasks one request may carry.
	DefaultMaxTasks = 100
)

// RequestOptions tunes BuildRequest. Zero values select the defaults.
type RequestOptions struct {
	DailyCapMinutes int
	EarlyDays       int
	MaxTasks        int
}

func (o RequestOptions) withDefaults() RequestOptions {
	if o.DailyCapMinutes <= 0 {
		o.DailyCapMinutes = DefaultDailyCapMinutes
	}
	if o.EarlyDays <= 0 {
		o.EarlyDays = DefaultEarlyDays
	}
	if o.EarlyDays > MaxEarlyDays {
		o.EarlyDays = MaxEarlyDays
	}
	if o.MaxTasks <= 0 {
		o.MaxTasks = DefaultMaxTasks
	}
	return o
}

// RequestTask is a task as the oracle sees it. Urgency is stated explicitly
// so the oracle never has to infer it from the deadline.
type RequestTask struct {
	ID                int64         `json:"id"`
	Title             string        `json:"title"`
	Description       string        `json:"description,omitempty"`
	Priority          task.Priority `json:"priority"`
	EstimatedMinutes  int           `json:"estimatedMinutes"`
	Deadline          *time.Time    `json:"deadline,omitempty"`
	Urgency           task.Urgency  `json:"urgency"`
	MustScheduleEarly bool          `json:"mustScheduleEarly"`
}

// PlanRequest is the bounded, deterministic input handed to an Oracle.
type PlanRequest struct {
	Tasks           []RequestTask `json:"tasks"`
	Days            []Weekday     `json:"days"`
	DailyCapMinutes int           `json:"dailyCapMinutes"`
	EarlyDays       int           `json:"earlyDays"`
	GeneratedAt     time.Time     `json:"generatedAt"`
	// Omitted counts ranked tasks left out because of MaxTasks.
	Omitted int `json:"omitted,omitempty"`
}

// BuildRequest turns an already ranked backlog into a PlanRequest. The input
// order is kept as is; callers obtain it from task.Rank so the planner sees
// tasks in the same order the user does.
func BuildRequest(ranked []task.Task, now time.Time, opts RequestOptions) (PlanRequest, error) {
	if len(ranked) == 0 {
		return PlanRequest{}, ErrEmptyBacklog
	}
	opts = opts.withDefaults()

	limit := min(len(ranked), opts.MaxTasks)
	tasks := make([]RequestTask, 0, limit)
	seen := make(map[int64]struct{}, limit)
	for _, t := range ranked[:limit] {
		if _, dup := seen[t.ID]; dup {
			return PlanRequest{}, fmt.Errorf("build plan request: duplicate task id %d", t.ID)
		}
		seen[t.ID] = struct{}{}

		urgency := task.ClassifyUrgency(t.Deadline, now)
		minutes := t.EstimatedMinutes
		if minutes <= 0 {
			minutes = task.DefaultEstimatedMinutes
		}
		tasks = append(tasks, RequestTask{
			ID:                t.ID,
			Title:             t.Title,
			Description:       t.Description,
			Priority:          t.Priority,
			EstimatedMinutes:  minutes,
			Deadline:          t.Deadline,
			Urgency:           urgency,
			MustScheduleEarly: urgency.RequiresEarlyPlacement(),
		})
	}

	return PlanRequest{
		Tasks:           tasks,
		Days:            append([]Weekday(nil), Weekdays...),
		DailyCapMinutes: opts.DailyCapMinutes,
		EarlyDays:       opts.EarlyDays,
		GeneratedAt:     now,
		Omitted:         len(ranked) - limit,
	}, nil
}

// Lookup returns the request task with the given id.
func (r PlanRequest) Lookup(id int64) (RequestTask, bool) {
	for _, t := range r.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return RequestTask{}, false
}

// EarlyTaskIDs returns the ids that must be placed within the first EarlyDays.
func (r PlanRequest) EarlyTaskIDs() []int64 {
	var out []int64
	for _, t := range r.Tasks {
		if t.MustScheduleEarly {
			out = append(out, t.ID)
		}
	}
	return out
}

// TotalMinutes sums the estimates of every requested task.
func (r PlanRequest) TotalMinutes() int {
	total := 0
	for _, t := range r.Tasks {
		total += t.EstimatedMinutes
	}
	return total
}
