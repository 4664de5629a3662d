package planner

import (
	"time"

	"github.com/josephgoksu/weekplan/internal/task"
)

// PlanItem is a task reference inside a weekly plan. Title, priority and
// estimate are copied from the request at validation time.
type PlanItem struct {
	ID               int64         `json:"id" yaml:"id"`
	Title            string        `json:"title" yaml:"title"`
	Priority         task.Priority `json:"priority" yaml:"priority"`
	EstimatedMinutes int           `json:"estimatedMinutes" yaml:"estimatedMinutes"`
}

// WeeklyPlan maps every canonical weekday to an ordered list of items.
// All seven keys are always present.
type WeeklyPlan struct {
	ID        string                 `json:"id" yaml:"id"`
	Days      map[Weekday][]PlanItem `json:"days" yaml:"days"`
	CreatedAt time.Time              `json:"createdAt" yaml:"createdAt"`
}

// NewWeeklyPlan returns a plan with seven empty days.
func NewWeeklyPlan() WeeklyPlan {
	days := make(map[Weekday][]PlanItem, len(Weekdays))
	for _, d := range Weekdays {
		days[d] = []PlanItem{}
	}
	return WeeklyPlan{Days: days}
}

// Fill ensures every weekday key exists. Plans decoded from storage go through it.
func (p *WeeklyPlan) Fill() {
	if p.Days == nil {
		p.Days = make(map[Weekday][]PlanItem, len(Weekdays))
	}
	for _, d := range Weekdays {
		if p.Days[d] == nil {
			p.Days[d] = []PlanItem{}
		}
	}
}

// DayMinutes sums the estimates scheduled on d.
func (p WeeklyPlan) DayMinutes(d Weekday) int {
	total := 0
	for _, it := range p.Days[d] {
		total += it.EstimatedMinutes
	}
	return total
}

// TaskCount returns the number of scheduled items across the week.
func (p WeeklyPlan) TaskCount() int {
	n := 0
	for _, d := range Weekdays {
		n += len(p.Days[d])
	}
	return n
}

// DayOf returns the day a task is scheduled on.
func (p WeeklyPlan) DayOf(id int64) (Weekday, bool) {
	for _, d := range Weekdays {
		for _, it := range p.Days[d] {
			if it.ID == id {
				return d, true
			}
		}
	}
	return "", false
}

// DayTotal is the advisory workload of one day.
type DayTotal struct {
	Day     Weekday `json:"day"`
	Minutes int     `json:"minutes"`
	OverCap bool    `json:"overCap"`
}

// Totals computes per-day workload against capMinutes, in weekday order.
func (p WeeklyPlan) Totals(capMinutes int) []DayTotal {
	out := make([]DayTotal, len(Weekdays))
	for i, d := range Weekdays {
		m := p.DayMinutes(d)
		out[i] = DayTotal{Day: d, Minutes: m, OverCap: capMinutes > 0 && m > capMinutes}
	}
	return out
}

// Report lists the repairs the validator applied. A non-empty report is
// informational and never blocks persistence.
type Report struct {
	UnknownDays    []string `json:"unknownDays,omitempty"`
	InvalidItems   int      `json:"invalidItems,omitempty"`
	UnknownTasks   []int64  `json:"unknownTasks,omitempty"`
	DuplicateTasks []int64  `json:"duplicateTasks,omitempty"`
	MissingTasks   []int64  `json:"missingTasks,omitempty"`
	MovedEarly     []int64  `json:"movedEarly,omitempty"`
}

// Repaired reports whether any repair was applied.
func (r Report) Repaired() bool {
	return len(r.UnknownDays) > 0 || r.InvalidItems > 0 || len(r.UnknownTasks) > 0 ||
		len(r.DuplicateTasks) > 0 || len(r.MissingTasks) > 0 || len(r.MovedEarly) > 0
}

// Result is the validator output: a plan ready to persist plus presentation data.
type Result struct {
	Plan   WeeklyPlan `json:"plan"`
	Report Report     `json:"report"`
	Totals []DayTotal `json:"totals"`
}

// OverCapDays returns the days whose workload exceeds the cap.
func (r Result) OverCapDays() []Weekday {
	var out []Weekday
	for _, t := range r.Totals {
		if t.OverCap {
			out = append(out, t.Day)
		}
	}
	return out
}
