// Package task defines backlog tasks, their urgency relative to a deadline and
// the ranking used before planning.
package task

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Priority is the user-assigned importance of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// DefaultEstimatedMinutes is used when a task is created without a usable estimate.
const DefaultEstimatedMinutes = 30

// MaxTitleLength bounds titles so a single task cannot dominate a plan prompt.
const MaxTitleLength = 200

var (
	ErrInvalidPriority = errors.New("task: invalid priority")
	ErrTitleRequired   = errors.New("task: title is required")
	ErrInvalidMinutes  = errors.New("task: estimated minutes must be positive")
	ErrInvalidDeadline = errors.New("task: invalid deadline")
)

// IsValid reports whether p is one of the known priorities.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// Rank returns a sortable weight, higher is more important.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// ParsePriority normalizes user input. Empty input yields the default priority.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return PriorityMedium, nil
	}
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
	return p, nil
}

// Task is a unit of backlog work.
type Task struct {
	ID               int64      `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Priority         Priority   `json:"priority"`
	EstimatedMinutes int        `json:"estimatedMinutes"`
	Deadline         *time.Time `json:"deadline,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// HasDeadline reports whether the task carries a deadline.
func (t Task) HasDeadline() bool {
	return t.Deadline != nil
}

// Validate checks the invariants a stored task must satisfy.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrTitleRequired
	}
	if len(t.Title) > MaxTitleLength {
		return fmt.Errorf("task: title too long (max %d chars)", MaxTitleLength)
	}
	if !t.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority)
	}
	if t.EstimatedMinutes <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMinutes, t.EstimatedMinutes)
	}
	if t.Deadline != nil && t.Deadline.IsZero() {
		return ErrInvalidDeadline
	}
	return nil
}

// NewTaskInput carries the caller-supplied fields for task creation.
type NewTaskInput struct {
	Title            string
	Description      string
	Priority         string
	EstimatedMinutes int
	Deadline         string
}

// Normalize applies defaults and boundary validation, returning a task ready to be stored.
// ID and CreatedAt are left for the store to assign.
func (in NewTaskInput) Normalize() (Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Task{}, ErrTitleRequired
	}
	priority, err := ParsePriority(in.Priority)
	if err != nil {
		return Task{}, err
	}
	minutes := in.EstimatedMinutes
	if minutes <= 0 {
		minutes = DefaultEstimatedMinutes
	}
	deadline, err := ParseDeadline(in.Deadline)
	if err != nil {
		return Task{}, err
	}
	t := Task{
		Title:            title,
		Description:      strings.TrimSpace(in.Description),
		Priority:         priority,
		EstimatedMinutes: minutes,
		Deadline:         deadline,
	}
	return t, t.Validate()
}

// Patch describes a partial update. Nil fields are left unchanged.
type Patch struct {
	Title            *string
	Description      *string
	Priority         *string
	EstimatedMinutes *int
	// Deadline set to an empty string clears the deadline.
	Deadline *string
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.EstimatedMinutes == nil && p.Deadline == nil
}

// Apply returns a copy of t with the patch applied. Blank titles and
// non-positive estimates are ignored rather than rejected.
func (p Patch) Apply(t Task) (Task, error) {
	out := t
	if p.Title != nil {
		if title := strings.TrimSpace(*p.Title); title != "" {
			out.Title = title
		}
	}
	if p.Description != nil {
		out.Description = strings.TrimSpace(*p.Description)
	}
	if p.Priority != nil && strings.TrimSpace(*p.Priority) != "" {
		priority, err := ParsePriority(*p.Priority)
		if err != nil {
			return Task{}, err
		}
		out.Priority = priority
	}
	if p.EstimatedMinutes != nil && *p.EstimatedMinutes > 0 {
		out.EstimatedMinutes = *p.EstimatedMinutes
	}
	if p.Deadline != nil {
		deadline, err := ParseDeadline(*p.Deadline)
		if err != nil {
			return Task{}, err
		}
		out.Deadline = deadline
	}
	return out, out.Validate()
}

// deadlineLayouts are tried in order when parsing user-supplied deadlines.
var deadlineLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDeadline parses a deadline. Empty input means "no deadline".
// Layouts without a zone are interpreted in the local time zone.
func ParseDeadline(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range deadlineLayouts {
		var (
			tm  time.Time
			err error
		)
		if layout == time.RFC3339 {
			tm, err = time.Parse(layout, s)
		} else {
			tm, err = time.ParseInLocation(layout, s, time.Local)
		}
		if err == nil {
			return &tm, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidDeadline, s)
}
