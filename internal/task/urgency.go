package task

import "time"

// Urgency is a time-relative view of how close a deadline is. It is derived
// on every read and never stored.
type Urgency string

const (
	UrgencyOverdue Urgency = "overdue"
	UrgencyUrgent  Urgency = "urgent"
	UrgencySoon    Urgency = "soon"
	UrgencyNormal  Urgency = "normal"
	UrgencyNone    Urgency = "none"
)

// Thresholds shared by list display and plan requests.
const (
	UrgentWindow = 24 * time.Hour
	SoonWindow   = 72 * time.Hour
)

// ClassifyUrgency buckets a deadline relative to now. A deadline at or before
// now is overdue; the 24h and 72h bounds are exclusive on the upper side.
func ClassifyUrgency(deadline *time.Time, now time.Time) Urgency {
	if deadline == nil {
		return UrgencyNone
	}
	remaining := deadline.Sub(now)
	switch {
	case remaining <= 0:
		return UrgencyOverdue
	case remaining < UrgentWindow:
		return UrgencyUrgent
	case remaining < SoonWindow:
		return UrgencySoon
	default:
		return UrgencyNormal
	}
}

// RequiresEarlyPlacement reports whether the tier must land in the first days of a plan.
func (u Urgency) RequiresEarlyPlacement() bool {
	return u == UrgencyOverdue || u == UrgencyUrgent
}

// Label is the short marker used next to deadlines in listings and prompts.
func (u Urgency) Label() string {
	switch u {
	case UrgencyOverdue:
		return "OVERDUE"
	case UrgencyUrgent:
		return "URGENT"
	case UrgencySoon:
		return "soon"
	default:
		return ""
	}
}

// HoursRemaining returns the signed number of hours until the deadline.
func HoursRemaining(deadline time.Time, now time.Time) float64 {
	return deadline.Sub(now).Hours()
}

// Urgency classifies the task's own deadline.
func (t Task) Urgency(now time.Time) Urgency {
	return ClassifyUrgency(t.Deadline, now)
}
