// Package planner builds plan requests from a ranked backlog, asks an oracle
// for a weekly arrangement and normalizes whatever comes back into a
// WeeklyPlan that is safe to persist.
package planner

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Weekday is a canonical day key of a weekly plan ("Monday" … "Sunday").
type Weekday string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
	Sunday    Weekday = "Sunday"
)

// Weekdays is the plan's day order. Index 0 is "day 1".
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// ParseWeekday maps a day key to its canonical form, ignoring case and
// surrounding whitespace. Three-letter abbreviations are accepted.
func ParseWeekday(s string) (Weekday, bool) {
	key := cases.Title(language.English).String(strings.TrimSpace(s))
	for _, d := range Weekdays {
		if key == string(d) || (len(key) == 3 && strings.HasPrefix(string(d), key)) {
			return d, true
		}
	}
	return "", false
}

// Index returns the zero-based position of d in Weekdays, or -1.
func (d Weekday) Index() int {
	for i, w := range Weekdays {
		if w == d {
			return i
		}
	}
	return -1
}
