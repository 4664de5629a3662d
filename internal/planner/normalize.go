package planner

import (
	"slices"
)

// Validate parses a raw oracle answer and normalizes it against req. It
// fails only when the candidate is unusable; every other problem is repaired
// and listed in the returned Report.
func Validate(candidate RawCandidate, req PlanRequest) (Result, error) {
	if len(req.Tasks) == 0 {
		return Result{}, ErrEmptyBacklog
	}
	cand, err := ParseCandidate(candidate)
	if err != nil {
		return Result{}, err
	}
	return Normalize(cand, req), nil
}

// Normalize applies the repair steps in order:
//
//  1. structural: the seven weekday keys, unknown keys dropped
//  2. referential: ids outside the request and repeated ids dropped, request
//     ids the candidate omitted appended to the lightest day
//  3. placement: tasks that must be scheduled early but sit after the early
//     window move to the end of the first day
//  4. balance: per-day totals against the cap, reported only
//
// Item details are always taken from the request.
func Normalize(cand Candidate, req PlanRequest) Result {
	report := Report{
		UnknownDays:  slices.Clone(cand.UnknownDays),
		InvalidItems: cand.InvalidItems,
	}
	plan := NewWeeklyPlan()

	byID := make(map[int64]RequestTask, len(req.Tasks))
	for _, t := range req.Tasks {
		byID[t.ID] = t
	}

	placed := make(map[int64]struct{}, len(req.Tasks))
	for _, day := range Weekdays {
		for _, id := range cand.Days[day] {
			rt, ok := byID[id]
			if !ok {
				report.UnknownTasks = append(report.UnknownTasks, id)
				continue
			}
			if _, dup := placed[id]; dup {
				report.DuplicateTasks = append(report.DuplicateTasks, id)
				continue
			}
			placed[id] = struct{}{}
			plan.Days[day] = append(plan.Days[day], itemFor(rt))
		}
	}

	for _, rt := range req.Tasks {
		if _, ok := placed[rt.ID]; ok {
			continue
		}
		day := lightestDay(plan)
		plan.Days[day] = append(plan.Days[day], itemFor(rt))
		placed[rt.ID] = struct{}{}
		report.MissingTasks = append(report.MissingTasks, rt.ID)
	}

	earlyDays := req.EarlyDays
	if earlyDays <= 0 {
		earlyDays = DefaultEarlyDays
	}
	earlyDays = min(earlyDays, MaxEarlyDays)
	first := Weekdays[0]
	for _, day := range Weekdays[min(earlyDays, len(Weekdays)):] {
		kept := plan.Days[day][:0]
		for _, it := range plan.Days[day] {
			if byID[it.ID].MustScheduleEarly {
				plan.Days[first] = append(plan.Days[first], it)
				report.MovedEarly = append(report.MovedEarly, it.ID)
				continue
			}
			kept = append(kept, it)
		}
		plan.Days[day] = kept
	}

	capMinutes := req.DailyCapMinutes
	if capMinutes <= 0 {
		capMinutes = DefaultDailyCapMinutes
	}
	return Result{
		Plan:   plan,
		Report: report,
		Totals: plan.Totals(capMinutes),
	}
}

// lightestDay returns the day with the smallest total, the earliest on ties.
func lightestDay(p WeeklyPlan) Weekday {
	best := Weekdays[0]
	bestMinutes := p.DayMinutes(best)
	for _, d := range Weekdays[1:] {
		if m := p.DayMinutes(d); m < bestMinutes {
			best, bestMinutes = d, m
		}
	}
	return best
}

func itemFor(rt RequestTask) PlanItem {
	return PlanItem{
		ID:               rt.ID,
		Title:            rt.Title,
		Priority:         rt.Priority,
		EstimatedMinutes: rt.EstimatedMinutes,
	}
}
