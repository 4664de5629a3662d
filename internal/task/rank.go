package task

import (
	"cmp"
	"slices"
)

// Rank returns the canonical backlog order used for both display and plan
// requests:
//
//  1. tasks with a deadline before tasks without one
//  2. earlier deadlines first
//  3. higher priority first
//  4. newer tasks first
//
// IDs break any remaining tie so the order is total. The input is not modified.
func Rank(tasks []Task) []Task {
	out := slices.Clone(tasks)
	slices.SortStableFunc(out, compareTasks)
	return out
}

func compareTasks(a, b Task) int {
	if a.HasDeadline() != b.HasDeadline() {
		if a.HasDeadline() {
			return -1
		}
		return 1
	}
	if a.HasDeadline() {
		if c := a.Deadline.Compare(*b.Deadline); c != 0 {
			return c
		}
	}
	if c := cmp.Compare(b.Priority.Rank(), a.Priority.Rank()); c != 0 {
		return c
	}
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
