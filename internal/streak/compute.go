package streak

import (
	"sort"

	"cloud.google.com/go/civil"
)

// Result streak lengths in days
type Result struct {
	Current int
	Longest int
}

// Compute derive streaks from the days a user was active.
//
// The current streak counts back from today, or from yesterday while today has no activity
// yet. The longest streak is the longest run of consecutive days anywhere in the history.
// Duplicated days are ignored.
func Compute(days []civil.Date, today civil.Date) Result {
	active := make(map[civil.Date]bool, len(days))
	for _, d := range days {
		active[d] = true
	}
	if len(active) == 0 {
		return Result{}
	}

	var current int
	start := today
	if !active[start] {
		start = today.AddDays(-1)
	}
	for d := start; active[d]; d = d.AddDays(-1) {
		current++
	}

	return Result{Current: current, Longest: longestRun(SortedDays(active))}
}

// SortedDays distinct days, most recent first
func SortedDays(active map[civil.Date]bool) []civil.Date {
	sorted := make([]civil.Date, 0, len(active))
	for d := range active {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].After(sorted[j]) })
	return sorted
}

// longestRun sorted must be distinct and descending
func longestRun(sorted []civil.Date) int {
	if len(sorted) == 0 {
		return 0
	}
	longest, run := 1, 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].DaysSince(sorted[i]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}
