package stats

import (
	"time"

	"github.com/brk3/habitbot/pkg/habit"
)

// Dates returns every calendar day from start to end inclusive.
func Dates(start, end time.Time) []time.Time {
	start = habit.Day(start)
	n := DaysInRange(start, end)
	out := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, start.AddDate(0, 0, i))
	}
	return out
}

// DaysInRange counts calendar days in [start, end]. It returns 0 when end
// is before start.
func DaysInRange(start, end time.Time) int {
	n := int(dayNumber(end)-dayNumber(start)) + 1
	return max(n, 0)
}

// ExpectedOccurrences counts how many times h should have been performed in
// the inclusive range [start, end].
func ExpectedOccurrences(h habit.Habit, start, end time.Time) int {
	days := DaysInRange(start, end)
	if days == 0 {
		return 0
	}

	if !h.IsWeekly() {
		return days
	}

	if len(h.Schedule) > 0 {
		set := make(map[int]struct{}, len(h.Schedule))
		for _, d := range h.Schedule {
			set[d] = struct{}{}
		}
		return countWeekdays(start, days, func(wd int) bool {
			_, ok := set[wd]
			return ok
		})
	}

	if !h.CreatedAt.IsZero() {
		target := habit.WeekdayIndex(h.CreatedAt)
		return countWeekdays(start, days, func(wd int) bool { return wd == target })
	}

	return max(1, days/7)
}

func countWeekdays(start time.Time, days int, match func(int) bool) int {
	start = habit.Day(start)
	cnt := 0
	for i := 0; i < days; i++ {
		if match(habit.WeekdayIndex(start.AddDate(0, 0, i))) {
			cnt++
		}
	}
	return cnt
}

// dayNumber is the count of days since the Unix epoch for t's calendar date,
// independent of t's location and of DST shifts.
func dayNumber(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / (24 * 60 * 60)
}
