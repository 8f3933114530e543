package stats

import (
	"slices"
	"time"
)

// Streaks returns the current and longest runs of consecutive days in days.
// The current streak only counts when the latest day is today or yesterday.
func Streaks(days []time.Time, today time.Time) (current, longest int) {
	// collect unique days
	uniq := make(map[int64]struct{}, len(days))
	for _, d := range days {
		uniq[dayNumber(d)] = struct{}{}
	}
	if len(uniq) == 0 {
		return 0, 0
	}

	nums := make([]int64, 0, len(uniq))
	for d := range uniq {
		nums = append(nums, d)
	}
	slices.Sort(nums)
	slices.Reverse(nums)

	t := dayNumber(today)
	streakOngoing := nums[0] == t || nums[0] == t-1
	longest = 1
	run := 1
	if streakOngoing {
		current = 1
	}

	for i := 0; i < len(nums)-1; i++ {
		if nums[i]-nums[i+1] == 1 {
			run++
			longest = max(longest, run)
			if streakOngoing {
				current++
			}
		} else {
			run = 1
			streakOngoing = false
		}
	}
	return current, longest
}
