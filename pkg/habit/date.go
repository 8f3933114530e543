package habit

import (
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// Day returns midnight of t's calendar date in t's location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	// created_at columns carry a time part; only the date matters here
	s, _, _ = strings.Cut(strings.TrimSpace(s), " ")
	s, _, _ = strings.Cut(s, "T")
	return time.ParseInLocation(DateLayout, s, loc)
}

// WeekdayIndex maps t to Monday=0 .. Sunday=6.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// DueOn reports whether h is expected to be performed on day.
//
// Weekly habits without a schedule fall back to the weekday they were
// created on; when the creation date is unknown they are due every day.
func DueOn(h Habit, day time.Time) bool {
	switch Frequency(strings.ToLower(string(h.Frequency))) {
	case Weekly:
		wd := WeekdayIndex(day)
		if len(h.Schedule) > 0 {
			for _, d := range h.Schedule {
				if d == wd {
					return true
				}
			}
			return false
		}
		if h.CreatedAt.IsZero() {
			return true
		}
		return WeekdayIndex(h.CreatedAt) == wd
	default:
		return true
	}
}
