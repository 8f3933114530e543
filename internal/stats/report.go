package stats

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brk3/habitbot/pkg/habit"
)

type Period string

const (
	Today Period = "today"
	Week  Period = "week"
	Month Period = "month"
)

func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case Today, Week, Month:
		return p, nil
	}
	return "", &habit.FormatError{Input: s, Reason: "period must be today, week or month"}
}

// Range returns the inclusive date range the period covers, ending today.
// A week is the last seven days; a month starts on the 1st.
func (p Period) Range(today time.Time) (start, end time.Time) {
	end = habit.Day(today)
	switch p {
	case Week:
		return end.AddDate(0, 0, -6), end
	case Month:
		return end.AddDate(0, 0, 1-end.Day()), end
	default:
		return end, end
	}
}

type DayMark struct {
	Date string `json:"date"`
	Done bool   `json:"done"`
}

type Progress struct {
	Habit         habit.Habit `json:"habit"`
	Done          int         `json:"done"`
	Expected      int         `json:"expected"`
	Percent       string      `json:"percent"`
	Bar           string      `json:"bar"`
	Days          []DayMark   `json:"days"`
	CurrentStreak int         `json:"current_streak"`
	LongestStreak int         `json:"longest_streak"`
}

type Report struct {
	Period Period     `json:"period"`
	Start  string     `json:"start"`
	End    string     `json:"end"`
	Habits []Progress `json:"habits"`
}

// Summarize aggregates the completion records of h inside [start, end].
func Summarize(h habit.Habit, records []habit.CompletionRecord, start, end time.Time) Progress {
	done := make(map[string]struct{}, len(records))
	var doneDays []time.Time
	for _, r := range records {
		if !r.Done || dayNumber(r.Date) < dayNumber(start) || dayNumber(r.Date) > dayNumber(end) {
			continue
		}
		key := habit.FormatDate(r.Date)
		if _, ok := done[key]; ok {
			continue
		}
		done[key] = struct{}{}
		doneDays = append(doneDays, r.Date)
	}

	dates := Dates(start, end)
	marks := make([]DayMark, 0, len(dates))
	for _, d := range dates {
		key := habit.FormatDate(d)
		_, ok := done[key]
		marks = append(marks, DayMark{Date: key, Done: ok})
	}

	expected := ExpectedOccurrences(h, start, end)
	current, longest := Streaks(doneDays, end)
	return Progress{
		Habit:         h,
		Done:          len(done),
		Expected:      expected,
		Percent:       Percent(len(done), expected),
		Bar:           Bar(len(done), expected, BarWidth),
		Days:          marks,
		CurrentStreak: current,
		LongestStreak: longest,
	}
}

// Source is the read side of the habit store a report needs.
type Source interface {
	ListHabits(ctx context.Context, userID int64) ([]habit.Habit, error)
	ListCompletions(ctx context.Context, habitID int64, start, end time.Time) ([]habit.CompletionRecord, error)
}

func BuildReport(ctx context.Context, src Source, userID int64, p Period, today time.Time) (Report, error) {
	start, end := p.Range(today)
	habits, err := src.ListHabits(ctx, userID)
	if err != nil {
		return Report{}, fmt.Errorf("list habits: %w", err)
	}

	r := Report{
		Period: p,
		Start:  habit.FormatDate(start),
		End:    habit.FormatDate(end),
		Habits: make([]Progress, 0, len(habits)),
	}
	for _, h := range habits {
		records, err := src.ListCompletions(ctx, h.ID, start, end)
		if err != nil {
			return Report{}, fmt.Errorf("list completions for habit %d: %w", h.ID, err)
		}
		r.Habits = append(r.Habits, Summarize(h, records, start, end))
	}
	return r, nil
}
