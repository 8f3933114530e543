package storage

import (
	"context"
	"errors"
	"time"

	"github.com/brk3/habitbot/pkg/habit"
)

var ErrNotFound = errors.New("not found")

// Store persists users, habits and daily completion records. Every method is
// a single self-contained operation; callers get no cross-call atomicity.
type Store interface {
	// EnsureUser returns the user bound to chatID, creating it on first use.
	// A non-empty username replaces the stored one.
	EnsureUser(ctx context.Context, chatID int64, username string) (habit.User, error)
	GetUserByChat(ctx context.Context, chatID int64) (habit.User, error)

	AddHabit(ctx context.Context, h habit.Habit) (habit.Habit, error)
	GetHabit(ctx context.Context, id int64) (habit.Habit, error)
	ListHabits(ctx context.Context, userID int64) ([]habit.Habit, error)
	ListDueHabits(ctx context.Context, userID int64, day time.Time) ([]habit.Habit, error)
	UpdateHabit(ctx context.Context, h habit.Habit) error
	// DeleteHabit removes the habit and its completion records.
	DeleteHabit(ctx context.Context, id int64) error

	// MarkDone records the habit as done on day. Repeating it is a no-op.
	MarkDone(ctx context.Context, habitID int64, day time.Time) error
	// ListCompletions returns records with dates in [start, end], ordered by date.
	ListCompletions(ctx context.Context, habitID int64, start, end time.Time) ([]habit.CompletionRecord, error)
	ListReminders(ctx context.Context) ([]habit.Reminder, error)

	Close() error
}

// FilterDue keeps the habits due on day, preserving order.
func FilterDue(habits []habit.Habit, day time.Time) []habit.Habit {
	out := make([]habit.Habit, 0, len(habits))
	for _, h := range habits {
		if habit.DueOn(h, day) {
			out = append(out, h)
		}
	}
	return out
}
