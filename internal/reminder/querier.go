package reminder

import (
	"context"
	"time"

	"github.com/brk3/habitbot/pkg/habit"
)

// Querier is the store access a reminder job needs.
type Querier interface {
	GetHabit(ctx context.Context, id int64) (habit.Habit, error)
	ListCompletions(ctx context.Context, habitID int64, start, end time.Time) ([]habit.CompletionRecord, error)
	ListReminders(ctx context.Context) ([]habit.Reminder, error)
}

type Notifier interface {
	SendText(ctx context.Context, chatID int64, text string) error
}
