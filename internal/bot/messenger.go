package bot

import (
	"context"

	"github.com/brk3/habitbot/pkg/habit"
)

// Event is one inbound update: a text message, or a press on an inline button
// when CallbackID is set.
type Event struct {
	ChatID       int64
	Username     string
	Text         string
	MessageID    int
	CallbackID   string
	CallbackData string
}

func (e Event) IsCallback() bool {
	return e.CallbackID != ""
}

type Button struct {
	Text string
	Data string
}

// Keyboard is attached to an outgoing message. Inline buttons live on the
// message itself; Reply rows replace the user's keyboard; Remove hides it.
// Only Inline applies when editing an existing message.
type Keyboard struct {
	Inline [][]Button
	Reply  [][]string
	Remove bool
}

type Messenger interface {
	Send(ctx context.Context, chatID int64, text string, kb *Keyboard) error
	Edit(ctx context.Context, chatID int64, messageID int, text string, kb *Keyboard) error
	// EditKeyboard replaces the inline keyboard of a sent message; nil removes it.
	EditKeyboard(ctx context.Context, chatID int64, messageID int, kb *Keyboard) error
	AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error
}

// ReminderScheduler keeps reminder jobs in sync with habit edits.
type ReminderScheduler interface {
	// Schedule registers or replaces the daily job of h. A habit without a
	// reminder time is unscheduled.
	Schedule(h habit.Habit, chatID int64) error
	Unschedule(habitID int64)
}

type nopScheduler struct{}

func (nopScheduler) Schedule(habit.Habit, int64) error { return nil }
func (nopScheduler) Unschedule(int64)                  {}
