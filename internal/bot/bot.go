// Package bot is the conversation controller: it turns chat events into
// store operations, dialog steps and rendered replies.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brk3/habitbot/internal/dialog"
	"github.com/brk3/habitbot/internal/logger"
	"github.com/brk3/habitbot/internal/metrics"
	"github.com/brk3/habitbot/internal/storage"
	"github.com/brk3/habitbot/pkg/habit"
)

type Options struct {
	Store     storage.Store
	Messenger Messenger
	Reminders ReminderScheduler // optional
	Location  *time.Location    // defaults to time.Local
	Now       func() time.Time  // defaults to time.Now
	Motivate  func() string     // defaults to a random phrase
}

type Bot struct {
	store     storage.Store
	msg       Messenger
	reminders ReminderScheduler
	dialogs   *dialog.Registry
	loc       *time.Location
	now       func() time.Time
	motivate  func() string
}

func New(o Options) *Bot {
	b := &Bot{
		store:     o.Store,
		msg:       o.Messenger,
		reminders: o.Reminders,
		dialogs:   dialog.NewRegistry(),
		loc:       o.Location,
		now:       o.Now,
		motivate:  o.Motivate,
	}
	if b.reminders == nil {
		b.reminders = nopScheduler{}
	}
	if b.loc == nil {
		b.loc = time.Local
	}
	if b.now == nil {
		b.now = time.Now
	}
	if b.motivate == nil {
		b.motivate = randomMotivation
	}
	return b
}

// Handle processes one event. Failures never escape: they are logged and the
// user gets a generic apology.
func (b *Bot) Handle(ctx context.Context, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "Panic while handling update", "chat_id", ev.ChatID, "panic", r)
			b.apologize(ctx, ev)
		}
	}()

	var err error
	if ev.IsCallback() {
		metrics.RecordUpdate("callback")
		err = b.handleCallback(ctx, ev)
	} else {
		metrics.RecordUpdate("message")
		err = b.handleMessage(ctx, ev)
	}
	if err != nil {
		logger.ErrorContext(ctx, "Failed to handle update", "chat_id", ev.ChatID, "text", ev.Text, "callback", ev.CallbackData, "error", err)
		b.apologize(ctx, ev)
	}
}

func (b *Bot) apologize(ctx context.Context, ev Event) {
	metrics.RecordHandlerError()
	if ev.IsCallback() {
		_ = b.msg.AnswerCallback(ctx, ev.CallbackID, "", false)
	}
	if err := b.msg.Send(ctx, ev.ChatID, msgApology, nil); err != nil {
		logger.WarnContext(ctx, "Failed to send apology", "chat_id", ev.ChatID, "error", err)
	}
}

func (b *Bot) handleMessage(ctx context.Context, ev Event) error {
	text := strings.TrimSpace(ev.Text)
	if strings.HasPrefix(text, "/") {
		return b.runCommand(ctx, ev, commandName(text))
	}

	st, ok := b.dialogs.Get(ev.ChatID)
	if !ok {
		return b.send(ctx, ev.ChatID, msgUnknownInput, nil)
	}
	switch s := st.(type) {
	case *dialog.AddHabit:
		return b.stepAdd(ctx, ev, s, text)
	case *dialog.EditHabit:
		return b.stepEdit(ctx, ev, s, text)
	}
	return fmt.Errorf("unexpected dialog state %T", st)
}

// commandName extracts "add" from "/add", "/add@habit_bot" or "/add extra".
func commandName(text string) string {
	name, _, _ := strings.Cut(strings.TrimPrefix(text, "/"), " ")
	name, _, _ = strings.Cut(name, "@")
	return strings.ToLower(name)
}

func (b *Bot) send(ctx context.Context, chatID int64, text string, kb *Keyboard) error {
	if err := b.msg.Send(ctx, chatID, text, kb); err != nil {
		return fmt.Errorf("send to chat %d: %w", chatID, err)
	}
	return nil
}

func (b *Bot) today() time.Time {
	return habit.Day(b.now().In(b.loc))
}

func (b *Bot) user(ctx context.Context, ev Event) (habit.User, error) {
	u, err := b.store.EnsureUser(ctx, ev.ChatID, ev.Username)
	if err != nil {
		return habit.User{}, fmt.Errorf("ensure user: %w", err)
	}
	return u, nil
}

// ownedHabit loads a habit and checks that the event's chat owns it.
func (b *Bot) ownedHabit(ctx context.Context, ev Event, id int64) (habit.User, habit.Habit, error) {
	u, err := b.user(ctx, ev)
	if err != nil {
		return habit.User{}, habit.Habit{}, err
	}
	h, err := b.store.GetHabit(ctx, id)
	if err != nil {
		return u, habit.Habit{}, err
	}
	if err := habit.Authorize(u, h); err != nil {
		return u, habit.Habit{}, err
	}
	return u, h, nil
}

// isRejection reports errors that end an action with a notice rather than
// an apology.
func isRejection(err error) bool {
	return errors.Is(err, storage.ErrNotFound) || errors.Is(err, habit.ErrForbidden)
}

func (b *Bot) scheduleReminder(h habit.Habit, chatID int64) {
	var err error
	if h.Reminder == nil {
		b.reminders.Unschedule(h.ID)
	} else {
		err = b.reminders.Schedule(h, chatID)
	}
	if err != nil {
		logger.Error("Failed to schedule reminder", "habit_id", h.ID, "chat_id", chatID, "error", err)
	}
}
