package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/brk3/habitbot/internal/logger"
	"github.com/brk3/habitbot/internal/metrics"
	"github.com/brk3/habitbot/internal/weekday"
	"github.com/brk3/habitbot/pkg/habit"
)

// handleCallback routes inline button presses. Data formats:
//
//	mark:<id> | mark:cancel
//	habit:<id> | habit:edit:<id> | habit:del:<id> | habit:del:yes:<id> | habit:del:no
func (b *Bot) handleCallback(ctx context.Context, ev Event) error {
	parts := strings.Split(ev.CallbackData, ":")
	switch {
	case len(parts) == 2 && parts[0] == "mark" && parts[1] == "cancel":
		return b.cbMarkCancel(ctx, ev)
	case len(parts) == 2 && parts[0] == "mark":
		return b.withID(ctx, ev, parts[1], b.cbMark)
	case len(parts) == 2 && parts[0] == "habit":
		return b.withID(ctx, ev, parts[1], b.cbDetails)
	case len(parts) == 3 && parts[0] == "habit" && parts[1] == "edit":
		return b.withID(ctx, ev, parts[2], b.cbEdit)
	case len(parts) == 3 && parts[0] == "habit" && parts[1] == "del" && parts[2] == "no":
		return b.cbDeleteCancel(ctx, ev)
	case len(parts) == 3 && parts[0] == "habit" && parts[1] == "del":
		return b.withID(ctx, ev, parts[2], b.cbDeleteConfirm)
	case len(parts) == 4 && parts[0] == "habit" && parts[1] == "del" && parts[2] == "yes":
		return b.withID(ctx, ev, parts[3], b.cbDelete)
	}
	return b.answer(ctx, ev, msgUnknownAction, false)
}

func (b *Bot) withID(ctx context.Context, ev Event, raw string, fn func(context.Context, Event, int64) error) error {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return b.answer(ctx, ev, msgBadData, true)
	}
	return fn(ctx, ev, id)
}

func (b *Bot) answer(ctx context.Context, ev Event, text string, alert bool) error {
	if err := b.msg.AnswerCallback(ctx, ev.CallbackID, text, alert); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

// reject answers a missing or foreign habit with an alert. Other errors
// propagate to the apology path.
func (b *Bot) reject(ctx context.Context, ev Event, err error, notice string) error {
	if !isRejection(err) {
		return err
	}
	logger.WarnContext(ctx, "Rejected habit action", "chat_id", ev.ChatID, "callback", ev.CallbackData, "error", err)
	return b.answer(ctx, ev, notice, true)
}

func (b *Bot) cbMarkCancel(ctx context.Context, ev Event) error {
	if err := b.answer(ctx, ev, msgCancel, false); err != nil {
		return err
	}
	if err := b.msg.EditKeyboard(ctx, ev.ChatID, ev.MessageID, nil); err != nil {
		logger.Debug("Failed to remove keyboard", "chat_id", ev.ChatID, "error", err)
	}
	return nil
}

func (b *Bot) cbMark(ctx context.Context, ev Event, id int64) error {
	u, h, err := b.ownedHabit(ctx, ev, id)
	if err != nil {
		return b.reject(ctx, ev, err, msgCannotMark)
	}

	today := b.today()
	done, err := b.doneOn(ctx, h.ID, today)
	if err != nil {
		return err
	}
	if done {
		if err := b.answer(ctx, ev, msgAlreadyMarked, false); err != nil {
			return err
		}
		kb, err := b.todayKeyboard(ctx, u)
		if err != nil {
			return err
		}
		if kb != nil {
			if err := b.msg.EditKeyboard(ctx, ev.ChatID, ev.MessageID, kb); err != nil {
				logger.Debug("Failed to refresh keyboard", "chat_id", ev.ChatID, "error", err)
			}
		}
		return nil
	}

	if err := b.store.MarkDone(ctx, h.ID, today); err != nil {
		return fmt.Errorf("mark habit %d done: %w", h.ID, err)
	}
	metrics.RecordHabitEvent("marked")
	logger.InfoContext(ctx, "Habit marked done", "chat_id", ev.ChatID, "habit_id", h.ID, "date", habit.FormatDate(today))

	phrase := b.motivate()
	if err := b.answer(ctx, ev, phrase, false); err != nil {
		return err
	}
	text := fmt.Sprintf(msgMarked, h.Name, phrase)
	if err := b.msg.Edit(ctx, ev.ChatID, ev.MessageID, text, nil); err != nil {
		logger.DebugContext(ctx, "Edit failed, sending a new message", "chat_id", ev.ChatID, "error", err)
		return b.send(ctx, ev.ChatID, text, nil)
	}
	return nil
}

func (b *Bot) cbDetails(ctx context.Context, ev Event, id int64) error {
	_, h, err := b.ownedHabit(ctx, ev, id)
	if err != nil {
		return b.reject(ctx, ev, err, msgCannotView)
	}
	if err := b.answer(ctx, ev, "", false); err != nil {
		return err
	}
	return b.send(ctx, ev.ChatID, describeHabit(h), nil)
}

func describeHabit(h habit.Habit) string {
	freq := "ежедневно"
	if h.IsWeekly() {
		freq = "еженедельно"
		if h.HasSchedule() {
			freq += " (" + weekday.Format(h.Schedule) + ")"
		} else if !h.CreatedAt.IsZero() {
			freq += " (" + weekday.Short[habit.WeekdayIndex(h.CreatedAt)] + ")"
		}
	}
	reminder := "нет"
	if h.Reminder != nil {
		reminder = h.Reminder.String()
	}
	created := "неизвестно"
	if !h.CreatedAt.IsZero() {
		created = habit.FormatDate(h.CreatedAt)
	}
	return fmt.Sprintf(msgHabitDetails, h.Name, freq, reminder, created)
}

func (b *Bot) cbEdit(ctx context.Context, ev Event, id int64) error {
	_, h, err := b.ownedHabit(ctx, ev, id)
	if err != nil {
		return b.reject(ctx, ev, err, msgCannotEdit)
	}
	if err := b.answer(ctx, ev, "", false); err != nil {
		return err
	}
	return b.startEdit(ctx, ev, h)
}

func (b *Bot) cbDeleteConfirm(ctx context.Context, ev Event, id int64) error {
	_, h, err := b.ownedHabit(ctx, ev, id)
	if err != nil {
		return b.reject(ctx, ev, err, msgCannotDelete)
	}
	if err := b.answer(ctx, ev, "", false); err != nil {
		return err
	}
	return b.msg.Edit(ctx, ev.ChatID, ev.MessageID, fmt.Sprintf(msgConfirmDelete, h.Name), confirmDeleteKeyboard(h.ID))
}

func (b *Bot) cbDelete(ctx context.Context, ev Event, id int64) error {
	_, h, err := b.ownedHabit(ctx, ev, id)
	if err != nil {
		return b.reject(ctx, ev, err, msgCannotDelete)
	}
	if err := b.store.DeleteHabit(ctx, h.ID); err != nil {
		return b.reject(ctx, ev, err, msgHabitNotFound)
	}
	b.reminders.Unschedule(h.ID)
	metrics.RecordHabitEvent("deleted")
	logger.InfoContext(ctx, "Habit deleted", "chat_id", ev.ChatID, "habit_id", h.ID)

	if err := b.answer(ctx, ev, "", false); err != nil {
		return err
	}
	return b.msg.Edit(ctx, ev.ChatID, ev.MessageID, fmt.Sprintf(msgDeleted, h.Name), nil)
}

func (b *Bot) cbDeleteCancel(ctx context.Context, ev Event) error {
	if err := b.answer(ctx, ev, msgCancel, false); err != nil {
		return err
	}
	return b.msg.Edit(ctx, ev.ChatID, ev.MessageID, msgDeleteCancelled, nil)
}
