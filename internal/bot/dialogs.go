package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/brk3/habitbot/internal/dialog"
	"github.com/brk3/habitbot/internal/logger"
	"github.com/brk3/habitbot/internal/metrics"
	"github.com/brk3/habitbot/internal/weekday"
	"github.com/brk3/habitbot/pkg/habit"
)

const (
	keepValue   = "-"
	removeValue = "нет"
	minNameLen  = 2
)

// ─── Add ─────────────────────────────────────────────────────────────────────

func (b *Bot) stepAdd(ctx context.Context, ev Event, s *dialog.AddHabit, text string) error {
	switch s.Step {
	case dialog.AddName:
		if reply, ok := checkName(text); !ok {
			return b.send(ctx, ev.ChatID, reply, nil)
		}
		s.Name = text
		s.Step = dialog.AddFrequency
		return b.send(ctx, ev.ChatID, msgAskFrequency, frequencyKeyboard)

	case dialog.AddFrequency:
		freq, err := habit.ParseFrequency(text)
		if err != nil {
			return b.send(ctx, ev.ChatID, msgPickButton, nil)
		}
		s.Frequency = freq
		if freq == habit.Daily {
			s.Step = dialog.AddReminder
			return b.send(ctx, ev.ChatID, msgAskReminder, removeKeyboard())
		}
		s.Step = dialog.AddSchedule
		return b.send(ctx, ev.ChatID, msgAskSchedule, cancelKeyboard)

	case dialog.AddSchedule:
		days, err := weekday.Parse(text)
		if err != nil {
			return b.send(ctx, ev.ChatID, fmt.Sprintf(msgBadDays, describeFormatError(err)), nil)
		}
		s.Schedule = days
		s.Step = dialog.AddReminder
		return b.send(ctx, ev.ChatID, msgAskReminder, removeKeyboard())

	case dialog.AddReminder:
		reminder, ok := parseReminder(text)
		if !ok {
			return b.send(ctx, ev.ChatID, msgBadReminder, nil)
		}
		return b.finishAdd(ctx, ev, s, reminder)
	}
	return fmt.Errorf("unknown add step %d", s.Step)
}

func (b *Bot) finishAdd(ctx context.Context, ev Event, s *dialog.AddHabit, reminder *habit.ClockTime) error {
	u, err := b.user(ctx, ev)
	if err != nil {
		return err
	}
	h, err := habit.New(u.ID, s.Name, s.Frequency, s.Schedule, reminder, b.now().In(b.loc))
	if err != nil {
		return fmt.Errorf("build habit: %w", err)
	}
	h, err = b.store.AddHabit(ctx, h)
	if err != nil {
		return fmt.Errorf("add habit: %w", err)
	}
	b.dialogs.Clear(ev.ChatID)
	metrics.RecordHabitEvent("created")
	logger.InfoContext(ctx, "Habit created", "chat_id", ev.ChatID, "habit_id", h.ID, "frequency", h.Frequency)
	if h.Reminder != nil {
		b.scheduleReminder(h, ev.ChatID)
	}

	reply := fmt.Sprintf(msgAddedDaily, h.Name)
	if h.HasSchedule() {
		reply = fmt.Sprintf(msgAddedWeekly, h.Name, weekday.Format(h.Schedule))
	}
	if h.Reminder != nil {
		reply += fmt.Sprintf(msgReminderNote, h.Reminder)
	}
	return b.send(ctx, ev.ChatID, reply, removeKeyboard())
}

// ─── Edit ────────────────────────────────────────────────────────────────────

func (b *Bot) startEdit(ctx context.Context, ev Event, h habit.Habit) error {
	b.dialogs.Set(ev.ChatID, dialog.NewEdit(h))
	return b.send(ctx, ev.ChatID, fmt.Sprintf(msgEditName, h.Name), nil)
}

func (b *Bot) stepEdit(ctx context.Context, ev Event, s *dialog.EditHabit, text string) error {
	switch s.Step {
	case dialog.EditName:
		if text != keepValue {
			if reply, ok := checkName(text); !ok {
				return b.send(ctx, ev.ChatID, reply, nil)
			}
			s.Name = text
		}
		s.Step = dialog.EditFrequency
		return b.send(ctx, ev.ChatID, msgEditFrequency, nil)

	case dialog.EditFrequency:
		if text != keepValue {
			freq, err := habit.ParseFrequency(text)
			if err != nil {
				return b.send(ctx, ev.ChatID, msgEditBadFreq, nil)
			}
			s.Frequency = freq
		}
		if !s.Frequency.IsWeekly() {
			// daily habits carry no schedule, skip straight to the reminder
			s.Schedule = nil
			s.Step = dialog.EditReminder
			return b.send(ctx, ev.ChatID, msgEditReminder, nil)
		}
		s.Step = dialog.EditSchedule
		return b.send(ctx, ev.ChatID, msgEditSchedule, nil)

	case dialog.EditSchedule:
		if text != keepValue {
			days, err := parseSchedule(text)
			if err != nil {
				return b.send(ctx, ev.ChatID, msgEditBadSchedule, nil)
			}
			s.Schedule = days
		}
		s.Step = dialog.EditReminder
		return b.send(ctx, ev.ChatID, msgEditReminder, nil)

	case dialog.EditReminder:
		switch strings.ToLower(text) {
		case keepValue:
		case removeValue:
			s.Reminder = nil
		default:
			c, err := habit.ParseClock(text)
			if err != nil {
				return b.send(ctx, ev.ChatID, msgEditBadReminder, nil)
			}
			s.Reminder = &c
		}
		return b.finishEdit(ctx, ev, s)
	}
	return fmt.Errorf("unknown edit step %d", s.Step)
}

// finishEdit writes all pending values at once.
func (b *Bot) finishEdit(ctx context.Context, ev Event, s *dialog.EditHabit) error {
	b.dialogs.Clear(ev.ChatID)
	_, h, err := b.ownedHabit(ctx, ev, s.HabitID)
	if isRejection(err) {
		return b.send(ctx, ev.ChatID, msgHabitNotFound, nil)
	}
	if err != nil {
		return err
	}

	h = s.Apply(h)
	if err := h.Validate(); err != nil {
		return fmt.Errorf("validate edited habit %d: %w", h.ID, err)
	}
	h.Normalize()
	if err := b.store.UpdateHabit(ctx, h); err != nil {
		return fmt.Errorf("update habit %d: %w", h.ID, err)
	}
	metrics.RecordHabitEvent("updated")
	logger.InfoContext(ctx, "Habit updated", "chat_id", ev.ChatID, "habit_id", h.ID)
	b.scheduleReminder(h, ev.ChatID)
	return b.send(ctx, ev.ChatID, msgEdited, nil)
}

// ─── Input parsing ───────────────────────────────────────────────────────────

func checkName(name string) (string, bool) {
	n := utf8.RuneCountInString(name)
	switch {
	case n < minNameLen:
		return msgNameTooShort, false
	case n > habit.MaxNameLength:
		return msgNameTooLong, false
	}
	return "", true
}

// parseReminder accepts HH:MM, or "-", "нет" and empty input for none.
func parseReminder(text string) (*habit.ClockTime, bool) {
	switch strings.ToLower(text) {
	case "", keepValue, removeValue:
		return nil, true
	}
	c, err := habit.ParseClock(text)
	if err != nil {
		return nil, false
	}
	return &c, true
}

// parseSchedule accepts a JSON array such as [0,2,4] or weekday text. An
// empty array clears the schedule.
func parseSchedule(text string) ([]int, error) {
	if !strings.HasPrefix(text, "[") {
		return weekday.Parse(text)
	}
	var days []int
	if err := json.Unmarshal([]byte(text), &days); err != nil {
		return nil, &habit.FormatError{Input: text, Reason: "schedule is not a JSON array of integers"}
	}
	if len(days) == 0 {
		return nil, nil
	}
	if err := habit.ValidateSchedule(days); err != nil {
		return nil, err
	}
	return days, nil
}

func describeFormatError(err error) string {
	var fe *habit.FormatError
	if errors.As(err, &fe) && fe.Input != "" {
		return "«" + fe.Input + "»"
	}
	return "пустой ввод"
}
