package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/brk3/habitbot/internal/dialog"
	"github.com/brk3/habitbot/internal/metrics"
	"github.com/brk3/habitbot/internal/stats"
	"github.com/brk3/habitbot/pkg/habit"
)

func (b *Bot) runCommand(ctx context.Context, ev Event, name string) error {
	metrics.RecordCommand("/" + name)
	if name == "cancel" {
		return b.cmdCancel(ctx, ev)
	}
	// a new command abandons whatever dialog was pending
	b.dialogs.Clear(ev.ChatID)

	switch name {
	case "start":
		return b.cmdStart(ctx, ev)
	case "help":
		return b.send(ctx, ev.ChatID, msgHelp, nil)
	case "add":
		return b.cmdAdd(ctx, ev)
	case "done":
		return b.cmdDone(ctx, ev)
	case "today":
		return b.cmdToday(ctx, ev)
	case "week":
		return b.cmdPeriod(ctx, ev, stats.Week, msgWeekHeader)
	case "month":
		return b.cmdPeriod(ctx, ev, stats.Month, msgMonthHeader)
	}
	return b.send(ctx, ev.ChatID, msgUnknownCommand, nil)
}

func (b *Bot) cmdStart(ctx context.Context, ev Event) error {
	if _, err := b.user(ctx, ev); err != nil {
		return err
	}
	return b.send(ctx, ev.ChatID, msgStart, nil)
}

func (b *Bot) cmdCancel(ctx context.Context, ev Event) error {
	if !b.dialogs.Clear(ev.ChatID) {
		return b.send(ctx, ev.ChatID, msgNothingToCancel, removeKeyboard())
	}
	return b.send(ctx, ev.ChatID, msgCancelled, removeKeyboard())
}

func (b *Bot) cmdAdd(ctx context.Context, ev Event) error {
	if _, err := b.user(ctx, ev); err != nil {
		return err
	}
	b.dialogs.Set(ev.ChatID, &dialog.AddHabit{Step: dialog.AddName})
	return b.send(ctx, ev.ChatID, msgAskName, removeKeyboard())
}

func (b *Bot) cmdDone(ctx context.Context, ev Event) error {
	u, err := b.user(ctx, ev)
	if err != nil {
		return err
	}
	kb, err := b.todayKeyboard(ctx, u)
	if err != nil {
		return err
	}
	if kb == nil {
		return b.send(ctx, ev.ChatID, msgNoHabitsToday, nil)
	}
	return b.send(ctx, ev.ChatID, msgPickHabit, kb)
}

func (b *Bot) cmdToday(ctx context.Context, ev Event) error {
	u, err := b.user(ctx, ev)
	if err != nil {
		return err
	}
	today := b.today()
	due, err := b.store.ListDueHabits(ctx, u.ID, today)
	if err != nil {
		return fmt.Errorf("list due habits: %w", err)
	}
	if len(due) == 0 {
		return b.send(ctx, ev.ChatID, msgTodayEmpty, nil)
	}

	lines := []string{fmt.Sprintf(msgTodayHeader, habit.FormatDate(today))}
	for i, h := range due {
		done, err := b.doneOn(ctx, h.ID, today)
		if err != nil {
			return err
		}
		mark := markMissed
		if done {
			mark = markDone
		}
		lines = append(lines, fmt.Sprintf("%d. %s — %s", i+1, h.Name, mark))
	}
	return b.send(ctx, ev.ChatID, strings.Join(lines, "\n"), nil)
}

func (b *Bot) cmdPeriod(ctx context.Context, ev Event, p stats.Period, header string) error {
	u, err := b.user(ctx, ev)
	if err != nil {
		return err
	}
	report, err := stats.BuildReport(ctx, b.store, u.ID, p, b.today())
	if err != nil {
		return fmt.Errorf("build %s report: %w", p, err)
	}
	if len(report.Habits) == 0 {
		return b.send(ctx, ev.ChatID, msgNoHabits, nil)
	}
	return b.send(ctx, ev.ChatID, renderReport(header, report), nil)
}
