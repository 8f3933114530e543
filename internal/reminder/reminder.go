// Package reminder runs one daily cron job per habit with a reminder time.
// Jobs re-read their habit when they fire, so edits apply without a restart.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/brk3/habitbot/internal/logger"
	"github.com/brk3/habitbot/internal/metrics"
	"github.com/brk3/habitbot/internal/storage"
	"github.com/brk3/habitbot/pkg/habit"
)

const deliveryTimeout = 30 * time.Second

// DeliveryError reports a reminder that could not be sent.
type DeliveryError struct {
	ChatID  int64
	HabitID int64
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver reminder for habit %d to chat %d: %v", e.HabitID, e.ChatID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// ShouldRemind is the send policy: nothing once the habit is done today, and
// nothing for a weekly schedule that excludes today.
func ShouldRemind(h habit.Habit, doneToday bool, today time.Time) bool {
	if doneToday {
		return false
	}
	if h.HasSchedule() && !slices.Contains(h.Schedule, habit.WeekdayIndex(today)) {
		return false
	}
	return true
}

func Text(name string) string {
	return "⏰ Напоминание: " + name
}

type job struct {
	entry cron.EntryID
	at    habit.ClockTime
}

type Scheduler struct {
	cron *cron.Cron
	q    Querier
	n    Notifier
	loc  *time.Location
	now  func() time.Time

	mu   sync.Mutex
	jobs map[int64]job
}

func New(q Querier, n Notifier, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	l := cronLogger{}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(l),
			cron.WithChain(cron.Recover(l)),
		),
		q:    q,
		n:    n,
		loc:  loc,
		now:  time.Now,
		jobs: make(map[int64]job),
	}
}

// Load schedules every stored reminder.
func (s *Scheduler) Load(ctx context.Context) error {
	rs, err := s.q.ListReminders(ctx)
	if err != nil {
		return fmt.Errorf("list reminders: %w", err)
	}
	for _, r := range rs {
		if err := s.Schedule(r.Habit, r.ChatID); err != nil {
			return err
		}
	}
	logger.Info("Reminders loaded", "count", len(rs))
	return nil
}

// Schedule registers or replaces the job of h. A habit without a reminder
// time is unscheduled instead.
func (s *Scheduler) Schedule(h habit.Habit, chatID int64) error {
	if h.Reminder == nil {
		s.Unschedule(h.ID)
		return nil
	}
	at := *h.Reminder
	habitID := h.ID

	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.jobs[habitID]; ok {
		s.cron.Remove(cur.entry)
	}
	entry, err := s.cron.AddFunc(fmt.Sprintf("%d %d * * *", at.Minute, at.Hour), func() {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		defer cancel()
		if err := s.remind(ctx, habitID, chatID); err != nil {
			logger.ErrorContext(ctx, "Reminder failed", "habit_id", habitID, "chat_id", chatID, "error", err)
		}
	})
	if err != nil {
		delete(s.jobs, habitID)
		metrics.SetScheduledReminders(len(s.jobs))
		return fmt.Errorf("schedule reminder for habit %d: %w", habitID, err)
	}
	s.jobs[habitID] = job{entry: entry, at: at}
	metrics.SetScheduledReminders(len(s.jobs))
	logger.Debug("Reminder scheduled", "habit_id", habitID, "chat_id", chatID, "at", at.String())
	return nil
}

func (s *Scheduler) Unschedule(habitID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.jobs[habitID]
	if !ok {
		return
	}
	s.cron.Remove(cur.entry)
	delete(s.jobs, habitID)
	metrics.SetScheduledReminders(len(s.jobs))
	logger.Debug("Reminder unscheduled", "habit_id", habitID)
}

// Len returns the number of scheduled jobs.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs or ctx, whichever ends
// first.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) remind(ctx context.Context, habitID, chatID int64) error {
	log := logger.With("habit_id", habitID, "chat_id", chatID)
	h, err := s.q.GetHabit(ctx, habitID)
	if errors.Is(err, storage.ErrNotFound) {
		s.Unschedule(habitID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load habit %d: %w", habitID, err)
	}
	if h.Reminder == nil {
		return nil
	}

	today := habit.Day(s.now().In(s.loc))
	recs, err := s.q.ListCompletions(ctx, habitID, today, today)
	if err != nil {
		return fmt.Errorf("list completions for habit %d: %w", habitID, err)
	}
	done := slices.ContainsFunc(recs, func(r habit.CompletionRecord) bool { return r.Done })

	if !ShouldRemind(h, done, today) {
		metrics.RecordReminder(metrics.ReminderSkipped)
		log.DebugContext(ctx, "Reminder skipped", "done_today", done)
		return nil
	}

	if err := s.n.SendText(ctx, chatID, Text(h.Name)); err != nil {
		metrics.RecordReminder(metrics.ReminderFailed)
		return &DeliveryError{ChatID: chatID, HabitID: habitID, Err: err}
	}
	metrics.RecordReminder(metrics.ReminderSent)
	log.InfoContext(ctx, "Reminder sent")
	return nil
}

// cronLogger routes cron's own messages into the application log.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	logger.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
