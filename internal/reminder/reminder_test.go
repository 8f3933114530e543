package reminder

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/brk3/habitbot/internal/storage"
	"github.com/brk3/habitbot/pkg/habit"
)

type mockQuerier struct {
	habits    map[int64]habit.Habit
	done      map[int64]bool
	reminders []habit.Reminder
	err       error
}

func (m *mockQuerier) GetHabit(_ context.Context, id int64) (habit.Habit, error) {
	if m.err != nil {
		return habit.Habit{}, m.err
	}
	h, ok := m.habits[id]
	if !ok {
		return habit.Habit{}, fmt.Errorf("habit %d: %w", id, storage.ErrNotFound)
	}
	return h, nil
}

func (m *mockQuerier) ListCompletions(_ context.Context, habitID int64, start, _ time.Time) ([]habit.CompletionRecord, error) {
	if m.done[habitID] {
		return []habit.CompletionRecord{{HabitID: habitID, Date: start, Done: true}}, nil
	}
	return nil, nil
}

func (m *mockQuerier) ListReminders(context.Context) ([]habit.Reminder, error) {
	return m.reminders, m.err
}

type mockNotifier struct {
	chatID int64
	text   string
	calls  int
	err    error
}

func (m *mockNotifier) SendText(_ context.Context, chatID int64, text string) error {
	m.calls++
	m.chatID = chatID
	m.text = text
	return m.err
}

// Monday 2024-01-08
var monday = time.Date(2024, 1, 8, 8, 30, 0, 0, time.UTC)

func at(h, m int) *habit.ClockTime { return &habit.ClockTime{Hour: h, Minute: m} }

func newTestScheduler(q *mockQuerier, n *mockNotifier) *Scheduler {
	s := New(q, n, time.UTC)
	s.now = func() time.Time { return monday }
	return s
}

func TestShouldRemind(t *testing.T) {
	tests := []struct {
		name string
		h    habit.Habit
		done bool
		want bool
	}{
		{"daily pending", habit.Habit{Frequency: habit.Daily}, false, true},
		{"daily done", habit.Habit{Frequency: habit.Daily}, true, false},
		{"weekly scheduled today", habit.Habit{Frequency: habit.Weekly, Schedule: []int{0, 3}}, false, true},
		{"weekly not today", habit.Habit{Frequency: habit.Weekly, Schedule: []int{2}}, false, false},
		{"weekly without schedule", habit.Habit{Frequency: habit.Weekly, CreatedAt: monday.AddDate(0, 0, 2)}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldRemind(tt.h, tt.done, monday); got != tt.want {
				t.Fatalf("ShouldRemind = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRemind_Sends(t *testing.T) {
	q := &mockQuerier{habits: map[int64]habit.Habit{1: {ID: 1, Name: "Read", Frequency: habit.Daily, Reminder: at(8, 30)}}}
	n := &mockNotifier{}
	s := newTestScheduler(q, n)

	if err := s.remind(context.Background(), 1, 555); err != nil {
		t.Fatal(err)
	}
	if n.calls != 1 || n.chatID != 555 || n.text != "⏰ Напоминание: Read" {
		t.Fatalf("notifier = %+v", n)
	}
}

func TestRemind_SkipsDoneAndOffSchedule(t *testing.T) {
	q := &mockQuerier{
		habits: map[int64]habit.Habit{
			1: {ID: 1, Name: "Read", Frequency: habit.Daily, Reminder: at(8, 0)},
			2: {ID: 2, Name: "Gym", Frequency: habit.Weekly, Schedule: []int{4}, Reminder: at(8, 0)},
			3: {ID: 3, Name: "Old", Frequency: habit.Daily},
		},
		done: map[int64]bool{1: true},
	}
	n := &mockNotifier{}
	s := newTestScheduler(q, n)
	for _, id := range []int64{1, 2, 3} {
		if err := s.remind(context.Background(), id, 1); err != nil {
			t.Fatalf("remind(%d): %v", id, err)
		}
	}
	if n.calls != 0 {
		t.Fatalf("sent %d reminders, want 0", n.calls)
	}
}

func TestRemind_DeliveryError(t *testing.T) {
	q := &mockQuerier{habits: map[int64]habit.Habit{1: {ID: 1, Name: "Read", Frequency: habit.Daily, Reminder: at(8, 0)}}}
	n := &mockNotifier{err: errors.New("bot was blocked by the user")}
	s := newTestScheduler(q, n)

	err := s.remind(context.Background(), 1, 42)
	var de *DeliveryError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want DeliveryError", err)
	}
	if de.ChatID != 42 || de.HabitID != 1 || !errors.Is(err, n.err) {
		t.Fatalf("delivery error = %+v", de)
	}
}

func TestRemind_DeletedHabitUnschedules(t *testing.T) {
	q := &mockQuerier{habits: map[int64]habit.Habit{}}
	s := newTestScheduler(q, &mockNotifier{})
	if err := s.Schedule(habit.Habit{ID: 9, Reminder: at(7, 0)}, 1); err != nil {
		t.Fatal(err)
	}
	if err := s.remind(context.Background(), 9, 1); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 0 {
		t.Fatalf("Len = %d, want 0", s.Len())
	}
}

func TestSchedule_ReplaceAndRemove(t *testing.T) {
	s := newTestScheduler(&mockQuerier{}, &mockNotifier{})
	h := habit.Habit{ID: 1, Reminder: at(8, 0)}
	if err := s.Schedule(h, 1); err != nil {
		t.Fatal(err)
	}
	h.Reminder = at(21, 15)
	if err := s.Schedule(h, 1); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 || len(s.cron.Entries()) != 1 {
		t.Fatalf("jobs = %d, entries = %d; want 1 each", s.Len(), len(s.cron.Entries()))
	}
	if got := s.jobs[1].at; got != *h.Reminder {
		t.Fatalf("job time = %v", got)
	}

	h.Reminder = nil
	if err := s.Schedule(h, 1); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 0 || len(s.cron.Entries()) != 0 {
		t.Fatal("reminder without time still scheduled")
	}
	s.Unschedule(1)
}

func TestLoad(t *testing.T) {
	q := &mockQuerier{reminders: []habit.Reminder{
		{Habit: habit.Habit{ID: 1, Reminder: at(8, 0)}, ChatID: 10},
		{Habit: habit.Habit{ID: 2, Reminder: at(9, 30)}, ChatID: 20},
	}}
	s := newTestScheduler(q, &mockNotifier{})
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}

	q.err = errors.New("db locked")
	if err := s.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestStartStop(t *testing.T) {
	s := newTestScheduler(&mockQuerier{}, &mockNotifier{})
	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
