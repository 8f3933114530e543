package bot

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/brk3/habitbot/internal/storage"
	"github.com/brk3/habitbot/pkg/habit"
)

type memStore struct {
	mu       sync.Mutex
	users    map[int64]habit.User // by chat id
	habits   map[int64]habit.Habit
	progress map[int64]map[string]bool
	nextUser int64
	nextHab  int64

	ensureUserErr error
	panicOnEnsure bool
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[int64]habit.User),
		habits:   make(map[int64]habit.Habit),
		progress: make(map[int64]map[string]bool),
	}
}

func (m *memStore) EnsureUser(_ context.Context, chatID int64, username string) (habit.User, error) {
	if m.panicOnEnsure {
		panic("boom")
	}
	if m.ensureUserErr != nil {
		return habit.User{}, m.ensureUserErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[chatID]
	if !ok {
		m.nextUser++
		u = habit.User{ID: m.nextUser, ChatID: chatID}
	}
	if username != "" {
		u.Username = username
	}
	m.users[chatID] = u
	return u, nil
}

func (m *memStore) GetUserByChat(_ context.Context, chatID int64) (habit.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[chatID]
	if !ok {
		return habit.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (m *memStore) AddHabit(_ context.Context, h habit.Habit) (habit.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextHab++
	h.ID = m.nextHab
	m.habits[h.ID] = h
	return h, nil
}

func (m *memStore) GetHabit(_ context.Context, id int64) (habit.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.habits[id]
	if !ok {
		return habit.Habit{}, fmt.Errorf("habit %d: %w", id, storage.ErrNotFound)
	}
	return h, nil
}

func (m *memStore) ListHabits(_ context.Context, userID int64) ([]habit.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []habit.Habit
	for _, h := range m.habits {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	slices.SortFunc(out, func(a, b habit.Habit) int { return int(a.ID - b.ID) })
	return out, nil
}

func (m *memStore) ListDueHabits(ctx context.Context, userID int64, day time.Time) ([]habit.Habit, error) {
	hs, err := m.ListHabits(ctx, userID)
	if err != nil {
		return nil, err
	}
	return storage.FilterDue(hs, day), nil
}

func (m *memStore) UpdateHabit(_ context.Context, h habit.Habit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.habits[h.ID]; !ok {
		return storage.ErrNotFound
	}
	m.habits[h.ID] = h
	return nil
}

func (m *memStore) DeleteHabit(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.habits[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.habits, id)
	delete(m.progress, id)
	return nil
}

func (m *memStore) MarkDone(_ context.Context, habitID int64, day time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.progress[habitID] == nil {
		m.progress[habitID] = make(map[string]bool)
	}
	m.progress[habitID][habit.FormatDate(day)] = true
	return nil
}

func (m *memStore) ListCompletions(_ context.Context, habitID int64, start, end time.Time) ([]habit.CompletionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	from, to := habit.FormatDate(start), habit.FormatDate(end)
	var out []habit.CompletionRecord
	for d, done := range m.progress[habitID] {
		if d < from || d > to {
			continue
		}
		t, _ := habit.ParseDate(d, start.Location())
		out = append(out, habit.CompletionRecord{HabitID: habitID, Date: t, Done: done})
	}
	slices.SortFunc(out, func(a, b habit.CompletionRecord) int { return a.Date.Compare(b.Date) })
	return out, nil
}

func (m *memStore) ListReminders(_ context.Context) ([]habit.Reminder, error) {
	return nil, nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) completions(habitID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.progress[habitID])
}
