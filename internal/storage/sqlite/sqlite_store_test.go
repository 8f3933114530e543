package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/brk3/habitbot/internal/storage"
	"github.com/brk3/habitbot/internal/storage/storagetest"
	"github.com/brk3/habitbot/pkg/habit"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "habits.db"), time.UTC)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store { return newTestStore(t) })
}

func TestOpen_OpenError(t *testing.T) {
	orig := openDB
	t.Cleanup(func() { openDB = orig })
	openDB = func(driver, dsn string) (*sql.DB, error) {
		return nil, errors.New("driver unavailable")
	}
	if _, err := Open(filepath.Join(t.TempDir(), "x.db"), time.UTC); err == nil {
		t.Fatal("expected error")
	}
}

func TestMigrate_AddsReminderColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	_, err = db.Exec(`
		CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT, username TEXT, chat_id INTEGER UNIQUE NOT NULL);
		CREATE TABLE habits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			frequency TEXT NOT NULL DEFAULT 'daily',
			schedule TEXT,
			created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		INSERT INTO users (chat_id) VALUES (5);
		INSERT INTO habits (user_id, name, frequency, schedule, created_at) VALUES (1, 'old', 'weekly', '[0, 2, 4]', '2024-01-03 08:00:00');`)
	if err != nil {
		t.Fatalf("seed legacy schema: %v", err)
	}
	db.Close()

	s, err := Open(path, time.UTC)
	if err != nil {
		t.Fatalf("Open legacy: %v", err)
	}
	defer s.Close()

	h, err := s.GetHabit(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetHabit: %v", err)
	}
	if len(h.Schedule) != 3 || h.Reminder != nil || habit.FormatDate(h.CreatedAt) != "2024-01-03" {
		t.Fatalf("legacy habit = %+v", h)
	}
}

func TestDecode_ToleratesBadColumns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u, err := s.EnsureUser(ctx, 1, "")
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.db.Exec(`INSERT INTO habits (user_id, name, frequency, schedule, reminder_time, created_at)
		VALUES (?, 'broken', 'weekly', 'not json', '99:99', 'someday')`, u.ID)
	if err != nil {
		t.Fatal(err)
	}

	hs, err := s.ListHabits(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListHabits: %v", err)
	}
	if len(hs) != 1 {
		t.Fatalf("habits = %+v", hs)
	}
	h := hs[0]
	if h.Schedule != nil || h.Reminder != nil || !h.CreatedAt.IsZero() {
		t.Fatalf("broken columns decoded as %+v", h)
	}
}

func TestAddHabit_DefaultsCreatedAt(t *testing.T) {
	s := newTestStore(t)
	fixed := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	orig := timeNow
	t.Cleanup(func() { timeNow = orig })
	timeNow = func() time.Time { return fixed }

	u, _ := s.EnsureUser(context.Background(), 1, "")
	h, err := s.AddHabit(context.Background(), habit.Habit{UserID: u.ID, Name: "Read", Frequency: habit.Daily})
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.GetHabit(context.Background(), h.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.CreatedAt.Equal(fixed) {
		t.Fatalf("created_at = %s, want %s", got.CreatedAt, fixed)
	}
}
