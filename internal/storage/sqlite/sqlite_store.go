// Package sqlite implements storage.Store on an embedded SQLite database
// with users, habits and progress tables.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/brk3/habitbot/internal/logger"
	"github.com/brk3/habitbot/internal/storage"
	"github.com/brk3/habitbot/pkg/habit"

	_ "modernc.org/sqlite"
)

const timestampLayout = "2006-01-02 15:04:05"

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

var timeNow = time.Now

type Store struct {
	db  *sql.DB
	loc *time.Location
}

// Open creates the database file and its directory when missing and
// migrates the schema. Dates are interpreted in loc.
func Open(path string, loc *time.Location) (*Store, error) {
	if loc == nil {
		loc = time.Local
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("sqlite: create data dir: %w", err)
		}
	}

	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := openDB("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}
	// one writer at a time; the bot loop and reminder jobs share this handle
	db.SetMaxOpenConns(1)

	s := &Store{db: db, loc: loc}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migration: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT,
			chat_id  INTEGER UNIQUE NOT NULL
		);

		CREATE TABLE IF NOT EXISTS habits (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id       INTEGER NOT NULL,
			name          TEXT    NOT NULL,
			frequency     TEXT    NOT NULL DEFAULT 'daily',
			schedule      TEXT,
			reminder_time TEXT,
			created_at    TEXT    NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS progress (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			habit_id INTEGER NOT NULL,
			date     TEXT    NOT NULL,
			status   INTEGER NOT NULL DEFAULT 1,
			UNIQUE (habit_id, date),
			FOREIGN KEY (habit_id) REFERENCES habits(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_habits_user ON habits(user_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// databases created before reminders existed lack the column
	ok, err := s.hasColumn("habits", "reminder_time")
	if err != nil {
		return err
	}
	if !ok {
		if _, err := s.db.Exec(`ALTER TABLE habits ADD COLUMN reminder_time TEXT`); err != nil {
			return fmt.Errorf("add reminder_time: %w", err)
		}
	}
	return nil
}

func (s *Store) hasColumn(table, column string) (bool, error) {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notnull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// ─── Users ───────────────────────────────────────────────────────────────────

func (s *Store) EnsureUser(ctx context.Context, chatID int64, username string) (habit.User, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (chat_id, username) VALUES (?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			username = COALESCE(NULLIF(excluded.username, ''), users.username)`,
		chatID, username)
	if err != nil {
		return habit.User{}, fmt.Errorf("sqlite: upsert user: %w", err)
	}
	return s.GetUserByChat(ctx, chatID)
}

func (s *Store) GetUserByChat(ctx context.Context, chatID int64) (habit.User, error) {
	var u habit.User
	var username sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT id, chat_id, username FROM users WHERE chat_id = ?`, chatID).
		Scan(&u.ID, &u.ChatID, &username)
	if errors.Is(err, sql.ErrNoRows) {
		return habit.User{}, fmt.Errorf("user with chat %d: %w", chatID, storage.ErrNotFound)
	}
	if err != nil {
		return habit.User{}, fmt.Errorf("sqlite: get user: %w", err)
	}
	u.Username = username.String
	return u, nil
}

// ─── Habits ──────────────────────────────────────────────────────────────────

const habitColumns = `id, user_id, name, frequency, schedule, reminder_time, created_at`

func (s *Store) AddHabit(ctx context.Context, h habit.Habit) (habit.Habit, error) {
	if h.CreatedAt.IsZero() {
		h.CreatedAt = timeNow()
	}
	schedule, reminder, err := encodeOptional(h)
	if err != nil {
		return habit.Habit{}, err
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO habits (user_id, name, frequency, schedule, reminder_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		h.UserID, h.Name, string(h.Frequency), schedule, reminder, h.CreatedAt.UTC().Format(timestampLayout))
	if err != nil {
		return habit.Habit{}, fmt.Errorf("sqlite: insert habit: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return habit.Habit{}, fmt.Errorf("sqlite: habit id: %w", err)
	}
	h.ID = id
	h.CreatedAt = h.CreatedAt.In(s.loc)
	return h, nil
}

func (s *Store) GetHabit(ctx context.Context, id int64) (habit.Habit, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+habitColumns+` FROM habits WHERE id = ?`, id)
	h, err := s.scanHabit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return habit.Habit{}, fmt.Errorf("habit %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return habit.Habit{}, fmt.Errorf("sqlite: get habit: %w", err)
	}
	return h, nil
}

func (s *Store) ListHabits(ctx context.Context, userID int64) ([]habit.Habit, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+habitColumns+` FROM habits WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list habits: %w", err)
	}
	defer rows.Close()

	var out []habit.Habit
	for rows.Next() {
		h, err := s.scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan habit: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) ListDueHabits(ctx context.Context, userID int64, day time.Time) ([]habit.Habit, error) {
	habits, err := s.ListHabits(ctx, userID)
	if err != nil {
		return nil, err
	}
	return storage.FilterDue(habits, day.In(s.loc)), nil
}

func (s *Store) UpdateHabit(ctx context.Context, h habit.Habit) error {
	schedule, reminder, err := encodeOptional(h)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE habits SET name = ?, frequency = ?, schedule = ?, reminder_time = ?
		WHERE id = ?`,
		h.Name, string(h.Frequency), schedule, reminder, h.ID)
	if err != nil {
		return fmt.Errorf("sqlite: update habit: %w", err)
	}
	return requireRow(res, h.ID)
}

func (s *Store) DeleteHabit(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM habits WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete habit: %w", err)
	}
	return requireRow(res, id)
}

// ─── Progress ────────────────────────────────────────────────────────────────

func (s *Store) MarkDone(ctx context.Context, habitID int64, day time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO progress (habit_id, date, status) VALUES (?, ?, 1)
		ON CONFLICT(habit_id, date) DO UPDATE SET status = 1`,
		habitID, habit.FormatDate(day.In(s.loc)))
	if err != nil {
		return fmt.Errorf("sqlite: mark done: %w", err)
	}
	return nil
}

func (s *Store) ListCompletions(ctx context.Context, habitID int64, start, end time.Time) ([]habit.CompletionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT habit_id, date, status FROM progress
		WHERE habit_id = ? AND date BETWEEN ? AND ?
		ORDER BY date`,
		habitID, habit.FormatDate(start.In(s.loc)), habit.FormatDate(end.In(s.loc)))
	if err != nil {
		return nil, fmt.Errorf("sqlite: list progress: %w", err)
	}
	defer rows.Close()

	var out []habit.CompletionRecord
	for rows.Next() {
		var r habit.CompletionRecord
		var date string
		if err := rows.Scan(&r.HabitID, &date, &r.Done); err != nil {
			return nil, fmt.Errorf("sqlite: scan progress: %w", err)
		}
		r.Date, err = habit.ParseDate(date, s.loc)
		if err != nil {
			return nil, fmt.Errorf("sqlite: parse progress date %q: %w", date, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ListReminders(ctx context.Context) ([]habit.Reminder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT h.id, h.user_id, h.name, h.frequency, h.schedule, h.reminder_time, h.created_at, u.chat_id
		FROM habits h JOIN users u ON u.id = h.user_id
		WHERE h.reminder_time IS NOT NULL AND h.reminder_time != ''
		ORDER BY h.id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list reminders: %w", err)
	}
	defer rows.Close()

	var out []habit.Reminder
	for rows.Next() {
		var r habit.Reminder
		var hr habitRow
		if err := rows.Scan(&hr.id, &hr.userID, &hr.name, &hr.frequency, &hr.schedule, &hr.reminder, &hr.createdAt, &r.ChatID); err != nil {
			return nil, fmt.Errorf("sqlite: scan reminder: %w", err)
		}
		r.Habit = s.decode(hr)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

type rowScanner interface {
	Scan(dest ...any) error
}

type habitRow struct {
	id        int64
	userID    int64
	name      string
	frequency string
	schedule  sql.NullString
	reminder  sql.NullString
	createdAt sql.NullString
}

func (s *Store) scanHabit(row rowScanner) (habit.Habit, error) {
	var hr habitRow
	if err := row.Scan(&hr.id, &hr.userID, &hr.name, &hr.frequency, &hr.schedule, &hr.reminder, &hr.createdAt); err != nil {
		return habit.Habit{}, err
	}
	return s.decode(hr), nil
}

// decode tolerates malformed optional columns so one bad row does not hide
// the rest of a user's habits.
func (s *Store) decode(hr habitRow) habit.Habit {
	h := habit.Habit{
		ID:        hr.id,
		UserID:    hr.userID,
		Name:      hr.name,
		Frequency: habit.Frequency(hr.frequency),
	}
	if hr.schedule.Valid && hr.schedule.String != "" {
		var days []int
		if err := json.Unmarshal([]byte(hr.schedule.String), &days); err != nil {
			logger.Warn("Ignoring malformed habit schedule", "habit_id", hr.id, "schedule", hr.schedule.String, "error", err)
		} else if len(days) > 0 {
			h.Schedule = days
		}
	}
	if hr.reminder.Valid && hr.reminder.String != "" {
		c, err := habit.ParseClock(hr.reminder.String)
		if err != nil {
			logger.Warn("Ignoring malformed reminder time", "habit_id", hr.id, "reminder_time", hr.reminder.String, "error", err)
		} else {
			h.Reminder = &c
		}
	}
	if hr.createdAt.Valid {
		h.CreatedAt = parseTimestamp(hr.createdAt.String, s.loc)
	}
	return h
}

// parseTimestamp returns the zero time when the stored value is unreadable,
// which marks the creation date as unknown.
func parseTimestamp(v string, loc *time.Location) time.Time {
	for _, layout := range []string{timestampLayout, time.RFC3339, habit.DateLayout} {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t.In(loc)
		}
	}
	logger.Warn("Unparseable habit created_at", "value", v)
	return time.Time{}
}

func encodeOptional(h habit.Habit) (schedule, reminder sql.NullString, err error) {
	if len(h.Schedule) > 0 {
		b, err := json.Marshal(h.Schedule)
		if err != nil {
			return schedule, reminder, fmt.Errorf("sqlite: encode schedule: %w", err)
		}
		schedule = sql.NullString{String: string(b), Valid: true}
	}
	if h.Reminder != nil {
		reminder = sql.NullString{String: h.Reminder.String(), Valid: true}
	}
	return schedule, reminder, nil
}

func requireRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("habit %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

var _ storage.Store = (*Store)(nil)
