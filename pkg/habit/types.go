package habit

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxNameLength = 200
	MinNameLength = 1
)

type Frequency string

const (
	Daily  Frequency = "daily"
	Weekly Frequency = "weekly"
)

// ParseFrequency accepts the canonical values and the labels shown on the
// frequency keyboard.
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "ежедневно":
		return Daily, nil
	case "weekly", "еженедельно", "еженед":
		return Weekly, nil
	}
	return "", &FormatError{Input: s, Reason: "unknown frequency"}
}

type Habit struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Name      string     `json:"name"`
	Frequency Frequency  `json:"frequency"`
	Schedule  []int      `json:"schedule,omitempty"`
	Reminder  *ClockTime `json:"reminder_time,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type User struct {
	ID       int64  `json:"id"`
	ChatID   int64  `json:"chat_id"`
	Username string `json:"username,omitempty"`
}

type CompletionRecord struct {
	HabitID int64     `json:"habit_id"`
	Date    time.Time `json:"date"`
	Done    bool      `json:"status"`
}

// Reminder is a habit with a reminder time together with the chat that
// should receive it.
type Reminder struct {
	Habit
	ChatID int64 `json:"chat_id"`
}

// New builds a validated habit. A daily habit never carries a schedule.
func New(userID int64, name string, freq Frequency, schedule []int, reminder *ClockTime, createdAt time.Time) (Habit, error) {
	h := Habit{
		UserID:    userID,
		Name:      strings.TrimSpace(name),
		Frequency: freq,
		Schedule:  schedule,
		Reminder:  reminder,
		CreatedAt: createdAt,
	}
	if err := h.Validate(); err != nil {
		return Habit{}, err
	}
	h.Normalize()
	return h, nil
}

func (h Habit) Validate() error {
	n := utf8.RuneCountInString(strings.TrimSpace(h.Name))
	if n < MinNameLength || n > MaxNameLength {
		return &FormatError{Input: h.Name, Reason: fmt.Sprintf("name must be %d-%d characters", MinNameLength, MaxNameLength)}
	}
	if h.Frequency != Daily && h.Frequency != Weekly {
		return &FormatError{Input: string(h.Frequency), Reason: "unknown frequency"}
	}
	if h.Schedule != nil {
		if err := ValidateSchedule(h.Schedule); err != nil {
			return err
		}
	}
	return nil
}

// Normalize trims the name, sorts and dedupes the schedule and drops the
// schedule of daily habits.
func (h *Habit) Normalize() {
	h.Name = strings.TrimSpace(h.Name)
	if h.Frequency == Daily {
		h.Schedule = nil
		return
	}
	if h.Schedule != nil {
		s := slices.Clone(h.Schedule)
		slices.Sort(s)
		h.Schedule = slices.Compact(s)
	}
}

// IsWeekly compares case-insensitively; rows written by older versions may
// carry "Weekly".
func (f Frequency) IsWeekly() bool {
	return strings.EqualFold(string(f), string(Weekly))
}

func (h Habit) IsWeekly() bool {
	return h.Frequency.IsWeekly()
}

// HasSchedule reports whether the habit is weekly with explicit weekdays.
func (h Habit) HasSchedule() bool {
	return h.IsWeekly() && len(h.Schedule) > 0
}

func ValidateSchedule(days []int) error {
	if len(days) == 0 {
		return &FormatError{Input: "[]", Reason: "schedule must contain at least one day"}
	}
	for _, d := range days {
		if d < 0 || d > 6 {
			return &FormatError{Input: fmt.Sprint(d), Reason: "weekday out of range 0..6"}
		}
	}
	return nil
}
