package habit

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNew_Valid(t *testing.T) {
	created := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)
	h, err := New(1, "  Read  ", Weekly, []int{4, 0, 2, 2}, nil, created)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if h.Name != "Read" {
		t.Errorf("name = %q, want Read", h.Name)
	}
	want := []int{0, 2, 4}
	if len(h.Schedule) != len(want) {
		t.Fatalf("schedule = %v, want %v", h.Schedule, want)
	}
	for i := range want {
		if h.Schedule[i] != want[i] {
			t.Fatalf("schedule = %v, want %v", h.Schedule, want)
		}
	}
}

func TestNew_DailyDropsSchedule(t *testing.T) {
	h, err := New(1, "Read", Daily, []int{1}, nil, time.Now())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if h.Schedule != nil {
		t.Fatalf("daily habit kept schedule %v", h.Schedule)
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		habit    string
		freq     Frequency
		schedule []int
	}{
		{"empty name", "   ", Daily, nil},
		{"name too long", strings.Repeat("я", MaxNameLength+1), Daily, nil},
		{"unknown frequency", "Read", Frequency("monthly"), nil},
		{"empty schedule", "Read", Weekly, []int{}},
		{"weekday out of range", "Read", Weekly, []int{7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(1, tt.habit, tt.freq, tt.schedule, nil, time.Now())
			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("err = %v, want *FormatError", err)
			}
		})
	}
}

func TestNew_MaxLengthCountsRunes(t *testing.T) {
	if _, err := New(1, strings.Repeat("я", MaxNameLength), Daily, nil, nil, time.Now()); err != nil {
		t.Fatalf("200 cyrillic runes rejected: %v", err)
	}
}

func TestParseFrequency(t *testing.T) {
	tests := map[string]Frequency{
		"daily":       Daily,
		"Ежедневно":   Daily,
		"WEEKLY":      Weekly,
		"еженедельно": Weekly,
		" еженед ":    Weekly,
	}
	for in, want := range tests {
		got, err := ParseFrequency(in)
		if err != nil || got != want {
			t.Errorf("ParseFrequency(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFrequency("hourly"); err == nil {
		t.Error("expected error for hourly")
	}
}

func TestParseClock(t *testing.T) {
	good := map[string]string{"08:30": "08:30", "8:05": "08:05", "23:59": "23:59", "00:00": "00:00"}
	for in, want := range good {
		c, err := ParseClock(in)
		if err != nil {
			t.Errorf("ParseClock(%q): %v", in, err)
			continue
		}
		if c.String() != want {
			t.Errorf("ParseClock(%q) = %s, want %s", in, c, want)
		}
	}
	for _, in := range []string{"", "24:00", "12:60", "99:99", "8.30", "08:30:00", "ab:cd"} {
		if _, err := ParseClock(in); err == nil {
			t.Errorf("ParseClock(%q) succeeded, want error", in)
		}
	}
}

func TestWeekdayIndex(t *testing.T) {
	mon := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		if got := WeekdayIndex(mon.AddDate(0, 0, i)); got != i {
			t.Errorf("WeekdayIndex(%s) = %d, want %d", mon.AddDate(0, 0, i).Weekday(), got, i)
		}
	}
}

func TestParseDate_StripsTime(t *testing.T) {
	for _, in := range []string{"2024-01-03", "2024-01-03 12:34:56", "2024-01-03T12:34:56Z"} {
		d, err := ParseDate(in, time.UTC)
		if err != nil {
			t.Fatalf("ParseDate(%q): %v", in, err)
		}
		if FormatDate(d) != "2024-01-03" {
			t.Errorf("ParseDate(%q) = %s", in, FormatDate(d))
		}
	}
	if _, err := ParseDate("yesterday", time.UTC); err == nil {
		t.Error("expected error")
	}
}

func TestDueOn(t *testing.T) {
	wed := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)
	thu := wed.AddDate(0, 0, 1)

	tests := []struct {
		name string
		h    Habit
		day  time.Time
		want bool
	}{
		{"daily", Habit{Frequency: Daily}, thu, true},
		{"weekly scheduled hit", Habit{Frequency: Weekly, Schedule: []int{2}}, wed, true},
		{"weekly scheduled miss", Habit{Frequency: Weekly, Schedule: []int{2}}, thu, false},
		// regression: unscheduled weekly habits follow their creation weekday
		{"weekly unscheduled creation weekday", Habit{Frequency: Weekly, CreatedAt: wed}, wed.AddDate(0, 0, 7), true},
		{"weekly unscheduled other weekday", Habit{Frequency: Weekly, CreatedAt: wed}, thu, false},
		{"weekly unscheduled unknown creation", Habit{Frequency: Weekly}, thu, true},
		{"unknown frequency", Habit{Frequency: "monthly"}, thu, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DueOn(tt.h, tt.day); got != tt.want {
				t.Errorf("DueOn = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAuthorize(t *testing.T) {
	u := User{ID: 1}
	if err := Authorize(u, Habit{ID: 5, UserID: 1}); err != nil {
		t.Fatalf("owner rejected: %v", err)
	}
	if err := Authorize(u, Habit{ID: 5, UserID: 2}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestIsWeekly(t *testing.T) {
	for f, want := range map[Frequency]bool{
		Weekly:    true,
		"Weekly":  true,
		"WEEKLY":  true,
		Daily:     false,
		"":        false,
		"monthly": false,
	} {
		if got := f.IsWeekly(); got != want {
			t.Errorf("Frequency(%q).IsWeekly() = %v, want %v", f, got, want)
		}
		if got := (Habit{Frequency: f, Schedule: []int{1}}).HasSchedule(); got != want {
			t.Errorf("HasSchedule with %q = %v, want %v", f, got, want)
		}
	}
}
