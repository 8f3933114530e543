// Package storagetest holds the behavioral suite every storage.Store
// backend must pass.
package storagetest

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/brk3/habitbot/internal/storage"
	"github.com/brk3/habitbot/pkg/habit"
)

// Factory opens a fresh, empty store. Dates are interpreted in UTC.
type Factory func(t *testing.T) storage.Store

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func Run(t *testing.T, open Factory) {
	tests := map[string]func(t *testing.T, s storage.Store){
		"EnsureUser":               testEnsureUser,
		"GetUserByChat_NotFound":   testGetUserNotFound,
		"AddHabit_RoundTrip":       testAddHabitRoundTrip,
		"ListHabits_UserIsolation": testListHabitsIsolation,
		"ListDueHabits":            testListDueHabits,
		"UpdateHabit":              testUpdateHabit,
		"DeleteHabit_Cascades":     testDeleteHabitCascades,
		"MarkDone_Idempotent":      testMarkDoneIdempotent,
		"ListCompletions_Range":    testListCompletionsRange,
		"ListReminders":            testListReminders,
	}
	names := make([]string, 0, len(tests))
	for name := range tests {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			tests[name](t, s)
		})
	}
}

func mustUser(t *testing.T, s storage.Store, chatID int64) habit.User {
	t.Helper()
	u, err := s.EnsureUser(context.Background(), chatID, "")
	if err != nil {
		t.Fatalf("EnsureUser(%d): %v", chatID, err)
	}
	return u
}

func mustHabit(t *testing.T, s storage.Store, h habit.Habit) habit.Habit {
	t.Helper()
	out, err := s.AddHabit(context.Background(), h)
	if err != nil {
		t.Fatalf("AddHabit(%q): %v", h.Name, err)
	}
	if out.ID == 0 {
		t.Fatalf("AddHabit(%q) returned zero id", h.Name)
	}
	return out
}

func testEnsureUser(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u1, err := s.EnsureUser(ctx, 100, "alice")
	if err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
	if u1.ID == 0 || u1.ChatID != 100 || u1.Username != "alice" {
		t.Fatalf("unexpected user %+v", u1)
	}

	u2, err := s.EnsureUser(ctx, 100, "")
	if err != nil {
		t.Fatalf("EnsureUser again: %v", err)
	}
	if u2.ID != u1.ID || u2.Username != "alice" {
		t.Fatalf("second EnsureUser = %+v, want same id and kept username", u2)
	}

	u3, err := s.EnsureUser(ctx, 100, "alice2")
	if err != nil {
		t.Fatalf("EnsureUser rename: %v", err)
	}
	if u3.ID != u1.ID || u3.Username != "alice2" {
		t.Fatalf("rename = %+v", u3)
	}

	other := mustUser(t, s, 200)
	if other.ID == u1.ID {
		t.Fatal("distinct chats share a user id")
	}

	got, err := s.GetUserByChat(ctx, 100)
	if err != nil || got != u3 {
		t.Fatalf("GetUserByChat = %+v, %v; want %+v", got, err, u3)
	}
}

func testGetUserNotFound(t *testing.T, s storage.Store) {
	_, err := s.GetUserByChat(context.Background(), 42)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func testAddHabitRoundTrip(t *testing.T, s storage.Store) {
	u := mustUser(t, s, 1)
	created := time.Date(2024, 1, 3, 10, 30, 0, 0, time.UTC)
	h := mustHabit(t, s, habit.Habit{
		UserID:    u.ID,
		Name:      "Gym",
		Frequency: habit.Weekly,
		Schedule:  []int{0, 2, 4},
		Reminder:  &habit.ClockTime{Hour: 8, Minute: 5},
		CreatedAt: created,
	})

	got, err := s.GetHabit(context.Background(), h.ID)
	if err != nil {
		t.Fatalf("GetHabit: %v", err)
	}
	if got.Name != "Gym" || got.Frequency != habit.Weekly || got.UserID != u.ID {
		t.Errorf("GetHabit = %+v", got)
	}
	if !slices.Equal(got.Schedule, []int{0, 2, 4}) {
		t.Errorf("schedule = %v", got.Schedule)
	}
	if got.Reminder == nil || got.Reminder.String() != "08:05" {
		t.Errorf("reminder = %v", got.Reminder)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("created_at = %s, want %s", got.CreatedAt, created)
	}

	if _, err := s.GetHabit(context.Background(), h.ID+100); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("missing habit err = %v, want ErrNotFound", err)
	}
}

func testListHabitsIsolation(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice, bob := mustUser(t, s, 1), mustUser(t, s, 2)
	mustHabit(t, s, habit.Habit{UserID: alice.ID, Name: "guitar", Frequency: habit.Daily})
	mustHabit(t, s, habit.Habit{UserID: alice.ID, Name: "coding", Frequency: habit.Daily})
	mustHabit(t, s, habit.Habit{UserID: bob.ID, Name: "running", Frequency: habit.Daily})

	got, err := s.ListHabits(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListHabits: %v", err)
	}
	if len(got) != 2 || got[0].Name != "guitar" || got[1].Name != "coding" {
		t.Fatalf("alice habits = %+v", got)
	}

	got, err = s.ListHabits(ctx, 999)
	if err != nil || len(got) != 0 {
		t.Fatalf("unknown user habits = %+v, %v", got, err)
	}
}

func testListDueHabits(t *testing.T, s storage.Store) {
	u := mustUser(t, s, 1)
	wed := day(2024, 1, 3)
	mustHabit(t, s, habit.Habit{UserID: u.ID, Name: "daily", Frequency: habit.Daily, CreatedAt: wed})
	mustHabit(t, s, habit.Habit{UserID: u.ID, Name: "monfri", Frequency: habit.Weekly, Schedule: []int{0, 4}, CreatedAt: wed})
	mustHabit(t, s, habit.Habit{UserID: u.ID, Name: "wednesdays", Frequency: habit.Weekly, CreatedAt: wed})

	names := func(day time.Time) []string {
		hs, err := s.ListDueHabits(context.Background(), u.ID, day)
		if err != nil {
			t.Fatalf("ListDueHabits: %v", err)
		}
		var out []string
		for _, h := range hs {
			out = append(out, h.Name)
		}
		return out
	}

	if got := names(day(2024, 1, 8)); !slices.Equal(got, []string{"daily", "monfri"}) {
		t.Errorf("monday = %v", got)
	}
	if got := names(day(2024, 1, 10)); !slices.Equal(got, []string{"daily", "wednesdays"}) {
		t.Errorf("wednesday = %v", got)
	}
}

func testUpdateHabit(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := mustUser(t, s, 1)
	h := mustHabit(t, s, habit.Habit{UserID: u.ID, Name: "Read", Frequency: habit.Daily, Reminder: &habit.ClockTime{Hour: 9}})

	h.Name = "Read more"
	h.Frequency = habit.Weekly
	h.Schedule = []int{5, 6}
	h.Reminder = nil
	if err := s.UpdateHabit(ctx, h); err != nil {
		t.Fatalf("UpdateHabit: %v", err)
	}
	got, err := s.GetHabit(ctx, h.ID)
	if err != nil {
		t.Fatalf("GetHabit: %v", err)
	}
	if got.Name != "Read more" || got.Frequency != habit.Weekly || !slices.Equal(got.Schedule, []int{5, 6}) || got.Reminder != nil {
		t.Fatalf("updated habit = %+v", got)
	}

	h.ID += 100
	if err := s.UpdateHabit(ctx, h); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("update missing err = %v, want ErrNotFound", err)
	}
}

func testDeleteHabitCascades(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := mustUser(t, s, 1)
	h := mustHabit(t, s, habit.Habit{UserID: u.ID, Name: "Read", Frequency: habit.Daily})
	keep := mustHabit(t, s, habit.Habit{UserID: u.ID, Name: "Write", Frequency: habit.Daily})
	for _, id := range []int64{h.ID, keep.ID} {
		if err := s.MarkDone(ctx, id, day(2024, 1, 1)); err != nil {
			t.Fatalf("MarkDone: %v", err)
		}
	}

	if err := s.DeleteHabit(ctx, h.ID); err != nil {
		t.Fatalf("DeleteHabit: %v", err)
	}
	if _, err := s.GetHabit(ctx, h.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("deleted habit err = %v", err)
	}
	recs, err := s.ListCompletions(ctx, h.ID, day(2024, 1, 1), day(2024, 1, 31))
	if err != nil || len(recs) != 0 {
		t.Fatalf("completions after delete = %+v, %v", recs, err)
	}
	recs, err = s.ListCompletions(ctx, keep.ID, day(2024, 1, 1), day(2024, 1, 31))
	if err != nil || len(recs) != 1 {
		t.Fatalf("other habit completions = %+v, %v", recs, err)
	}

	if err := s.DeleteHabit(ctx, h.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
}

func testMarkDoneIdempotent(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := mustUser(t, s, 1)
	h := mustHabit(t, s, habit.Habit{UserID: u.ID, Name: "Read", Frequency: habit.Daily})
	d := day(2024, 1, 5)
	for i := 0; i < 2; i++ {
		if err := s.MarkDone(ctx, h.ID, d); err != nil {
			t.Fatalf("MarkDone #%d: %v", i+1, err)
		}
	}
	recs, err := s.ListCompletions(ctx, h.ID, d, d)
	if err != nil {
		t.Fatalf("ListCompletions: %v", err)
	}
	if len(recs) != 1 || !recs[0].Done || habit.FormatDate(recs[0].Date) != "2024-01-05" {
		t.Fatalf("records = %+v, want exactly one done record", recs)
	}
}

func testListCompletionsRange(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := mustUser(t, s, 1)
	h := mustHabit(t, s, habit.Habit{UserID: u.ID, Name: "Read", Frequency: habit.Daily})
	for _, d := range []time.Time{day(2024, 1, 10), day(2024, 1, 1), day(2024, 1, 7), day(2023, 12, 31), day(2024, 1, 8)} {
		if err := s.MarkDone(ctx, h.ID, d); err != nil {
			t.Fatalf("MarkDone: %v", err)
		}
	}
	recs, err := s.ListCompletions(ctx, h.ID, day(2024, 1, 1), day(2024, 1, 8))
	if err != nil {
		t.Fatalf("ListCompletions: %v", err)
	}
	var got []string
	for _, r := range recs {
		got = append(got, habit.FormatDate(r.Date))
	}
	want := []string{"2024-01-01", "2024-01-07", "2024-01-08"}
	if !slices.Equal(got, want) {
		t.Fatalf("dates = %v, want %v", got, want)
	}
}

func testListReminders(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice, bob := mustUser(t, s, 111), mustUser(t, s, 222)
	mustHabit(t, s, habit.Habit{UserID: alice.ID, Name: "Read", Frequency: habit.Daily, Reminder: &habit.ClockTime{Hour: 8, Minute: 30}})
	mustHabit(t, s, habit.Habit{UserID: alice.ID, Name: "Quiet", Frequency: habit.Daily})
	mustHabit(t, s, habit.Habit{UserID: bob.ID, Name: "Gym", Frequency: habit.Weekly, Schedule: []int{1}, Reminder: &habit.ClockTime{Hour: 19}})

	rs, err := s.ListReminders(ctx)
	if err != nil {
		t.Fatalf("ListReminders: %v", err)
	}
	if len(rs) != 2 {
		t.Fatalf("reminders = %+v, want 2", rs)
	}
	if rs[0].Name != "Read" || rs[0].ChatID != 111 || rs[0].Reminder.String() != "08:30" {
		t.Errorf("first reminder = %+v", rs[0])
	}
	if rs[1].Name != "Gym" || rs[1].ChatID != 222 {
		t.Errorf("second reminder = %+v", rs[1])
	}
}
