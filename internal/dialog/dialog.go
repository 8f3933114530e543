// Package dialog tracks multi-step conversations per chat. A chat has at
// most one pending dialog; starting another replaces it.
package dialog

import (
	"sync"

	"github.com/brk3/habitbot/pkg/habit"
)

// State is one of AddHabit or EditHabit.
type State interface {
	dialogState()
}

type AddStep int

const (
	AddName AddStep = iota
	AddFrequency
	AddSchedule
	AddReminder
)

type AddHabit struct {
	Step      AddStep
	Name      string
	Frequency habit.Frequency
	Schedule  []int
}

type EditStep int

const (
	EditName EditStep = iota
	EditFrequency
	EditSchedule
	EditReminder
)

// EditHabit carries the pending values. They start as the habit's current
// values and are written back only after the last step.
type EditHabit struct {
	Step      EditStep
	HabitID   int64
	Name      string
	Frequency habit.Frequency
	Schedule  []int
	Reminder  *habit.ClockTime
}

func (*AddHabit) dialogState()  {}
func (*EditHabit) dialogState() {}

// NewEdit seeds an edit dialog from h.
func NewEdit(h habit.Habit) *EditHabit {
	e := &EditHabit{
		Step:      EditName,
		HabitID:   h.ID,
		Name:      h.Name,
		Frequency: h.Frequency,
		Schedule:  append([]int(nil), h.Schedule...),
	}
	if h.Reminder != nil {
		r := *h.Reminder
		e.Reminder = &r
	}
	return e
}

// Apply copies the pending values onto h.
func (e *EditHabit) Apply(h habit.Habit) habit.Habit {
	h.Name = e.Name
	h.Frequency = e.Frequency
	h.Schedule = e.Schedule
	h.Reminder = e.Reminder
	return h
}

type Registry struct {
	mu     sync.Mutex
	states map[int64]State
}

func NewRegistry() *Registry {
	return &Registry{states: make(map[int64]State)}
}

func (r *Registry) Get(chatID int64) (State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.states[chatID]
	return s, ok
}

func (r *Registry) Set(chatID int64, s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[chatID] = s
}

// Clear drops the chat's dialog and reports whether one was pending.
func (r *Registry) Clear(chatID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.states[chatID]
	delete(r.states, chatID)
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}
