// Package metrics holds the bot's prometheus collectors. They register with
// the default registry and are served by the ops HTTP surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ReminderSent    = "sent"
	ReminderSkipped = "skipped"
	ReminderFailed  = "failed"
)

var (
	updatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habitbot_updates_total",
			Help: "Total number of chat updates handled by kind",
		},
		[]string{"kind"},
	)

	commandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habitbot_commands_total",
			Help: "Total number of slash commands by name",
		},
		[]string{"command"},
	)

	habitEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habitbot_habit_events_total",
			Help: "Habit lifecycle events: created, updated, deleted, marked",
		},
		[]string{"event"},
	)

	handlerErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "habitbot_handler_errors_total",
			Help: "Updates that ended in the generic apology message",
		},
	)

	remindersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habitbot_reminders_total",
			Help: "Reminder job outcomes",
		},
		[]string{"result"},
	)

	scheduledReminders = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "habitbot_scheduled_reminders",
			Help: "Number of reminder jobs currently registered",
		},
	)
)

func RecordUpdate(kind string) {
	updatesTotal.WithLabelValues(kind).Inc()
}

func RecordCommand(command string) {
	commandsTotal.WithLabelValues(command).Inc()
}

func RecordHabitEvent(event string) {
	habitEventsTotal.WithLabelValues(event).Inc()
}

func RecordHandlerError() {
	handlerErrorsTotal.Inc()
}

func RecordReminder(result string) {
	remindersTotal.WithLabelValues(result).Inc()
}

func SetScheduledReminders(n int) {
	scheduledReminders.Set(float64(n))
}
