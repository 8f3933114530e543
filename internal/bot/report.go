package bot

import (
	"fmt"
	"strings"

	"github.com/brk3/habitbot/internal/stats"
)

// renderReport formats a week or month report: per habit the count, percent
// and bar, then one mark per day of the range.
func renderReport(header string, r stats.Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, header, r.Start, r.End)
	for i, p := range r.Habits {
		bar := ""
		if p.Expected > 0 {
			bar = p.Bar
		}
		days := make([]string, len(p.Days))
		for j, d := range p.Days {
			days[j] = markDayEmpty
			if d.Done {
				days[j] = markDayDone
			}
		}
		fmt.Fprintf(&sb, "\n%d. %s\n   %d/%d %s %s\n   %s\n", i+1, p.Habit.Name, p.Done, p.Expected, p.Percent, bar, strings.Join(days, " "))
	}
	return sb.String()
}
