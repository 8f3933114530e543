// Package weekday parses free-form weekday lists such as "пн, ср, пт" or
// "0,2,4" into sorted weekday indexes (Monday=0 .. Sunday=6).
package weekday

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/brk3/habitbot/pkg/habit"
)

var separators = regexp.MustCompile(`[,\s;]+`)

// Short holds the display abbreviation for each weekday index.
var Short = [7]string{"пн", "вт", "ср", "чт", "пт", "сб", "вс"}

var names = map[string]int{
	"пн": 0, "пон": 0, "понедельник": 0,
	"вт": 1, "втор": 1, "вторник": 1,
	"ср": 2, "сред": 2, "среда": 2,
	"чт": 3, "чет": 3, "четверг": 3,
	"пт": 4, "пят": 4, "пятница": 4,
	"сб": 5, "суб": 5, "суббота": 5,
	"вс": 6, "воск": 6, "воскресенье": 6,

	"mon": 0, "monday": 0,
	"tue": 1, "tues": 1, "tuesday": 1,
	"wed": 2, "wednesday": 2,
	"thu": 3, "thur": 3, "thurs": 3, "thursday": 3,
	"fri": 4, "friday": 4,
	"sat": 5, "saturday": 5,
	"sun": 6, "sunday": 6,
}

// Parse returns the sorted, deduplicated weekdays named in text.
//
// Numbers 0..6 are taken as Monday..Sunday. Numbers from the 1..7 scheme
// are only remapped when unambiguous, so 7 is Sunday while 1..6 keep their
// 0-based meaning. Any token that cannot be read fails the whole input with
// a *habit.FormatError naming that token.
func Parse(text string) ([]int, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return nil, &habit.FormatError{Reason: "empty input"}
	}

	seen := make(map[int]struct{}, 7)
	for _, p := range separators.Split(text, -1) {
		if p == "" {
			continue
		}
		if isDigits(p) {
			n, err := strconv.Atoi(p)
			switch {
			case err == nil && n >= 0 && n <= 6:
				seen[n] = struct{}{}
			case err == nil && n == 7:
				seen[n-1] = struct{}{}
			default:
				return nil, &habit.FormatError{Input: p, Reason: "number out of range 0..6"}
			}
			continue
		}
		d, ok := names[strings.TrimRight(p, ".")]
		if !ok {
			return nil, &habit.FormatError{Input: p, Reason: "unknown day"}
		}
		seen[d] = struct{}{}
	}
	if len(seen) == 0 {
		return nil, &habit.FormatError{Input: text, Reason: "no parseable days"}
	}

	out := make([]int, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	slices.Sort(out)
	return out, nil
}

// Format renders weekdays as "пн, ср, пт".
func Format(days []int) string {
	parts := make([]string, 0, len(days))
	for _, d := range days {
		if d >= 0 && d < len(Short) {
			parts = append(parts, Short[d])
		}
	}
	return strings.Join(parts, ", ")
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
