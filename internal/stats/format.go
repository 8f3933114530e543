package stats

import (
	"fmt"
	"math"
	"strings"
)

const (
	BarWidth = 10

	NoPercent = "—"
	barFull   = "█"
	barEmpty  = "░"
	barBlank  = " "
)

// Percent renders done/total as a rounded percentage, ties to even.
func Percent(done, total int) string {
	if total <= 0 {
		return NoPercent
	}
	p := math.RoundToEven(float64(done) / float64(total) * 100)
	return fmt.Sprintf("%d%%", int(p))
}

// Bar renders a width-glyph progress bar for done/total.
func Bar(done, total, width int) string {
	width = max(width, 0)
	if total <= 0 {
		return strings.Repeat(barBlank, width)
	}
	filled := int(math.RoundToEven(float64(done) / float64(total) * float64(width)))
	filled = min(max(filled, 0), width)
	return strings.Repeat(barFull, filled) + strings.Repeat(barEmpty, width-filled)
}
