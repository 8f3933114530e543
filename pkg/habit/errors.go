package habit

import (
	"errors"
	"fmt"
)

// ErrForbidden is returned when a user acts on a habit they do not own.
var ErrForbidden = errors.New("habit belongs to another user")

// FormatError reports user-supplied text that could not be understood.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Input == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %q", e.Reason, e.Input)
}

// Authorize returns ErrForbidden unless u owns h.
func Authorize(u User, h Habit) error {
	if h.UserID != u.ID {
		return fmt.Errorf("habit %d: %w", h.ID, ErrForbidden)
	}
	return nil
}
