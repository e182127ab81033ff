package datetime

import (
	"errors"
	"fmt"
)

// ErrParse matches every *ParseError via errors.Is.
var ErrParse = errors.New("unrecognized date or time")

// Input kinds reported by ParseError.
const (
	KindDate  = "date"
	KindTime  = "time"
	KindRange = "date range"
)

// ParseError reports user input that matches none of the accepted formats.
// It is user-correctable: show UserMessage and abort the request.
type ParseError struct {
	Kind string
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to interpret %s %q: %v", e.Kind, e.Text, e.Err)
	}
	return fmt.Sprintf("failed to interpret %s %q", e.Kind, e.Text)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// UserMessage names an accepted example format.
func (e *ParseError) UserMessage() string {
	switch e.Kind {
	case KindTime:
		return fmt.Sprintf("Time '%s' didn't match accepted formats 13:30 or 1:30pm", e.Text)
	case KindRange:
		return fmt.Sprintf("Date range '%s' didn't fit expected format 12/31/2001 - 01/07/2002", e.Text)
	default:
		return fmt.Sprintf("Date '%s' didn't fit expected format 12/31/2001", e.Text)
	}
}

// UserMessage returns the user-facing text for err when it is a ParseError.
func UserMessage(err error) (string, bool) {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.UserMessage(), true
	}
	return "", false
}
