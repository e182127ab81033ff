// Package datetime interprets user-entered dates, times and date ranges and
// formats timestamps for display.
package datetime

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/beekhof/meetme/internal/logger"
)

// DateLayout is the only accepted date input format (MM/DD/YYYY).
const DateLayout = "01/02/2006"

// meridiemTime matches 12-hour input such as "9a", "9 am", "1:30pm" or "1:30 P.M.".
var meridiemTime = regexp.MustCompile(`(?i)^(\d{1,2}(?::\d{2})?)\s*([ap])\.?(?:m\.?)?$`)

// InterpretDate parses strict MM/DD/YYYY text as midnight in loc.
func InterpretDate(text string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(text), loc)
	if err != nil {
		logger.Named("datetime").Debug().Str("text", text).Msg("failed to interpret date")
		return time.Time{}, &ParseError{Kind: KindDate, Text: text, Err: err}
	}
	return t, nil
}

// InterpretTime parses a time of day in one of the accepted forms:
// "9am", "9 am", "9a", "1:30pm", "1:30 pm" or 24-hour "13:30".
func InterpretTime(text string, loc *time.Location) (TimeOfDay, error) {
	log := logger.Named("datetime")
	log.Debug().Str("text", text).Msg("decoding time")

	trimmed := strings.TrimSpace(text)
	layout, value := "15:04", trimmed
	if m := meridiemTime.FindStringSubmatch(trimmed); m != nil {
		value = m[1] + strings.ToLower(m[2]) + "m"
		layout = "3pm"
		if strings.Contains(m[1], ":") {
			layout = "3:04pm"
		}
	}

	t, err := time.Parse(layout, value)
	if err != nil {
		log.Debug().Str("text", text).Err(err).Msg("failed to interpret time")
		return TimeOfDay{}, &ParseError{Kind: KindTime, Text: text, Err: err}
	}
	return NewTimeOfDay(t.Hour(), t.Minute(), loc), nil
}

// DateRange is a span of whole local days, Begin inclusive and End exclusive.
type DateRange struct {
	Begin time.Time
	End   time.Time
}

// Contains reports whether Begin <= t < End.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Begin) && t.Before(r.End)
}

// ParseRange parses "MM/DD/YYYY - MM/DD/YYYY". The begin date is the first
// whitespace-separated token and the end date the third.
//
// The raw end date is moved back one minute and rounded up to the following
// day boundary, so "05/01/2024 - 05/03/2024" ends at the start of 05/03. A
// range that would end at or before its beginning covers the begin day.
func ParseRange(text string, loc *time.Location) (DateRange, error) {
	parts := strings.Fields(text)
	if len(parts) < 3 {
		return DateRange{}, &ParseError{Kind: KindRange, Text: text, Err: errors.New("expected two dates")}
	}

	begin, err := InterpretDate(parts[0], loc)
	if err != nil {
		return DateRange{}, err
	}
	rawEnd, err := InterpretDate(parts[2], loc)
	if err != nil {
		return DateRange{}, err
	}

	end := NextDay(rawEnd.Add(-time.Minute))
	if !end.After(begin) {
		end = NextDay(begin)
	}

	logger.Named("datetime").Debug().
		Str("begin_text", parts[0]).Str("end_text", parts[2]).
		Time("begin", begin).Time("end", end).
		Msg("parsed date range")

	return DateRange{Begin: begin, End: end}, nil
}

// DefaultRange is tomorrow through the end of the day one week from now,
// together with its display text.
func DefaultRange(now time.Time, loc *time.Location) (DateRange, string) {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	tomorrow := now.AddDate(0, 0, 1)
	nextWeek := now.AddDate(0, 0, 7)

	r := DateRange{Begin: StartOfDay(tomorrow), End: NextDay(nextWeek)}
	return r, fmt.Sprintf("%s - %s", tomorrow.Format(DateLayout), nextWeek.Format(DateLayout))
}

// StartOfDay is local midnight of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// NextDay is local midnight of the day after t. Safe across DST changes.
func NextDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, t.Location())
}
