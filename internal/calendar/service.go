// Package calendar provides read-only access to calendar providers. Every
// provider speaks in Google Calendar API types so the rest of the program
// only has to understand one event shape.
package calendar

import (
	"context"
	"time"

	"google.golang.org/api/calendar/v3"
)

// Service is the read side of a calendar provider.
// Both the Google Calendar and the CalDAV clients implement this interface.
type Service interface {
	// CalendarList returns every calendar visible to the authorized user.
	CalendarList(ctx context.Context) ([]*calendar.CalendarListEntry, error)
	// Events returns the event instances of one calendar that overlap
	// [timeMin, timeMax), with recurring events expanded and ordered by start.
	Events(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]*calendar.Event, error)
}
