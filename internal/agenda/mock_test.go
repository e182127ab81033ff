package agenda

import (
	"context"
	"time"

	"google.golang.org/api/calendar/v3"
)

// mockCalendarService is a mock implementation of calendar.Service for testing.
type mockCalendarService struct {
	entries  []*calendar.CalendarListEntry
	events   map[string][]*calendar.Event // calendarID -> events
	errs     map[string]error             // calendarID -> error
	listErr  error
	requests []string
}

func newMockCalendarService() *mockCalendarService {
	return &mockCalendarService{
		events: make(map[string][]*calendar.Event),
		errs:   make(map[string]error),
	}
}

func (m *mockCalendarService) addCalendar(id, summary string, primary bool, events ...*calendar.Event) {
	m.entries = append(m.entries, &calendar.CalendarListEntry{Id: id, Summary: summary, Primary: primary})
	m.events[id] = events
}

func (m *mockCalendarService) CalendarList(ctx context.Context) ([]*calendar.CalendarListEntry, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.entries, nil
}

func (m *mockCalendarService) Events(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]*calendar.Event, error) {
	m.requests = append(m.requests, calendarID)
	if err := m.errs[calendarID]; err != nil {
		return nil, err
	}
	return m.events[calendarID], nil
}

func timed(summary, start, end string) *calendar.Event {
	return &calendar.Event{
		Summary: summary,
		Start:   &calendar.EventDateTime{DateTime: start},
		End:     &calendar.EventDateTime{DateTime: end},
	}
}

func allDay(summary, start, end string) *calendar.Event {
	return &calendar.Event{
		Summary: summary,
		Start:   &calendar.EventDateTime{Date: start},
		End:     &calendar.EventDateTime{Date: end},
	}
}

func transparent(ev *calendar.Event) *calendar.Event {
	ev.Transparency = "transparent"
	return ev
}
