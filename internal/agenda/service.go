package agenda

import (
	"context"
	"fmt"
	"time"

	calclient "github.com/beekhof/meetme/internal/calendar"
	"github.com/beekhof/meetme/internal/catalog"
	"github.com/beekhof/meetme/internal/datetime"
	"github.com/beekhof/meetme/internal/logger"
)

// Request is the read-only input of one agenda computation.
type Request struct {
	Range  datetime.DateRange
	Window datetime.TimeWindow
}

// Service runs the agenda pipeline against a calendar provider.
type Service struct {
	calendars calclient.Service
	loc       *time.Location
	log       *logger.Logger
}

// NewService returns a Service reading from svc and reporting times in loc.
func NewService(svc calclient.Service, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{calendars: svc, loc: loc, log: logger.Named("agenda")}
}

// Calendars returns the user's calendars in display order.
func (s *Service) Calendars(ctx context.Context) ([]catalog.Descriptor, error) {
	entries, err := s.calendars.CalendarList(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}
	return catalog.ListCalendars(entries), nil
}

// Choose builds the agenda of the calendars in ids for req. Calendars keep
// the order of ids.
func (s *Service) Choose(ctx context.Context, req Request, ids []string) (Agenda, error) {
	cals, err := s.Calendars(ctx)
	if err != nil {
		return nil, err
	}
	summaries := catalog.Summaries(ids, cals)

	events, err := NewNormalizer(s.calendars, s.loc).GetEvents(ctx, ids, summaries, req.Range)
	if err != nil {
		return nil, err
	}

	order := make([]string, 0, len(ids))
	for _, id := range ids {
		order = append(order, summaries[id])
	}

	agenda := PopulateDaysAgenda(DayList(req.Range.Begin, req.Range.End), events, order...)
	agenda = EventsInRange(agenda, req.Window)

	s.log.Debug().
		Int("calendars", len(agenda)).
		Int("events", agenda.Count()).
		Str("window", req.Window.String()).
		Msg("agenda built")
	return agenda, nil
}
