package agenda

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/beekhof/meetme/internal/datetime"
	"github.com/beekhof/meetme/internal/logger"
)

// ErrMissingTime is returned by Normalize for events without a usable
// start or end.
var ErrMissingTime = errors.New("event has no usable start or end")

// EventLister fetches the expanded, start-ordered event instances of one
// calendar.
type EventLister interface {
	Events(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]*calendar.Event, error)
}

// Normalizer fetches raw events and reduces them to agenda events.
type Normalizer struct {
	lister EventLister
	loc    *time.Location
	log    *logger.Logger
}

// NewNormalizer returns a Normalizer that reports times in loc.
func NewNormalizer(lister EventLister, loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.Local
	}
	return &Normalizer{lister: lister, loc: loc, log: logger.Named("agenda")}
}

// GetEvents fetches the events of each calendar in ids, in order, and
// groups them by the display name found in summaries. Calendars sharing a
// display name are merged under it. Each name's events are ordered by start,
// split pieces included. The first fetch error aborts the call.
func (n *Normalizer) GetEvents(ctx context.Context, ids []string, summaries map[string]string, rng datetime.DateRange) (map[string][]Event, error) {
	n.log.Debug().Strs("calendars", ids).Msg("entering get events")

	out := make(map[string][]Event, len(ids))
	for _, id := range ids {
		raw, err := n.lister.Events(ctx, id, rng.Begin, rng.End)
		if err != nil {
			return nil, fmt.Errorf("failed to get events of calendar %s: %w", id, err)
		}

		name := summaries[id]
		if name == "" {
			name = id
		}
		events := append(out[name], n.normalizeAll(id, raw)...)
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].Start.Before(events[j].Start)
		})
		out[name] = events
	}
	return out, nil
}

func (n *Normalizer) normalizeAll(calendarID string, raw []*calendar.Event) []Event {
	events := make([]Event, 0, len(raw))
	for _, item := range raw {
		if item == nil || IsTransparent(item) {
			continue
		}
		ev, err := Normalize(item, n.loc)
		if err != nil {
			n.log.Warn().Err(err).Str("calendar_id", calendarID).Str("event_id", item.Id).Msg("skipping event")
			continue
		}
		events = append(events, Split(ev)...)
	}
	return events
}

// IsTransparent reports whether raw carries a transparency marker. Any
// value counts, matching how the provider omits the field for busy events.
func IsTransparent(raw *calendar.Event) bool {
	return raw.Transparency != ""
}

// Normalize converts a provider event into an Event in loc. All-day events
// start and end at local midnight; timed events keep their instant.
func Normalize(raw *calendar.Event, loc *time.Location) (Event, error) {
	if loc == nil {
		loc = time.Local
	}
	if raw.Start == nil || raw.End == nil {
		return Event{}, ErrMissingTime
	}

	start, allDay, err := eventTime(raw.Start, loc)
	if err != nil {
		return Event{}, fmt.Errorf("bad start: %w", err)
	}
	end, _, err := eventTime(raw.End, loc)
	if err != nil {
		return Event{}, fmt.Errorf("bad end: %w", err)
	}
	if end.Before(start) {
		return Event{}, fmt.Errorf("end %s before start %s: %w", end.Format(time.RFC3339), start.Format(time.RFC3339), ErrMissingTime)
	}

	label := raw.Summary
	if label == "" {
		label = NoTitle
	}
	return Event{Start: start, End: end, Kind: KindEvent, Label: label, AllDay: allDay}, nil
}

func eventTime(dt *calendar.EventDateTime, loc *time.Location) (time.Time, bool, error) {
	switch {
	case dt.DateTime != "":
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		if err != nil {
			return time.Time{}, false, err
		}
		return t.In(loc), false, nil
	case dt.Date != "":
		t, err := time.ParseInLocation("2006-01-02", dt.Date, loc)
		if err != nil {
			return time.Time{}, true, err
		}
		return t, true, nil
	default:
		return time.Time{}, false, ErrMissingTime
	}
}
