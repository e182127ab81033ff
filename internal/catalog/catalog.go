// Package catalog turns the provider's calendar list into a stable, ordered
// list of calendar descriptors.
package catalog

import (
	"cmp"
	"slices"

	"google.golang.org/api/calendar/v3"

	"github.com/beekhof/meetme/internal/logger"
)

// NoDescription stands in for a missing calendar description.
const NoDescription = "(no description)"

// Descriptor is a normalized calendar list entry.
//
// Description defaults to NoDescription; Selected and Primary default to
// false when the provider omits them.
type Descriptor struct {
	ID          string
	Summary     string
	Kind        string
	Description string
	Selected    bool
	Primary     bool
}

// ListCalendars normalizes entries and sorts them: primary calendars first,
// then selected ones, then by summary. The ID breaks remaining ties so the
// result does not depend on the order the provider returned.
func ListCalendars(entries []*calendar.CalendarListEntry) []Descriptor {
	logger.Named("catalog").Debug().Int("count", len(entries)).Msg("entering list calendars")

	result := make([]Descriptor, 0, len(entries))
	for _, e := range entries {
		if e == nil {
			continue
		}
		desc := e.Description
		if desc == "" {
			desc = NoDescription
		}
		result = append(result, Descriptor{
			ID:          e.Id,
			Summary:     e.Summary,
			Kind:        e.Kind,
			Description: desc,
			Selected:    e.Selected,
			Primary:     e.Primary,
		})
	}

	slices.SortStableFunc(result, compare)
	return result
}

func compare(a, b Descriptor) int {
	if c := firstIfTrue(a.Primary, b.Primary); c != 0 {
		return c
	}
	if c := firstIfTrue(a.Selected, b.Selected); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Summary, b.Summary); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// firstIfTrue orders true before false.
func firstIfTrue(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return -1
	default:
		return 1
	}
}

// Summaries maps each requested calendar ID to its display name. An ID that
// is not in calendars maps to itself.
func Summaries(ids []string, calendars []Descriptor) map[string]string {
	byID := make(map[string]string, len(calendars))
	for _, c := range calendars {
		byID[c.ID] = c.Summary
	}

	out := make(map[string]string, len(ids))
	for _, id := range ids {
		name, ok := byID[id]
		if !ok || name == "" {
			logger.Named("catalog").Warn().Str("calendar_id", id).Msg("calendar not in catalog, using its id as name")
			name = id
		}
		out[id] = name
	}
	return out
}
