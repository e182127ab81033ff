package agenda

import (
	"sort"
	"time"

	"github.com/beekhof/meetme/internal/datetime"
)

// Day holds the events starting on one local calendar day.
type Day struct {
	Date   time.Time
	Events []Event
}

// CalendarDays is one calendar's share of the agenda.
type CalendarDays struct {
	Name string
	Days []Day
}

// Agenda is the per-calendar, per-day view, in display order.
type Agenda []CalendarDays

// Calendar returns the entry named name.
func (a Agenda) Calendar(name string) (CalendarDays, bool) {
	for _, c := range a {
		if c.Name == name {
			return c, true
		}
	}
	return CalendarDays{}, false
}

// Count is the number of events in the agenda.
func (a Agenda) Count() int {
	n := 0
	for _, c := range a {
		for _, d := range c.Days {
			n += len(d.Events)
		}
	}
	return n
}

// DayList returns local midnight of every day in [begin, end).
func DayList(begin, end time.Time) []time.Time {
	var days []time.Time
	for d := datetime.StartOfDay(begin); d.Before(end); d = datetime.NextDay(d) {
		days = append(days, d)
	}
	return days
}

// PopulateDaysAgenda buckets each calendar's events into the day holding
// their start. Calendars appear in order first; any others follow sorted by
// name. Events starting outside every day are dropped.
func PopulateDaysAgenda(days []time.Time, eventsBySummary map[string][]Event, order ...string) Agenda {
	names := make([]string, 0, len(eventsBySummary))
	seen := make(map[string]bool, len(eventsBySummary))
	for _, name := range order {
		if _, ok := eventsBySummary[name]; ok && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range eventsBySummary {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	names = append(names, rest...)

	agenda := make(Agenda, 0, len(names))
	for _, name := range names {
		cd := CalendarDays{Name: name, Days: make([]Day, len(days))}
		for i, d := range days {
			cd.Days[i].Date = d
		}
		for _, ev := range eventsBySummary[name] {
			if i := dayIndex(days, ev.Start); i >= 0 {
				cd.Days[i].Events = append(cd.Days[i].Events, ev)
			}
		}
		agenda = append(agenda, cd)
	}
	return agenda
}

func dayIndex(days []time.Time, ts time.Time) int {
	i := sort.Search(len(days), func(i int) bool { return days[i].After(ts) }) - 1
	if i < 0 || !ts.Before(datetime.NextDay(days[i])) {
		return -1
	}
	return i
}

// EventsInRange keeps only events whose start time of day lies within w,
// bounds included. Days stay in place even when they end up empty.
func EventsInRange(agenda Agenda, w datetime.TimeWindow) Agenda {
	out := make(Agenda, 0, len(agenda))
	for _, cd := range agenda {
		filtered := CalendarDays{Name: cd.Name, Days: make([]Day, len(cd.Days))}
		for i, d := range cd.Days {
			filtered.Days[i].Date = d.Date
			for _, ev := range d.Events {
				if w.Contains(ev.Start) {
					filtered.Days[i].Events = append(filtered.Days[i].Events, ev)
				}
			}
		}
		out = append(out, filtered)
	}
	return out
}
