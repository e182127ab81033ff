// Package agenda turns raw provider events into a per-calendar, per-day
// agenda restricted to a date range and a daily time window.
package agenda

import "time"

// Kind classifies an agenda entry.
type Kind string

// KindEvent is the only kind produced today.
const KindEvent Kind = "event"

// NoTitle labels events that have no summary.
const NoTitle = "no title"

// Event is a normalized event occupying at most one local day.
type Event struct {
	Start  time.Time
	End    time.Time
	Kind   Kind
	Label  string
	AllDay bool
}

// Duration is End minus Start.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}
