package datetime

import (
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time with no date, read in Loc.
type TimeOfDay struct {
	Hour   int
	Minute int
	Loc    *time.Location
}

// NewTimeOfDay returns hour:minute in loc; a nil loc means time.Local.
func NewTimeOfDay(hour, minute int, loc *time.Location) TimeOfDay {
	return TimeOfDay{Hour: hour, Minute: minute, Loc: loc}
}

func (t TimeOfDay) location() *time.Location {
	if t.Loc == nil {
		return time.Local
	}
	return t.Loc
}

// Offset is the wall-clock distance from midnight.
func (t TimeOfDay) Offset() time.Duration {
	return time.Duration(t.Hour)*time.Hour + time.Duration(t.Minute)*time.Minute
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// wallOffset is ts's wall-clock distance from its own midnight in loc.
func wallOffset(ts time.Time, loc *time.Location) time.Duration {
	ts = ts.In(loc)
	return time.Duration(ts.Hour())*time.Hour +
		time.Duration(ts.Minute())*time.Minute +
		time.Duration(ts.Second())*time.Second +
		time.Duration(ts.Nanosecond())
}

// TimeWindow is the daily [Begin, End] slice of interest. Both ends are inclusive.
type TimeWindow struct {
	Begin TimeOfDay
	End   TimeOfDay
}

// Contains reports whether ts's time of day, read in the window's location,
// lies inside the window.
func (w TimeWindow) Contains(ts time.Time) bool {
	off := wallOffset(ts, w.Begin.location())
	return off >= w.Begin.Offset() && off <= w.End.Offset()
}

func (w TimeWindow) String() string {
	return w.Begin.String() + "-" + w.End.String()
}
