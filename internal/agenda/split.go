package agenda

import "github.com/beekhof/meetme/internal/datetime"

// Split cuts ev at each local midnight it crosses. The pieces are
// contiguous, share ev's label and kind, and together cover exactly
// [ev.Start, ev.End). An event ending at midnight yields no empty trailing
// piece; a zero-length (or inverted) event is returned unchanged.
func Split(ev Event) []Event {
	if ev.Duration() <= 0 {
		return []Event{ev}
	}

	var pieces []Event
	for start := ev.Start; start.Before(ev.End); {
		end := datetime.NextDay(start)
		if ev.End.Before(end) {
			end = ev.End
		}
		piece := ev
		piece.Start, piece.End = start, end
		pieces = append(pieces, piece)
		start = end
	}
	return pieces
}
