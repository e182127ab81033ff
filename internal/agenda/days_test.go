package agenda

import (
	"testing"
	"time"

	"github.com/beekhof/meetme/internal/datetime"
)

func at(d, h, m int) time.Time { return time.Date(2024, 5, d, h, m, 0, 0, time.UTC) }

func TestDayList(t *testing.T) {
	days := DayList(at(1, 0, 0), at(4, 0, 0))
	if len(days) != 3 {
		t.Fatalf("got %d days, want 3", len(days))
	}
	for i, d := range days {
		if !d.Equal(at(1+i, 0, 0)) {
			t.Errorf("day %d = %v", i, d)
		}
	}

	if got := DayList(at(1, 0, 0), at(1, 0, 0)); len(got) != 0 {
		t.Errorf("empty range gave %v", got)
	}
}

func TestDayList_AcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("timezone unavailable: %v", err)
	}
	days := DayList(time.Date(2024, 11, 2, 0, 0, 0, 0, loc), time.Date(2024, 11, 5, 0, 0, 0, 0, loc))
	if len(days) != 3 {
		t.Fatalf("got %d days, want 3", len(days))
	}
	for _, d := range days {
		if d.Hour() != 0 || d.Minute() != 0 {
			t.Errorf("%v is not local midnight", d)
		}
	}
}

func TestPopulateDaysAgenda(t *testing.T) {
	days := DayList(at(1, 0, 0), at(3, 0, 0))
	events := map[string][]Event{
		"Work": {
			{Start: at(1, 9, 0), End: at(1, 10, 0), Label: "a"},
			{Start: at(2, 0, 0), End: at(2, 1, 0), Label: "midnight"},
			{Start: at(2, 23, 59), End: at(3, 0, 0), Label: "last"},
			{Start: at(3, 9, 0), End: at(3, 10, 0), Label: "outside"},
		},
		"Home":   {{Start: at(1, 18, 0), End: at(1, 19, 0), Label: "dinner"}},
		"Errand": nil,
	}

	agenda := PopulateDaysAgenda(days, events, "Work", "Home")
	var names []string
	for _, c := range agenda {
		names = append(names, c.Name)
	}
	if len(names) != 3 || names[0] != "Work" || names[1] != "Home" || names[2] != "Errand" {
		t.Errorf("calendar order = %v", names)
	}

	work, ok := agenda.Calendar("Work")
	if !ok || len(work.Days) != 2 {
		t.Fatalf("Work = %+v", work)
	}
	if len(work.Days[0].Events) != 1 || work.Days[0].Events[0].Label != "a" {
		t.Errorf("day 1 = %+v", work.Days[0].Events)
	}
	if len(work.Days[1].Events) != 2 || work.Days[1].Events[0].Label != "midnight" {
		t.Errorf("day 2 = %+v", work.Days[1].Events)
	}
	if agenda.Count() != 4 {
		t.Errorf("Count() = %d, want 4", agenda.Count())
	}
}

func TestEventsInRange(t *testing.T) {
	days := DayList(at(1, 0, 0), at(2, 0, 0))
	agenda := PopulateDaysAgenda(days, map[string][]Event{"Work": {
		{Start: at(1, 7, 59), Label: "early"},
		{Start: at(1, 8, 0), Label: "begin"},
		{Start: at(1, 12, 0), Label: "noon"},
		{Start: at(1, 17, 0), Label: "end"},
		{Start: at(1, 17, 1), Label: "late"},
	}})
	w := datetime.TimeWindow{Begin: datetime.NewTimeOfDay(8, 0, time.UTC), End: datetime.NewTimeOfDay(17, 0, time.UTC)}

	filtered := EventsInRange(agenda, w)
	var labels []string
	for _, ev := range filtered[0].Days[0].Events {
		labels = append(labels, ev.Label)
	}
	if len(labels) != 3 || labels[0] != "begin" || labels[2] != "end" {
		t.Errorf("kept %v, want [begin noon end]", labels)
	}
	if agenda.Count() != 5 {
		t.Error("EventsInRange modified its input")
	}
}
