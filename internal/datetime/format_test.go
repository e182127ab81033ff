package datetime

import (
	"testing"
	"time"
)

func TestFormatDisplay(t *testing.T) {
	ts := time.Date(2024, 5, 2, 14, 5, 0, 0, time.UTC)

	tests := []struct {
		name     string
		in       any
		wantDate string
		wantTime string
	}{
		{name: "time value", in: ts, wantDate: "Thu 05/02", wantTime: "14:05"},
		{name: "time pointer", in: &ts, wantDate: "Thu 05/02", wantTime: "14:05"},
		{name: "rfc3339 keeps offset", in: "2024-05-02T14:05:00-07:00", wantDate: "Thu 05/02", wantTime: "14:05"},
		{name: "bare date", in: "2024-05-02", wantDate: "Thu 05/02", wantTime: "00:00"},
		{name: "garbage", in: "not a date", wantDate: BadDate, wantTime: BadTime},
		{name: "empty", in: "", wantDate: BadDate, wantTime: BadTime},
		{name: "zero time", in: time.Time{}, wantDate: BadDate, wantTime: BadTime},
		{name: "nil", in: nil, wantDate: BadDate, wantTime: BadTime},
		{name: "wrong type", in: 42, wantDate: BadDate, wantTime: BadTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDisplayDate(tt.in); got != tt.wantDate {
				t.Errorf("FormatDisplayDate() = %q, want %q", got, tt.wantDate)
			}
			if got := FormatDisplayTime(tt.in); got != tt.wantTime {
				t.Errorf("FormatDisplayTime() = %q, want %q", got, tt.wantTime)
			}
		})
	}
}

func TestTimeWindowContains(t *testing.T) {
	w := TimeWindow{Begin: NewTimeOfDay(8, 0, time.UTC), End: NewTimeOfDay(17, 0, time.UTC)}

	tests := []struct {
		at   time.Time
		want bool
	}{
		{time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC), true},
		{time.Date(2024, 5, 2, 17, 0, 0, 0, time.UTC), true},
		{time.Date(2024, 5, 2, 17, 0, 1, 0, time.UTC), false},
		{time.Date(2024, 5, 2, 7, 59, 0, 0, time.UTC), false},
		{time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), false},
		// 16:00 in UTC-7 is 23:00 UTC
		{time.Date(2024, 5, 2, 16, 0, 0, 0, time.FixedZone("PDT", -7*3600)), false},
	}
	for _, tt := range tests {
		if got := w.Contains(tt.at); got != tt.want {
			t.Errorf("Contains(%v) = %v, want %v", tt.at, got, tt.want)
		}
	}
}

func TestTimeOfDayString(t *testing.T) {
	tod := NewTimeOfDay(13, 30, time.UTC)
	if tod.Offset() != 13*time.Hour+30*time.Minute {
		t.Errorf("Offset() = %v", tod.Offset())
	}
	if tod.String() != "13:30" {
		t.Errorf("String() = %q", tod.String())
	}
}
