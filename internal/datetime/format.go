package datetime

import "time"

// Sentinels returned by the display formatters for unusable input.
const (
	BadDate = "(bad date)"
	BadTime = "(bad time)"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// FormatDisplayDate renders v as "Mon 01/02". v may be a time.Time or a
// timestamp string; anything else yields BadDate.
func FormatDisplayDate(v any) string {
	t, ok := asTime(v)
	if !ok {
		return BadDate
	}
	return t.Format("Mon 01/02")
}

// FormatDisplayTime renders v as "15:04", or BadTime.
func FormatDisplayTime(v any) string {
	t, ok := asTime(v)
	if !ok {
		return BadTime
	}
	return t.Format("15:04")
}

func asTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, !x.IsZero()
	case *time.Time:
		if x == nil || x.IsZero() {
			return time.Time{}, false
		}
		return *x, true
	case string:
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, x); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
