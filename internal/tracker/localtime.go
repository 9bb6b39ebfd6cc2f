package tracker

import (
	"fmt"
	"time"

	"github.com/goodtune/sessiontimer/internal/storage"
)

// LocalInputLayout is the minute-precision form used by edit inputs.
const LocalInputLayout = "2006-01-02T15:04"

var localInputLayouts = []string{
	LocalInputLayout,
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// LocalInput converts a persisted instant to YYYY-MM-DDTHH:MM in loc.
// Unparsable input yields an empty string.
func LocalInput(iso string, loc *time.Location) string {
	t, err := storage.ParseInstant(iso)
	if err != nil {
		return ""
	}
	return t.In(loc).Format(LocalInputLayout)
}

// ParseLocalInput reads a wall-clock time in loc. Full RFC 3339 instants
// are accepted as well and keep their own offset.
func ParseLocalInput(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range localInputLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q (expected %s)", s, LocalInputLayout)
}
