package tracker

import "time"

// Range selects the statistics window.
type Range string

const (
	RangeAll   Range = "all"
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
	RangeYear  Range = "year"
)

// Ranges lists the supported windows in display order.
var Ranges = []Range{RangeAll, RangeWeek, RangeMonth, RangeYear}

// ParseRange maps a token to a Range. Unknown tokens select RangeAll.
func ParseRange(token string) Range {
	switch r := Range(token); r {
	case RangeWeek, RangeMonth, RangeYear:
		return r
	default:
		return RangeAll
	}
}

// Bounds returns the [start, end] window for r, evaluated in now's location.
// end is always now. Weeks start on Monday.
func Bounds(r Range, now time.Time) (start, end time.Time) {
	loc := now.Location()
	y, m, d := now.Date()

	switch r {
	case RangeWeek:
		// days since Monday
		back := (int(now.Weekday()) + 6) % 7
		start = time.Date(y, m, d-back, 0, 0, 0, 0, loc)
	case RangeMonth:
		start = time.Date(y, m, 1, 0, 0, 0, 0, loc)
	case RangeYear:
		start = time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	default:
		start = time.Unix(0, 0).In(loc)
	}
	return start, now
}
