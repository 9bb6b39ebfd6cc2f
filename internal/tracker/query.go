package tracker

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/goodtune/sessiontimer/internal/storage"
)

// CategoryTotal is the summed duration of one category's sessions.
type CategoryTotal struct {
	CategoryID   string
	CategoryName string
	Total        time.Duration
}

// MarshalJSON encodes the total as integer milliseconds.
func (c CategoryTotal) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		CategoryID   string `json:"categoryId"`
		CategoryName string `json:"categoryName"`
		MS           int64  `json:"ms"`
	}{c.CategoryID, c.CategoryName, c.Total.Milliseconds()})
}

// FilterRange keeps completed sessions whose end falls inside r's window
// at now, bounds inclusive. Running sessions and sessions with an
// unparsable end are dropped. Input order is preserved.
func FilterRange(sessions []storage.Session, r Range, now time.Time) []storage.Session {
	start, end := Bounds(r, now)
	out := make([]storage.Session, 0, len(sessions))
	for _, s := range sessions {
		ended, ok, err := s.End()
		if err != nil || !ok {
			continue
		}
		if ended.Before(start) || ended.After(end) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// AggregateByCategory sums session durations per category, sorted by total
// descending. Ties keep first-encounter order and the first name seen for a
// category is used as its label. Sessions whose times do not parse are
// skipped and an end before the start counts as zero.
func AggregateByCategory(sessions []storage.Session) []CategoryTotal {
	index := make(map[string]int)
	totals := make([]CategoryTotal, 0)

	for _, s := range sessions {
		d, err := s.Duration()
		if err != nil {
			continue
		}
		if d < 0 {
			d = 0
		}
		if i, ok := index[s.CategoryID]; ok {
			totals[i].Total += d
			continue
		}
		index[s.CategoryID] = len(totals)
		totals = append(totals, CategoryTotal{
			CategoryID:   s.CategoryID,
			CategoryName: s.CategoryName,
			Total:        d,
		})
	}

	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Total > totals[j].Total
	})
	return totals
}

// Stats is the aggregate view for one range.
type Stats struct {
	Range  Range           `json:"range"`
	Start  time.Time       `json:"start"`
	End    time.Time       `json:"end"`
	Totals []CategoryTotal `json:"categories"`
	Total  time.Duration   `json:"-"`
}

// MarshalJSON adds the grand total in milliseconds.
func (s Stats) MarshalJSON() ([]byte, error) {
	type alias Stats
	return json.Marshal(struct {
		alias
		TotalMS int64 `json:"totalMs"`
	}{alias(s), s.Total.Milliseconds()})
}

// Share returns total's fraction of the grand total in [0, 1].
func (s Stats) Share(total CategoryTotal) float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(total.Total) / float64(s.Total)
}
