package tracker

import (
	"fmt"
	"strings"
	"time"
)

// FormatShort renders d as HH:MM:SS. Hours are not capped at 24.
// Negative durations render as zero.
func FormatShort(d time.Duration) string {
	total := wholeSeconds(d)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// FormatLong renders d as e.g. "1 day, 2 hours, 5 minutes".
// Seconds are dropped and zero components omitted.
func FormatLong(d time.Duration) string {
	total := wholeSeconds(d)
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60

	parts := make([]string, 0, 3)
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if len(parts) == 0 {
		return "0 minutes"
	}
	return strings.Join(parts, ", ")
}

func wholeSeconds(d time.Duration) int64 {
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
