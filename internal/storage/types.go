package storage

import (
	"fmt"
	"time"
)

// InstantLayout is the ISO-8601 form used for persisted instants.
const InstantLayout = "2006-01-02T15:04:05.000Z"

// FormatInstant renders t in UTC with millisecond precision.
func FormatInstant(t time.Time) string {
	return t.UTC().Format(InstantLayout)
}

// ParseInstant parses a persisted ISO-8601 instant.
func ParseInstant(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse instant %q: %w", s, err)
	}
	return t, nil
}

// Category is a user-defined label sessions are tracked against.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Session is one timed interval. A nil EndTime means the session is running.
// CategoryName is a snapshot taken when the session was created or edited.
type Session struct {
	ID           string  `json:"id"`
	CategoryID   string  `json:"categoryId"`
	CategoryName string  `json:"categoryName"`
	StartTime    string  `json:"startTime"`
	EndTime      *string `json:"endTime"`
}

// Open reports whether the session is still running.
func (s Session) Open() bool {
	return s.EndTime == nil
}

// Start parses the session's start instant.
func (s Session) Start() (time.Time, error) {
	return ParseInstant(s.StartTime)
}

// End parses the session's end instant. ok is false for a running session.
func (s Session) End() (end time.Time, ok bool, err error) {
	if s.EndTime == nil {
		return time.Time{}, false, nil
	}
	end, err = ParseInstant(*s.EndTime)
	if err != nil {
		return time.Time{}, false, err
	}
	return end, true, nil
}

// Duration returns end - start for a completed session.
func (s Session) Duration() (time.Duration, error) {
	start, err := s.Start()
	if err != nil {
		return 0, err
	}
	end, ok, err := s.End()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("session %s is still running", s.ID)
	}
	return end.Sub(start), nil
}

// ActiveSession marks the currently running timer. It mirrors the single
// open Session so elapsed time can be shown without scanning history.
type ActiveSession struct {
	CategoryID   string `json:"categoryId"`
	CategoryName string `json:"categoryName"`
	StartTime    string `json:"startTime"`
}

// Valid reports whether the marker carries the fields needed to resolve it.
func (a *ActiveSession) Valid() bool {
	if a == nil || a.CategoryID == "" {
		return false
	}
	_, err := ParseInstant(a.StartTime)
	return err == nil
}
