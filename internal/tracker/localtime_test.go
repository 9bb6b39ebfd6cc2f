package tracker

import (
	"testing"
	"time"
)

func TestLocalInput(t *testing.T) {
	tests := []struct {
		name string
		iso  string
		loc  *time.Location
		want string
	}{
		{"utc", "2025-01-01T10:05:00.000Z", time.UTC, "2025-01-01T10:05"},
		{"shifted zone", "2025-01-01T23:30:00.000Z", testZone, "2025-01-02T01:30"},
		{"seconds dropped", "2025-06-30T08:15:59.999Z", time.UTC, "2025-06-30T08:15"},
		{"garbage", "yesterday", time.UTC, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LocalInput(tt.iso, tt.loc); got != tt.want {
				t.Errorf("LocalInput(%q) = %q, want %q", tt.iso, got, tt.want)
			}
		})
	}
}

func TestParseLocalInput(t *testing.T) {
	want := time.Date(2025, time.January, 2, 1, 30, 0, 0, testZone)

	for _, in := range []string{"2025-01-02T01:30", "2025-01-02 01:30", "2025-01-02T01:30:00", "2025-01-01T23:30:00Z"} {
		got, err := ParseLocalInput(in, testZone)
		if err != nil {
			t.Fatalf("ParseLocalInput(%q): %v", in, err)
		}
		if !got.Equal(want) {
			t.Errorf("ParseLocalInput(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseLocalInput("01/02/2025", testZone); err == nil {
		t.Error("expected error for unsupported layout")
	}
}

func TestLocalInputRoundTrip(t *testing.T) {
	iso := "2025-03-09T17:42:00.000Z"
	parsed, err := ParseLocalInput(LocalInput(iso, testZone), testZone)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := parsed.UTC().Format("2006-01-02T15:04:05.000Z"); got != iso {
		t.Errorf("round trip = %s, want %s", got, iso)
	}
}
