package models

import (
	"testing"
	"time"
)

func TestLocalDate(t *testing.T) {
	// 03:00 UTC is still the previous evening in Ecuador.
	ts := time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC)
	if got := LocalDate(ts); got != "2026-03-01" {
		t.Errorf("LocalDate() = %q, want 2026-03-01", got)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2026-05-10", "2026-05-10", true},
		{" 10/05/2026 ", "2026-05-10", true},
		{"2026-05-10T15:04:05", "2026-05-10", true},
		{"2026-05-11T02:00:00Z", "2026-05-10", true},
		{"", "", false},
		{"mañana", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseDate(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseDate(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && got.Format(DateLayout) != tt.want {
			t.Errorf("ParseDate(%q) = %s, want %s", tt.in, got.Format(DateLayout), tt.want)
		}
	}
}
