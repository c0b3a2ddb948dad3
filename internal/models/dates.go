package models

import (
	"strings"
	"time"
)

// DateLayout is how the registry writes calendar dates.
const DateLayout = "2006-01-02"

// Ecuador is mainland Ecuador's zone. It has no daylight saving, so a fixed
// offset matches America/Guayaquil without needing tzdata.
var Ecuador = time.FixedZone("ECT", -5*60*60)

// LocalDate returns t's calendar date in Ecuador as YYYY-MM-DD.
func LocalDate(t time.Time) string {
	return t.In(Ecuador).Format(DateLayout)
}

// ParseDate parses a calendar date as entered in forms or returned by the
// registry. Supported formats:
// - YYYY-MM-DD
// - YYYY-MM-DDTHH:MM:SS, with or without a zone
// - DD/MM/YYYY
// The result is midnight in Ecuador.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range []string{DateLayout, "02/01/2006"} {
		if t, err := time.ParseInLocation(layout, value, Ecuador); err == nil {
			return t, true
		}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, value, Ecuador); err == nil {
			y, m, d := t.In(Ecuador).Date()
			return time.Date(y, m, d, 0, 0, 0, 0, Ecuador), true
		}
	}

	return time.Time{}, false
}
