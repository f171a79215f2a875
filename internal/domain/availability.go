package domain

import (
	"strings"
	"time"
)

// DateLayout is the only accepted date format (yyyy-mm-dd).
const DateLayout = "2006-01-02"

// Availability is a caregiver-declared date. Duplicate uploads for the same
// date are stored as separate rows.
type Availability struct {
	ID        int64
	Caregiver string
	Date      time.Time
}

// ScheduleEntry is one row of the schedule search: a caregiver available on
// the searched date paired with a vaccine and its remaining doses.
type ScheduleEntry struct {
	Caregiver string
	Vaccine   string
	Doses     int
}

// ParseDate parses a yyyy-mm-dd date into a UTC midnight time.
func ParseDate(raw string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(raw), time.UTC)
}

// FormatDate renders a date as yyyy-mm-dd.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// SameDay compares two dates ignoring the clock.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
