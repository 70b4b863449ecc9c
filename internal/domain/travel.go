package domain

import (
	"fmt"
	"strings"
	"time"
)

// Travel is a single travel entry owned by exactly one subject.
type Travel struct {
	ID      TravelID
	OwnerID SubjectID

	Destination string
	Description string

	// DepartureDate has date-only semantics: midnight UTC of the calendar day.
	DepartureDate time.Time
	DurationDays  int
}

// TravelFields are the mutable fields of a travel record.
type TravelFields struct {
	Destination   string
	Description   string
	DepartureDate time.Time
	DurationDays  int
}

// Fields returns the mutable part of t.
func (t Travel) Fields() TravelFields {
	return TravelFields{
		Destination:   t.Destination,
		Description:   t.Description,
		DepartureDate: t.DepartureDate,
		DurationDays:  t.DurationDays,
	}
}

// WithFields returns a copy of t with the mutable fields replaced; ID and OwnerID are kept.
func (t Travel) WithFields(f TravelFields) Travel {
	t.Destination = f.Destination
	t.Description = f.Description
	t.DepartureDate = CalendarDate(f.DepartureDate)
	t.DurationDays = f.DurationDays
	return t
}

const (
	dateLayout = "2006-01-02"
)

// CalendarDate truncates t to midnight UTC of its calendar day.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseCalendarDate parses a full-date ("2025-01-01") or an RFC 3339 timestamp.
// Timestamps keep only the calendar day in their own offset.
func ParseCalendarDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid calendar date %q", s)
	}
	return CalendarDate(t), nil
}

// FormatCalendarDate renders t as a full-date.
func FormatCalendarDate(t time.Time) string {
	return t.Format(dateLayout)
}
