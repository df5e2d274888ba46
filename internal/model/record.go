package model

import (
	"fmt"
	"time"
)

// Layouts used for the ledger's civil date and time-of-day columns.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// Status is the outcome stored for a (person, date) pair.
type Status string

const (
	StatusPresent Status = "present"
	StatusLate    Status = "late"
	StatusAbsent  Status = "absent"
)

// Attended reports whether the status counts as showing up.
func (s Status) Attended() bool {
	return s == StatusPresent || s == StatusLate
}

// Channel is the provenance tag of a recognition event. It is opaque to the
// engine; the constants below are the values the bundled adapters use.
type Channel string

const (
	ChannelFace   Channel = "face"
	ChannelRFID   Channel = "rfid"
	ChannelManual Channel = "manual"
	ChannelSystem Channel = "system"
)

// AbsentTime is the time-of-day stored on records written by the absence sweep.
const AbsentTime = "00:00:00"

// Record is a ledger entry. At most one exists per (PersonName, Date).
type Record struct {
	ID         string    `json:"id"`
	PersonName string    `json:"person_name"`
	Date       string    `json:"date"`
	Time       string    `json:"time"`
	Status     Status    `json:"status"`
	Channel    Channel   `json:"channel"`
	CreatedAt  time.Time `json:"created_at"`
}

// String renders the record as a single report line.
func (r Record) String() string {
	return fmt.Sprintf("%s  %s  %-8s %-7s %s", r.Date, r.Time, r.Status, r.Channel, r.PersonName)
}

// ParseDate parses a YYYY-MM-DD civil date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}
