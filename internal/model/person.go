package model

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Lifecycle is a person's attendance eligibility.
type Lifecycle string

const (
	LifecycleActive  Lifecycle = "active"
	LifecycleDropped Lifecycle = "dropped"
)

// Valid reports whether l is a known lifecycle value.
func (l Lifecycle) Valid() bool {
	return l == LifecycleActive || l == LifecycleDropped
}

// Person is a roster entry.
type Person struct {
	Name                string    `json:"name"`
	ImagePath           string    `json:"image_path,omitempty"`
	Status              Lifecycle `json:"status"`
	TotalAbsences       int       `json:"total_absences"`
	ConsecutiveAbsences int       `json:"consecutive_absences"`
	CreatedAt           time.Time `json:"created_at"`
	LastUpdated         time.Time `json:"last_updated"`
}

// Active reports whether the person may be recorded present or late.
func (p Person) Active() bool {
	return p.Status == LifecycleActive
}

// Counter selects which absence counters an administrative reset touches.
type Counter string

const (
	CounterBoth        Counter = "both"
	CounterTotal       Counter = "total"
	CounterConsecutive Counter = "consecutive"
)

// Valid reports whether c is a known counter selector.
func (c Counter) Valid() bool {
	switch c {
	case CounterBoth, CounterTotal, CounterConsecutive:
		return true
	}
	return false
}

// NormalizeName trims the name, collapses inner whitespace and applies NFC
// normalisation so that visually identical names share one roster key.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.Join(strings.Fields(name), " "))
}
