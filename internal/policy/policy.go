package policy

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/roach88/rollcall/internal/model"
)

// ErrInvalid marks a policy that fails validation.
var ErrInvalid = errors.New("invalid policy configuration")

// DropCounter selects which absence counter gates the automatic drop.
type DropCounter string

const (
	DropOnConsecutive DropCounter = "consecutive"
	DropOnTotal       DropCounter = "total"
)

// Default values for the observed deployment.
const (
	DefaultDropThreshold = 3
)

// Policy holds the attendance windows and the lifecycle rule.
type Policy struct {
	PresentStart  TimeOfDay
	PresentEnd    TimeOfDay
	LateEnd       TimeOfDay
	AllowedDays   []time.Weekday
	Location      *time.Location
	DropThreshold int
	DropOn        DropCounter
}

// Default returns the policy observed in production: present from 12:20,
// late from 12:35 until 13:50, on Monday, Thursday, Saturday and Sunday,
// dropping after three consecutive absences.
func Default() Policy {
	return Policy{
		PresentStart:  Clock3(12, 20, 0),
		PresentEnd:    Clock3(12, 35, 0),
		LateEnd:       Clock3(13, 50, 0),
		AllowedDays:   []time.Weekday{time.Monday, time.Thursday, time.Saturday, time.Sunday},
		Location:      time.Local,
		DropThreshold: DefaultDropThreshold,
		DropOn:        DropOnConsecutive,
	}
}

// New validates p and returns it with AllowedDays sorted.
func New(p Policy) (Policy, error) {
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	p.AllowedDays = slices.Clone(p.AllowedDays)
	slices.Sort(p.AllowedDays)
	return p, nil
}

// Validate checks window ordering, the allowed-day set and the drop rule.
func (p Policy) Validate() error {
	day := Clock3(24, 0, 0)
	switch {
	case p.PresentStart < 0 || p.LateEnd >= day:
		return fmt.Errorf("%w: window must lie within one day", ErrInvalid)
	case p.PresentStart >= p.PresentEnd:
		return fmt.Errorf("%w: present_start %s must be before present_end %s", ErrInvalid, p.PresentStart, p.PresentEnd)
	case p.PresentEnd > p.LateEnd:
		return fmt.Errorf("%w: present_end %s must not be after late_end %s", ErrInvalid, p.PresentEnd, p.LateEnd)
	case len(p.AllowedDays) == 0:
		return fmt.Errorf("%w: at least one allowed day is required", ErrInvalid)
	case p.Location == nil:
		return fmt.Errorf("%w: location is required", ErrInvalid)
	case p.DropThreshold < 1:
		return fmt.Errorf("%w: drop_threshold must be at least 1, got %d", ErrInvalid, p.DropThreshold)
	case p.DropOn != DropOnConsecutive && p.DropOn != DropOnTotal:
		return fmt.Errorf("%w: drop_on must be %q or %q, got %q", ErrInvalid, DropOnConsecutive, DropOnTotal, p.DropOn)
	}
	for _, d := range p.AllowedDays {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("%w: weekday %d out of range", ErrInvalid, d)
		}
	}
	return nil
}

// Local converts t into the policy location.
func (p Policy) Local(t time.Time) time.Time {
	return t.In(p.Location)
}

// DateOf returns the civil date of t in the policy location.
func (p Policy) DateOf(t time.Time) string {
	return p.Local(t).Format(model.DateLayout)
}

// AllowedDay reports whether t falls on an allowed weekday.
func (p Policy) AllowedDay(t time.Time) bool {
	return slices.Contains(p.AllowedDays, p.Local(t).Weekday())
}

// InWindow reports whether t is on an allowed day and within
// [PresentStart, LateEnd].
func (p Policy) InWindow(t time.Time) bool {
	if !p.AllowedDay(t) {
		return false
	}
	tod := Of(p.Local(t))
	return tod >= p.PresentStart && tod <= p.LateEnd
}

// Classify returns the status t earns. ok is false when t is outside the
// policy window, in which case status is empty.
func (p Policy) Classify(t time.Time) (status model.Status, ok bool) {
	if !p.InWindow(t) {
		return "", false
	}
	if Of(p.Local(t)) < p.PresentEnd {
		return model.StatusPresent, true
	}
	return model.StatusLate, true
}

// WindowClosed reports whether the attendance window for date has fully
// elapsed at now. Dates before now's date are always closed.
func (p Policy) WindowClosed(date string, now time.Time) (bool, error) {
	day, err := model.ParseDate(date, p.Location)
	if err != nil {
		return false, err
	}
	closeAt := day.Add(time.Duration(p.LateEnd))
	return p.Local(now).After(closeAt), nil
}

// DropGate returns the counter value that decides the automatic drop.
func (p Policy) DropGate(person model.Person) int {
	if p.DropOn == DropOnTotal {
		return person.TotalAbsences
	}
	return person.ConsecutiveAbsences
}

// ShouldDrop reports whether person has reached the drop threshold.
func (p Policy) ShouldDrop(person model.Person) bool {
	return p.DropGate(person) >= p.DropThreshold
}

// String summarises the window for logs and CLI output.
func (p Policy) String() string {
	days := make([]string, len(p.AllowedDays))
	for i, d := range p.AllowedDays {
		days[i] = d.String()
	}
	return fmt.Sprintf("present %s-%s, late until %s, days %v, tz %s, drop after %d %s absences",
		p.PresentStart, p.PresentEnd, p.LateEnd, days, p.Location, p.DropThreshold, p.DropOn)
}
