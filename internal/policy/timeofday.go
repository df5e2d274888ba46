package policy

import (
	"fmt"
	"time"
)

// TimeOfDay is an offset from local midnight.
type TimeOfDay time.Duration

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS" on a 24-hour clock.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		t, err := time.Parse(layout, s)
		if err == nil {
			return Clock3(t.Hour(), t.Minute(), t.Second()), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q: want HH:MM or HH:MM:SS", s)
}

// Clock3 builds a TimeOfDay from hour, minute and second.
func Clock3(hour, minute, second int) TimeOfDay {
	return TimeOfDay(time.Duration(hour)*time.Hour +
		time.Duration(minute)*time.Minute +
		time.Duration(second)*time.Second)
}

// Of returns the wall-clock time of day of t in t's own location.
func Of(t time.Time) TimeOfDay {
	return Clock3(t.Hour(), t.Minute(), t.Second()) + TimeOfDay(t.Nanosecond())
}

// String renders HH:MM:SS.
func (d TimeOfDay) String() string {
	total := int(time.Duration(d) / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}
