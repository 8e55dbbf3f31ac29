package rules

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const secondsPerDay = 24 * 60 * 60

// TimeOfDay is a wall-clock time expressed as seconds since midnight.
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay from its components. Out-of-range
// components wrap around the day.
func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return normalize(hour*3600 + minute*60 + second)
}

// Of returns the wall-clock time of t, ignoring its date and sub-second part.
func Of(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS", tolerating surrounding whitespace.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time format: %q", s)
	}

	limits := []int{23, 59, 59}
	values := []int{0, 0, 0}
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 || v > limits[i] {
			return 0, fmt.Errorf("invalid time format: %q", s)
		}
		values[i] = v
	}

	return NewTimeOfDay(values[0], values[1], values[2]), nil
}

// Seconds returns the number of seconds since midnight.
func (t TimeOfDay) Seconds() int {
	return int(t)
}

// Add shifts t by d, wrapping around midnight.
func (t TimeOfDay) Add(d time.Duration) TimeOfDay {
	return normalize(int(t) + int(d/time.Second))
}

// On combines t with the calendar date of day.
func (t TimeOfDay) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, int(t), 0, day.Location())
}

func (t TimeOfDay) String() string {
	s := int(t)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s/60)%60, s%60)
}

func normalize(s int) TimeOfDay {
	s %= secondsPerDay
	if s < 0 {
		s += secondsPerDay
	}
	return TimeOfDay(s)
}

// Window is an inclusive time-of-day range. A window whose Start is after
// its End spans midnight.
type Window struct {
	Start TimeOfDay
	End   TimeOfDay
}

// ParseWindow parses a range written as "HH:MM-HH:MM" (seconds optional).
func ParseWindow(s string) (Window, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return Window{}, fmt.Errorf("invalid time range: %q", s)
	}

	start, err := ParseTimeOfDay(parts[0])
	if err != nil {
		return Window{}, err
	}
	end, err := ParseTimeOfDay(parts[1])
	if err != nil {
		return Window{}, err
	}

	return Window{Start: start, End: end}, nil
}

// Wraps reports whether the window spans midnight.
func (w Window) Wraps() bool {
	return w.Start > w.End
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t TimeOfDay) bool {
	if !w.Wraps() {
		return t >= w.Start && t <= w.End
	}
	return t >= w.Start || t <= w.End
}

func (w Window) String() string {
	return w.Start.String() + "-" + w.End.String()
}
