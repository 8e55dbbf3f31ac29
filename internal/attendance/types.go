// Package attendance turns filtered swipe logs into per-shift attendance
// records: bursts of swipes are consolidated, grouped into shift instances
// (including night shifts that cross midnight) and reduced to check-in,
// break and check-out times with lateness statuses.
package attendance

import (
	"time"

	"github.com/chrissnell/attendance/pkg/rules"
)

// Swipe is one raw access-control log row as read from the input file.
type Swipe struct {
	Person string
	Date   string
	Time   string
	Status string
}

// Event is a swipe that passed filtering, annotated with the display identity.
type Event struct {
	Person      string
	DisplayName string
	DisplayID   string
	Timestamp   time.Time
}

// Burst is a run of swipes by one person no more than the burst threshold apart.
type Burst struct {
	Person      string
	DisplayName string
	DisplayID   string
	Start       time.Time
	End         time.Time
}

// ShiftInstance is one attendance episode of one person, from the check-in
// burst through every burst absorbed into it.
type ShiftInstance struct {
	Person      string
	DisplayName string
	DisplayID   string
	ShiftCode   string
	// ShiftDate is the calendar date of the check-in burst, even when later
	// bursts fall on the next day.
	ShiftDate time.Time
	Bursts    []Burst
}

// Clock is an optional time of day. The zero value is blank.
type Clock struct {
	t     rules.TimeOfDay
	valid bool
}

// ClockOf returns the time of day of ts.
func ClockOf(ts time.Time) Clock {
	return Clock{t: rules.Of(ts), valid: true}
}

// IsBlank reports whether no time was found.
func (c Clock) IsBlank() bool {
	return !c.valid
}

// TimeOfDay returns the time and whether it is set.
func (c Clock) TimeOfDay() (rules.TimeOfDay, bool) {
	return c.t, c.valid
}

// String formats the time as HH:MM:SS, or "" when blank.
func (c Clock) String() string {
	if !c.valid {
		return ""
	}
	return c.t.String()
}

// Record is the consolidated attendance row for one shift instance.
type Record struct {
	Date      time.Time
	ID        string
	Name      string
	Shift     string
	ShiftCode string

	CheckIn       Clock
	CheckInStatus rules.Status
	BreakOut      Clock
	BreakIn       Clock
	BreakInStatus rules.Status
	CheckOut      Clock
}

// LoadStats counts what the loader kept and dropped.
type LoadStats struct {
	Rows              int
	InvalidTimestamps int
	FilteredStatus    int
	FilteredUsers     int
	Events            int
}

// Stats are advisory per-run counts for logging.
type Stats struct {
	LoadStats
	Bursts    int
	Orphans   int
	Instances int
	Records   int
}

func dateOf(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, ts.Location())
}
