// Package rules holds the attendance rule set: shift windows, grace periods,
// break-detection thresholds and the user allow-list. Rules are loaded once
// per run through a Provider and are read-only afterwards.
package rules

import (
	"time"
)

// Status is the lateness classification of a check-in or break return.
type Status string

const (
	StatusOnTime Status = "On Time"
	StatusLate   Status = "Late"
	StatusBlank  Status = ""
)

// User maps a raw swipe identity to the identity printed on attendance records.
type User struct {
	DisplayName string
	DisplayID   string
}

// RuleConfig is the complete parsed rule set.
type RuleConfig struct {
	BurstThreshold time.Duration
	StatusFilter   string
	ValidUsers     map[string]User

	// Shifts are kept in configured order; check-in matching takes the
	// first shift whose window contains the swipe.
	Shifts []ShiftRule
}

// ShiftRule describes a single shift (e.g. "A", "B", "C").
type ShiftRule struct {
	Code        string
	DisplayName string

	CheckIn     Window
	CheckOut    Window
	BreakSearch Window

	// Tie-break anchors for selecting among qualifying break gaps.
	BreakOutCheckpoint TimeOfDay
	BreakInCutoff      TimeOfDay

	Midpoint        TimeOfDay
	MinimumBreakGap time.Duration

	ShiftStart           TimeOfDay
	CheckInOnTimeCutoff  TimeOfDay
	CheckInLateThreshold TimeOfDay

	BreakEndTime         TimeOfDay
	BreakInOnTimeCutoff  TimeOfDay
	BreakInLateThreshold TimeOfDay

	// CrossesMidnight marks night shifts whose check-out falls on the
	// calendar day after check-in.
	CrossesMidnight bool
}

// Shift returns the rule for code.
func (c *RuleConfig) Shift(code string) (*ShiftRule, bool) {
	for i := range c.Shifts {
		if c.Shifts[i].Code == code {
			return &c.Shifts[i], true
		}
	}
	return nil, false
}

// MatchCheckIn returns the first shift whose check-in window contains t.
func (c *RuleConfig) MatchCheckIn(t TimeOfDay) (*ShiftRule, bool) {
	for i := range c.Shifts {
		if c.Shifts[i].CheckIn.Contains(t) {
			return &c.Shifts[i], true
		}
	}
	return nil, false
}

// StartsOtherShift reports whether t lies in the check-in window of any
// shift other than code.
func (c *RuleConfig) StartsOtherShift(code string, t TimeOfDay) bool {
	for i := range c.Shifts {
		if c.Shifts[i].Code != code && c.Shifts[i].CheckIn.Contains(t) {
			return true
		}
	}
	return false
}

// User looks up the display identity for a raw person identifier.
func (c *RuleConfig) User(person string) (User, bool) {
	u, ok := c.ValidUsers[person]
	return u, ok
}

// WindowEnd returns the latest instant a swipe can belong to an instance of
// this shift that started on shiftDate.
func (s *ShiftRule) WindowEnd(shiftDate time.Time) time.Time {
	day := shiftDate
	if s.CrossesMidnight {
		day = shiftDate.AddDate(0, 0, 1)
	}
	return s.CheckOut.End.On(day)
}

// CheckInStatus classifies a check-in time.
func (s *ShiftRule) CheckInStatus(t TimeOfDay) Status {
	return classify(t, s.CheckInOnTimeCutoff, s.CheckInLateThreshold)
}

// BreakInStatus classifies a break return time.
func (s *ShiftRule) BreakInStatus(t TimeOfDay) Status {
	return classify(t, s.BreakInOnTimeCutoff, s.BreakInLateThreshold)
}

// A time strictly between the cutoff and the threshold only happens with a
// gap in the configuration and yields a blank status.
func classify(t, onTimeCutoff, lateThreshold TimeOfDay) Status {
	if t <= onTimeCutoff {
		return StatusOnTime
	}
	if t >= lateThreshold {
		return StatusLate
	}
	return StatusBlank
}
