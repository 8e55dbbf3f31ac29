package rules

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidRules wraps every configuration error found while building a RuleConfig.
	ErrInvalidRules = errors.New("invalid rules")
	// ErrNoShifts is returned when a rule set defines no shifts at all.
	ErrNoShifts = errors.New("no shifts defined")
)

// DefaultGracePeriod is applied when a shift omits explicit on-time
// cutoffs and late thresholds.
const DefaultGracePeriod = 5 * time.Minute

var defaultDisplayNames = map[string]string{
	"A": "Morning",
	"B": "Afternoon",
	"C": "Night",
}

// Source is the unparsed, string-valued form of a rule set shared by every
// Provider. Build turns it into a validated RuleConfig.
type Source struct {
	StatusFilter   string
	BurstThreshold string
	Users          map[string]User
	Shifts         []ShiftSource
}

// ShiftSource is the unparsed form of a ShiftRule. Empty fields take defaults
// where a default exists.
type ShiftSource struct {
	Code        string
	DisplayName string

	CheckInRange  string
	CheckOutRange string
	BreakRange    string

	ShiftStart    string
	CheckInOnTime string
	CheckInLate   string

	BreakCheckpoint string
	BreakInCutoff   string
	Midpoint        string
	MinimumBreakGap string

	BreakEnd      string
	BreakInOnTime string
	BreakInLate   string

	GracePeriod     string
	CrossesMidnight *bool
}

// Build parses and validates src.
func (src *Source) Build() (*RuleConfig, error) {
	if strings.TrimSpace(src.StatusFilter) == "" {
		return nil, fmt.Errorf("%w: status filter is empty", ErrInvalidRules)
	}

	threshold, err := ParseDuration(src.BurstThreshold)
	if err != nil {
		return nil, fmt.Errorf("%w: burst threshold: %v", ErrInvalidRules, err)
	}
	if threshold <= 0 {
		return nil, fmt.Errorf("%w: burst threshold must be positive", ErrInvalidRules)
	}

	if len(src.Shifts) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRules, ErrNoShifts)
	}

	cfg := &RuleConfig{
		BurstThreshold: threshold,
		StatusFilter:   strings.TrimSpace(src.StatusFilter),
		ValidUsers:     make(map[string]User, len(src.Users)),
		Shifts:         make([]ShiftRule, 0, len(src.Shifts)),
	}

	for name, u := range src.Users {
		cfg.ValidUsers[name] = u
	}

	seen := make(map[string]bool)
	for _, ss := range src.Shifts {
		shift, err := ss.build()
		if err != nil {
			return nil, fmt.Errorf("%w: shift %q: %v", ErrInvalidRules, ss.Code, err)
		}
		if seen[shift.Code] {
			return nil, fmt.Errorf("%w: duplicate shift code %q", ErrInvalidRules, shift.Code)
		}
		seen[shift.Code] = true
		cfg.Shifts = append(cfg.Shifts, shift)
	}

	return cfg, nil
}

func (ss *ShiftSource) build() (ShiftRule, error) {
	var (
		s   ShiftRule
		err error
	)

	s.Code = strings.TrimSpace(ss.Code)
	if s.Code == "" {
		return s, errors.New("missing shift code")
	}

	s.DisplayName = ss.DisplayName
	if s.DisplayName == "" {
		s.DisplayName = defaultDisplayNames[s.Code]
	}
	if s.DisplayName == "" {
		s.DisplayName = s.Code
	}

	if s.CheckIn, err = requiredWindow("check-in range", ss.CheckInRange); err != nil {
		return s, err
	}
	if s.CheckOut, err = requiredWindow("check-out range", ss.CheckOutRange); err != nil {
		return s, err
	}
	if s.BreakSearch, err = requiredWindow("break range", ss.BreakRange); err != nil {
		return s, err
	}
	if s.Midpoint, err = requiredTime("midpoint", ss.Midpoint); err != nil {
		return s, err
	}
	if s.ShiftStart, err = requiredTime("shift start", ss.ShiftStart); err != nil {
		return s, err
	}
	if s.BreakEndTime, err = requiredTime("break end", ss.BreakEnd); err != nil {
		return s, err
	}

	if strings.TrimSpace(ss.MinimumBreakGap) == "" {
		return s, errors.New("missing minimum break gap")
	}
	if s.MinimumBreakGap, err = ParseDuration(ss.MinimumBreakGap); err != nil {
		return s, fmt.Errorf("minimum break gap: %w", err)
	}

	grace := DefaultGracePeriod
	if strings.TrimSpace(ss.GracePeriod) != "" {
		if grace, err = ParseDuration(ss.GracePeriod); err != nil {
			return s, fmt.Errorf("grace period: %w", err)
		}
	}

	if s.CheckInOnTimeCutoff, err = optionalTime("check-in on-time cutoff", ss.CheckInOnTime, s.ShiftStart.Add(grace-time.Second)); err != nil {
		return s, err
	}
	if s.CheckInLateThreshold, err = optionalTime("check-in late threshold", ss.CheckInLate, s.ShiftStart.Add(grace)); err != nil {
		return s, err
	}
	if s.BreakInOnTimeCutoff, err = optionalTime("break-in on-time cutoff", ss.BreakInOnTime, s.BreakEndTime.Add(grace-time.Second)); err != nil {
		return s, err
	}
	if s.BreakInLateThreshold, err = optionalTime("break-in late threshold", ss.BreakInLate, s.BreakEndTime.Add(grace)); err != nil {
		return s, err
	}
	if s.BreakOutCheckpoint, err = optionalTime("break-out checkpoint", ss.BreakCheckpoint, s.BreakSearch.Start); err != nil {
		return s, err
	}
	if s.BreakInCutoff, err = optionalTime("break-in cutoff", ss.BreakInCutoff, s.BreakInOnTimeCutoff); err != nil {
		return s, err
	}

	if ss.CrossesMidnight != nil {
		s.CrossesMidnight = *ss.CrossesMidnight
	} else {
		s.CrossesMidnight = s.CheckOut.End < s.CheckIn.Start
	}

	return s, nil
}

// ParseDuration accepts Go duration strings ("2m", "90s") and bare integers,
// which are read as minutes.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty duration")
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Minute, nil
	}
	return time.ParseDuration(s)
}

func requiredWindow(field, s string) (Window, error) {
	if strings.TrimSpace(s) == "" {
		return Window{}, fmt.Errorf("missing %s", field)
	}
	w, err := ParseWindow(s)
	if err != nil {
		return Window{}, fmt.Errorf("%s: %w", field, err)
	}
	return w, nil
}

func requiredTime(field, s string) (TimeOfDay, error) {
	if strings.TrimSpace(s) == "" {
		return 0, fmt.Errorf("missing %s", field)
	}
	t, err := ParseTimeOfDay(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return t, nil
}

func optionalTime(field, s string, fallback TimeOfDay) (TimeOfDay, error) {
	if strings.TrimSpace(s) == "" {
		return fallback, nil
	}
	return requiredTime(field, s)
}
