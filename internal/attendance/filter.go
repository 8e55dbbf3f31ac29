package attendance

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/chrissnell/attendance/pkg/rules"
)

// The common export format is tried first; the rest cover the variations
// seen from spreadsheet exports.
var timestampLayouts = []string{
	"2006.01.02 15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"2006.01.02 15:04",
	"2006-01-02 15:04",
	"2006/01/02 15:04",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"2006-01-02T15:04:05",
}

// ParseTimestamp combines a date and a time-of-day string. A date carrying
// its own time component (as spreadsheet date cells often do) has it ignored.
func ParseTimestamp(date, clock string) (time.Time, error) {
	date = strings.TrimSpace(date)
	if i := strings.IndexAny(date, " T"); i > 0 {
		date = date[:i]
	}
	combined := date + " " + strings.TrimSpace(clock)

	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, combined); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable timestamp %q", combined)
}

// Load keeps the swipes whose status matches the rule set's filter and whose
// person is an allowed user, parses their timestamps and returns them sorted
// by person, then time. Rows with unparsable timestamps are dropped and counted.
func Load(swipes []Swipe, cfg *rules.RuleConfig) ([]Event, LoadStats) {
	stats := LoadStats{Rows: len(swipes)}
	events := make([]Event, 0, len(swipes))

	for _, s := range swipes {
		ts, err := ParseTimestamp(s.Date, s.Time)
		if err != nil {
			stats.InvalidTimestamps++
			continue
		}
		if s.Status != cfg.StatusFilter {
			stats.FilteredStatus++
			continue
		}
		user, ok := cfg.User(s.Person)
		if !ok {
			stats.FilteredUsers++
			continue
		}

		events = append(events, Event{
			Person:      s.Person,
			DisplayName: user.DisplayName,
			DisplayID:   user.DisplayID,
			Timestamp:   ts,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Person != events[j].Person {
			return events[i].Person < events[j].Person
		}
		return events[i].Timestamp.Before(events[j].Timestamp)
	})

	stats.Events = len(events)
	return events, stats
}
