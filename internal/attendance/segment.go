package attendance

import (
	"time"

	"github.com/chrissnell/attendance/pkg/rules"
)

// Segment partitions each person's bursts into shift instances. Bursts must
// be sorted by person, then time. It returns the instances in check-in order
// and the number of orphan bursts that matched no check-in window and were
// not absorbed by a running instance.
func Segment(bursts []Burst, cfg *rules.RuleConfig) ([]ShiftInstance, int) {
	var (
		instances []ShiftInstance
		orphans   int
	)

	for start := 0; start < len(bursts); {
		end := start + 1
		for end < len(bursts) && bursts[end].Person == bursts[start].Person {
			end++
		}

		personInstances, personOrphans := segmentPerson(bursts[start:end], cfg)
		instances = append(instances, personInstances...)
		orphans += personOrphans

		start = end
	}

	return instances, orphans
}

// segmentPerson walks one person's chronological bursts with a cursor:
// scan for a check-in, absorb everything the open instance can claim, emit
// it and resume scanning at the first burst it did not claim.
func segmentPerson(bursts []Burst, cfg *rules.RuleConfig) ([]ShiftInstance, int) {
	var (
		instances []ShiftInstance
		orphans   int
	)

	i := 0
	for i < len(bursts) {
		checkIn := bursts[i]

		shift, ok := cfg.MatchCheckIn(rules.Of(checkIn.Start))
		if !ok {
			orphans++
			i++
			continue
		}

		shiftDate := dateOf(checkIn.Start)
		windowEnd := shift.WindowEnd(shiftDate)

		// The check-in burst itself is always claimed.
		j := i + 1
		for j < len(bursts) && absorbs(cfg, shift, windowEnd, bursts[j]) {
			j++
		}

		instances = append(instances, ShiftInstance{
			Person:      checkIn.Person,
			DisplayName: checkIn.DisplayName,
			DisplayID:   checkIn.DisplayID,
			ShiftCode:   shift.Code,
			ShiftDate:   shiftDate,
			Bursts:      append([]Burst(nil), bursts[i:j]...),
		})

		i = j
	}

	return instances, orphans
}

// absorbs decides whether an open instance of shift claims b. A burst past
// the activity window never belongs. Inside it, a burst in the shift's own
// check-out window always belongs; otherwise a burst that would open a
// different shift ends the instance.
func absorbs(cfg *rules.RuleConfig, shift *rules.ShiftRule, windowEnd time.Time, b Burst) bool {
	if b.Start.After(windowEnd) {
		return false
	}

	t := rules.Of(b.Start)
	if shift.CheckOut.Contains(t) {
		return true
	}
	return !cfg.StartsOtherShift(shift.Code, t)
}
