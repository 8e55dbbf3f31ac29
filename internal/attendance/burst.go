package attendance

import "time"

// Consolidate merges each person's swipes into bursts. A new burst starts on
// a person's first event or whenever the gap since the previous event exceeds
// threshold. Events must already be sorted by person, then time.
func Consolidate(events []Event, threshold time.Duration) []Burst {
	var bursts []Burst

	for i, e := range events {
		newBurst := i == 0 ||
			e.Person != events[i-1].Person ||
			e.Timestamp.Sub(events[i-1].Timestamp) > threshold

		if newBurst {
			bursts = append(bursts, Burst{
				Person:      e.Person,
				DisplayName: e.DisplayName,
				DisplayID:   e.DisplayID,
				Start:       e.Timestamp,
				End:         e.Timestamp,
			})
			continue
		}

		b := &bursts[len(bursts)-1]
		if e.Timestamp.Before(b.Start) {
			b.Start = e.Timestamp
		}
		if e.Timestamp.After(b.End) {
			b.End = e.Timestamp
		}
	}

	return bursts
}
