package attendance

import (
	"sort"
	"time"

	"github.com/chrissnell/attendance/pkg/rules"
)

// DetectBreak finds the break-out and break-in times among an instance's
// bursts. Candidates are bursts that start or end inside the break search
// window.
//
// When two consecutive candidates are separated by at least the minimum
// break gap, the break-out is the pre-gap burst end closest to the break-out
// checkpoint and the break-in is the post-gap burst start closest to the
// break-in cutoff. The two may come from different gaps.
//
// Without a qualifying gap, candidates are split at the midpoint and the
// times are inferred from which side has swipes.
func DetectBreak(bursts []Burst, shift *rules.ShiftRule) (out, in Clock) {
	candidates := breakCandidates(bursts, shift.BreakSearch)
	if len(candidates) == 0 {
		return Clock{}, Clock{}
	}

	if out, in, ok := gapBreak(candidates, shift); ok {
		return out, in
	}
	return midpointBreak(candidates, shift)
}

func breakCandidates(bursts []Burst, window rules.Window) []Burst {
	var candidates []Burst
	for _, b := range bursts {
		if window.Contains(rules.Of(b.Start)) || window.Contains(rules.Of(b.End)) {
			candidates = append(candidates, b)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Start.Before(candidates[j].Start)
	})
	return candidates
}

// gapBreak scores every qualifying gap independently against the two
// anchors. Equal distances keep the earlier gap.
func gapBreak(candidates []Burst, shift *rules.ShiftRule) (out, in Clock, ok bool) {
	bestOut, bestIn := -1, -1

	for k := 0; k+1 < len(candidates); k++ {
		if !qualifies(candidates[k], candidates[k+1], shift) {
			continue
		}
		ok = true

		outDist := distance(rules.Of(candidates[k].End), shift.BreakOutCheckpoint)
		if bestOut < 0 || outDist < bestOut {
			bestOut = outDist
			out = ClockOf(candidates[k].End)
		}

		inDist := distance(rules.Of(candidates[k+1].Start), shift.BreakInCutoff)
		if bestIn < 0 || inDist < bestIn {
			bestIn = inDist
			in = ClockOf(candidates[k+1].Start)
		}
	}

	return out, in, ok
}

func midpointBreak(candidates []Burst, shift *rules.ShiftRule) (out, in Clock) {
	var before, after []Burst
	for _, b := range candidates {
		if rules.Of(b.End) <= shift.Midpoint {
			before = append(before, b)
		}
		if rules.Of(b.Start) > shift.Midpoint {
			after = append(after, b)
		}
	}

	switch {
	case len(before) > 0 && len(after) > 0:
		return ClockOf(latestEnd(before)), ClockOf(earliestStart(after))

	case len(before) > 0:
		if k, found := firstGap(before, shift); found {
			return ClockOf(before[k].End), ClockOf(before[k+1].Start)
		}
		return ClockOf(latestEnd(before)), Clock{}

	case len(after) > 0:
		if k, found := firstGap(after, shift); found {
			return ClockOf(after[k].End), ClockOf(after[k+1].Start)
		}
		return Clock{}, ClockOf(earliestStart(after))
	}

	return Clock{}, Clock{}
}

// firstGap returns the index of the burst preceding the first qualifying gap.
func firstGap(bursts []Burst, shift *rules.ShiftRule) (int, bool) {
	for k := 0; k+1 < len(bursts); k++ {
		if qualifies(bursts[k], bursts[k+1], shift) {
			return k, true
		}
	}
	return 0, false
}

func qualifies(prev, next Burst, shift *rules.ShiftRule) bool {
	return next.Start.Sub(prev.End) >= shift.MinimumBreakGap
}

// distance compares times of day without wrapping around midnight.
func distance(a, b rules.TimeOfDay) int {
	d := a.Seconds() - b.Seconds()
	if d < 0 {
		return -d
	}
	return d
}

func latestEnd(bursts []Burst) time.Time {
	latest := bursts[0].End
	for _, b := range bursts[1:] {
		if b.End.After(latest) {
			latest = b.End
		}
	}
	return latest
}

func earliestStart(bursts []Burst) time.Time {
	earliest := bursts[0].Start
	for _, b := range bursts[1:] {
		if b.Start.Before(earliest) {
			earliest = b.Start
		}
	}
	return earliest
}
