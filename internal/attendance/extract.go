package attendance

import (
	"github.com/chrissnell/attendance/pkg/rules"
)

// Extract reduces a shift instance to its attendance record. Check-in is the
// earliest burst start inside the check-in window, check-out the latest burst
// end inside the check-out window. Any event that cannot be found stays blank
// and its status is blank too.
func Extract(inst ShiftInstance, shift *rules.ShiftRule) Record {
	rec := Record{
		Date:      inst.ShiftDate,
		ID:        inst.DisplayID,
		Name:      inst.DisplayName,
		Shift:     shift.DisplayName,
		ShiftCode: shift.Code,
		CheckIn:   findCheckIn(inst.Bursts, shift),
		CheckOut:  findCheckOut(inst.Bursts, shift),
	}

	if t, ok := rec.CheckIn.TimeOfDay(); ok {
		rec.CheckInStatus = shift.CheckInStatus(t)
	}

	rec.BreakOut, rec.BreakIn = DetectBreak(inst.Bursts, shift)
	if t, ok := rec.BreakIn.TimeOfDay(); ok {
		rec.BreakInStatus = shift.BreakInStatus(t)
	}

	return rec
}

func findCheckIn(bursts []Burst, shift *rules.ShiftRule) Clock {
	var best *Burst
	for i := range bursts {
		b := &bursts[i]
		if !shift.CheckIn.Contains(rules.Of(b.Start)) {
			continue
		}
		if best == nil || b.Start.Before(best.Start) {
			best = b
		}
	}
	if best == nil {
		return Clock{}
	}
	return ClockOf(best.Start)
}

func findCheckOut(bursts []Burst, shift *rules.ShiftRule) Clock {
	var best *Burst
	for i := range bursts {
		b := &bursts[i]
		if !shift.CheckOut.Contains(rules.Of(b.End)) {
			continue
		}
		if best == nil || b.End.After(best.End) {
			best = b
		}
	}
	if best == nil {
		return Clock{}
	}
	return ClockOf(best.End)
}
