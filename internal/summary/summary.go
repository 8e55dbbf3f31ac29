// Package summary aggregates attendance records into per-person punctuality
// statistics.
package summary

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gonum.org/v1/gonum/stat"

	"github.com/chrissnell/attendance/internal/attendance"
	"github.com/chrissnell/attendance/pkg/rules"
)

// Person is the punctuality summary for one employee.
type Person struct {
	ID   string
	Name string

	Instances        int
	OnTimeCheckIns   int
	LateCheckIns     int
	MissingCheckIns  int
	LateBreakReturns int
	MissingCheckOuts int

	// Check-in offsets from shift start, in minutes. Negative is early.
	MeanOffset   float64
	StdDevOffset float64
}

// Summarize groups records by employee. Offsets are measured against the
// shift start of each record's shift and folded into the half day around it,
// so a check-in shortly before a midnight start counts as early.
func Summarize(records []attendance.Record, cfg *rules.RuleConfig) []Person {
	type acc struct {
		Person
		offsets []float64
	}

	byKey := make(map[string]*acc)
	var order []string

	for _, r := range records {
		key := r.ID + "\x00" + r.Name
		a, ok := byKey[key]
		if !ok {
			a = &acc{Person: Person{ID: r.ID, Name: r.Name}}
			byKey[key] = a
			order = append(order, key)
		}

		a.Instances++
		switch r.CheckInStatus {
		case rules.StatusOnTime:
			a.OnTimeCheckIns++
		case rules.StatusLate:
			a.LateCheckIns++
		}
		if r.BreakInStatus == rules.StatusLate {
			a.LateBreakReturns++
		}
		if r.CheckOut.IsBlank() {
			a.MissingCheckOuts++
		}

		checkIn, ok := r.CheckIn.TimeOfDay()
		if !ok {
			a.MissingCheckIns++
			continue
		}
		if shift, ok := cfg.Shift(r.ShiftCode); ok {
			a.offsets = append(a.offsets, offsetMinutes(checkIn, shift.ShiftStart))
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := byKey[order[i]], byKey[order[j]]
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		return a.Name < b.Name
	})

	people := make([]Person, 0, len(order))
	for _, key := range order {
		a := byKey[key]
		switch len(a.offsets) {
		case 0:
		case 1:
			a.MeanOffset = a.offsets[0]
		default:
			a.MeanOffset, a.StdDevOffset = stat.MeanStdDev(a.offsets, nil)
		}
		people = append(people, a.Person)
	}
	return people
}

func offsetMinutes(t, start rules.TimeOfDay) float64 {
	const day = 24 * 60 * 60
	d := t.Seconds() - start.Seconds()
	switch {
	case d > day/2:
		d -= day
	case d < -day/2:
		d += day
	}
	return float64(d) / 60
}

// Render writes the summary as a bordered table.
func Render(w io.Writer, people []Person) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Name", "Shifts", "On Time", "Late", "No Check-in", "Late Break", "No Check-out", "Mean Offset", "Std Dev")

	for _, p := range people {
		t.Row(
			p.ID,
			p.Name,
			fmt.Sprint(p.Instances),
			fmt.Sprint(p.OnTimeCheckIns),
			fmt.Sprint(p.LateCheckIns),
			fmt.Sprint(p.MissingCheckIns),
			fmt.Sprint(p.LateBreakReturns),
			fmt.Sprint(p.MissingCheckOuts),
			minutes(p.MeanOffset),
			minutes(p.StdDevOffset),
		)
	}

	_, err := fmt.Fprintln(w, t.String())
	return err
}

func minutes(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%+.1fm", v)
}
