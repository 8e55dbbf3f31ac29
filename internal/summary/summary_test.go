package summary

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrissnell/attendance/internal/attendance"
	"github.com/chrissnell/attendance/pkg/rules"
)

func TestSummarize(t *testing.T) {
	cfg, err := rules.DefaultSource().Build()
	require.NoError(t, err)

	var swipes []attendance.Swipe
	add := func(person, date string, clocks ...string) {
		for _, c := range clocks {
			swipes = append(swipes, attendance.Swipe{Person: person, Date: date, Time: c, Status: "Success"})
		}
	}
	// Silver_Bui: -5m, +10m (late), then +1m with a break but no check-out.
	add("Silver_Bui", "2025.11.03", "05:55:00", "14:00:00")
	add("Silver_Bui", "2025.11.04", "06:10:00", "14:00:00")
	add("Silver_Bui", "2025.11.05", "06:01:00", "10:00:00", "10:40:00")
	// Capone: one night shift checked in 4.5 minutes early.
	add("Capone", "2025.11.03", "21:55:30")
	add("Capone", "2025.11.04", "06:00:00")

	res, err := attendance.NewProcessor(cfg, nil).Run(swipes)
	require.NoError(t, err)

	people := Summarize(res.Records, cfg)
	require.Len(t, people, 2)

	bui, capone := people[0], people[1]
	assert.Equal(t, "TPL0001", bui.ID)
	assert.Equal(t, "TPL0002", capone.ID)

	assert.Equal(t, 3, bui.Instances)
	assert.Equal(t, 2, bui.OnTimeCheckIns)
	assert.Equal(t, 1, bui.LateCheckIns)
	assert.Equal(t, 1, bui.MissingCheckOuts)
	assert.InDelta(t, 2.0, bui.MeanOffset, 1e-9)
	// Sample standard deviation of {-5, 10, 1}.
	assert.InDelta(t, math.Sqrt(57), bui.StdDevOffset, 1e-9)

	assert.Equal(t, 1, capone.Instances)
	assert.InDelta(t, -4.5, capone.MeanOffset, 1e-9)
	assert.Zero(t, capone.StdDevOffset)
	assert.Zero(t, capone.MissingCheckOuts)
}

func TestSummarizeLateBreakAndMissingCheckIn(t *testing.T) {
	cfg, err := rules.DefaultSource().Build()
	require.NoError(t, err)

	late := attendance.Record{
		ID: "TPL0003", Name: "Nguyen Quang Minh", ShiftCode: "A",
		CheckInStatus: rules.StatusOnTime, BreakInStatus: rules.StatusLate,
	}
	people := Summarize([]attendance.Record{late}, cfg)
	require.Len(t, people, 1)
	assert.Equal(t, 1, people[0].LateBreakReturns)
	assert.Equal(t, 1, people[0].MissingCheckIns)
	assert.Zero(t, people[0].MeanOffset)
}

func TestOffsetMinutesWrapsAroundMidnight(t *testing.T) {
	start := rules.NewTimeOfDay(0, 0, 0)
	assert.InDelta(t, -10.0, offsetMinutes(rules.NewTimeOfDay(23, 50, 0), start), 1e-9)
	assert.InDelta(t, 5.0, offsetMinutes(rules.NewTimeOfDay(0, 5, 0), start), 1e-9)
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, []Person{{ID: "TPL0001", Name: "Bui Duc Toan", Instances: 2, MeanOffset: -2.5}}))

	out := buf.String()
	assert.Contains(t, out, "Bui Duc Toan")
	assert.Contains(t, out, "-2.5m")
	assert.Contains(t, out, "Mean Offset")
}
