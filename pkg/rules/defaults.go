package rules

import (
	"os"

	"gopkg.in/yaml.v2"
)

// DefaultSource returns the standard three-shift rule set: A (morning),
// B (afternoon) and C (night, crossing midnight).
func DefaultSource() *Source {
	return &Source{
		StatusFilter:   "Success",
		BurstThreshold: "2m",
		Users: map[string]User{
			"Silver_Bui": {DisplayName: "Bui Duc Toan", DisplayID: "TPL0001"},
			"Capone":     {DisplayName: "Pham Tan Phat", DisplayID: "TPL0002"},
			"Minh":       {DisplayName: "Nguyen Quang Minh", DisplayID: "TPL0003"},
			"Trieu":      {DisplayName: "Le Van Trieu", DisplayID: "TPL0004"},
		},
		Shifts: []ShiftSource{
			{
				Code:            "A",
				DisplayName:     "Morning",
				CheckInRange:    "05:30-06:35",
				CheckOutRange:   "13:30-14:35",
				BreakRange:      "09:50-10:35",
				ShiftStart:      "06:00",
				CheckInOnTime:   "06:04:59",
				CheckInLate:     "06:05:00",
				BreakCheckpoint: "10:00",
				Midpoint:        "10:15",
				MinimumBreakGap: "5m",
				BreakEnd:        "10:30",
				BreakInOnTime:   "10:34:59",
				BreakInLate:     "10:35:00",
			},
			{
				Code:            "B",
				DisplayName:     "Afternoon",
				CheckInRange:    "13:30-14:35",
				CheckOutRange:   "21:30-22:35",
				BreakRange:      "17:50-18:35",
				ShiftStart:      "14:00",
				CheckInOnTime:   "14:04:59",
				CheckInLate:     "14:05:00",
				BreakCheckpoint: "18:00",
				Midpoint:        "18:15",
				MinimumBreakGap: "5m",
				BreakEnd:        "18:30",
				BreakInOnTime:   "18:34:59",
				BreakInLate:     "18:35:00",
			},
			{
				Code:            "C",
				DisplayName:     "Night",
				CheckInRange:    "21:30-22:35",
				CheckOutRange:   "05:30-06:35",
				BreakRange:      "01:50-02:50",
				ShiftStart:      "22:00",
				CheckInOnTime:   "22:04:59",
				CheckInLate:     "22:05:00",
				BreakCheckpoint: "02:00",
				Midpoint:        "02:15",
				MinimumBreakGap: "5m",
				BreakEnd:        "02:30",
				BreakInOnTime:   "02:34:59",
				BreakInLate:     "02:35:00",
			},
		},
	}
}

// WriteDefault writes the default rule set as YAML to path.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(DefaultSource())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
