package tide

import (
	"time"

	"github.com/imtiaz-qureshi/Vessel-ETA-Prediction-System/internal/ports"
)

// ApplyConstraint returns the earliest time at or after candidateEta at which
// arrival at the port is permitted by its tide windows.
//
// Windows recur daily and may wrap past midnight (e.g. 20:57-02:57). Bounds
// are inclusive: a candidate exactly on a window boundary is in-window. If the
// candidate's time-of-day falls inside no window and no window opens later the
// same day, arrival waits for the earliest window on the next date.
//
// The port is not tidal, or defines no windows: the candidate is returned
// unchanged. ApplyConstraint is idempotent; re-applying it to an already
// adjusted time returns the same time.
func ApplyConstraint(candidateEta time.Time, port *ports.Port) time.Time {
	if !port.IsTidal || len(port.TideWindows) == 0 {
		return candidateEta
	}

	candidateMinute := candidateEta.Hour()*60 + candidateEta.Minute()
	year, month, day := candidateEta.Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, candidateEta.Location())

	// Membership first, across every window, so a wrapped overnight window
	// still claims an early-morning candidate
	for _, window := range port.TideWindows {
		if inWindow(candidateMinute, window) {
			return candidateEta
		}
	}

	// Windows are kept sorted by start time by the catalog; take the earliest
	// one opening at or after the candidate's time-of-day
	for _, window := range port.TideWindows {
		if start := window.StartTime.MinuteOfDay(); candidateMinute <= start {
			return midnight.Add(time.Duration(start) * time.Minute)
		}
	}

	// Past all of today's windows; wait for the first one tomorrow
	first := port.TideWindows[0].StartTime
	return midnight.AddDate(0, 0, 1).Add(time.Duration(first.MinuteOfDay()) * time.Minute)
}

// IsConstrained reports whether the adjusted arrival differs from the candidate
func IsConstrained(candidateEta, adjustedEta time.Time) bool {
	return !adjustedEta.Equal(candidateEta)
}

func inWindow(minuteOfDay int, window ports.TideWindow) bool {
	start := window.StartTime.MinuteOfDay()
	end := window.EndTime.MinuteOfDay()

	if start <= end {
		return minuteOfDay >= start && minuteOfDay <= end
	}
	// Overnight window wrapping past midnight
	return minuteOfDay >= start || minuteOfDay <= end
}
