package recurrence

import "finanzas/internal/core"

// ShouldRunToday reports whether a once-per-day job whose last run is
// recorded as lastRun (ISO date, possibly empty or malformed) should run on
// today.
func ShouldRunToday(lastRun string, today core.Date) bool {
	if lastRun == "" {
		return true
	}
	last, err := core.ParseDate(lastRun)
	if err != nil {
		return true
	}
	return last.Before(today.Time)
}
