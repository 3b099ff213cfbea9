package domain

import "time"

// CycleStart returns the start of the drips cycle containing now. Cycles are
// aligned to the unix epoch; a non-positive length yields Epoch.
func CycleStart(now time.Time, cycleSecs int64) time.Time {
	if cycleSecs <= 0 {
		return Epoch
	}
	sec := now.Unix()
	return UnixTime(sec - sec%cycleSecs)
}

// DayWindow returns the UTC calendar day containing t.
func DayWindow(t time.Time) TimeWindow {
	t = t.UTC()
	from := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return TimeWindow{From: from, To: from.AddDate(0, 0, 1)}
}

// MonthStart returns midnight UTC of the first day of t's month.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
