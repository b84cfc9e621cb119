package service

import "time"

// DefaultProgramWeeks is the fixed length of the SIWES logging period.
const DefaultProgramWeeks = 25

// WeekNumber maps a log date to its 1-based program week relative to the
// enrollment's start date. Pure and total: dates before the start yield
// zero or negative values, which callers must reject against the program
// length. No clamping happens here.
func WeekNumber(logDate, programStart time.Time) int {
	days := int(truncateDay(logDate).Sub(truncateDay(programStart)).Hours() / 24)
	if days < 0 {
		// Integer division truncates toward zero; floor manually so
		// -1 day lands in week 0, not week 1.
		return (days-6)/7 + 1
	}
	return days/7 + 1
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
