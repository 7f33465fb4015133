package period

import (
	"fmt"
	"math"
	"time"
)

// DateOf truncates t to a UTC midnight on the same calendar date.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole calendar days from a to b (negative if b is
// earlier).
func DaysBetween(a, b time.Time) int {
	return int(math.Round(DateOf(b).Sub(DateOf(a)).Hours() / 24))
}

// DaysUntilCeil returns the number of days from now until t, rounding any
// partial day up.
func DaysUntilCeil(now, t time.Time) int {
	return int(math.Ceil(t.Sub(now).Hours() / 24))
}

// FinancialYear returns the July-June financial year label for t, e.g.
// "2025-26".
func FinancialYear(t time.Time) string {
	year := t.Year()
	if t.Month() >= time.July {
		return fmt.Sprintf("%d-%02d", year, (year+1)%100)
	}
	return fmt.Sprintf("%d-%02d", year-1, year%100)
}

// FormatAU formats a date as DD/MM/YYYY.
func FormatAU(t time.Time) string {
	return t.Format("02/01/2006")
}

// FormatPRODA formats a date as YYYY/MM/DD for PRODA bulk upload files.
func FormatPRODA(t time.Time) string {
	return t.Format("2006/01/02")
}
