/*
Package period provides calendar-month periods and the date arithmetic built
on them.

PURPOSE:
  Claims, reconciliations and exception rules are all keyed by a month of a
  year. Period is that key. Dates are handled as UTC midnights so day counts
  never drift across daylight-saving boundaries.

KEY CONCEPTS:
  - Period: {Month 1..12, Year}
  - Financial year: July to June, labelled "2025-26"
  - Pro-rata days: inclusive occupied days inside a period

USAGE:
  p := period.Period{Month: 2, Year: 2026}
  p.Days()       // 28
  p.String()     // "2026-02"
  p.Previous()   // {1 2026}

SEE ALSO:
  - dates.go: date helpers and display formats
  - claims/generator.go: pro-ration by occupied days
*/
package period

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrInvalidPeriod is returned when a month or year is out of range.
var ErrInvalidPeriod = errors.New("invalid period")

// Period is a calendar month.
type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// New validates and builds a Period.
func New(month, year int) (Period, error) {
	p := Period{Month: month, Year: year}
	if !p.Valid() {
		return Period{}, fmt.Errorf("%w: month=%d year=%d", ErrInvalidPeriod, month, year)
	}
	return p, nil
}

// Of returns the period containing t.
func Of(t time.Time) Period {
	return Period{Month: int(t.Month()), Year: t.Year()}
}

// Valid reports whether the month is 1..12 and the year is 2000..2100.
func (p Period) Valid() bool {
	return p.Month >= 1 && p.Month <= 12 && p.Year >= 2000 && p.Year <= 2100
}

// Start returns the first day of the period.
func (p Period) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last day of the period.
func (p Period) End() time.Time {
	return time.Date(p.Year, time.Month(p.Month)+1, 0, 0, 0, 0, 0, time.UTC)
}

// Days returns the number of days in the period.
func (p Period) Days() int {
	return p.End().Day()
}

// Contains reports whether the date t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return t.Year() == p.Year && int(t.Month()) == p.Month
}

// Previous returns the month before p.
func (p Period) Previous() Period {
	if p.Month == 1 {
		return Period{Month: 12, Year: p.Year - 1}
	}
	return Period{Month: p.Month - 1, Year: p.Year}
}

// Next returns the month after p.
func (p Period) Next() Period {
	if p.Month == 12 {
		return Period{Month: 1, Year: p.Year + 1}
	}
	return Period{Month: p.Month + 1, Year: p.Year}
}

// Compare returns -1 if p is before o, 0 if equal and 1 if after.
func (p Period) Compare(o Period) int {
	switch {
	case p.Year != o.Year:
		if p.Year < o.Year {
			return -1
		}
		return 1
	case p.Month != o.Month:
		if p.Month < o.Month {
			return -1
		}
		return 1
	}
	return 0
}

// Before reports whether p is strictly earlier than o.
func (p Period) Before(o Period) bool { return p.Compare(o) < 0 }

// InFinancialYear reports whether p falls in the July-June financial year
// beginning in fyStartYear.
func (p Period) InFinancialYear(fyStartYear int) bool {
	if p.Year == fyStartYear && p.Month >= 7 {
		return true
	}
	return p.Year == fyStartYear+1 && p.Month <= 6
}

// String returns the file-safe form "2026-02".
func (p Period) String() string {
	return fmt.Sprintf("%d-%02d", p.Year, p.Month)
}

// Display returns the human form "February 2026".
func (p Period) Display() string {
	if p.Month < 1 || p.Month > 12 {
		return p.String()
	}
	return fmt.Sprintf("%s %d", time.Month(p.Month), p.Year)
}

var periodForm = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

// Parse reads the "2026-02" form produced by String. Anything else,
// including "2026-2" or trailing text, is rejected.
func Parse(s string) (Period, error) {
	m := periodForm.FindStringSubmatch(s)
	if m == nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	p := Period{Month: month, Year: year}
	if !p.Valid() {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return p, nil
}

// ProRataDays counts the occupied days of p, inclusive, for a tenancy that
// may start or end inside the period. Nil dates mean "before the period" and
// "after the period" respectively. The result is never negative.
func (p Period) ProRataDays(moveIn, moveOut *time.Time) int {
	start, end := p.Start(), p.End()
	if moveIn != nil {
		if in := DateOf(*moveIn); in.After(start) {
			start = in
		}
	}
	if moveOut != nil {
		if out := DateOf(*moveOut); out.Before(end) {
			end = out
		}
	}
	days := DaysBetween(start, end) + 1
	if days < 0 {
		return 0
	}
	return days
}
