package finance

import (
	"fmt"
	"time"

	"github.com/hubpessoal/hub/internal/common"
)

// MonthRange returns the first and last calendar day of the month as
// YYYY-MM-DD strings, plus the number of days in it.
func MonthRange(year, month int) (from, to string, days int, err error) {
	if year < 1 || year > 9999 {
		return "", "", 0, common.NewValidationError("year out of range")
	}
	if month < 1 || month > 12 {
		return "", "", 0, common.NewValidationError("month must be between 1 and 12")
	}

	days = DaysInMonth(year, time.Month(month))
	from = fmt.Sprintf("%04d-%02d-01", year, month)
	to = fmt.Sprintf("%04d-%02d-%02d", year, month, days)
	return from, to, days, nil
}

// DaysInMonth lets the calendar normalise day 0 of the next month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ValidDate reports whether s is a real calendar day in YYYY-MM-DD form.
func ValidDate(s string) bool {
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}
