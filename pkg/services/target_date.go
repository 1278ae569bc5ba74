package services

import (
	"fmt"
	"strings"
	"time"
)

// ParseTargetDate resolves an ISO date, a YYYY-MM month or one of the
// relative forms "next month", "1 month", "next year", "1 year" against today.
// Month and relative forms resolve to the first day of the month.
func ParseTargetDate(raw string, today time.Time) (time.Time, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: target_date is required", ErrInvalidTargetDate)
	}

	switch value {
	case "next month", "1 month":
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		return first.AddDate(0, 1, 0), nil
	case "next year", "1 year":
		return time.Date(today.Year()+1, today.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}

	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01", value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTargetDate, raw)
}

// MonthsAhead is the calendar month distance from today to target, never below 1.
func MonthsAhead(target, today time.Time) int {
	months := (target.Year()-today.Year())*12 + int(target.Month()) - int(today.Month())
	if months < 1 {
		return 1
	}
	return months
}

// FormatDate renders a target date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
