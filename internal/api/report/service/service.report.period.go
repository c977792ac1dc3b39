package reportsvc

import (
	"fmt"
	"time"
)

const monthLayout = "2006-01"

// MonthKey formats t as the month it falls in, in loc.
func MonthKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(monthLayout)
}

// MonthStart is midnight of the first day of t's month in loc.
func MonthStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
}

// MonthWindow parses a month key into its half-open [from, to) window in loc.
func MonthWindow(month string, loc *time.Location) (from, to time.Time, err error) {
	from, err = time.ParseInLocation(monthLayout, month, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month %q: %w", month, err)
	}
	return from, from.AddDate(0, 1, 0), nil
}
