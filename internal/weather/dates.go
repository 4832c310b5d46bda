package weather

import (
	"fmt"
	"time"
)

// WireTimeLayout is the instant format the AEMET API consumes and
// produces: a literal trailing "UTC", not a numeric offset.
const WireTimeLayout = "2006-01-02T15:04:05UTC"

// civilDateLayout is the calendar-date form accepted from callers.
const civilDateLayout = "2006-01-02"

// CivilRange converts a local calendar date range into the pair of
// wire-format UTC instants the upstream expects: local midnight of the
// start date and local 23:59:59 of the end date, both shifted to UTC.
func CivilRange(initDate, endDate string, loc *time.Location) (string, string, error) {
	start, err := time.ParseInLocation(civilDateLayout, initDate, loc)
	if err != nil {
		return "", "", &ValidationError{Msg: fmt.Sprintf("invalid init_date %q: expected YYYY-MM-DD", initDate)}
	}
	endDay, err := time.ParseInLocation(civilDateLayout, endDate, loc)
	if err != nil {
		return "", "", &ValidationError{Msg: fmt.Sprintf("invalid end_date %q: expected YYYY-MM-DD", endDate)}
	}

	end := time.Date(endDay.Year(), endDay.Month(), endDay.Day(), 23, 59, 59, 0, loc)

	return start.UTC().Format(WireTimeLayout), end.UTC().Format(WireTimeLayout), nil
}

// ParseWire parses a wire-format instant string. The result is in UTC.
func ParseWire(s string) (time.Time, error) {
	t, err := time.Parse(WireTimeLayout, s)
	if err != nil {
		return time.Time{}, &ValidationError{Msg: fmt.Sprintf("invalid instant %q: expected %s", s, WireTimeLayout)}
	}
	return t, nil
}
