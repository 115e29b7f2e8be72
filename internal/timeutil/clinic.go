package timeutil

import (
	"time"
)

// Location is the clinic's local timezone. Dates and agenda days are
// interpreted in it.
var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		// Fallback: fixed offset if tzdata is not available
		Location = time.FixedZone("BRT", -3*60*60)
	}
}

// SetLocation switches the clinic timezone. Unknown names keep the current one.
func SetLocation(name string) error {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return err
	}
	Location = loc
	return nil
}

// Now returns the current time in the clinic timezone
func Now() time.Time {
	return time.Now().In(Location)
}

// Today returns the clinic-local calendar date as YYYY-MM-DD
func Today() string {
	return Now().Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD calendar date in the clinic timezone
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, Location)
}

// StartOfDay returns the start of day (00:00:00) in the clinic timezone
func StartOfDay(t time.Time) time.Time {
	local := t.In(Location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, Location)
}

// EndOfDay returns the last instant of the day in the clinic timezone
func EndOfDay(t time.Time) time.Time {
	local := t.In(Location)
	return time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, 999999999, Location)
}

const (
	DateLayout     = "2006-01-02"
	ClockLayout    = "15:04"
	DateTimeLayout = "2006-01-02 15:04:05"
	DisplayLayout  = "02/01/2006 15:04"
)
