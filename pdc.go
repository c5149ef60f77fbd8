package astiepg

import "time"

// computeVPSTime turns a PDC descriptor's (month, day, hour, minute) into
// an absolute time anchored on now's year, zone and locale. Since PDC only
// carries month/day/hour/minute (no year), the year is inferred from now,
// bumped by one in either direction when the PDC month and now's month
// straddle a year boundary (a December broadcast signalling a January
// PDC, or vice-versa for a January broadcast signalling a December rerun
// announcement).
func computeVPSTime(now time.Time, month time.Month, day, hour, minute int) time.Time {
	year := now.Year()
	switch {
	case month == time.January && now.Month() == time.December:
		year++
	case month == time.December && now.Month() == time.January:
		year--
	}

	// time.Date resolves the zone offset (including DST) for the
	// constructed wall-clock instant itself, which is the Go equivalent of
	// mktime with tm_isdst = -1: let the location decide, don't inherit
	// now's offset blindly.
	return time.Date(year, month, day, hour, minute, 0, 0, now.Location())
}
