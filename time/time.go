package time

import (
	"strings"
	"time"
)

// ShortDur shortens the string representation of a time.Duration from
// d.String(), dropping trailing zero units (1m0s -> 1m, 1h0m -> 1h).
func ShortDur(d time.Duration) string {
	s := d.String()
	if d == 0 {
		return "0s"
	}
	if strings.HasSuffix(s, "m0s") {
		s = s[:len(s)-2]
	}
	if strings.HasSuffix(s, "h0m") {
		s = s[:len(s)-2]
	}
	return s
}

// Since is a convenience wrapper for formatting the elapsed time from a
// start instant with ShortDur.
func Since(start time.Time) string {
	return ShortDur(time.Since(start).Round(time.Millisecond))
}
