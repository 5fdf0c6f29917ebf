// Package timezone provides timezone utilities for armi.
//
// This package handles timezone resolution, parsing, and formatting
// to ensure consistent time handling across the application.
package timezone

import (
	"fmt"
	"strings"
	"time"
)

// UTC is the coordinated universal time timezone
var UTC = time.UTC

// TimezoneUTC is the UTC timezone identifier
const TimezoneUTC = "UTC"

// ParseTimezone parses an IANA timezone identifier (e.g., "America/New_York").
// If the timezone is invalid, returns UTC and an error.
func ParseTimezone(tz string) (*time.Location, error) {
	if tz == "" || tz == TimezoneUTC {
		return UTC, nil
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return UTC, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}

	return loc, nil
}

// IsValidTimezone checks if a timezone identifier is valid.
func IsValidTimezone(tz string) bool {
	if tz == "" || tz == TimezoneUTC {
		return true
	}

	_, err := time.LoadLocation(tz)
	return err == nil
}

// ResolveTimezone returns the first loadable zone among candidates.
// Empty candidates and the pseudo zone "Local" are skipped; when nothing
// resolves the result is UTC. It never fails.
func ResolveTimezone(candidates ...string) (string, *time.Location) {
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" || c == "Local" {
			continue
		}
		// TZ values may carry a leading colon (":America/Denver").
		c = strings.TrimPrefix(c, ":")
		if loc, err := time.LoadLocation(c); err == nil {
			return c, loc
		}
	}
	return TimezoneUTC, UTC
}

// FormatForUser renders t in tz for summaries shown to the user.
// Example: "Sat Jan 11, 9:00 AM EST"
func FormatForUser(t time.Time, tz *time.Location) string {
	if tz == nil {
		tz = UTC
	}
	return t.In(tz).Format("Mon Jan 2, 3:04 PM MST")
}

// StartOfDay returns the start of the day (00:00:00) in the given timezone.
func StartOfDay(t time.Time, tz *time.Location) time.Time {
	if tz == nil {
		tz = UTC
	}
	local := t.In(tz)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, tz)
}
