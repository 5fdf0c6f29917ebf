// Package aitime supplies the authoritative "now" and user timezone for
// every interpretation request.
package aitime

import (
	"time"
)

// TimeContext is the time ground truth for one interpretation request.
// It is computed fresh per request and never reused across requests.
type TimeContext struct {
	NowUTC       time.Time      `json:"now_utc"`
	UserTimezone string         `json:"user_timezone"`
	TodayUTCDate string         `json:"today_utc_date"`
	Location     *time.Location `json:"-"`
}

// TimeResolver produces a TimeContext from optional overrides.
type TimeResolver interface {
	// Resolve never fails: every branch falls back to a usable value.
	Resolve(timezoneHint string, simulatedNow string) TimeContext
}

// NowISO returns NowUTC as an RFC 3339 instant with a "Z" suffix.
func (tc TimeContext) NowISO() string {
	return tc.NowUTC.UTC().Format(time.RFC3339)
}

// LocalNow returns NowUTC in the user's timezone.
func (tc TimeContext) LocalNow() time.Time {
	return tc.NowUTC.In(tc.location())
}

// LocalDate returns the calendar date in the user's timezone.
func (tc TimeContext) LocalDate() string {
	return tc.LocalNow().Format(time.DateOnly)
}

// UTCOffset returns the user's current offset as "+HH:MM".
func (tc TimeContext) UTCOffset() string {
	return tc.LocalNow().Format("-07:00")
}

func (tc TimeContext) location() *time.Location {
	if tc.Location == nil {
		return time.UTC
	}
	return tc.Location
}
