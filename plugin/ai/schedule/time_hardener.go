// Package schedule hardens timestamps produced by the interpreter before
// anything is persisted or scheduled.
package schedule

import (
	"fmt"
	"strings"
	"time"
)

const secondsPerDay = 24 * 60 * 60

// EnsureFuture guarantees a scheduled timestamp lies strictly after now.
//
// An unparseable timestamp is returned unchanged: a time is never fabricated
// from bad input. A timestamp at or before now moves forward one calendar
// day at the same wall-clock time in its own offset; if that is still not
// after now, further whole days are added. A future timestamp is returned
// unchanged, so applying EnsureFuture to its own output is a no-op.
func EnsureFuture(timestamp string, now time.Time) (string, bool) {
	t, err := parseTimestamp(timestamp)
	if err != nil {
		return timestamp, false
	}

	if t.After(now) {
		return timestamp, false
	}

	// Whole days needed to pass now; unix seconds avoid Duration overflow.
	days := int((now.Unix()-t.Unix())/secondsPerDay) + 1
	adjusted := t.AddDate(0, 0, days)
	// AddDate keeps wall-clock time, so a DST shift may leave the estimate
	// one day off in either direction.
	for !adjusted.After(now) {
		adjusted = adjusted.AddDate(0, 0, 1)
		days++
	}
	for days > 1 {
		prev := t.AddDate(0, 0, days-1)
		if !prev.After(now) {
			break
		}
		adjusted = prev
		days--
	}

	return adjusted.Format(time.RFC3339), true
}

// RollForwardNote describes an adjustment made by EnsureFuture.
func RollForwardNote(field, original, adjusted string) string {
	return fmt.Sprintf("%s %s was not in the future; moved to %s.", field, original, adjusted)
}

// AppendNote appends fragment to note without discarding what is already there.
func AppendNote(note, fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return note
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return fragment
	}
	return note + " " + fragment
}

// ParseTimestamp parses an ISO-8601 instant with an explicit offset or "Z".
func ParseTimestamp(s string) (time.Time, error) {
	return parseTimestamp(s)
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q is not RFC 3339 with offset: %w", s, err)
	}
	return t, nil
}
