package aitime

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/hrygo/armi/server/timezone"
)

// Resolver implements TimeResolver against the system clock and environment.
type Resolver struct {
	defaultTimezone string
	now             func() time.Time
	getenv          func(string) string
	localZone       func() string
}

// NewResolver creates a resolver with a fixed fallback zone.
func NewResolver(defaultTimezone string) *Resolver {
	return &Resolver{
		defaultTimezone: defaultTimezone,
		now:             time.Now,
		getenv:          os.Getenv,
		localZone:       func() string { return time.Local.String() },
	}
}

// NewFixedResolver returns a resolver whose clock is frozen at now.
func NewFixedResolver(defaultTimezone string, now time.Time) *Resolver {
	r := NewResolver(defaultTimezone)
	r.now = func() time.Time { return now }
	return r
}

// Resolve builds a TimeContext. The timezone comes from the hint, then the
// TZ environment variable, then the runtime's local zone, then the default.
// "now" comes from simulatedNow when it parses as RFC 3339, else the clock.
func (r *Resolver) Resolve(timezoneHint string, simulatedNow string) TimeContext {
	if timezoneHint != "" && !timezone.IsValidTimezone(timezoneHint) {
		slog.Debug("ignoring invalid timezone hint", "timezone", timezoneHint)
	}

	name, loc := timezone.ResolveTimezone(
		timezoneHint,
		r.getenv("TZ"),
		r.localZone(),
		r.defaultTimezone,
	)

	now := r.now()
	if s := strings.TrimSpace(simulatedNow); s != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
			now = parsed
		} else {
			slog.Warn("ignoring unparseable simulated now", "simulated_now", s, "error", err)
		}
	}
	now = now.UTC()

	return TimeContext{
		NowUTC:       now,
		UserTimezone: name,
		TodayUTCDate: now.Format(time.DateOnly),
		Location:     loc,
	}
}

// Ensure Resolver implements TimeResolver
var _ TimeResolver = (*Resolver)(nil)
