package aitime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(env map[string]string, local string, now time.Time) *Resolver {
	r := NewFixedResolver("America/New_York", now)
	r.getenv = func(key string) string { return env[key] }
	r.localZone = func() string { return local }
	return r
}

func TestResolver_TimezoneOrder(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		hint  string
		env   map[string]string
		local string
		want  string
	}{
		{"hint wins", "Europe/Berlin", map[string]string{"TZ": "Asia/Tokyo"}, "Europe/Paris", "Europe/Berlin"},
		{"invalid hint falls to TZ", "Not/AZone", map[string]string{"TZ": "Asia/Tokyo"}, "Europe/Paris", "Asia/Tokyo"},
		{"runtime local zone", "", nil, "Europe/Paris", "Europe/Paris"},
		{"Local pseudo zone skipped", "", nil, "Local", "America/New_York"},
		{"default zone", "", nil, "", "America/New_York"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestResolver(tt.env, tt.local, now).Resolve(tt.hint, "")
			assert.Equal(t, tt.want, tc.UserTimezone)
			require.NotNil(t, tc.Location)
			assert.Equal(t, tt.want, tc.Location.String())
		})
	}
}

func TestResolver_SimulatedNow(t *testing.T) {
	clock := time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)
	r := newTestResolver(nil, "", clock)

	tc := r.Resolve("UTC", "2025-01-10T12:00:00Z")
	assert.Equal(t, time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC), tc.NowUTC)
	assert.Equal(t, "2025-01-10", tc.TodayUTCDate)
	assert.Equal(t, "2025-01-10T12:00:00Z", tc.NowISO())

	// Offsets are normalized to UTC.
	tc = r.Resolve("UTC", "2025-01-10T23:30:00-05:00")
	assert.Equal(t, "2025-01-11", tc.TodayUTCDate)
	assert.Equal(t, time.UTC, tc.NowUTC.Location())

	// Garbage falls back to the clock rather than failing.
	tc = r.Resolve("UTC", "yesterday-ish")
	assert.Equal(t, clock, tc.NowUTC)
}

func TestResolver_NoCaching(t *testing.T) {
	r := NewResolver("UTC")
	calls := 0
	base := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Minute)
	}

	first := r.Resolve("UTC", "")
	second := r.Resolve("UTC", "")
	assert.True(t, second.NowUTC.After(first.NowUTC))
	assert.Equal(t, 2, calls)
}

func TestTimeContext_LocalViews(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	tc := TimeContext{
		NowUTC:       time.Date(2025, 1, 11, 3, 0, 0, 0, time.UTC),
		UserTimezone: "America/New_York",
		TodayUTCDate: "2025-01-11",
		Location:     ny,
	}

	assert.Equal(t, "2025-01-10", tc.LocalDate())
	assert.Equal(t, "-05:00", tc.UTCOffset())
	assert.Equal(t, 22, tc.LocalNow().Hour())

	var zero TimeContext
	assert.Equal(t, time.UTC, zero.LocalNow().Location())
}
