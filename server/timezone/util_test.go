package timezone

import (
	"testing"
	"time"
)

func TestParseTimezone(t *testing.T) {
	tests := []struct {
		name    string
		tz      string
		wantErr bool
	}{
		{name: "UTC", tz: "UTC"},
		{name: "empty string defaults to UTC", tz: ""},
		{name: "America/New_York", tz: "America/New_York"},
		{name: "invalid timezone", tz: "Invalid/Timezone", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := ParseTimezone(tt.tz)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseTimezone() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if loc == nil {
				t.Errorf("ParseTimezone() returned nil location")
			}
		})
	}
}

func TestIsValidTimezone(t *testing.T) {
	tests := []struct {
		name string
		tz   string
		want bool
	}{
		{"UTC", "UTC", true},
		{"empty", "", true},
		{"Europe/London", "Europe/London", true},
		{"invalid", "Invalid/Timezone", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidTimezone(tt.tz); got != tt.want {
				t.Errorf("IsValidTimezone() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveTimezone(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
		want       string
	}{
		{"first valid wins", []string{"America/Chicago", "Europe/Paris"}, "America/Chicago"},
		{"skips invalid", []string{"Mars/Olympus", "Europe/Paris"}, "Europe/Paris"},
		{"skips Local and empty", []string{"", "Local", "Asia/Tokyo"}, "Asia/Tokyo"},
		{"strips TZ colon", []string{":America/Denver"}, "America/Denver"},
		{"falls back to UTC", []string{"nope"}, "UTC"},
		{"no candidates", nil, "UTC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, loc := ResolveTimezone(tt.candidates...)
			if name != tt.want {
				t.Errorf("ResolveTimezone() = %q, want %q", name, tt.want)
			}
			if loc == nil {
				t.Errorf("ResolveTimezone() returned nil location")
			}
		})
	}
}

func TestFormatForUser(t *testing.T) {
	ts := time.Date(2025, 1, 11, 14, 0, 0, 0, time.UTC)
	ny, _ := time.LoadLocation("America/New_York")

	if got := FormatForUser(ts, ny); got != "Sat Jan 11, 9:00 AM EST" {
		t.Errorf("FormatForUser() = %q", got)
	}
	if got := FormatForUser(ts, nil); got != "Sat Jan 11, 2:00 PM UTC" {
		t.Errorf("FormatForUser(nil) = %q", got)
	}
}

func TestStartOfDay(t *testing.T) {
	ny, _ := time.LoadLocation("America/New_York")
	ts := time.Date(2025, 1, 11, 3, 0, 0, 0, time.UTC) // Jan 10 22:00 in New York

	got := StartOfDay(ts, ny)
	want := time.Date(2025, 1, 10, 0, 0, 0, 0, ny)
	if !got.Equal(want) {
		t.Errorf("StartOfDay() = %v, want %v", got, want)
	}
}
