package cli

import (
	"testing"
	"time"
)

func TestParseRelativeTime(t *testing.T) {
	// Thursday morning.
	now := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		input string
		want  time.Time
	}{
		{"45m ago", now.Add(-45 * time.Minute)},
		{"3h ago", now.Add(-3 * time.Hour)},
		{"2d ago", now.Add(-48 * time.Hour)},
		{"1w ago", now.Add(-7 * 24 * time.Hour)},
		{"2mo ago", now.AddDate(0, -2, 0)},
		{"yesterday", time.Date(2026, 8, 19, 0, 0, 0, 0, time.UTC)},
		{"today", time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)},
		{"tomorrow", time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)},
		{"Yesterday", time.Date(2026, 8, 19, 0, 0, 0, 0, time.UTC)},
		{"monday", time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)},
		{"this sat", time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC)},
		{"next thu", time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)},
		{"1h", now.Add(time.Hour)},
		{"30m", now.Add(30 * time.Minute)},
		{"2026-08-01", time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)},
		{"2026-08-15T12:00:00Z", time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRelativeTime(tt.input, now)
			if err != nil {
				t.Fatalf("ParseRelativeTime(%q): %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("ParseRelativeTime(%q) = %s, want %s", tt.input,
					got.Format(time.RFC3339), tt.want.Format(time.RFC3339))
			}
		})
	}
}

func TestParseRelativeTime_Invalid(t *testing.T) {
	now := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)

	for _, input := range []string{"", "   ", "whenever", "h ago", "0h ago", "08/20/2026"} {
		if _, err := ParseRelativeTime(input, now); err == nil {
			t.Errorf("ParseRelativeTime(%q) should fail", input)
		}
	}
}

func TestStartOfDay(t *testing.T) {
	sample := time.Date(2026, 8, 20, 23, 59, 59, 0, time.UTC)
	if got := startOfDay(sample); !got.Equal(time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("startOfDay = %s", got.Format(time.RFC3339))
	}
}
