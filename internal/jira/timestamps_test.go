package jira

import (
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"jira cloud format", "2024-01-15T10:30:00.000+0000", false},
		{"jira utc format", "2024-01-15T10:30:00.000Z", false},
		{"no millis with offset", "2024-01-15T10:30:00+0100", false},
		{"no millis utc", "2024-01-15T10:30:00Z", false},
		{"rfc3339", "2024-01-15T10:30:00+01:00", false},
		{"empty", "", true},
		{"garbage", "yesterday", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseTimestamp(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimestamp(%q): %v", tt.input, err)
			}
			if got.Year() != 2024 || got.Month() != time.January || got.Day() != 15 {
				t.Errorf("ParseTimestamp(%q) = %v, wrong date", tt.input, got)
			}
		})
	}
}

func TestFormatJQLTime(t *testing.T) {
	ts := time.Date(2024, 3, 7, 9, 5, 42, 0, time.UTC)
	got := FormatJQLTime(ts)
	if got != `"2024-03-07 09:05"` {
		t.Errorf("FormatJQLTime() = %s, want quoted minute-precision literal", got)
	}

	// Non-UTC input is normalized to UTC before formatting.
	est := time.FixedZone("EST", -5*3600)
	got = FormatJQLTime(time.Date(2024, 3, 7, 4, 5, 42, 0, est))
	if got != `"2024-03-07 09:05"` {
		t.Errorf("FormatJQLTime() = %s, want UTC-normalized literal", got)
	}
}
