package contract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    time.Time
		expectError bool
	}{
		{
			name:     "rfc3339 with zone",
			input:    "2026-01-05T14:30:00+09:00",
			expected: time.Date(2026, 1, 5, 5, 30, 0, 0, time.UTC),
		},
		{
			name:     "rfc3339 with fraction",
			input:    "2026-01-05T14:30:00.123456Z",
			expected: time.Date(2026, 1, 5, 14, 30, 0, 123456000, time.UTC),
		},
		{
			name:     "postgres text form",
			input:    "2026-01-05 14:30:00.5+00",
			expected: time.Date(2026, 1, 5, 14, 30, 0, 500000000, time.UTC),
		},
		{
			name:     "no zone is utc",
			input:    "2026-01-05T14:30:00",
			expected: time.Date(2026, 1, 5, 14, 30, 0, 0, time.UTC),
		},
		{
			name:     "date only",
			input:    "2026-01-05",
			expected: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		},
		{name: "empty", input: "  ", expectError: true},
		{name: "garbage", input: "yesterday", expectError: true},
		{name: "slashes", input: "2026/01/05", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got), "expected %v, got %v", tt.expected, got)
		})
	}
}

func TestParseOffset(t *testing.T) {
	tests := []struct {
		input       string
		wantSecs    int
		expectError bool
	}{
		{"+09:00", 9 * 3600, false},
		{"+0900", 9 * 3600, false},
		{"+9", 9 * 3600, false},
		{"-05:30", -(5*3600 + 30*60), false},
		{"Z", 0, false},
		{"", 0, false},
		{"UTC", 0, false},
		{"Asia/Tokyo", 0, true},
		{"+15:00", 0, true},
		{"+09:75", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			loc, err := ParseOffset(tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			_, secs := time.Date(2026, 1, 1, 0, 0, 0, 0, loc).Zone()
			assert.Equal(t, tt.wantSecs, secs)
		})
	}
}

func TestDayOf(t *testing.T) {
	jst, err := ParseOffset("+09:00")
	require.NoError(t, err)

	// 16:00 UTC is already the next day in JST
	ts := time.Date(2026, 1, 5, 16, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-01-06", DayOf(ts, jst))
	assert.Equal(t, "2026-01-05", DayOf(ts, time.UTC))
}

func TestFormatOffset(t *testing.T) {
	assert.Equal(t, "+09:00", FormatOffset(9*3600))
	assert.Equal(t, "-05:30", FormatOffset(-(5*3600 + 30*60)))
	assert.Equal(t, "+00:00", FormatOffset(0))
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"2026-02-02", "2026-02-02"},
		{"2026/2/2", "2026-02-02"},
		{"2026-02-02T09:00:00Z", "2026-02-02"},
		{"2026-02-02 09:00:00+00", "2026-02-02"},
		{" 2026/12/31 ", "2026-12-31"},
		{"", ""},
		{"Unknown", "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeDate(tt.input))
		})
	}
}
