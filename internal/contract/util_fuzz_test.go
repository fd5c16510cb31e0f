package contract

import (
	"testing"
	"unicode/utf8"
)

// FuzzTruncateLabel fuzzes TruncateLabel with random labels and widths.
func FuzzTruncateLabel(f *testing.F) {
	seeds := []struct {
		label string
		width int
	}{
		{"【MV】Title", 8},
		{"", 0},
		{"short", 100},
		{"ハイ!問題作", 4},
	}
	for _, seed := range seeds {
		f.Add(seed.label, seed.width)
	}

	f.Fuzz(func(t *testing.T, label string, width int) {
		if !utf8.ValidString(label) {
			return
		}
		got := TruncateLabel(label, width)
		if width > 3 && utf8.RuneCountInString(got) > width {
			t.Fatalf("TruncateLabel(%q, %d) = %q exceeds width", label, width, got)
		}
	})
}

// FuzzParseTimestamp makes sure timestamp parsing never panics.
func FuzzParseTimestamp(f *testing.F) {
	for _, seed := range []string{"2026-01-05T14:30:00+09:00", "2026-01-05", "", "2026-13-45 99:99:99"} {
		f.Add(seed)
	}
	f.Fuzz(func(_ *testing.T, s string) {
		_, _ = ParseTimestamp(s)
		_, _ = ParseOffset(s)
		_ = NormalizeDate(s)
	})
}
