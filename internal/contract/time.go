package contract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are tried in order when parsing snapshot timestamps.
// Layouts without a zone are read as UTC, the storage zone of the source tables.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

var offsetPattern = regexp.MustCompile(`^([+-])(\d{1,2})(?::?(\d{2}))?$`)

// ParseTimestamp parses a snapshot timestamp in any of the accepted layouts.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// ParseOffset parses a fixed UTC offset such as "+09:00", "-0530", "+9" or "Z".
func ParseOffset(s string) (*time.Location, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "Z" || strings.EqualFold(s, "UTC") {
		return time.UTC, nil
	}
	m := offsetPattern.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("invalid offset %q (expected e.g. +09:00)", s)
	}
	hours, _ := strconv.Atoi(m[2])
	minutes := 0
	if m[3] != "" {
		minutes, _ = strconv.Atoi(m[3])
	}
	if hours > 14 || minutes > 59 {
		return nil, fmt.Errorf("offset %q out of range", s)
	}
	secs := hours*3600 + minutes*60
	if m[1] == "-" {
		secs = -secs
	}
	return time.FixedZone(FormatOffset(secs), secs), nil
}

// FormatOffset renders an offset in seconds as "+09:00".
func FormatOffset(secs int) string {
	sign := "+"
	if secs < 0 {
		sign = "-"
		secs = -secs
	}
	return fmt.Sprintf("%s%02d:%02d", sign, secs/3600, (secs%3600)/60)
}

// DayOf returns the calendar day of t in loc as YYYY-MM-DD.
func DayOf(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// NormalizeDate reduces a loosely formatted date such as "2026/2/2" or
// "2026-02-02T09:00:00Z" to YYYY-MM-DD. Input it cannot split is returned trimmed.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	date, _, _ := strings.Cut(s, "T")
	date, _, _ = strings.Cut(date, " ")
	date = strings.ReplaceAll(date, "/", "-")
	parts := strings.Split(date, "-")
	if len(parts) != 3 {
		return date
	}
	pad := func(p string) string {
		if len(p) == 1 {
			return "0" + p
		}
		return p
	}
	return parts[0] + "-" + pad(parts[1]) + "-" + pad(parts[2])
}
