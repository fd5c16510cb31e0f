package algo

import (
	"cmp"
	"errors"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/fanpulse/fanpulse/internal/contract"
	"github.com/fanpulse/fanpulse/schema"
)

// Series is the normalized per-entity, per-day value table.
type Series struct {
	Days   []string                     // Distinct calendar days, ascending
	Keys   []string                     // Entity keys, ascending
	Values map[string]map[string]int64  // Entity key -> day -> value
	Meta   map[string]schema.EntityMeta // Entity key -> latest known metadata
}

// Value returns the daily value of an entity, if one exists.
func (s *Series) Value(key, day string) (int64, bool) {
	v, ok := s.Values[key][day]
	return v, ok
}

var (
	errEmptyValue    = errors.New("empty value")
	errNegativeValue = errors.New("negative value")
)

// parsedRow is a validated snapshot bucketed into a calendar day.
type parsedRow struct {
	schema.Snapshot
	day  string
	meta schema.EntityMeta
}

// Normalize validates raw snapshot rows and reduces them to one value per entity and day.
// Days are bucketed in loc. When several rows fall on the same day, the row with the
// highest seq wins, then the latest captured_at, then the highest value.
// Rows that cannot be parsed are skipped and returned as issues.
func Normalize(raws []schema.RawSnapshot, loc *time.Location) (*Series, []schema.RecordIssue) {
	if loc == nil {
		loc = time.UTC
	}
	var issues []schema.RecordIssue
	rows := make([]parsedRow, 0, len(raws))
	for i, raw := range raws {
		row, reason := parseRow(raw, loc)
		if reason != "" {
			issues = append(issues, schema.RecordIssue{Position: i, EntityKey: raw.EntityKey, Reason: reason})
			continue
		}
		rows = append(rows, row)
	}

	// Ascending by write order, so a later row overwrites an earlier one below
	slices.SortFunc(rows, compareRows)

	s := &Series{
		Values: make(map[string]map[string]int64),
		Meta:   make(map[string]schema.EntityMeta),
	}
	days := make(map[string]struct{})
	for _, row := range rows {
		byDay, ok := s.Values[row.EntityKey]
		if !ok {
			byDay = make(map[string]int64)
			s.Values[row.EntityKey] = byDay
			s.Keys = append(s.Keys, row.EntityKey)
		}
		byDay[row.day] = row.Value
		days[row.day] = struct{}{}
		s.Meta[row.EntityKey] = mergeMeta(s.Meta[row.EntityKey], row.meta)
	}
	for day := range days {
		s.Days = append(s.Days, day)
	}
	slices.Sort(s.Days)
	slices.Sort(s.Keys)
	return s, issues
}

func parseRow(raw schema.RawSnapshot, loc *time.Location) (parsedRow, string) {
	key := strings.TrimSpace(raw.EntityKey)
	if key == "" {
		return parsedRow{}, "missing entity key"
	}
	ts, err := contract.ParseTimestamp(raw.CapturedAt)
	if err != nil {
		return parsedRow{}, "invalid captured_at: " + err.Error()
	}
	value, err := parseValue(raw.Value)
	if err != nil {
		return parsedRow{}, "invalid value: " + err.Error()
	}
	row := parsedRow{
		Snapshot: schema.Snapshot{EntityKey: key, CapturedAt: ts, Value: value, Seq: raw.Seq},
		day:      contract.DayOf(ts, loc),
		meta: schema.EntityMeta{
			DisplayName: strings.TrimSpace(raw.DisplayName),
			CanonicalID: strings.TrimSpace(raw.CanonicalID),
		},
	}
	if raw.PublishedAt != "" {
		if pub, err := contract.ParseTimestamp(raw.PublishedAt); err == nil {
			row.meta.PublishedAt = contract.DayOf(pub, loc)
		}
	}
	return row, ""
}

// parseValue accepts integer text, and float text with no fractional part
// since some replicas serialize bigint columns as JSON numbers.
func parseValue(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errEmptyValue
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
			return 0, err
		}
		v = int64(f)
	}
	if v < 0 {
		return 0, errNegativeValue
	}
	return v, nil
}

func compareRows(a, b parsedRow) int {
	return cmp.Or(
		cmp.Compare(a.EntityKey, b.EntityKey),
		cmp.Compare(a.Seq, b.Seq),
		a.CapturedAt.Compare(b.CapturedAt),
		cmp.Compare(a.Value, b.Value),
	)
}

// mergeMeta overlays the non-empty fields of next onto prev.
func mergeMeta(prev, next schema.EntityMeta) schema.EntityMeta {
	if next.DisplayName != "" {
		prev.DisplayName = next.DisplayName
	}
	if next.CanonicalID != "" {
		prev.CanonicalID = next.CanonicalID
	}
	if next.PublishedAt != "" {
		prev.PublishedAt = next.PublishedAt
	}
	return prev
}
