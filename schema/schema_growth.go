package schema

import "sort"

// GrowthCell is the derived record for one entity on one day.
// Cells before an entity's first value are not ranked. A ranked cell without a
// value is a day with no snapshot: delta 0 and no value rank.
type GrowthCell struct {
	HasValue   bool       `json:"has_value"`
	Value      int64      `json:"value"`
	Ranked     bool       `json:"ranked"`
	Delta      int64      `json:"delta"`
	Rank       int        `json:"rank,omitempty"`
	RankChange RankChange `json:"rank_change,omitempty"`
	ValueRank  int        `json:"value_rank,omitempty"` // Rank by the day's value, not its delta
}

// EntityRow holds one entity's cells, aligned with GrowthTable.Days.
type EntityRow struct {
	EntityKey string `json:"entity_key"`
	EntityMeta
	IsNew bool         `json:"is_new"`
	Cells []GrowthCell `json:"cells"`
}

// GrowthTable is the entity x day result of the growth transform.
// Rows are ordered by entity key; use SortedByFinalDelta for display order.
type GrowthTable struct {
	Days        []string    `json:"days"`
	Rows        []EntityRow `json:"rows"`
	TotalsByDay []int64     `json:"totals_by_day"`
}

// RankedEntry is one line of a single day's ranking.
type RankedEntry struct {
	Rank        int        `json:"rank"`
	EntityKey   string     `json:"entity_key"`
	DisplayName string     `json:"display_name,omitempty"`
	Value       int64      `json:"value"`
	Delta       int64      `json:"delta"`
	RankChange  RankChange `json:"rank_change"`
	ValueRank   int        `json:"value_rank"`
}

// DayRanking is the ranking of a single day.
type DayRanking struct {
	Day     string        `json:"day"`
	Total   int64         `json:"total"`
	Entries []RankedEntry `json:"entries"`
}

// SeriesPoint is one point of a chart series.
type SeriesPoint struct {
	Day     string          `json:"day"`
	Label   string          `json:"label"`
	Value   int64           `json:"value"`
	Missing bool            `json:"missing,omitempty"`
	Events  []CalendarEvent `json:"events,omitempty"`
}

// Series is a named sequence of chart points.
type Series struct {
	Name      string        `json:"name"`
	EntityKey string        `json:"entity_key,omitempty"`
	Points    []SeriesPoint `json:"points"`
}

// GrowthContract is the serialized shape handed to presentation layers.
// Missing cells are encoded as null.
type GrowthContract struct {
	Days          []string      `json:"days"`
	PerEntityRows []ContractRow `json:"perEntityRows"`
	TotalsByDay   []int64       `json:"totals_by_day"`
}

// ContractRow is one entity of a GrowthContract.
type ContractRow struct {
	EntityKey        string        `json:"entity_key"`
	DisplayName      string        `json:"display_name,omitempty"`
	ValuesByDay      []*int64      `json:"values_by_day"`
	DeltasByDay      []*int64      `json:"deltas_by_day"`
	RanksByDay       []*int        `json:"ranks_by_day"`
	RankChangesByDay []*RankChange `json:"rank_changes_by_day"`
}

// IsEmpty reports whether the table holds no days.
func (t GrowthTable) IsEmpty() bool {
	return len(t.Days) == 0
}

// FinalDay returns the latest day of the table, or "" for an empty table.
func (t GrowthTable) FinalDay() string {
	if len(t.Days) == 0 {
		return ""
	}
	return t.Days[len(t.Days)-1]
}

// DayIndex returns the position of day in Days, or -1.
func (t GrowthTable) DayIndex(day string) int {
	i := sort.SearchStrings(t.Days, day)
	if i < len(t.Days) && t.Days[i] == day {
		return i
	}
	return -1
}

// Row returns the row for an entity key.
func (t GrowthTable) Row(key string) (EntityRow, bool) {
	i := sort.Search(len(t.Rows), func(i int) bool { return t.Rows[i].EntityKey >= key })
	if i < len(t.Rows) && t.Rows[i].EntityKey == key {
		return t.Rows[i], true
	}
	return EntityRow{}, false
}

// SortedByFinalDelta returns a copy of the rows ordered by the final day's delta descending.
// Entities not ranked on the final day go last; ties fall back to entity key.
func (t GrowthTable) SortedByFinalDelta() []EntityRow {
	rows := make([]EntityRow, len(t.Rows))
	copy(rows, t.Rows)
	if len(t.Days) == 0 {
		return rows
	}
	last := len(t.Days) - 1
	sort.SliceStable(rows, func(i, j int) bool {
		ci, cj := rows[i].Cells[last], rows[j].Cells[last]
		if ci.Ranked != cj.Ranked {
			return ci.Ranked
		}
		if ci.Delta != cj.Delta {
			return ci.Delta > cj.Delta
		}
		return rows[i].EntityKey < rows[j].EntityKey
	})
	return rows
}

// DaySlice returns the ranking of a single day ordered by rank.
func (t GrowthTable) DaySlice(day string) (DayRanking, bool) {
	idx := t.DayIndex(day)
	if idx < 0 {
		return DayRanking{}, false
	}
	ranking := DayRanking{Day: day, Total: t.TotalsByDay[idx]}
	for _, row := range t.Rows {
		c := row.Cells[idx]
		if !c.Ranked {
			continue
		}
		ranking.Entries = append(ranking.Entries, RankedEntry{
			Rank:        c.Rank,
			EntityKey:   row.EntityKey,
			DisplayName: row.DisplayName,
			Value:       c.Value,
			Delta:       c.Delta,
			RankChange:  c.RankChange,
			ValueRank:   c.ValueRank,
		})
	}
	sort.Slice(ranking.Entries, func(i, j int) bool {
		return ranking.Entries[i].Rank < ranking.Entries[j].Rank
	})
	return ranking, true
}

// TotalSeries returns the aggregate growth series.
func (t GrowthTable) TotalSeries() Series {
	s := Series{Name: "total", Points: make([]SeriesPoint, len(t.Days))}
	for i, day := range t.Days {
		s.Points[i] = SeriesPoint{Day: day, Label: ChartLabel(day), Value: t.TotalsByDay[i]}
	}
	return s
}

// EntitySeries returns the delta-per-day series of one entity.
func (t GrowthTable) EntitySeries(key string) (Series, bool) {
	row, ok := t.Row(key)
	if !ok {
		return Series{}, false
	}
	return entitySeries(t.Days, row), true
}

// TopSeries returns the delta series of the n entities leading the final day.
func (t GrowthTable) TopSeries(n int) []Series {
	rows := t.SortedByFinalDelta()
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	out := make([]Series, 0, len(rows))
	for _, row := range rows {
		out = append(out, entitySeries(t.Days, row))
	}
	return out
}

// Contract converts the table to the presentation contract in default table order.
func (t GrowthTable) Contract() GrowthContract {
	c := GrowthContract{
		Days:          append([]string{}, t.Days...),
		PerEntityRows: []ContractRow{},
		TotalsByDay:   append([]int64{}, t.TotalsByDay...),
	}
	for _, row := range t.SortedByFinalDelta() {
		cr := ContractRow{
			EntityKey:        row.EntityKey,
			DisplayName:      row.DisplayName,
			ValuesByDay:      make([]*int64, len(t.Days)),
			DeltasByDay:      make([]*int64, len(t.Days)),
			RanksByDay:       make([]*int, len(t.Days)),
			RankChangesByDay: make([]*RankChange, len(t.Days)),
		}
		for i, cell := range row.Cells {
			value, delta, rank, change := cell.Value, cell.Delta, cell.Rank, cell.RankChange
			if cell.HasValue {
				cr.ValuesByDay[i] = &value
			}
			if cell.Ranked {
				cr.DeltasByDay[i] = &delta
				cr.RanksByDay[i] = &rank
				cr.RankChangesByDay[i] = &change
			}
		}
		c.PerEntityRows = append(c.PerEntityRows, cr)
	}
	return c
}

func entitySeries(days []string, row EntityRow) Series {
	name := row.DisplayName
	if name == "" {
		name = row.EntityKey
	}
	s := Series{Name: name, EntityKey: row.EntityKey, Points: make([]SeriesPoint, len(days))}
	for i, day := range days {
		c := row.Cells[i]
		s.Points[i] = SeriesPoint{Day: day, Label: ChartLabel(day), Value: c.Delta, Missing: !c.Ranked}
	}
	return s
}

// GrowthResult is a computed growth table together with what is needed to present it.
type GrowthResult struct {
	Dataset string          `json:"dataset"`
	Table   GrowthTable     `json:"table"`
	Events  []CalendarEvent `json:"events,omitempty"`
	Issues  []RecordIssue   `json:"issues,omitempty"` // Rows skipped while normalizing
}
