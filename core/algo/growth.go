package algo

import (
	"time"

	"github.com/fanpulse/fanpulse/schema"
)

// NewReleaseWindow is how long after publication an entity counts as new.
const NewReleaseWindow = 30 * 24 * time.Hour

// ComputeGrowthTable turns raw snapshot rows into the ranked daily-growth table.
// It is pure: the same rows in any order give the same table.
func ComputeGrowthTable(snapshots []schema.RawSnapshot, offset *time.Location) (schema.GrowthTable, []schema.RecordIssue) {
	series, issues := Normalize(snapshots, offset)
	return Transform(series), issues
}

// Transform computes deltas, ranks and rank changes day by day.
//
// From its first value on, an entity is ranked every day. Its delta is the day's value
// minus its most recent earlier value (0 if none, clamped at 0), or 0 on a day without
// a value. Ranks order deltas descending with ties broken by key, and rank changes
// compare with the previous day's rank. Days before the first value stay empty.
func Transform(series *Series) schema.GrowthTable {
	table := schema.GrowthTable{
		Days:        []string{},
		Rows:        []schema.EntityRow{},
		TotalsByDay: []int64{},
	}
	if series == nil || len(series.Days) == 0 {
		return table
	}
	table.Days = append(table.Days, series.Days...)
	table.TotalsByDay = make([]int64, len(series.Days))

	rowIndex := make(map[string]int, len(series.Keys))
	for i, key := range series.Keys {
		rowIndex[key] = i
		table.Rows = append(table.Rows, schema.EntityRow{
			EntityKey:  key,
			EntityMeta: series.Meta[key],
			Cells:      make([]schema.GrowthCell, len(series.Days)),
		})
	}

	lastValue := make(map[string]int64)
	lastRank := make(map[string]int)
	for di, day := range series.Days {
		var byDelta, byValue []scored
		for _, key := range series.Keys {
			prev, seen := lastValue[key]
			value, ok := series.Value(key, day)
			if !ok && !seen {
				continue
			}

			cell := &table.Rows[rowIndex[key]].Cells[di]
			cell.Ranked = true
			if ok {
				if seen {
					cell.Delta = max(0, value-prev)
				}
				cell.HasValue = true
				cell.Value = value
				lastValue[key] = value
				byValue = append(byValue, scored{key: key, score: value})
			}

			byDelta = append(byDelta, scored{key: key, score: cell.Delta})
			table.TotalsByDay[di] += cell.Delta
		}

		ranks := rankOrder(byDelta)
		valueRanks := rankOrder(byValue)
		dayRanks := make(map[string]int, len(ranks))
		for key, rank := range ranks {
			cell := &table.Rows[rowIndex[key]].Cells[di]
			prev, hadPrev := lastRank[key]
			cell.Rank = rank
			cell.RankChange = rankChange(prev, rank, hadPrev)
			cell.ValueRank = valueRanks[key]
			dayRanks[key] = rank
		}
		lastRank = dayRanks
	}

	markNewReleases(&table)
	return table
}

// markNewReleases flags entities published within NewReleaseWindow of the final day.
func markNewReleases(table *schema.GrowthTable) {
	final, err := schema.ParseDay(table.FinalDay())
	if err != nil {
		return
	}
	for i := range table.Rows {
		row := &table.Rows[i]
		if row.PublishedAt == "" {
			continue
		}
		published, err := schema.ParseDay(row.PublishedAt)
		if err != nil {
			continue
		}
		row.IsNew = final.Sub(published) <= NewReleaseWindow
	}
}
