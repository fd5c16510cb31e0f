package schema

import (
	"strconv"
	"strings"
	"time"
)

// DayLayout is the layout of every calendar day string.
const DayLayout = "2006-01-02"

// ChartLabel formats a day as "M/D" for chart axes ("2026-01-05" -> "1/5").
// Unparseable input is returned unchanged.
func ChartLabel(day string) string {
	parts := strings.Split(day, "-")
	if len(parts) != 3 {
		return day
	}
	m, err1 := strconv.Atoi(parts[1])
	d, err2 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil {
		return day
	}
	return strconv.Itoa(m) + "/" + strconv.Itoa(d)
}

// ParseDay parses a YYYY-MM-DD day.
func ParseDay(day string) (time.Time, error) {
	return time.Parse(DayLayout, day)
}

// AnnotateSeries attaches events to the points falling on their date.
func AnnotateSeries(series []Series, events []CalendarEvent) {
	if len(events) == 0 {
		return
	}
	byDay := make(map[string][]CalendarEvent)
	for _, ev := range events {
		byDay[ev.EventDate] = append(byDay[ev.EventDate], ev)
	}
	for si := range series {
		for pi := range series[si].Points {
			p := &series[si].Points[pi]
			p.Events = byDay[p.Day]
		}
	}
}

// GrowthRecords flattens the ranked cells of a table for storage.
// Days without a snapshot are stored with value 0 and value rank 0.
func GrowthRecords(runID int64, table GrowthTable) []GrowthRecordRow {
	var out []GrowthRecordRow
	for _, row := range table.Rows {
		for i, c := range row.Cells {
			if !c.Ranked {
				continue
			}
			out = append(out, GrowthRecordRow{
				RunID:      runID,
				EntityKey:  row.EntityKey,
				Day:        table.Days[i],
				Value:      c.Value,
				Delta:      c.Delta,
				Rank:       int32(c.Rank),
				ValueRank:  int32(c.ValueRank),
				RankChange: string(c.RankChange),
			})
		}
	}
	return out
}
