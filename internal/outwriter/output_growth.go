// Package outwriter has output and writer logic.
package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/fanpulse/fanpulse/core/algo"
	"github.com/fanpulse/fanpulse/internal/contract"
	"github.com/fanpulse/fanpulse/internal/parquet"
	"github.com/fanpulse/fanpulse/schema"
)

// maxDayColumns caps the trailing per-day delta columns of the growth table.
const maxDayColumns = 7

// PrintGrowthResults outputs a growth result, dispatching on the configured view and output format.
func PrintGrowthResults(result schema.GrowthResult, cfg *contract.Config, duration time.Duration) error {
	switch cfg.View {
	case schema.DayView:
		return printDayRanking(result, cfg, duration)
	case schema.TopView, schema.TotalView, schema.SingleView:
		series, err := SeriesForView(result, cfg.View, cfg.TopN, cfg.Entity)
		if err != nil {
			return err
		}
		return printSeries(series, cfg)
	default:
		return printGrowthTable(result, cfg, duration)
	}
}

// SeriesForView builds the chart series of a series view, annotated with the result's events.
func SeriesForView(result schema.GrowthResult, view schema.GrowthView, topN int, entity string) ([]schema.Series, error) {
	var series []schema.Series
	switch view {
	case schema.TotalView:
		series = []schema.Series{result.Table.TotalSeries()}
	case schema.SingleView:
		key, ok := resolveEntity(result.Table, entity)
		if !ok {
			return nil, fmt.Errorf("unknown entity '%s' in dataset %s", entity, result.Dataset)
		}
		s, _ := result.Table.EntitySeries(key)
		series = []schema.Series{s}
	default:
		series = result.Table.TopSeries(topN)
	}
	schema.AnnotateSeries(series, result.Events)
	return series, nil
}

// LimitTable keeps the limit entities leading the final day. Totals still cover every entity.
func LimitTable(table schema.GrowthTable, limit int) schema.GrowthTable {
	rows := algo.LimitRows(table.SortedByFinalDelta(), limit)
	rows = append([]schema.EntityRow(nil), rows...)
	sort.Slice(rows, func(i, j int) bool { return rows[i].EntityKey < rows[j].EntityKey })
	return schema.GrowthTable{Days: table.Days, Rows: rows, TotalsByDay: table.TotalsByDay}
}

// resolveEntity finds an entity by key, then by display name.
func resolveEntity(table schema.GrowthTable, entity string) (string, bool) {
	if _, ok := table.Row(entity); ok {
		return entity, true
	}
	for _, row := range table.Rows {
		if row.DisplayName == entity {
			return row.EntityKey, true
		}
	}
	return "", false
}

// printGrowthTable prints the entity x day table in the configured format.
func printGrowthTable(result schema.GrowthResult, cfg *contract.Config, duration time.Duration) error {
	table := LimitTable(result.Table, cfg.ResultLimit)
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, table.Contract())
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeGrowthCSV(w, table)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return parquet.WriteGrowthCells(w, parquet.ConvertGrowthTable(table))
		}, "Wrote Parquet")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeGrowthTable(w, result, table, cfg, duration)
		}, "Wrote table")
	}
}

// writeGrowthTable renders the human-readable growth table.
func writeGrowthTable(w io.Writer, result schema.GrowthResult, table schema.GrowthTable, cfg *contract.Config, duration time.Duration) error {
	if table.IsEmpty() {
		_, err := fmt.Fprintln(w, "No data")
		return err
	}
	tableWriter := tablewriter.NewWriter(w)

	dayCols := visibleDayColumns(cfg, len(table.Days))
	firstDay := len(table.Days) - dayCols
	labelWidth := getMaxTableLabelWidth(cfg, dayCols)

	headers := []string{"Rank", "Entity"}
	for _, day := range table.Days[firstDay:] {
		headers = append(headers, schema.ChartLabel(day))
	}
	headers = append(headers, "Value", "Change", "V.Rank")
	tableWriter.Header(headers)

	tableWriter.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	last := len(table.Days) - 1
	var data [][]string
	for _, row := range table.SortedByFinalDelta() {
		final := row.Cells[last]
		label := contract.TruncateLabel(entityLabel(row.EntityKey, row.DisplayName), labelWidth)
		if row.IsNew {
			label = newMarker(cfg) + " " + label
		}
		line := []string{rankText(final), label}
		for _, c := range row.Cells[firstDay:] {
			line = append(line, deltaText(c))
		}
		value, change, valueRank := "-", "", "-"
		if final.HasValue {
			value = formatCount(final.Value)
		}
		if final.Ranked {
			change = rankChangeLabel(final.RankChange, cfg)
			if final.ValueRank > 0 {
				valueRank = strconv.Itoa(final.ValueRank)
			}
		}
		line = append(line, value, change, valueRank)
		data = append(data, line)
	}

	if err := tableWriter.Bulk(data); err != nil {
		return err
	}
	if err := tableWriter.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Showing top %d of %d entities on %s (total growth: %s)\n",
		len(table.Rows), len(result.Table.Rows), table.FinalDay(), formatDelta(table.TotalsByDay[last])); err != nil {
		return err
	}
	if len(result.Issues) > 0 {
		if _, err := fmt.Fprintf(w, "Skipped %d malformed rows\n", len(result.Issues)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Computed in %v. Cache backend: %s\n", duration, cfg.CacheBackend)
	return err
}

// writeGrowthCSV writes one line per entity and day in display order.
func writeGrowthCSV(w io.Writer, table schema.GrowthTable) error {
	header := []string{"entity_key", "display_name", "day", "value", "delta", "rank", "rank_change", "value_rank", "is_new"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, row := range table.SortedByFinalDelta() {
			for i, c := range row.Cells {
				rec := []string{row.EntityKey, row.DisplayName, table.Days[i], "", "", "", "", "", strconv.FormatBool(row.IsNew)}
				if c.HasValue {
					rec[3] = strconv.FormatInt(c.Value, 10)
				}
				if c.Ranked {
					rec[4] = strconv.FormatInt(c.Delta, 10)
					rec[5] = strconv.Itoa(c.Rank)
					rec[6] = string(c.RankChange)
					rec[7] = itoaOrBlank(c.ValueRank)
				}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// printDayRanking prints the ranking of one day, the final day by default.
func printDayRanking(result schema.GrowthResult, cfg *contract.Config, duration time.Duration) error {
	day := cfg.Day
	if day == "" {
		day = result.Table.FinalDay()
	}
	ranking, ok := result.Table.DaySlice(day)
	if !ok {
		return fmt.Errorf("no data for day %s in dataset %s", day, result.Dataset)
	}
	if cfg.ResultLimit > 0 && len(ranking.Entries) > cfg.ResultLimit {
		ranking.Entries = ranking.Entries[:cfg.ResultLimit]
	}

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, ranking)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			header := []string{"day", "rank", "entity_key", "display_name", "value", "delta", "rank_change", "value_rank"}
			return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
				for _, e := range ranking.Entries {
					rec := []string{
						ranking.Day,
						strconv.Itoa(e.Rank),
						e.EntityKey,
						e.DisplayName,
						strconv.FormatInt(e.Value, 10),
						strconv.FormatInt(e.Delta, 10),
						string(e.RankChange),
						itoaOrBlank(e.ValueRank),
					}
					if err := cw.Write(rec); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is only supported for the table view")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDayTable(w, ranking, cfg, duration)
		}, "Wrote table")
	}
}

func writeDayTable(w io.Writer, ranking schema.DayRanking, cfg *contract.Config, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Entity", "Delta", "Change", "Value", "V.Rank"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	labelWidth := getMaxTableLabelWidth(cfg, 0)
	var data [][]string
	for _, e := range ranking.Entries {
		value, valueRank := "-", "-"
		// Entities without a snapshot that day have no value rank.
		if e.ValueRank > 0 {
			value, valueRank = formatCount(e.Value), strconv.Itoa(e.ValueRank)
		}
		data = append(data, []string{
			strconv.Itoa(e.Rank),
			contract.TruncateLabel(entityLabel(e.EntityKey, e.DisplayName), labelWidth),
			formatDelta(e.Delta),
			rankChangeLabel(e.RankChange, cfg),
			value,
			valueRank,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Ranking of %s (total growth: %s). Computed in %v\n", ranking.Day, formatDelta(ranking.Total), duration)
	return err
}

// printSeries prints chart series as data.
func printSeries(series []schema.Series, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, series)
		}, "Wrote JSON series")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSeriesCSV(w, series)
		}, "Wrote CSV series")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is only supported for the table view")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSeriesTable(w, series, cfg)
		}, "Wrote series table")
	}
}

func writeSeriesCSV(w io.Writer, series []schema.Series) error {
	header := []string{"series", "entity_key", "day", "label", "value", "missing", "events"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, s := range series {
			for _, p := range s.Points {
				rec := []string{
					s.Name,
					s.EntityKey,
					p.Day,
					p.Label,
					strconv.FormatInt(p.Value, 10),
					strconv.FormatBool(p.Missing),
					eventTitles(p.Events, nil),
				}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// writeSeriesTable prints one line per day with a column per series.
func writeSeriesTable(w io.Writer, series []schema.Series, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)

	headers := []string{"Day"}
	for _, s := range series {
		headers = append(headers, contract.TruncateLabel(s.Name, minLabelWidth))
	}
	headers = append(headers, "Events")
	table.Header(headers)
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	if len(series) == 0 {
		return table.Render()
	}

	colorize := func(ev schema.CalendarEvent) string {
		if cfg.UseColors {
			return contract.GetColorCategory(ev.Category)
		}
		return string(ev.Category)
	}

	var data [][]string
	for i, p := range series[0].Points {
		line := []string{p.Label}
		for _, s := range series {
			pt := s.Points[i]
			if pt.Missing {
				line = append(line, "-")
				continue
			}
			line = append(line, formatCount(pt.Value))
		}
		line = append(line, eventTitles(p.Events, colorize))
		data = append(data, line)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// eventTitles joins event titles as "[CATEGORY] title".
func eventTitles(events []schema.CalendarEvent, category func(schema.CalendarEvent) string) string {
	parts := make([]string, 0, len(events))
	for _, ev := range events {
		label := string(ev.Category)
		if category != nil {
			label = category(ev)
		}
		parts = append(parts, "["+label+"] "+ev.Title)
	}
	return strings.Join(parts, "; ")
}

func rankText(c schema.GrowthCell) string {
	if !c.Ranked {
		return "-"
	}
	return strconv.Itoa(c.Rank)
}

func deltaText(c schema.GrowthCell) string {
	if !c.Ranked {
		return "-"
	}
	return formatDelta(c.Delta)
}

func newMarker(cfg *contract.Config) string {
	if cfg.UseColors {
		return contract.NewColor.Sprint("NEW")
	}
	return "NEW"
}
