package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fanpulse/fanpulse/core/algo"
	"github.com/fanpulse/fanpulse/internal/contract"
	"github.com/fanpulse/fanpulse/schema"
)

func growthFixture(t *testing.T) schema.GrowthResult {
	t.Helper()
	jst := time.FixedZone("+09:00", 9*60*60)
	raws := []schema.RawSnapshot{
		{EntityKey: "vid-a", DisplayName: "Blue Moon", CapturedAt: "2026-01-01T10:00:00+09:00", Value: "1000", Seq: 1},
		{EntityKey: "vid-b", DisplayName: "Night Drive", CapturedAt: "2026-01-01T10:00:00+09:00", Value: "2000", Seq: 2},
		{EntityKey: "vid-c", CapturedAt: "2026-01-01T10:00:00+09:00", Value: "10", Seq: 3},
		{EntityKey: "vid-a", DisplayName: "Blue Moon", CapturedAt: "2026-01-02T10:00:00+09:00", Value: "1500", Seq: 4},
		{EntityKey: "vid-b", DisplayName: "Night Drive", CapturedAt: "2026-01-02T10:00:00+09:00", Value: "2100", Seq: 5},
		{EntityKey: "vid-c", CapturedAt: "2026-01-02T10:00:00+09:00", Value: "12", Seq: 6},
	}
	table, issues := algo.ComputeGrowthTable(raws, jst)
	require.Empty(t, issues)
	return schema.GrowthResult{
		Dataset: schema.VideosDataset,
		Table:   table,
		Events:  []schema.CalendarEvent{{ID: 9, EventDate: "2026-01-02", Category: schema.TVEvent, Title: "CDTV"}},
	}
}

func outputConfig(t *testing.T, output schema.OutputMode, view schema.GrowthView) *contract.Config {
	t.Helper()
	return &contract.Config{
		Output:       output,
		OutputFile:   filepath.Join(t.TempDir(), "out"),
		View:         view,
		ResultLimit:  contract.DefaultResultLimit,
		TopN:         2,
		Width:        160,
		CacheBackend: schema.NoneBackend,
	}
}

func readOutput(t *testing.T, cfg *contract.Config) string {
	t.Helper()
	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	return string(data)
}

func TestPrintGrowthResults_Table(t *testing.T) {
	result := growthFixture(t)

	t.Run("text", func(t *testing.T) {
		cfg := outputConfig(t, schema.TextOut, schema.TableView)
		require.NoError(t, PrintGrowthResults(result, cfg, time.Second))

		out := readOutput(t, cfg)
		assert.Contains(t, out, "Blue Moon")
		assert.Contains(t, out, "+500")
		assert.Contains(t, out, "1,500")
		assert.Contains(t, out, "Showing top 3 of 3 entities on 2026-01-02")
		assert.Less(t, strings.Index(out, "Blue Moon"), strings.Index(out, "Night Drive"), "rows follow the final-day delta")
	})

	t.Run("json contract", func(t *testing.T) {
		cfg := outputConfig(t, schema.JSONOut, schema.TableView)
		cfg.ResultLimit = 2
		require.NoError(t, PrintGrowthResults(result, cfg, time.Second))

		var got schema.GrowthContract
		require.NoError(t, json.Unmarshal([]byte(readOutput(t, cfg)), &got))
		assert.Equal(t, []string{"2026-01-01", "2026-01-02"}, got.Days)
		require.Len(t, got.PerEntityRows, 2)
		assert.Equal(t, "vid-a", got.PerEntityRows[0].EntityKey)
		assert.Equal(t, "vid-b", got.PerEntityRows[1].EntityKey)
		assert.Equal(t, []int64{0, 602}, got.TotalsByDay, "totals cover every entity")
	})

	t.Run("csv long format", func(t *testing.T) {
		cfg := outputConfig(t, schema.CSVOut, schema.TableView)
		require.NoError(t, PrintGrowthResults(result, cfg, time.Second))

		records, err := csv.NewReader(strings.NewReader(readOutput(t, cfg))).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 1+3*2)
		assert.Equal(t, "entity_key", records[0][0])
		assert.Equal(t, []string{"vid-a", "Blue Moon", "2026-01-02", "1500", "500", "1", "same", "2", "false"}, records[2])
	})

	t.Run("parquet", func(t *testing.T) {
		cfg := outputConfig(t, schema.ParquetOut, schema.TableView)
		require.NoError(t, PrintGrowthResults(result, cfg, time.Second))
		info, err := os.Stat(cfg.OutputFile)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	})
}

func TestPrintGrowthResults_Day(t *testing.T) {
	result := growthFixture(t)

	t.Run("defaults to the final day", func(t *testing.T) {
		cfg := outputConfig(t, schema.JSONOut, schema.DayView)
		require.NoError(t, PrintGrowthResults(result, cfg, time.Second))

		var got schema.DayRanking
		require.NoError(t, json.Unmarshal([]byte(readOutput(t, cfg)), &got))
		assert.Equal(t, "2026-01-02", got.Day)
		require.Len(t, got.Entries, 3)
		assert.Equal(t, "vid-a", got.Entries[0].EntityKey)
		assert.Equal(t, int64(602), got.Total)
	})

	t.Run("explicit day as text", func(t *testing.T) {
		cfg := outputConfig(t, schema.TextOut, schema.DayView)
		cfg.Day = "2026-01-01"
		require.NoError(t, PrintGrowthResults(result, cfg, time.Second))
		assert.Contains(t, readOutput(t, cfg), "Ranking of 2026-01-01")
	})

	t.Run("unknown day", func(t *testing.T) {
		cfg := outputConfig(t, schema.TextOut, schema.DayView)
		cfg.Day = "2025-12-31"
		err := PrintGrowthResults(result, cfg, time.Second)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no data for day 2025-12-31")
	})

	t.Run("parquet is rejected", func(t *testing.T) {
		cfg := outputConfig(t, schema.ParquetOut, schema.DayView)
		assert.Error(t, PrintGrowthResults(result, cfg, time.Second))
	})
}

func TestSeriesForView(t *testing.T) {
	result := growthFixture(t)

	t.Run("top", func(t *testing.T) {
		series, err := SeriesForView(result, schema.TopView, 2, "")
		require.NoError(t, err)
		require.Len(t, series, 2)
		assert.Equal(t, "Blue Moon", series[0].Name)
		assert.Equal(t, "Night Drive", series[1].Name)
		assert.Equal(t, "1/2", series[0].Points[1].Label)
		require.Len(t, series[0].Points[1].Events, 1)
		assert.Equal(t, "CDTV", series[0].Points[1].Events[0].Title)
	})

	t.Run("total", func(t *testing.T) {
		series, err := SeriesForView(result, schema.TotalView, 0, "")
		require.NoError(t, err)
		require.Len(t, series, 1)
		assert.Equal(t, "total", series[0].Name)
		assert.Equal(t, int64(602), series[0].Points[1].Value)
	})

	t.Run("single by display name", func(t *testing.T) {
		series, err := SeriesForView(result, schema.SingleView, 0, "Night Drive")
		require.NoError(t, err)
		assert.Equal(t, "vid-b", series[0].EntityKey)
	})

	t.Run("single unknown", func(t *testing.T) {
		_, err := SeriesForView(result, schema.SingleView, 0, "nope")
		assert.Error(t, err)
	})
}

func TestPrintGrowthResults_Series(t *testing.T) {
	result := growthFixture(t)

	t.Run("csv", func(t *testing.T) {
		cfg := outputConfig(t, schema.CSVOut, schema.TopView)
		require.NoError(t, PrintGrowthResults(result, cfg, time.Second))

		out := readOutput(t, cfg)
		assert.True(t, strings.HasPrefix(out, "series,entity_key,day,label,value,missing,events\n"))
		assert.Contains(t, out, "Blue Moon,vid-a,2026-01-02,1/2,500,false,[TV] CDTV")
	})

	t.Run("text", func(t *testing.T) {
		cfg := outputConfig(t, schema.TextOut, schema.TotalView)
		require.NoError(t, PrintGrowthResults(result, cfg, time.Second))

		out := readOutput(t, cfg)
		assert.Contains(t, out, "1/2")
		assert.Contains(t, out, "[TV] CDTV")
	})

	t.Run("parquet is rejected", func(t *testing.T) {
		cfg := outputConfig(t, schema.ParquetOut, schema.TopView)
		assert.Error(t, PrintGrowthResults(result, cfg, time.Second))
	})
}

func TestLimitTable(t *testing.T) {
	result := growthFixture(t)

	limited := LimitTable(result.Table, 1)
	require.Len(t, limited.Rows, 1)
	assert.Equal(t, "vid-a", limited.Rows[0].EntityKey)
	assert.Equal(t, result.Table.TotalsByDay, limited.TotalsByDay)

	all := LimitTable(result.Table, 0)
	assert.Len(t, all.Rows, 3)
	_, ok := all.Row("vid-c")
	assert.True(t, ok, "rows stay in key order for lookups")
}
