// Package parquet provides data structures and functions for exporting fanpulse
// growth data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/fanpulse/fanpulse/schema"
)

// GrowthRun represents a single growth computation with metadata.
// This struct maps to the fanpulse_growth_runs database table.
type GrowthRun struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// Dataset is the snapshot dataset the run computed (e.g. videos, sns)
	Dataset string `parquet:"dataset,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	TotalEntities int32 `parquet:"total_entities,snappy"`
	TotalDays     int32 `parquet:"total_days,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// GrowthRecord is one ranked cell of a run.
// This struct maps to the fanpulse_growth_records database table.
type GrowthRecord struct {
	RunID      int64  `parquet:"run_id,snappy"`
	EntityKey  string `parquet:"entity_key,snappy"`
	Day        string `parquet:"day,snappy"`
	Value      int64  `parquet:"value,snappy"`
	Delta      int64  `parquet:"delta,snappy"`
	Rank       int32  `parquet:"rank,snappy"`
	ValueRank  int32  `parquet:"value_rank,snappy"`
	RankChange string `parquet:"rank_change,snappy"`
}

// GrowthCell is one entity x day cell of a growth table, for --output parquet.
// Cells without a snapshot leave the optional columns null.
type GrowthCell struct {
	EntityKey   string  `parquet:"entity_key,snappy"`
	DisplayName string  `parquet:"display_name,snappy"`
	Day         string  `parquet:"day,snappy"`
	Value       *int64  `parquet:"value,optional,snappy"`
	Delta       *int64  `parquet:"delta,optional,snappy"`
	Rank        *int32  `parquet:"rank,optional,snappy"`
	RankChange  *string `parquet:"rank_change,optional,snappy"`
	ValueRank   *int32  `parquet:"value_rank,optional,snappy"`
	IsNew       bool    `parquet:"is_new,snappy"`
}

// WriteGrowthRunsParquet writes a slice of GrowthRun structs to a Parquet file.
func WriteGrowthRunsParquet(data []GrowthRun, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteGrowthRecordsParquet writes a slice of GrowthRecord structs to a Parquet file.
func WriteGrowthRecordsParquet(data []GrowthRecord, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteGrowthCells writes the cells of a growth table to w.
func WriteGrowthCells(w io.Writer, data []GrowthCell) error {
	return writeRows(w, data)
}

func writeFile[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return writeRows(file, data)
}

// writeRows infers the schema from the struct tags of T.
func writeRows[T any](w io.Writer, data []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertRunRecords converts schema.RunRecord to GrowthRun for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []GrowthRun {
	result := make([]GrowthRun, len(records))
	for i, record := range records {
		result[i] = GrowthRun{
			RunID:         record.RunID,
			Dataset:       record.Dataset,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			TotalEntities: record.TotalEntities,
			TotalDays:     record.TotalDays,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertGrowthRecords converts schema.GrowthRecordRow to GrowthRecord for Parquet export.
func ConvertGrowthRecords(records []schema.GrowthRecordRow) []GrowthRecord {
	result := make([]GrowthRecord, len(records))
	for i, record := range records {
		result[i] = GrowthRecord(record)
	}
	return result
}

// ConvertGrowthTable flattens a growth table into cells, in table display order.
func ConvertGrowthTable(table schema.GrowthTable) []GrowthCell {
	rows := table.SortedByFinalDelta()
	result := make([]GrowthCell, 0, len(rows)*len(table.Days))
	for _, row := range rows {
		for i, cell := range row.Cells {
			out := GrowthCell{
				EntityKey:   row.EntityKey,
				DisplayName: row.DisplayName,
				Day:         table.Days[i],
				IsNew:       row.IsNew,
			}
			if cell.HasValue {
				value := cell.Value
				out.Value = &value
			}
			if cell.Ranked {
				delta, rank := cell.Delta, int32(cell.Rank)
				change := string(cell.RankChange)
				out.Delta, out.Rank, out.RankChange = &delta, &rank, &change
				if cell.ValueRank > 0 {
					valueRank := int32(cell.ValueRank)
					out.ValueRank = &valueRank
				}
			}
			result = append(result, out)
		}
	}
	return result
}
