package iocache

import (
	"errors"
	"fmt"

	"github.com/fanpulse/fanpulse/internal/parquet"
)

// ExecuteHistoryExport exports the run history to Parquet files next to outputFile.
func ExecuteHistoryExport(outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	store := Manager.GetHistoryStore()
	if store == nil {
		return errors.New("history store is not initialized")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no run history found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total runs: %d\n", status.TotalRuns)
	fmt.Printf("Total growth records: %d\n", status.TableSizes[growthRecordsTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve growth runs: %w", err)
	}
	records, err := store.GetAllGrowthRecords()
	if err != nil {
		return fmt.Errorf("failed to retrieve growth records: %w", err)
	}

	parquetRuns := parquet.ConvertRunRecords(runs)
	runsFile := outputFile + ".growth_runs.parquet"
	if err := parquet.WriteGrowthRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write growth runs: %w", err)
	}
	fmt.Printf("Exported %d runs to: %s\n", len(parquetRuns), runsFile)

	parquetRecords := parquet.ConvertGrowthRecords(records)
	recordsFile := outputFile + ".growth_records.parquet"
	if err := parquet.WriteGrowthRecordsParquet(parquetRecords, recordsFile); err != nil {
		return fmt.Errorf("failed to write growth records: %w", err)
	}
	fmt.Printf("Exported %d growth records to: %s\n", len(parquetRecords), recordsFile)

	return nil
}
