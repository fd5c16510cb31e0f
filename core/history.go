package core

import (
	"fmt"
	"time"

	"github.com/fanpulse/fanpulse/internal/contract"
	"github.com/fanpulse/fanpulse/schema"
)

// recordGrowthRun stores a computed table in the run history, if one is configured.
// Tracking failures are warned about and never fail the computation.
func recordGrowthRun(cfg *contract.Config, mgr contract.CacheManager, dataset string, table schema.GrowthTable, startTime time.Time) {
	if mgr == nil {
		return
	}
	history := mgr.GetHistoryStore()
	if history == nil {
		return
	}

	configParams := map[string]any{
		"source":    string(cfg.Source),
		"tz_offset": cfg.TZOffset,
		"view":      string(cfg.View),
		"limit":     cfg.ResultLimit,
	}
	runID, err := history.BeginRun(dataset, startTime, configParams)
	if err != nil {
		logTrackingError("BeginRun", dataset, err)
		return
	}
	if runID <= 0 {
		return // none backend
	}

	if err := history.RecordGrowthRows(schema.GrowthRecords(runID, table)); err != nil {
		logTrackingError("RecordGrowthRows", dataset, err)
	}
	if err := history.EndRun(runID, time.Now(), len(table.Rows), len(table.Days)); err != nil {
		logTrackingError("EndRun", dataset, err)
	}
}

// logTrackingError logs history tracking errors to stderr without disrupting the run.
func logTrackingError(operation, dataset string, err error) {
	contract.LogWarn(fmt.Sprintf("History tracking failed for %s on %s", operation, dataset), err)
}
