package schema

import "time"

// RunRecord represents a row from the fanpulse_growth_runs table.
type RunRecord struct {
	RunID         int64
	Dataset       string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	TotalEntities int32
	TotalDays     int32
	ConfigParams  *string
}

// GrowthRecordRow represents a row from the fanpulse_growth_records table.
type GrowthRecordRow struct {
	RunID      int64
	EntityKey  string
	Day        string
	Value      int64
	Delta      int64
	Rank       int32
	ValueRank  int32
	RankChange string
}
