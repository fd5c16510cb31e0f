package schema

import "time"

// CacheStatus represents the status of the cache store.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// HistoryStatus represents the status of the history store.
type HistoryStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalRuns     int              `json:"total_runs"`
	LastRunID     int64            `json:"last_run_id"`
	LastRunTime   time.Time        `json:"last_run_time"`
	OldestRunTime time.Time        `json:"oldest_run_time"`
	TotalEntities int              `json:"total_entities"`
	TableSizes    map[string]int64 `json:"table_sizes"`
}

// DashboardState is what the long-running surfaces report for a dataset.
type DashboardState struct {
	Dataset     string      `json:"dataset"`
	Status      string      `json:"status"` // loading, ok, empty, error
	Error       string      `json:"error,omitempty"`
	RefreshedAt time.Time   `json:"refreshed_at"`
	Table       GrowthTable `json:"-"`
}

// Dashboard status values.
const (
	StatusLoading = "loading"
	StatusOK      = "ok"
	StatusEmpty   = "empty"
	StatusError   = "error"
)
