// Package contract provides interfaces and shared utilities for fanpulse's internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/fanpulse/fanpulse/schema"
)

// SnapshotSource defines the read-only operations against the fan-analytics replica.
// This allows the core logic to be tested without a live database or REST endpoint.
type SnapshotSource interface {
	// Name identifies the source in errors and cache keys (e.g. "rest", "postgresql").
	Name() string

	// Fingerprint identifies the upstream location, such as the URL or DSN, for cache keys.
	Fingerprint() string

	// FetchSnapshots returns all snapshot rows of a dataset, with entity metadata on the same rows.
	FetchSnapshots(ctx context.Context, dataset string) ([]schema.RawSnapshot, error)

	// FetchEvents returns the calendar events.
	FetchEvents(ctx context.Context) ([]schema.CalendarEvent, error)

	// FetchSurvey returns every survey response.
	FetchSurvey(ctx context.Context) ([]schema.SurveyResponse, error)
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetCacheStore() CacheStore
	GetHistoryStore() HistoryStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// HistoryStore defines the interface for tracking growth runs and their ranked cells.
type HistoryStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(dataset string, startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, totalEntities, totalDays int) error

	// RecordGrowthRows stores the ranked cells of a run
	RecordGrowthRows(rows []schema.GrowthRecordRow) error

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// GetAllRuns returns every recorded run
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllGrowthRecords returns every recorded cell
	GetAllGrowthRecords() ([]schema.GrowthRecordRow, error)

	// Close closes the underlying connection
	Close() error
}
