// Package schema has models and constants for all parts of fanpulse.
package schema

import "time"

// RawSnapshot is one snapshot row as read from a data source, before validation.
// Timestamps and values stay as text so that malformed rows can be reported
// instead of silently coerced.
type RawSnapshot struct {
	EntityKey  string `json:"entity_key"`
	CapturedAt string `json:"captured_at"`
	Value      string `json:"value"`
	Seq        int64  `json:"seq"` // Insertion order: source row id, or 0 without a seq column

	// Optional metadata carried on the same row
	DisplayName string `json:"display_name,omitempty"`
	CanonicalID string `json:"canonical_id,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

// Snapshot is one validated, timestamped observation of a metric for an entity.
type Snapshot struct {
	EntityKey  string
	CapturedAt time.Time
	Value      int64
	Seq        int64
}

// EntityMeta holds descriptive data for a tracked entity.
type EntityMeta struct {
	DisplayName string `json:"display_name,omitempty"`
	CanonicalID string `json:"canonical_id,omitempty"`
	PublishedAt string `json:"published_at,omitempty"` // YYYY-MM-DD in the reporting offset
}

// RecordIssue describes a source row that was skipped.
type RecordIssue struct {
	Position  int    `json:"position"` // Index of the row in the fetched batch
	EntityKey string `json:"entity_key"`
	Reason    string `json:"reason"`
}

// CalendarEvent is a dated event used to annotate growth series.
type CalendarEvent struct {
	ID          int64         `json:"id"`
	EventDate   string        `json:"event_date"` // YYYY-MM-DD
	Category    EventCategory `json:"category"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
}

// DatasetMapping tells a data source which fields of a table hold which snapshot parts.
// Field values are JSONPath expressions for the REST source and column names for SQL sources.
type DatasetMapping struct {
	Table     string `mapstructure:"table" json:"table"`
	Entity    string `mapstructure:"entity" json:"entity"`
	Value     string `mapstructure:"value" json:"value"`
	Time      string `mapstructure:"time" json:"time"`
	Seq       string `mapstructure:"seq" json:"seq"`
	Name      string `mapstructure:"name" json:"name"`
	ID        string `mapstructure:"id" json:"id"`
	Published string `mapstructure:"published" json:"published"`
}

// DefaultDatasets returns the built-in dataset mappings.
func DefaultDatasets() map[string]DatasetMapping {
	return map[string]DatasetMapping{
		VideosDataset: {
			Table:     "youtube_stats",
			Entity:    "title",
			Value:     "views",
			Time:      "created_at",
			Seq:       "id",
			Name:      "title",
			ID:        "video_id",
			Published: "published_at",
		},
		SNSDataset: {
			Table:  "sns_stats",
			Entity: "platform",
			Value:  "follower_count",
			Time:   "created_at",
			Seq:    "id",
			Name:   "platform",
		},
	}
}
