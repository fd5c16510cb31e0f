// Package source reads snapshot, event and survey rows from the fan-analytics replica.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/fanpulse/fanpulse/internal/contract"
	"github.com/fanpulse/fanpulse/schema"
)

// Tables read besides the snapshot datasets.
const (
	EventsTable = "calendar_events"
	SurveyTable = "survey_responses"
)

// Dataset names used in errors for the non-snapshot tables.
const (
	eventsDataset = "events"
	surveyDataset = "survey"
)

// FetchError reports a failed read from a data source.
type FetchError struct {
	Source  string
	Dataset string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s from %s source: %v", e.Dataset, e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// New builds the snapshot source selected by the configuration.
// A configured survey file replaces the source's own survey table.
func New(cfg *contract.Config) (contract.SnapshotSource, error) {
	var src contract.SnapshotSource
	switch cfg.Source {
	case schema.RESTSource:
		src = NewRESTSource(cfg.SourceURL, cfg.SourceKey, cfg.SourceTimeout, cfg.Datasets)
	case schema.PostgresSource, schema.MySQLSource, schema.SQLiteSource:
		sqlSrc, err := NewSQLSource(cfg.Source, cfg.SourceDBConnect, cfg.SourceTimeout, cfg.Datasets)
		if err != nil {
			return nil, err
		}
		src = sqlSrc
	case schema.FileSource:
		return NewFileSource(cfg.SourceURL, cfg.SurveyFile, liveInfoFrom(cfg), cfg.Datasets), nil
	default:
		return nil, fmt.Errorf("unsupported source: %s", cfg.Source)
	}

	if cfg.SurveyFile != "" {
		src = &surveyOverlay{
			SnapshotSource: src,
			file:           NewFileSource("", cfg.SurveyFile, liveInfoFrom(cfg), cfg.Datasets),
		}
	}
	return src, nil
}

// Close releases the resources held by a source, if it holds any.
func Close(src contract.SnapshotSource) error {
	if c, ok := src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func liveInfoFrom(cfg *contract.Config) LiveInfo {
	return LiveInfo{Name: cfg.SurveyLive, Date: cfg.SurveyDate, Venue: cfg.SurveyVenue}
}

// surveyOverlay reads survey responses from a spreadsheet and everything else
// from the wrapped source.
type surveyOverlay struct {
	contract.SnapshotSource
	file *FileSource
}

func (s *surveyOverlay) FetchSurvey(ctx context.Context) ([]schema.SurveyResponse, error) {
	return s.file.FetchSurvey(ctx)
}

func (s *surveyOverlay) Fingerprint() string {
	return s.SnapshotSource.Fingerprint() + "+" + s.file.Fingerprint()
}

func (s *surveyOverlay) Close() error {
	return Close(s.SnapshotSource)
}

// fieldGetter returns the raw value stored under a mapped field of one row.
type fieldGetter func(field string) any

func mapGetter(row map[string]any) fieldGetter {
	return func(field string) any {
		return row[field]
	}
}

// errNoSeqColumn is reported for datasets mapped without a seq column.
var errNoSeqColumn = errors.New("no seq column mapped, same-day snapshots are ordered by captured_at and value only")

// warnWithoutSeq warns once per fetch when a dataset has no seq column.
func warnWithoutSeq(dataset string, m schema.DatasetMapping) {
	if m.Seq == "" {
		contract.LogWarn("dataset "+dataset, errNoSeqColumn)
	}
}

// snapshotFromRow converts one source row into a RawSnapshot.
// Rows without a usable seq get 0, so the row order of the batch never decides a collision.
func snapshotFromRow(get fieldGetter, m schema.DatasetMapping) schema.RawSnapshot {
	var seq int64
	if m.Seq != "" {
		if v, ok := toInt64(get(m.Seq)); ok {
			seq = v
		}
	}
	return schema.RawSnapshot{
		EntityKey:   toText(get(m.Entity)),
		CapturedAt:  toText(get(m.Time)),
		Value:       toText(get(m.Value)),
		Seq:         seq,
		DisplayName: optionalText(get, m.Name),
		CanonicalID: optionalText(get, m.ID),
		PublishedAt: optionalText(get, m.Published),
	}
}

func eventFromRow(get fieldGetter) schema.CalendarEvent {
	id, _ := toInt64(get("id"))
	category := schema.EventCategory(strings.ToUpper(toText(get("category"))))
	if _, ok := schema.ValidEventCategories[category]; !ok {
		category = schema.OtherEvent
	}
	return schema.CalendarEvent{
		ID:          id,
		EventDate:   contract.NormalizeDate(toText(get("event_date"))),
		Category:    category,
		Title:       toText(get("title")),
		Description: toText(get("description")),
	}
}

func surveyFromRow(get fieldGetter) schema.SurveyResponse {
	id, _ := toInt64(get("id"))
	year, _ := toInt64(get("event_year"))
	createdAt := toText(get("created_at"))
	return schema.SurveyResponse{
		ID:          id,
		LiveName:    toText(get("live_name")),
		EventDate:   contract.NormalizeDate(createdAt),
		VenueType:   toText(get("venue_type")),
		EventYear:   int(year),
		RequestSong: toText(get("request_song")),
		Visits:      toText(get("visits")),
		Prefecture:  toText(get("prefecture")),
		Age:         toText(get("age")),
		Gender:      toText(get("gender")),
		CreatedAt:   createdAt,
	}
}

func optionalText(get fieldGetter, field string) string {
	if field == "" {
		return ""
	}
	return toText(get(field))
}

// toText renders a decoded column or JSON value as text.
func toText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(time.RFC3339Nano)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func toInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case float64:
		if t != math.Trunc(t) {
			return 0, false
		}
		return int64(t), true
	case string, []byte:
		n, err := strconv.ParseInt(toText(t), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// datasetMapping looks up a dataset or returns an error naming the known ones.
func datasetMapping(datasets map[string]schema.DatasetMapping, dataset string) (schema.DatasetMapping, error) {
	m, ok := datasets[dataset]
	if !ok {
		return schema.DatasetMapping{}, fmt.Errorf("unknown dataset '%s'", dataset)
	}
	return m, nil
}
