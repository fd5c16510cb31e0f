package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fanpulse/fanpulse/core/algo"
	"github.com/fanpulse/fanpulse/internal/contract"
	"github.com/fanpulse/fanpulse/schema"
)

func TestToText(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"nil", nil, ""},
		{"string", " MV ", "MV"},
		{"bytes", []byte("42"), "42"},
		{"int64", int64(9007199254740993), "9007199254740993"},
		{"float", 1234.0, "1234"},
		{"fraction", 12.5, "12.5"},
		{"time", time.Date(2026, 1, 5, 3, 0, 0, 0, time.UTC), "2026-01-05T03:00:00Z"},
		{"bool", true, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, toText(tt.input))
		})
	}
}

func TestToInt64(t *testing.T) {
	v, ok := toInt64(int64(7))
	assert.True(t, ok)
	assert.Equal(t, int64(7), v)

	v, ok = toInt64("12")
	assert.True(t, ok)
	assert.Equal(t, int64(12), v)

	v, ok = toInt64(float64(3))
	assert.True(t, ok)
	assert.Equal(t, int64(3), v)

	_, ok = toInt64(3.5)
	assert.False(t, ok)
	_, ok = toInt64(nil)
	assert.False(t, ok)
	_, ok = toInt64("abc")
	assert.False(t, ok)
}

func TestFetchErrorUnwrap(t *testing.T) {
	inner := context.DeadlineExceeded
	err := error(&FetchError{Source: "rest", Dataset: "videos", Err: inner})

	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, "fetch videos from rest source: context deadline exceeded", err.Error())
}

func TestSnapshotFromRowWithoutSeqIgnoresRowOrder(t *testing.T) {
	m := schema.DatasetMapping{Table: "video_views", Entity: "video_id", Value: "views", Time: "captured_at"}
	morning := map[string]any{"video_id": "vid-a", "views": "120", "captured_at": "2026-01-02T00:30:00Z"}
	evening := map[string]any{"video_id": "vid-a", "views": "180", "captured_at": "2026-01-02T11:00:00Z"}

	valueFor := func(rows ...map[string]any) int64 {
		var snaps []schema.RawSnapshot
		for _, row := range rows {
			snap := snapshotFromRow(mapGetter(row), m)
			assert.Equal(t, int64(0), snap.Seq)
			snaps = append(snaps, snap)
		}
		table, issues := algo.ComputeGrowthTable(snaps, time.FixedZone("JST", 9*3600))
		require.Empty(t, issues)
		row, ok := table.Row("vid-a")
		require.True(t, ok)
		require.Len(t, row.Cells, 1)
		return row.Cells[0].Value
	}

	assert.Equal(t, int64(180), valueFor(morning, evening))
	assert.Equal(t, int64(180), valueFor(evening, morning))
}

func TestSnapshotFromRowUsesSeqColumn(t *testing.T) {
	m := schema.DatasetMapping{Entity: "video_id", Value: "views", Time: "captured_at", Seq: "id"}
	snap := snapshotFromRow(mapGetter(map[string]any{"id": int64(42), "video_id": "vid-a", "views": "7"}), m)
	assert.Equal(t, int64(42), snap.Seq)

	snap = snapshotFromRow(mapGetter(map[string]any{"id": "n/a", "video_id": "vid-a"}), m)
	assert.Equal(t, int64(0), snap.Seq)
}

func TestNewSelectsSource(t *testing.T) {
	cfg := &contract.Config{
		Source:    schema.RESTSource,
		SourceURL: "https://example.supabase.co",
		Datasets:  schema.DefaultDatasets(),
	}
	src, err := New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &RESTSource{}, src)
	assert.Equal(t, "https://example.supabase.co/rest/v1", src.Fingerprint())

	cfg.Source = schema.SQLiteSource
	cfg.SourceDBConnect = filepath.Join(t.TempDir(), "replica.db")
	src, err = New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &SQLSource{}, src)
	assert.NoError(t, Close(src))

	cfg.Source = schema.FileSource
	src, err = New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &FileSource{}, src)
	assert.NoError(t, Close(src))
}

func TestNewWithSurveyOverlay(t *testing.T) {
	dir := t.TempDir()
	surveyPath := filepath.Join(dir, "final.csv")
	require.NoError(t, os.WriteFile(surveyPath, []byte("曲名,回数,都道府県,年齢,性別\nCORE PRIDE,2,東京都,20,女性\n"), 0o644))

	cfg := &contract.Config{
		Source:      schema.RESTSource,
		SourceURL:   "https://example.supabase.co",
		SurveyFile:  surveyPath,
		SurveyLive:  "Tour Final",
		SurveyDate:  "2026-02-02",
		SurveyVenue: "ARENA",
		Datasets:    schema.DefaultDatasets(),
	}
	src, err := New(cfg)
	require.NoError(t, err)

	survey, err := src.FetchSurvey(context.Background())
	require.NoError(t, err)
	require.Len(t, survey, 1)
	assert.Equal(t, "2026-02-02_Tour Final", survey[0].LiveKey())
	assert.Equal(t, "2回", survey[0].Visits)
	assert.Contains(t, src.Fingerprint(), surveyPath)
	assert.Equal(t, "rest", src.Name())
	assert.NoError(t, Close(src))
}
