package core

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fanpulse/fanpulse/internal/contract"
	"github.com/fanpulse/fanpulse/internal/iocache"
	"github.com/fanpulse/fanpulse/internal/source"
	"github.com/fanpulse/fanpulse/schema"
)

var jst = time.FixedZone("+09:00", 9*60*60)

func testConfig(t *testing.T) *contract.Config {
	t.Helper()
	return &contract.Config{
		Source:      schema.RESTSource,
		Datasets:    schema.DefaultDatasets(),
		TZOffset:    "+09:00",
		Location:    jst,
		ResultLimit: contract.DefaultResultLimit,
		TopN:        contract.DefaultTopN,
		View:        schema.TableView,
		Output:      schema.JSONOut,
		OutputFile:  filepath.Join(t.TempDir(), "out.json"),
		CacheTTL:    contract.DefaultCacheTTL,
		SurveyField: schema.SongField,
	}
}

// scenarioRows produces the two-entity fixture: A grows 0,50,0,50 and B grows 0,0,70,10.
func scenarioRows() []schema.RawSnapshot {
	a := []int{100, 150, 150, 200}
	b := []int{100, 100, 170, 180}
	var rows []schema.RawSnapshot
	seq := int64(1)
	for day := range 4 {
		ts := fmt.Sprintf("2026-01-0%dT12:00:00+09:00", day+1)
		rows = append(rows,
			schema.RawSnapshot{EntityKey: "A", CapturedAt: ts, Value: fmt.Sprint(a[day]), Seq: seq},
			schema.RawSnapshot{EntityKey: "B", CapturedAt: ts, Value: fmt.Sprint(b[day]), Seq: seq + 1},
		)
		seq += 2
	}
	return rows
}

func noStoresManager() *iocache.MockCacheManager {
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetCacheStore").Return(nil)
	mgr.On("GetHistoryStore").Return(nil)
	return mgr
}

func TestGetGrowthResult(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())

	t.Run("computes the table without stores", func(t *testing.T) {
		cfg := testConfig(t)
		src := &source.MockSnapshotSource{}
		src.On("FetchSnapshots", mock.Anything, schema.VideosDataset).Return(scenarioRows(), nil)
		mgr := noStoresManager()

		result, err := GetGrowthResult(ctx, cfg, src, mgr, schema.VideosDataset)
		require.NoError(t, err)

		assert.Equal(t, schema.VideosDataset, result.Dataset)
		assert.Equal(t, []string{"2026-01-01", "2026-01-02", "2026-01-03", "2026-01-04"}, result.Table.Days)
		assert.Equal(t, []int64{0, 50, 70, 60}, result.Table.TotalsByDay)

		day3, ok := result.Table.DaySlice("2026-01-03")
		require.True(t, ok)
		assert.Equal(t, "B", day3.Entries[0].EntityKey)

		day4, ok := result.Table.DaySlice("2026-01-04")
		require.True(t, ok)
		assert.Equal(t, "A", day4.Entries[0].EntityKey)
		assert.Equal(t, schema.RankUp, day4.Entries[0].RankChange)

		src.AssertExpectations(t)
		mgr.AssertExpectations(t)
	})

	t.Run("unknown dataset", func(t *testing.T) {
		src := &source.MockSnapshotSource{}
		_, err := GetGrowthResult(ctx, testConfig(t), src, noStoresManager(), "podcasts")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown dataset 'podcasts'")
		src.AssertNotCalled(t, "FetchSnapshots", mock.Anything, mock.Anything)
	})

	t.Run("fetch failure is returned", func(t *testing.T) {
		src := &source.MockSnapshotSource{}
		fetchErr := &source.FetchError{Source: "rest", Dataset: schema.SNSDataset, Err: errors.New("503")}
		src.On("FetchSnapshots", mock.Anything, schema.SNSDataset).Return(nil, fetchErr)

		_, err := GetGrowthResult(ctx, testConfig(t), src, noStoresManager(), schema.SNSDataset)
		var target *source.FetchError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, schema.SNSDataset, target.Dataset)
	})

	t.Run("no rows is ErrNoData", func(t *testing.T) {
		src := &source.MockSnapshotSource{}
		src.On("FetchSnapshots", mock.Anything, schema.SNSDataset).Return([]schema.RawSnapshot{}, nil)

		_, err := GetGrowthResult(ctx, testConfig(t), src, noStoresManager(), schema.SNSDataset)
		assert.ErrorIs(t, err, ErrNoData)
	})

	t.Run("only malformed rows is ErrNoData", func(t *testing.T) {
		src := &source.MockSnapshotSource{}
		src.On("FetchSnapshots", mock.Anything, schema.SNSDataset).Return([]schema.RawSnapshot{
			{EntityKey: "x", CapturedAt: "yesterday", Value: "10", Seq: 1},
			{EntityKey: "y", CapturedAt: "2026-01-01", Value: "-4", Seq: 2},
		}, nil)

		_, err := GetGrowthResult(ctx, testConfig(t), src, noStoresManager(), schema.SNSDataset)
		assert.ErrorIs(t, err, ErrNoData)
	})
}

func TestGetGrowthResult_Caching(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())

	newSource := func() *source.MockSnapshotSource {
		src := &source.MockSnapshotSource{}
		src.On("Name").Return("rest").Maybe()
		src.On("Fingerprint").Return("https://replica.example.com").Maybe()
		return src
	}
	managerWith := func(store *iocache.MockCacheStore) *iocache.MockCacheManager {
		mgr := &iocache.MockCacheManager{}
		mgr.On("GetCacheStore").Return(store)
		mgr.On("GetHistoryStore").Return(nil)
		return mgr
	}

	t.Run("miss fetches and stores", func(t *testing.T) {
		src := newSource()
		src.On("FetchSnapshots", mock.Anything, schema.VideosDataset).Return(scenarioRows(), nil).Once()
		store := &iocache.MockCacheStore{}
		store.On("Get", mock.Anything).Return(nil, 0, int64(0), sql.ErrNoRows)
		store.On("Set", mock.Anything, mock.Anything, currentCacheVersion, mock.Anything).Return(nil)

		_, err := GetGrowthResult(ctx, testConfig(t), src, managerWith(store), schema.VideosDataset)
		require.NoError(t, err)

		store.AssertExpectations(t)
		src.AssertExpectations(t)
	})

	t.Run("fresh hit skips the source", func(t *testing.T) {
		src := newSource()
		data, err := json.Marshal(scenarioRows())
		require.NoError(t, err)
		store := &iocache.MockCacheStore{}
		store.On("Get", mock.Anything).Return(data, currentCacheVersion, time.Now().Unix(), nil)

		result, err := GetGrowthResult(ctx, testConfig(t), src, managerWith(store), schema.VideosDataset)
		require.NoError(t, err)
		assert.Len(t, result.Table.Rows, 2)

		src.AssertNotCalled(t, "FetchSnapshots", mock.Anything, mock.Anything)
		store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("stale entry is refetched", func(t *testing.T) {
		src := newSource()
		src.On("FetchSnapshots", mock.Anything, schema.VideosDataset).Return(scenarioRows(), nil).Once()
		data, err := json.Marshal(scenarioRows()[:2])
		require.NoError(t, err)
		store := &iocache.MockCacheStore{}
		stale := time.Now().Add(-time.Hour).Unix()
		store.On("Get", mock.Anything).Return(data, currentCacheVersion, stale, nil)
		store.On("Set", mock.Anything, mock.Anything, currentCacheVersion, mock.Anything).Return(nil)

		result, err := GetGrowthResult(ctx, testConfig(t), src, managerWith(store), schema.VideosDataset)
		require.NoError(t, err)
		assert.Len(t, result.Table.Days, 4)
		src.AssertExpectations(t)
	})

	t.Run("version mismatch is refetched", func(t *testing.T) {
		src := newSource()
		src.On("FetchSnapshots", mock.Anything, schema.VideosDataset).Return(scenarioRows(), nil).Once()
		store := &iocache.MockCacheStore{}
		store.On("Get", mock.Anything).Return([]byte("[]"), currentCacheVersion+1, time.Now().Unix(), nil)
		store.On("Set", mock.Anything, mock.Anything, currentCacheVersion, mock.Anything).Return(nil)

		_, err := GetGrowthResult(ctx, testConfig(t), src, managerWith(store), schema.VideosDataset)
		require.NoError(t, err)
		src.AssertExpectations(t)
	})

	t.Run("failed fetch is not cached", func(t *testing.T) {
		src := newSource()
		src.On("FetchSnapshots", mock.Anything, schema.VideosDataset).Return(nil, errors.New("boom"))
		store := &iocache.MockCacheStore{}
		store.On("Get", mock.Anything).Return(nil, 0, int64(0), sql.ErrNoRows)

		_, err := GetGrowthResult(ctx, testConfig(t), src, managerWith(store), schema.VideosDataset)
		require.Error(t, err)
		store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGetGrowthResult_History(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())

	t.Run("records every ranked cell", func(t *testing.T) {
		src := &source.MockSnapshotSource{}
		src.On("FetchSnapshots", mock.Anything, schema.VideosDataset).Return(scenarioRows(), nil)

		history := &iocache.MockHistoryStore{}
		history.On("BeginRun", schema.VideosDataset, mock.AnythingOfType("time.Time"), mock.Anything).Return(int64(7), nil)
		history.On("RecordGrowthRows", mock.MatchedBy(func(rows []schema.GrowthRecordRow) bool {
			return len(rows) == 8 && rows[0].RunID == 7
		})).Return(nil)
		history.On("EndRun", int64(7), mock.AnythingOfType("time.Time"), 2, 4).Return(nil)

		mgr := &iocache.MockCacheManager{}
		mgr.On("GetCacheStore").Return(nil)
		mgr.On("GetHistoryStore").Return(history)

		_, err := GetGrowthResult(ctx, testConfig(t), src, mgr, schema.VideosDataset)
		require.NoError(t, err)
		history.AssertExpectations(t)
	})

	t.Run("tracking failure does not fail the run", func(t *testing.T) {
		src := &source.MockSnapshotSource{}
		src.On("FetchSnapshots", mock.Anything, schema.VideosDataset).Return(scenarioRows(), nil)

		history := &iocache.MockHistoryStore{}
		history.On("BeginRun", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), errors.New("locked"))

		mgr := &iocache.MockCacheManager{}
		mgr.On("GetCacheStore").Return(nil)
		mgr.On("GetHistoryStore").Return(history)

		_, err := GetGrowthResult(ctx, testConfig(t), src, mgr, schema.VideosDataset)
		require.NoError(t, err)
		history.AssertNotCalled(t, "RecordGrowthRows", mock.Anything)
	})
}

func TestExecuteGrowth(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())

	t.Run("writes the result contract", func(t *testing.T) {
		cfg := testConfig(t)
		src := &source.MockSnapshotSource{}
		src.On("FetchSnapshots", mock.Anything, schema.VideosDataset).Return(scenarioRows(), nil)

		require.NoError(t, ExecuteGrowth(ctx, cfg, src, noStoresManager(), schema.VideosDataset))

		data, err := os.ReadFile(cfg.OutputFile)
		require.NoError(t, err)
		var contractOut schema.GrowthContract
		require.NoError(t, json.Unmarshal(data, &contractOut))
		assert.Len(t, contractOut.Days, 4)
		require.Len(t, contractOut.PerEntityRows, 2)
		assert.Equal(t, "A", contractOut.PerEntityRows[0].EntityKey)
	})

	t.Run("series view reads events", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.View = schema.TotalView
		src := &source.MockSnapshotSource{}
		src.On("FetchSnapshots", mock.Anything, schema.VideosDataset).Return(scenarioRows(), nil)
		src.On("FetchEvents", mock.Anything).Return([]schema.CalendarEvent{
			{ID: 1, EventDate: "2026-01-03", Category: schema.LiveEvent, Title: "Tour final"},
		}, nil)

		require.NoError(t, ExecuteGrowth(ctx, cfg, src, noStoresManager(), schema.VideosDataset))
		src.AssertExpectations(t)

		data, err := os.ReadFile(cfg.OutputFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), "Tour final")
	})

	t.Run("events failure still prints the series", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.View = schema.TopView
		src := &source.MockSnapshotSource{}
		src.On("FetchSnapshots", mock.Anything, schema.VideosDataset).Return(scenarioRows(), nil)
		src.On("FetchEvents", mock.Anything).Return(nil, errors.New("no calendar"))

		assert.NoError(t, ExecuteGrowth(ctx, cfg, src, noStoresManager(), schema.VideosDataset))
	})

	t.Run("empty dataset is not an error", func(t *testing.T) {
		src := &source.MockSnapshotSource{}
		src.On("FetchSnapshots", mock.Anything, schema.SNSDataset).Return(nil, nil)
		assert.NoError(t, ExecuteGrowth(ctx, testConfig(t), src, noStoresManager(), schema.SNSDataset))
	})
}

func surveyFixture() []schema.SurveyResponse {
	return []schema.SurveyResponse{
		{ID: 1, LiveName: "Zepp", EventDate: "2025-11-02", VenueType: "LIVE HOUSE", EventYear: 2025, RequestSong: "ハイ問題作/Blue", Age: "24", Gender: "女性"},
		{ID: 2, LiveName: "Zepp", EventDate: "2025-11-02", VenueType: "LIVE HOUSE", EventYear: 2025, RequestSong: "Blue", Age: "31", Gender: "男性"},
		{ID: 3, LiveName: "Budokan", EventDate: "2026-03-20", VenueType: "ARENA", EventYear: 2026, RequestSong: "未回答", Age: "", Gender: "女性"},
	}
}

func TestGetSurveyBreakdown(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())

	t.Run("song breakdown", func(t *testing.T) {
		src := &source.MockSnapshotSource{}
		src.On("FetchSurvey", mock.Anything).Return(surveyFixture(), nil)

		breakdown, err := GetSurveyBreakdown(ctx, testConfig(t), src, noStoresManager())
		require.NoError(t, err)
		require.Len(t, breakdown.Counts, 2)
		assert.Equal(t, "Blue", breakdown.Counts[0].Label)
		assert.Equal(t, 2, breakdown.Counts[0].Count)
		assert.Equal(t, "ハイ!問題作", breakdown.Counts[1].Label)
	})

	t.Run("filter leaving nothing is ErrNoData", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.SurveyFilter = schema.SurveyFilter{Year: 2026}
		src := &source.MockSnapshotSource{}
		src.On("FetchSurvey", mock.Anything).Return(surveyFixture(), nil)

		_, err := GetSurveyBreakdown(ctx, cfg, src, noStoresManager())
		assert.ErrorIs(t, err, ErrNoData)
	})

	t.Run("lives", func(t *testing.T) {
		src := &source.MockSnapshotSource{}
		src.On("FetchSurvey", mock.Anything).Return(surveyFixture(), nil)

		lives, err := GetLives(ctx, testConfig(t), src, noStoresManager())
		require.NoError(t, err)
		require.Len(t, lives, 2)
		assert.Equal(t, "2026-03-20_Budokan", lives[0].Key)
	})

	t.Run("execute writes json", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.SurveyField = schema.AgeField
		src := &source.MockSnapshotSource{}
		src.On("FetchSurvey", mock.Anything).Return(surveyFixture(), nil)

		require.NoError(t, ExecuteSurvey(ctx, cfg, src, noStoresManager()))
		data, err := os.ReadFile(cfg.OutputFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), "20代")
		assert.Contains(t, string(data), "30代")
	})
}

func TestFilterEvents(t *testing.T) {
	events := []schema.CalendarEvent{
		{ID: 3, EventDate: "2026-02-01", Category: schema.TVEvent, Title: "Music Station"},
		{ID: 1, EventDate: "2026-01-10", Category: schema.ReleaseEvent, Title: "Single"},
		{ID: 2, EventDate: "2026-01-10", Category: schema.LiveEvent, Title: "Release party"},
		{ID: 4, EventDate: "2026-03-01", Category: schema.LiveEvent, Title: "Tour"},
	}

	tests := []struct {
		name     string
		category schema.EventCategory
		from, to string
		wantIDs  []int64
	}{
		{name: "no filter sorts by date then id", wantIDs: []int64{1, 2, 3, 4}},
		{name: "category", category: schema.LiveEvent, wantIDs: []int64{2, 4}},
		{name: "inclusive range", from: "2026-01-10", to: "2026-02-01", wantIDs: []int64{1, 2, 3}},
		{name: "open start", to: "2026-01-31", wantIDs: []int64{1, 2}},
		{name: "nothing matches", category: schema.OtherEvent, wantIDs: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ids []int64
			for _, ev := range FilterEvents(events, tt.category, tt.from, tt.to) {
				ids = append(ids, ev.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestGetEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("empty after filtering", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.EventCategory = schema.TVEvent
		src := &source.MockSnapshotSource{}
		src.On("FetchEvents", mock.Anything).Return([]schema.CalendarEvent{
			{ID: 1, EventDate: "2026-01-01", Category: schema.LiveEvent, Title: "Countdown"},
		}, nil)

		_, err := GetEvents(ctx, cfg, src, noStoresManager())
		assert.ErrorIs(t, err, ErrNoData)
		assert.NoError(t, ExecuteEvents(ctx, cfg, src, noStoresManager()))
	})

	t.Run("fetch failure", func(t *testing.T) {
		src := &source.MockSnapshotSource{}
		src.On("FetchEvents", mock.Anything).Return(nil, errors.New("timeout"))
		assert.Error(t, ExecuteEvents(ctx, testConfig(t), src, noStoresManager()))
	})
}

func TestGenerateCacheKey(t *testing.T) {
	src := &source.MockSnapshotSource{}
	src.On("Name").Return("rest")
	src.On("Fingerprint").Return("https://a.example.com")
	other := &source.MockSnapshotSource{}
	other.On("Name").Return("rest")
	other.On("Fingerprint").Return("https://b.example.com")

	videos := schema.DefaultDatasets()[schema.VideosDataset]
	key := generateCacheKey(src, schema.VideosDataset, videos)

	assert.Len(t, key, 64)
	assert.Equal(t, key, generateCacheKey(src, schema.VideosDataset, videos))
	assert.NotEqual(t, key, generateCacheKey(other, schema.VideosDataset, videos))

	remapped := videos
	remapped.Value = "likes"
	assert.NotEqual(t, key, generateCacheKey(src, schema.VideosDataset, remapped))
	assert.NotEqual(t, key, generateCacheKey(src, eventsCacheName, schema.DatasetMapping{}))
}
