package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/fanpulse/fanpulse/schema"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileSourceFetchSnapshots(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sns_stats.csv", "\ufeffid,platform,follower_count,created_at\n"+
		"1,X,1000,2026-01-01T03:00:00+09:00\n"+
		"2,Instagram,,2026-01-01T03:00:00+09:00\n")

	src := NewFileSource(dir, "", LiveInfo{}, schema.DefaultDatasets())
	rows, err := src.FetchSnapshots(context.Background(), schema.SNSDataset)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, schema.RawSnapshot{
		EntityKey:   "X",
		CapturedAt:  "2026-01-01T03:00:00+09:00",
		Value:       "1000",
		Seq:         1,
		DisplayName: "X",
	}, rows[0])
	assert.Equal(t, "", rows[1].Value)

	_, err = src.FetchSnapshots(context.Background(), schema.VideosDataset)
	assert.ErrorContains(t, err, "youtube_stats.csv")
}

func TestFileSourceEventsOptional(t *testing.T) {
	dir := t.TempDir()
	src := NewFileSource(dir, "", LiveInfo{}, schema.DefaultDatasets())

	events, err := src.FetchEvents(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)

	writeFile(t, dir, "calendar_events.csv", "id,event_date,category,title,description\n7,2026/3/1,TV,Music Station,\n")
	events, err = src.FetchEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, schema.CalendarEvent{ID: 7, EventDate: "2026-03-01", Category: schema.TVEvent, Title: "Music Station"}, events[0])
}

func TestFileSourceSurveyCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tour_final.csv", "曲名,回数,都道府県,年齢,性別\n"+
		"CORE PRIDE,3,東京都,20,女性\n"+
		",,,,\n"+
		"在るべき形,初めて,大阪府,30代,男性\n")

	src := NewFileSource("", path, LiveInfo{Date: "2026-02-02", Venue: "ARENA"}, schema.DefaultDatasets())
	survey, err := src.FetchSurvey(context.Background())
	require.NoError(t, err)
	require.Len(t, survey, 2)

	assert.Equal(t, schema.SurveyResponse{
		ID:          1,
		LiveName:    "tour_final",
		EventDate:   "2026-02-02",
		VenueType:   "ARENA",
		EventYear:   2026,
		RequestSong: "CORE PRIDE",
		Visits:      "3回",
		Prefecture:  "東京都",
		Age:         "20代",
		Gender:      "女性",
		CreatedAt:   "2026-02-02",
	}, survey[0])
	assert.Equal(t, "初めて回", survey[1].Visits)
	assert.Equal(t, "30代", survey[1].Age)
}

func TestFileSourceSurveyXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "final.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"曲名", "回数", "都道府県", "年齢", "性別"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"CORE PRIDE、7th Trigger", 5, "神奈川県", 40, "女性"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	src := NewFileSource("", path, LiveInfo{Name: "Tour Final", Date: "2026-02-02"}, schema.DefaultDatasets())
	survey, err := src.FetchSurvey(context.Background())
	require.NoError(t, err)
	require.Len(t, survey, 1)
	assert.Equal(t, "Tour Final", survey[0].LiveName)
	assert.Equal(t, "CORE PRIDE、7th Trigger", survey[0].RequestSong)
	assert.Equal(t, "5回", survey[0].Visits)
	assert.Equal(t, "40代", survey[0].Age)
}

func TestFileSourceSurveyErrors(t *testing.T) {
	src := NewFileSource("", writeFile(t, t.TempDir(), "answers.txt", "x"), LiveInfo{}, nil)
	_, err := src.FetchSurvey(context.Background())
	assert.ErrorContains(t, err, "unsupported survey file type")

	src = NewFileSource("", "", LiveInfo{}, nil)
	_, err = src.FetchSurvey(context.Background())
	assert.ErrorContains(t, err, "no survey file or directory configured")
}

func TestSurveyFromSheetHeaderOnly(t *testing.T) {
	assert.Empty(t, surveyFromSheet([][]string{{"曲名"}}, LiveInfo{}))
	assert.Empty(t, surveyFromSheet(nil, LiveInfo{}))
}
