package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChartLabel(t *testing.T) {
	tests := []struct {
		day  string
		want string
	}{
		{"2026-01-05", "1/5"},
		{"2025-12-31", "12/31"},
		{"2026-10-18", "10/18"},
		{"not-a-day", "not-a-day"},
		{"2026/01/05", "2026/01/05"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.day, func(t *testing.T) {
			assert.Equal(t, tt.want, ChartLabel(tt.day))
		})
	}
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2026-02-28")
	require.NoError(t, err)
	assert.Equal(t, 2026, d.Year())
	assert.Equal(t, 28, d.Day())

	_, err = ParseDay("28/02/2026")
	assert.Error(t, err)
}

func TestAnnotateSeries(t *testing.T) {
	series := []Series{{
		Name: "total",
		Points: []SeriesPoint{
			{Day: "2026-01-01"},
			{Day: "2026-01-02"},
		},
	}}
	events := []CalendarEvent{
		{EventDate: "2026-01-02", Category: LiveEvent, Title: "Arena"},
		{EventDate: "2026-01-02", Category: TVEvent, Title: "Music show"},
		{EventDate: "2026-03-01", Category: ReleaseEvent, Title: "Single"},
	}

	AnnotateSeries(series, events)

	assert.Empty(t, series[0].Points[0].Events)
	require.Len(t, series[0].Points[1].Events, 2)
	assert.Equal(t, "Arena", series[0].Points[1].Events[0].Title)
}

func TestSurveyResponseLiveKey(t *testing.T) {
	r := SurveyResponse{LiveName: "Tour Final", EventDate: "2026-05-04"}
	assert.Equal(t, "2026-05-04_Tour Final", r.LiveKey())
	assert.Equal(t, "", r.Answer(SongField))
}
