package outwriter

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fanpulse/fanpulse/internal/contract"
	"github.com/fanpulse/fanpulse/schema"
)

func TestPrintEvents(t *testing.T) {
	events := []schema.CalendarEvent{
		{ID: 1, EventDate: "2026-01-02", Category: schema.TVEvent, Title: "CDTV", Description: "Live performance"},
		{ID: 2, EventDate: "2026-01-05", Category: schema.ReleaseEvent, Title: "New single, \"Blue\""},
	}

	t.Run("csv quotes titles", func(t *testing.T) {
		cfg := outputConfig(t, schema.CSVOut, schema.TableView)
		require.NoError(t, PrintEvents(events, cfg))

		out := readOutput(t, cfg)
		assert.True(t, strings.HasPrefix(out, "id,event_date,category,title,description\n"))
		assert.Contains(t, out, "1,2026-01-02,TV,CDTV,Live performance\n")
		assert.Contains(t, out, `2,2026-01-05,RELEASE,"New single, ""Blue""",`)
	})

	t.Run("json", func(t *testing.T) {
		cfg := outputConfig(t, schema.JSONOut, schema.TableView)
		require.NoError(t, PrintEvents(events, cfg))

		var got []schema.CalendarEvent
		require.NoError(t, json.Unmarshal([]byte(readOutput(t, cfg)), &got))
		assert.Equal(t, events, got)
	})

	t.Run("text", func(t *testing.T) {
		cfg := outputConfig(t, schema.TextOut, schema.TableView)
		require.NoError(t, PrintEvents(events, cfg))

		out := readOutput(t, cfg)
		assert.Contains(t, out, "CDTV")
		assert.Contains(t, out, "2 events")
	})

	t.Run("empty", func(t *testing.T) {
		cfg := outputConfig(t, schema.TextOut, schema.TableView)
		require.NoError(t, PrintEvents(nil, cfg))
		assert.Contains(t, readOutput(t, cfg), "0 events")
	})

	t.Run("parquet is rejected", func(t *testing.T) {
		cfg := outputConfig(t, schema.ParquetOut, schema.TableView)
		assert.Error(t, PrintEvents(events, cfg))
	})
}

func TestDescribeFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter schema.SurveyFilter
		want   string
	}{
		{"none", schema.SurveyFilter{}, ""},
		{"year", schema.SurveyFilter{Year: 2025}, " (year=2025)"},
		{"all", schema.SurveyFilter{Year: 2025, VenueType: "hall", LiveKey: "k"}, " (year=2025 venue=hall live=k)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &contract.Config{SurveyFilter: tt.filter}
			assert.Equal(t, tt.want, describeFilter(cfg))
		})
	}
}

func TestIcon(t *testing.T) {
	assert.Equal(t, "", icon(&contract.Config{}, "📈 "))
	assert.Equal(t, "📈 ", icon(&contract.Config{UseEmojis: true}, "📈 "))
}
