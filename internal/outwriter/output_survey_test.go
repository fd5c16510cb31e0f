package outwriter

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fanpulse/fanpulse/schema"
)

func breakdownFixture() schema.SurveyBreakdown {
	return schema.SurveyBreakdown{
		Field:     schema.SongField,
		Filter:    schema.SurveyFilter{Year: 2025},
		Responses: 3,
		Total:     4,
		Counts: []schema.CategoryCount{
			{Label: "Blue Moon", Count: 2, Share: 50},
			{Label: "Night Drive", Count: 1, Share: 25},
			{Label: "Sunrise", Count: 1, Share: 25},
		},
	}
}

func TestPrintSurveyBreakdown(t *testing.T) {
	breakdown := breakdownFixture()

	t.Run("text", func(t *testing.T) {
		cfg := outputConfig(t, schema.TextOut, schema.TableView)
		require.NoError(t, PrintSurveyBreakdown(breakdown, cfg, time.Second))

		out := readOutput(t, cfg)
		assert.Contains(t, out, "Blue Moon")
		assert.Contains(t, out, "50.0%")
		assert.Contains(t, out, strings.Repeat("█", 10))
		assert.Contains(t, out, "4 answers from 3 responses")
	})

	t.Run("json honors the limit", func(t *testing.T) {
		cfg := outputConfig(t, schema.JSONOut, schema.TableView)
		cfg.ResultLimit = 2
		require.NoError(t, PrintSurveyBreakdown(breakdown, cfg, time.Second))

		var got schema.SurveyBreakdown
		require.NoError(t, json.Unmarshal([]byte(readOutput(t, cfg)), &got))
		assert.Len(t, got.Counts, 2)
		assert.Equal(t, 4, got.Total)
		assert.Equal(t, 2025, got.Filter.Year)
	})

	t.Run("csv", func(t *testing.T) {
		cfg := outputConfig(t, schema.CSVOut, schema.TableView)
		require.NoError(t, PrintSurveyBreakdown(breakdown, cfg, time.Second))

		out := readOutput(t, cfg)
		assert.True(t, strings.HasPrefix(out, "rank,label,count,share\n"))
		assert.Contains(t, out, "1,Blue Moon,2,50.0\n")
		assert.Contains(t, out, "3,Sunrise,1,25.0\n")
	})

	t.Run("parquet is rejected", func(t *testing.T) {
		cfg := outputConfig(t, schema.ParquetOut, schema.TableView)
		assert.Error(t, PrintSurveyBreakdown(breakdown, cfg, time.Second))
	})
}

func TestShareBar(t *testing.T) {
	assert.Equal(t, "", shareBar(0))
	assert.Equal(t, strings.Repeat("█", 20), shareBar(100))
	assert.Equal(t, strings.Repeat("█", 20), shareBar(130))
	assert.Equal(t, strings.Repeat("█", 5), shareBar(25))
}

func TestPrintLives(t *testing.T) {
	lives := []schema.LiveOption{
		{Key: "2025-08-01_Summer Tour", LiveName: "Summer Tour", EventDate: "2025-08-01", VenueType: "hall", Responses: 12},
		{Key: "2025-03-10_Spring Live", LiveName: "Spring Live", EventDate: "2025-03-10", VenueType: "club", Responses: 4},
	}

	t.Run("csv", func(t *testing.T) {
		cfg := outputConfig(t, schema.CSVOut, schema.TableView)
		require.NoError(t, PrintLives(lives, cfg))

		lines := strings.Split(strings.TrimSpace(readOutput(t, cfg)), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, "key,event_date,live_name,venue_type,responses", lines[0])
		assert.Equal(t, "2025-08-01_Summer Tour,2025-08-01,Summer Tour,hall,12", lines[1])
	})

	t.Run("json", func(t *testing.T) {
		cfg := outputConfig(t, schema.JSONOut, schema.TableView)
		require.NoError(t, PrintLives(lives, cfg))

		var got []schema.LiveOption
		require.NoError(t, json.Unmarshal([]byte(readOutput(t, cfg)), &got))
		assert.Equal(t, lives, got)
	})

	t.Run("text", func(t *testing.T) {
		cfg := outputConfig(t, schema.TextOut, schema.TableView)
		require.NoError(t, PrintLives(lives, cfg))
		assert.Contains(t, readOutput(t, cfg), "Spring Live")
	})
}
