package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/fanpulse/fanpulse/internal/contract"
	"github.com/fanpulse/fanpulse/schema"
)

// shareBarWidth is the width of the bar drawn for a 100% share.
const shareBarWidth = 20

// PrintSurveyBreakdown outputs a survey breakdown, dispatching based on the output format configured.
func PrintSurveyBreakdown(breakdown schema.SurveyBreakdown, cfg *contract.Config, duration time.Duration) error {
	counts := breakdown.Counts
	if cfg.ResultLimit > 0 && len(counts) > cfg.ResultLimit {
		counts = counts[:cfg.ResultLimit]
	}

	switch cfg.Output {
	case schema.JSONOut:
		limited := breakdown
		limited.Counts = counts
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, limited)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"rank", "label", "count", "share"}, func(cw *csv.Writer) error {
				for i, c := range counts {
					rec := []string{strconv.Itoa(i + 1), c.Label, strconv.Itoa(c.Count), strconv.FormatFloat(c.Share, 'f', 1, 64)}
					if err := cw.Write(rec); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is only supported for growth tables")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSurveyTable(w, breakdown, counts, cfg, duration)
		}, "Wrote table")
	}
}

func writeSurveyTable(w io.Writer, breakdown schema.SurveyBreakdown, counts []schema.CategoryCount, cfg *contract.Config, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Answer", "Count", "Share", ""})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	labelWidth := getMaxTableLabelWidth(cfg, 2)
	var data [][]string
	for i, c := range counts {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			contract.TruncateLabel(c.Label, labelWidth),
			formatCount(int64(c.Count)),
			fmt.Sprintf("%.1f%%", c.Share),
			shareBar(c.Share),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d answers from %d responses. Computed in %v\n", breakdown.Total, breakdown.Responses, duration)
	return err
}

func shareBar(share float64) string {
	n := int(share/100*shareBarWidth + 0.5)
	return strings.Repeat("█", max(0, min(n, shareBarWidth)))
}

// PrintLives outputs the registered lives, newest first.
func PrintLives(lives []schema.LiveOption, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, lives)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"key", "event_date", "live_name", "venue_type", "responses"}, func(cw *csv.Writer) error {
				for _, l := range lives {
					if err := cw.Write([]string{l.Key, l.EventDate, l.LiveName, l.VenueType, strconv.Itoa(l.Responses)}); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is only supported for growth tables")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			table := tablewriter.NewWriter(w)
			table.Header([]string{"Date", "Live", "Venue", "Responses", "Filter Key"})
			var data [][]string
			for _, l := range lives {
				data = append(data, []string{l.EventDate, l.LiveName, l.VenueType, formatCount(int64(l.Responses)), l.Key})
			}
			if err := table.Bulk(data); err != nil {
				return err
			}
			return table.Render()
		}, "Wrote table")
	}
}
