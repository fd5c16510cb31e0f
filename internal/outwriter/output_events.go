package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/fanpulse/fanpulse/internal/contract"
	"github.com/fanpulse/fanpulse/schema"
)

// PrintEvents outputs calendar events in the order given.
func PrintEvents(events []schema.CalendarEvent, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, events)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"id", "event_date", "category", "title", "description"}, func(cw *csv.Writer) error {
				for _, ev := range events {
					rec := []string{strconv.FormatInt(ev.ID, 10), ev.EventDate, string(ev.Category), ev.Title, ev.Description}
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
			return writeEventsTable(w, events, cfg)
		}, "Wrote table")
	}
}

func writeEventsTable(w io.Writer, events []schema.CalendarEvent, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Date", "Category", "Title", "Description"})

	descWidth := getMaxTableLabelWidth(cfg, 0)
	var data [][]string
	for _, ev := range events {
		category := string(ev.Category)
		if cfg.UseColors {
			category = contract.GetColorCategory(ev.Category)
		}
		data = append(data, []string{
			ev.EventDate,
			category,
			ev.Title,
			contract.TruncateLabel(ev.Description, descWidth),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d events\n", len(events))
	return err
}
