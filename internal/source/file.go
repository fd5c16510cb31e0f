package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/fanpulse/fanpulse/schema"
)

// LiveInfo is the live a survey spreadsheet was collected at.
type LiveInfo struct {
	Name  string
	Date  string // YYYY-MM-DD
	Venue string
}

// FileSource reads exported tables from a directory of CSV files
// (<table>.csv with a header row) and survey answers from a spreadsheet.
type FileSource struct {
	dir        string
	surveyFile string
	live       LiveInfo
	datasets   map[string]schema.DatasetMapping
}

// NewFileSource creates a file source. Either dir or surveyFile may be empty.
func NewFileSource(dir, surveyFile string, live LiveInfo, datasets map[string]schema.DatasetMapping) *FileSource {
	return &FileSource{dir: dir, surveyFile: surveyFile, live: live, datasets: datasets}
}

// Name implements contract.SnapshotSource.
func (s *FileSource) Name() string {
	return string(schema.FileSource)
}

// Fingerprint implements contract.SnapshotSource.
func (s *FileSource) Fingerprint() string {
	return s.dir + "|" + s.surveyFile
}

// FetchSnapshots implements contract.SnapshotSource.
func (s *FileSource) FetchSnapshots(_ context.Context, dataset string) ([]schema.RawSnapshot, error) {
	m, err := datasetMapping(s.datasets, dataset)
	if err != nil {
		return nil, s.fail(dataset, err)
	}
	if s.dir == "" {
		return nil, s.fail(dataset, errors.New("no snapshot directory configured"))
	}
	rows, err := readCSVTable(filepath.Join(s.dir, m.Table+".csv"))
	if err != nil {
		return nil, s.fail(dataset, err)
	}
	warnWithoutSeq(dataset, m)
	out := make([]schema.RawSnapshot, 0, len(rows))
	for _, row := range rows {
		out = append(out, snapshotFromRow(mapGetter(row), m))
	}
	return out, nil
}

// FetchEvents implements contract.SnapshotSource.
// A missing events file means there are no events.
func (s *FileSource) FetchEvents(_ context.Context) ([]schema.CalendarEvent, error) {
	if s.dir == "" {
		return []schema.CalendarEvent{}, nil
	}
	rows, err := readCSVTable(filepath.Join(s.dir, EventsTable+".csv"))
	if errors.Is(err, fs.ErrNotExist) {
		return []schema.CalendarEvent{}, nil
	}
	if err != nil {
		return nil, s.fail(eventsDataset, err)
	}
	out := make([]schema.CalendarEvent, 0, len(rows))
	for _, row := range rows {
		out = append(out, eventFromRow(mapGetter(row)))
	}
	return out, nil
}

// FetchSurvey implements contract.SnapshotSource.
// The survey spreadsheet wins over an exported survey table in the directory.
func (s *FileSource) FetchSurvey(_ context.Context) ([]schema.SurveyResponse, error) {
	if s.surveyFile != "" {
		rows, err := readSheet(s.surveyFile)
		if err != nil {
			return nil, s.fail(surveyDataset, err)
		}
		return surveyFromSheet(rows, s.liveFor(s.surveyFile)), nil
	}
	if s.dir == "" {
		return nil, s.fail(surveyDataset, errors.New("no survey file or directory configured"))
	}
	rows, err := readCSVTable(filepath.Join(s.dir, SurveyTable+".csv"))
	if err != nil {
		return nil, s.fail(surveyDataset, err)
	}
	out := make([]schema.SurveyResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, surveyFromRow(mapGetter(row)))
	}
	return out, nil
}

func (s *FileSource) fail(dataset string, err error) error {
	return &FetchError{Source: s.Name(), Dataset: dataset, Err: err}
}

// liveFor fills in a live name from the file name when none was configured.
func (s *FileSource) liveFor(path string) LiveInfo {
	live := s.live
	if live.Name == "" {
		live.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return live
}

// surveyFromSheet converts positional spreadsheet rows into survey responses.
// The first row is a header; columns are song, visits, prefecture, age, gender.
func surveyFromSheet(rows [][]string, live LiveInfo) []schema.SurveyResponse {
	year := 0
	if len(live.Date) >= 4 {
		year, _ = strconv.Atoi(live.Date[:4])
	}

	out := []schema.SurveyResponse{}
	if len(rows) < 2 {
		return out
	}
	for i, row := range rows[1:] {
		cell := func(j int) string {
			if j < len(row) {
				return strings.TrimSpace(row[j])
			}
			return ""
		}
		if cell(0) == "" && cell(1) == "" {
			continue
		}
		out = append(out, schema.SurveyResponse{
			ID:          int64(i + 1),
			LiveName:    live.Name,
			EventDate:   live.Date,
			VenueType:   live.Venue,
			EventYear:   year,
			RequestSong: cell(0),
			Visits:      withSuffix(cell(1), "回"),
			Prefecture:  cell(2),
			Age:         withSuffix(cell(3), "代"),
			Gender:      cell(4),
			CreatedAt:   live.Date,
		})
	}
	return out
}

// withSuffix appends a unit to a non-empty answer that lacks it.
func withSuffix(s, suffix string) string {
	if s == "" || strings.Contains(s, suffix) {
		return s
	}
	return s + suffix
}

// readSheet reads the first worksheet of an xlsx file, or a whole CSV file.
func readSheet(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		file, err := excelize.OpenFile(path)
		if err != nil {
			return nil, err
		}
		defer func() { _ = file.Close() }()

		sheetName := file.GetSheetName(0)
		if sheetName == "" {
			return nil, fmt.Errorf("no worksheet found in %s", path)
		}
		return file.GetRows(sheetName)
	case ".csv":
		return readCSV(path)
	default:
		return nil, fmt.Errorf("unsupported survey file type: %s (expected .xlsx or .csv)", path)
	}
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return records, nil
}

// readCSVTable reads a CSV export keyed by its header row.
func readCSVTable(path string) ([]map[string]any, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	header := records[0]
	out := make([]map[string]any, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]any, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[strings.TrimSpace(col)] = rec[i]
			}
		}
		out = append(out, row)
	}
	return out, nil
}
