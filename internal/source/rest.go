package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"github.com/fanpulse/fanpulse/schema"
)

// DefaultPageSize is the number of rows requested per REST page.
const DefaultPageSize = 1000

// RESTSource reads tables through a PostgREST-style HTTP API.
// Dataset fields are JSONPath expressions; plain names address top-level keys.
type RESTSource struct {
	baseURL  string
	apiKey   string
	datasets map[string]schema.DatasetMapping
	pageSize int
	http     *http.Client
}

// NewRESTSource creates a REST source. A zero timeout keeps the client default.
func NewRESTSource(baseURL, apiKey string, timeout time.Duration, datasets map[string]schema.DatasetMapping) *RESTSource {
	base := strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(base, "/rest/v1") {
		base += "/rest/v1"
	}
	return &RESTSource{
		baseURL:  base,
		apiKey:   apiKey,
		datasets: datasets,
		pageSize: DefaultPageSize,
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name implements contract.SnapshotSource.
func (s *RESTSource) Name() string {
	return string(schema.RESTSource)
}

// Fingerprint implements contract.SnapshotSource.
func (s *RESTSource) Fingerprint() string {
	return s.baseURL
}

// FetchSnapshots implements contract.SnapshotSource.
func (s *RESTSource) FetchSnapshots(ctx context.Context, dataset string) ([]schema.RawSnapshot, error) {
	m, err := datasetMapping(s.datasets, dataset)
	if err != nil {
		return nil, s.fail(dataset, err)
	}
	exprs, err := compileMapping(m)
	if err != nil {
		return nil, s.fail(dataset, err)
	}

	rows, err := s.fetchTable(ctx, m.Table, restOrder(m.Time, m.Seq))
	if err != nil {
		return nil, s.fail(dataset, err)
	}

	warnWithoutSeq(dataset, m)
	out := make([]schema.RawSnapshot, 0, len(rows))
	for _, row := range rows {
		get := func(field string) any {
			return exprs[field].First(row)
		}
		out = append(out, snapshotFromRow(get, m))
	}
	return out, nil
}

// FetchEvents implements contract.SnapshotSource.
func (s *RESTSource) FetchEvents(ctx context.Context) ([]schema.CalendarEvent, error) {
	rows, err := s.fetchTable(ctx, EventsTable, "event_date.asc,id.asc")
	if err != nil {
		return nil, s.fail(eventsDataset, err)
	}
	out := make([]schema.CalendarEvent, 0, len(rows))
	for _, row := range rows {
		if obj, ok := row.(map[string]any); ok {
			out = append(out, eventFromRow(mapGetter(obj)))
		}
	}
	return out, nil
}

// FetchSurvey implements contract.SnapshotSource.
func (s *RESTSource) FetchSurvey(ctx context.Context) ([]schema.SurveyResponse, error) {
	rows, err := s.fetchTable(ctx, SurveyTable, "created_at.asc,id.asc")
	if err != nil {
		return nil, s.fail(surveyDataset, err)
	}
	out := make([]schema.SurveyResponse, 0, len(rows))
	for _, row := range rows {
		if obj, ok := row.(map[string]any); ok {
			out = append(out, surveyFromRow(mapGetter(obj)))
		}
	}
	return out, nil
}

func (s *RESTSource) fail(dataset string, err error) error {
	return &FetchError{Source: s.Name(), Dataset: dataset, Err: err}
}

// fetchTable pages through a table until a short page arrives.
func (s *RESTSource) fetchTable(ctx context.Context, table, order string) ([]any, error) {
	var all []any
	for offset := 0; ; offset += s.pageSize {
		page, err := s.fetchPage(ctx, table, order, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < s.pageSize {
			return all, nil
		}
	}
}

func (s *RESTSource) fetchPage(ctx context.Context, table, order string, offset int) ([]any, error) {
	q := url.Values{}
	q.Set("select", "*")
	if order != "" {
		q.Set("order", order)
	}
	q.Set("limit", strconv.Itoa(s.pageSize))
	q.Set("offset", strconv.Itoa(offset))
	reqURL := fmt.Sprintf("%s/%s?%s", s.baseURL, url.PathEscape(table), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set("apikey", s.apiKey)
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("%s request failed: %s: %s", table, resp.Status, strings.TrimSpace(string(rb)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	parsed, err := oj.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("decode %s page: %w", table, err)
	}
	rows, ok := parsed.([]any)
	if !ok {
		return nil, fmt.Errorf("decode %s page: expected a JSON array, got %T", table, parsed)
	}
	return rows, nil
}

// compileMapping parses every non-empty field of a mapping into a JSONPath expression.
func compileMapping(m schema.DatasetMapping) (map[string]jp.Expr, error) {
	exprs := make(map[string]jp.Expr)
	for _, field := range []string{m.Entity, m.Value, m.Time, m.Seq, m.Name, m.ID, m.Published} {
		if field == "" {
			continue
		}
		if _, done := exprs[field]; done {
			continue
		}
		x, err := compileField(field)
		if err != nil {
			return nil, err
		}
		exprs[field] = x
	}
	return exprs, nil
}

func compileField(field string) (jp.Expr, error) {
	if !strings.HasPrefix(field, "$") {
		return jp.C(field), nil
	}
	x, err := jp.ParseString(field)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", field, err)
	}
	return x, nil
}

// restOrder builds the order parameter from the plain top-level fields among time and seq.
func restOrder(fields ...string) string {
	var parts []string
	for _, f := range fields {
		if f == "" || strings.HasPrefix(f, "$") {
			continue
		}
		parts = append(parts, f+".asc")
	}
	return strings.Join(parts, ",")
}
