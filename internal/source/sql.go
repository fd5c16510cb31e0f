package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/fanpulse/fanpulse/internal/contract"
	"github.com/fanpulse/fanpulse/schema"
)

// SQLSource reads tables straight from a relational read replica.
// Dataset fields are column names.
type SQLSource struct {
	kind     schema.SourceKind
	backend  schema.DatabaseBackend
	dsn      string
	timeout  time.Duration
	datasets map[string]schema.DatasetMapping
	db       *sql.DB
}

// NewSQLSource opens a connection pool for a postgresql, mysql or sqlite source.
// A zero timeout leaves queries bounded only by the caller's context.
func NewSQLSource(kind schema.SourceKind, dsn string, timeout time.Duration, datasets map[string]schema.DatasetMapping) (*SQLSource, error) {
	var driverName string
	var backend schema.DatabaseBackend
	switch kind {
	case schema.PostgresSource:
		driverName, backend = "pgx", schema.PostgreSQLBackend
	case schema.MySQLSource:
		driverName, backend = "mysql", schema.MySQLBackend
	case schema.SQLiteSource:
		driverName, backend = "sqlite", schema.SQLiteBackend
	default:
		return nil, fmt.Errorf("unsupported sql source: %s", kind)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s source: %w", kind, err)
	}
	if backend == schema.SQLiteBackend {
		db.SetMaxOpenConns(1)
	}

	return &SQLSource{
		kind:     kind,
		backend:  backend,
		dsn:      dsn,
		timeout:  timeout,
		datasets: datasets,
		db:       db,
	}, nil
}

// Name implements contract.SnapshotSource.
func (s *SQLSource) Name() string {
	return string(s.kind)
}

// Fingerprint implements contract.SnapshotSource.
func (s *SQLSource) Fingerprint() string {
	return s.dsn
}

// Close closes the connection pool.
func (s *SQLSource) Close() error {
	return s.db.Close()
}

// FetchSnapshots implements contract.SnapshotSource.
func (s *SQLSource) FetchSnapshots(ctx context.Context, dataset string) ([]schema.RawSnapshot, error) {
	m, err := datasetMapping(s.datasets, dataset)
	if err != nil {
		return nil, s.fail(dataset, err)
	}
	for _, ident := range []string{m.Table, m.Entity, m.Value, m.Time, m.Seq, m.Name, m.ID, m.Published} {
		if ident == "" {
			continue
		}
		if err := contract.ValidateIdentifier(ident); err != nil {
			return nil, s.fail(dataset, err)
		}
	}

	rows, err := s.query(ctx, m.Table, m.Time, m.Seq)
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
func (s *SQLSource) FetchEvents(ctx context.Context) ([]schema.CalendarEvent, error) {
	rows, err := s.query(ctx, EventsTable, "event_date", "id")
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
func (s *SQLSource) FetchSurvey(ctx context.Context) ([]schema.SurveyResponse, error) {
	rows, err := s.query(ctx, SurveyTable, "created_at", "id")
	if err != nil {
		return nil, s.fail(surveyDataset, err)
	}
	out := make([]schema.SurveyResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, surveyFromRow(mapGetter(row)))
	}
	return out, nil
}

func (s *SQLSource) fail(dataset string, err error) error {
	return &FetchError{Source: s.Name(), Dataset: dataset, Err: err}
}

// query selects every row of a table ordered by the given columns.
func (s *SQLSource) query(ctx context.Context, table string, orderBy ...string) ([]map[string]any, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var order []string
	for _, col := range orderBy {
		if col != "" {
			order = append(order, contract.QuoteIdentifier(col, s.backend)+" ASC")
		}
	}
	query := fmt.Sprintf("SELECT * FROM %s", contract.QuoteIdentifier(table, s.backend))
	if len(order) > 0 {
		query += " ORDER BY " + strings.Join(order, ", ")
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()
	return scanRows(rows)
}

// scanRows reads every row into a column name to value map.
func scanRows(rows *sql.Rows) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
