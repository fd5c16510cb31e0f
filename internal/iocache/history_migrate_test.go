package iocache

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fanpulse/fanpulse/schema"
)

func TestMigrateHistoryNoneBackend(t *testing.T) {
	err := MigrateHistory(schema.NoneBackend, "", -1)
	assert.ErrorContains(t, err, "migrations are not supported for the none backend")

	err = MigrateHistory(schema.RedisBackend, "", -1)
	assert.ErrorContains(t, err, "unsupported backend")
}

func TestMigrateHistorySQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	require.NoError(t, MigrateHistory(schema.SQLiteBackend, dbPath, -1))
	assert.FileExists(t, dbPath)
	assert.True(t, tableExists(t, dbPath, growthRecordsTable))

	// Up again is a no-op
	require.NoError(t, MigrateHistory(schema.SQLiteBackend, dbPath, -1))

	require.NoError(t, MigrateHistory(schema.SQLiteBackend, dbPath, 1))
	require.NoError(t, MigrateHistory(schema.SQLiteBackend, dbPath, 0))
	assert.False(t, tableExists(t, dbPath, growthRecordsTable))

	require.NoError(t, MigrateHistory(schema.SQLiteBackend, dbPath, 2))
	assert.True(t, tableExists(t, dbPath, growthRunsTable))
}

func TestMigrateHistoryAfterStoreCreatedTables(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	store, err := NewHistoryStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	assert.NoError(t, MigrateHistory(schema.SQLiteBackend, dbPath, -1))
}

func TestMigrateHistoryInMemory(t *testing.T) {
	require.NoError(t, MigrateHistory(schema.SQLiteBackend, ":memory:", -1))
}

func tableExists(t *testing.T, dbPath, table string) bool {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var name string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
	return err == nil
}
