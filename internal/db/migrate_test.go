package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/cadence/internal/log"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDB(MemoryPath, log.Noop)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)

	// A second run is a no-op.
	require.NoError(t, Migrate(db, log.Noop))
	require.NoError(t, Migrate(db, log.Noop))
}

func TestMigrate_CreatesAllTables(t *testing.T) {
	db := openTestDB(t)

	expected := []string{"work_items", "execution_intervals", "habit_completions", "paused_sessions"}
	for _, table := range expected {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_CreatesIndexes(t *testing.T) {
	db := openTestDB(t)

	expected := []string{
		"idx_intervals_work_item",
		"idx_intervals_session",
		"idx_intervals_single_open",
		"idx_completions_work_item",
		"idx_paused_single",
	}
	for _, idx := range expected {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='index' AND name=?`, idx).Scan(&name)
		require.NoError(t, err, "index %s should exist", idx)
	}
}

func TestMigrate_Version(t *testing.T) {
	db := openTestDB(t)

	m, err := NewMigrator(db, log.Noop)
	require.NoError(t, err)
	v, dirty, err := m.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint(3), v)
	assert.False(t, dirty)
}

func TestMigrate_DownThenUp(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	m, err := NewMigrator(db, log.Noop)
	require.NoError(t, err)
	require.NoError(t, m.Down(ctx))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='execution_intervals'`).Scan(&count))
	assert.Equal(t, 0, count)

	require.NoError(t, m.Up(ctx))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='execution_intervals'`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestMigrate_ForeignKeysEnabled(t *testing.T) {
	db := openTestDB(t)

	var fk int
	err := db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk)
	require.NoError(t, err)
	assert.Equal(t, 1, fk, "foreign keys should be enabled")
}

func TestOpenDB_FileDatabaseUsesWAL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cadence.db")
	db, err := OpenDB(path, log.Noop)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	var mode string
	require.NoError(t, db.QueryRow(`PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func insertWorkItem(t *testing.T, db *sql.DB, id, kind, freq string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO work_items (id, title, kind, frequency, created_at, updated_at)
		VALUES (?, 'Item', ?, ?, 0, 0)`, id, kind, freq)
	require.NoError(t, err)
}

func TestMigrate_WorkItemKindFrequencyConstraint(t *testing.T) {
	db := openTestDB(t)

	insertWorkItem(t, db, "t1", "task", "")
	insertWorkItem(t, db, "h1", "habit", "daily")

	_, err := db.Exec(`INSERT INTO work_items (id, title, kind, frequency, created_at, updated_at)
		VALUES ('h2', 'Habit', 'habit', '', 0, 0)`)
	assert.Error(t, err, "habit without frequency should be rejected")

	_, err = db.Exec(`INSERT INTO work_items (id, title, kind, frequency, created_at, updated_at)
		VALUES ('t2', 'Task', 'task', 'weekly', 0, 0)`)
	assert.Error(t, err, "task with frequency should be rejected")
}

func TestMigrate_SingleOpenIntervalIndex(t *testing.T) {
	db := openTestDB(t)
	insertWorkItem(t, db, "a", "task", "")
	insertWorkItem(t, db, "b", "task", "")

	_, err := db.Exec(`INSERT INTO execution_intervals (id, work_item_id, session_id, started_at) VALUES ('i1', 'a', 's1', 1000)`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO execution_intervals (id, work_item_id, session_id, started_at) VALUES ('i2', 'b', 's2', 2000)`)
	require.Error(t, err, "second open interval should violate the unique index")
	assert.Contains(t, err.Error(), "UNIQUE")

	// Closed intervals are unconstrained.
	_, err = db.Exec(`INSERT INTO execution_intervals (id, work_item_id, session_id, started_at, ended_at) VALUES ('i3', 'b', 's2', 2000, 3000)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO execution_intervals (id, work_item_id, session_id, started_at, ended_at) VALUES ('i4', 'b', 's2', 4000, 5000)`)
	require.NoError(t, err)
}

func TestMigrate_NegativeIntervalRejected(t *testing.T) {
	db := openTestDB(t)
	insertWorkItem(t, db, "a", "task", "")

	_, err := db.Exec(`INSERT INTO execution_intervals (id, work_item_id, session_id, started_at, ended_at) VALUES ('i1', 'a', 's1', 5000, 4000)`)
	assert.Error(t, err)
}

func TestMigrate_CascadeDeletesIntervals(t *testing.T) {
	db := openTestDB(t)
	insertWorkItem(t, db, "a", "task", "")
	_, err := db.Exec(`INSERT INTO execution_intervals (id, work_item_id, session_id, started_at, ended_at) VALUES ('i1', 'a', 's1', 1000, 2000)`)
	require.NoError(t, err)

	_, err = db.Exec(`DELETE FROM work_items WHERE id = 'a'`)
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM execution_intervals`).Scan(&count))
	assert.Equal(t, 0, count)
}
