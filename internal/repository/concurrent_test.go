package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alexanderramin/cadence/internal/db"
	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/log"
	"github.com/alexanderramin/cadence/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newConcurrentTestDB creates a file-backed SQLite database in a temp directory.
// Unlike :memory:, a file-backed DB shares state across all connections in the
// pool, which is required to test real concurrent access with WAL mode.
func newConcurrentTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "concurrent_test.db")
	database, err := db.OpenDB(dbPath, log.Noop)
	require.NoError(t, err, "failed to create concurrent test database")
	t.Cleanup(func() { database.Close() })
	return database
}

// TestConcurrentAccess_SumDuringWrite verifies that concurrent SumClosed calls
// never observe a half-written interval while a writer appends to the log.
func TestConcurrentAccess_SumDuringWrite(t *testing.T) {
	database := newConcurrentTestDB(t)
	ctx := context.Background()

	items := NewSQLiteWorkItemRepo(database)
	intervals := NewSQLiteIntervalRepo(database)

	w := testutil.NewTestWorkItem("Focus")
	require.NoError(t, items.Create(ctx, w))

	var wg sync.WaitGroup
	start := time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			iv := testutil.NewTestInterval(w.ID, start.Add(time.Duration(i)*time.Hour), time.Minute)
			if err := intervals.Insert(ctx, iv); err != nil {
				t.Errorf("writer: insert interval %d: %v", i, err)
				return
			}
		}
	}()

	for r := 0; r < 5; r++ {
		wg.Add(1)
		go func(reader int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				total, err := intervals.SumClosed(ctx, w.ID, domain.IntervalFilter{})
				if err != nil {
					t.Errorf("reader %d: sum: %v", reader, err)
					return
				}
				if total%time.Minute != 0 {
					t.Errorf("reader %d: partial total %s", reader, total)
				}
			}
		}(r)
	}

	wg.Wait()

	total, err := intervals.SumClosed(ctx, w.ID, domain.IntervalFilter{})
	require.NoError(t, err)
	assert.Equal(t, 20*time.Minute, total)
}

// TestConcurrentAccess_SingleOpenInterval races many writers to open an
// interval. The store must admit exactly one.
func TestConcurrentAccess_SingleOpenInterval(t *testing.T) {
	database := newConcurrentTestDB(t)
	ctx := context.Background()

	items := NewSQLiteWorkItemRepo(database)
	uow := db.NewSQLiteUnitOfWork(database)

	const workers = 20
	ids := make([]string, workers)
	for i := range ids {
		w := testutil.NewTestWorkItem(fmt.Sprintf("Item-%d", i))
		require.NoError(t, items.Create(ctx, w))
		ids[i] = w.ID
	}

	retryTx := func(fn func() error) error {
		const maxRetries = 10
		var err error
		for attempt := 0; attempt < maxRetries; attempt++ {
			err = fn()
			if !errors.Is(err, domain.ErrPersistenceUnavailable) {
				return err
			}
			time.Sleep(time.Millisecond * time.Duration(1<<attempt))
		}
		return err
	}

	var (
		wg       sync.WaitGroup
		opened   atomic.Int32
		rejected atomic.Int32
	)
	at := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := retryTx(func() error {
				return uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
					return NewSQLiteIntervalRepo(tx).Insert(ctx, testutil.NewTestInterval(ids[i], at, 0, testutil.Open()))
				})
			})
			switch {
			case err == nil:
				opened.Add(1)
			case errors.Is(err, domain.ErrAlreadyOpenElsewhere):
				rejected.Add(1)
			default:
				t.Errorf("worker %d: unexpected error: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), opened.Load())
	assert.Equal(t, int32(workers-1), rejected.Load())

	open, err := NewSQLiteIntervalRepo(database).GetOpen(ctx)
	require.NoError(t, err)
	require.NotNil(t, open)
}
