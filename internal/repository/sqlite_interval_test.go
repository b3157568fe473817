package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func setupIntervalRepo(t *testing.T) (*SQLiteIntervalRepo, *domain.WorkItem, *domain.WorkItem) {
	t.Helper()
	database := testutil.NewTestDB(t)
	items := NewSQLiteWorkItemRepo(database)
	a := testutil.NewTestWorkItem("A")
	b := testutil.NewTestWorkItem("B")
	require.NoError(t, items.Create(context.Background(), a))
	require.NoError(t, items.Create(context.Background(), b))
	return NewSQLiteIntervalRepo(database), a, b
}

func TestIntervalRepo_InsertCloseGet(t *testing.T) {
	repo, a, _ := setupIntervalRepo(t)
	ctx := context.Background()

	iv := testutil.NewTestInterval(a.ID, t0, 0, testutil.Open())
	require.NoError(t, repo.Insert(ctx, iv))

	open, err := repo.GetOpen(ctx)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, iv.ID, open.ID)
	assert.True(t, open.IsOpen())

	require.NoError(t, repo.Close(ctx, iv.ID, t0.Add(90*time.Second)))

	got, err := repo.GetByID(ctx, iv.ID)
	require.NoError(t, err)
	require.NotNil(t, got.EndedAt)
	assert.Equal(t, 90*time.Second, got.Duration(t0.Add(time.Hour)))

	open, err = repo.GetOpen(ctx)
	require.NoError(t, err)
	assert.Nil(t, open)
}

func TestIntervalRepo_CloseTwice(t *testing.T) {
	repo, a, _ := setupIntervalRepo(t)
	ctx := context.Background()

	iv := testutil.NewTestInterval(a.ID, t0, 0, testutil.Open())
	require.NoError(t, repo.Insert(ctx, iv))
	require.NoError(t, repo.Close(ctx, iv.ID, t0.Add(time.Minute)))

	err := repo.Close(ctx, iv.ID, t0.Add(2*time.Minute))
	assert.ErrorIs(t, err, domain.ErrNotOpen)

	got, err := repo.GetByID(ctx, iv.ID)
	require.NoError(t, err)
	assert.True(t, got.EndedAt.Equal(t0.Add(time.Minute)), "first close wins")
}

func TestIntervalRepo_CloseMissing(t *testing.T) {
	repo, _, _ := setupIntervalRepo(t)

	err := repo.Close(context.Background(), "missing", t0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIntervalRepo_SecondOpenIntervalRejected(t *testing.T) {
	repo, a, b := setupIntervalRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, testutil.NewTestInterval(a.ID, t0, 0, testutil.Open())))

	err := repo.Insert(ctx, testutil.NewTestInterval(b.ID, t0.Add(time.Second), 0, testutil.Open()))
	assert.ErrorIs(t, err, domain.ErrAlreadyOpenElsewhere)
}

func TestIntervalRepo_ListAndSumWithFilter(t *testing.T) {
	repo, a, b := setupIntervalRepo(t)
	ctx := context.Background()

	yesterday := t0.Add(-24 * time.Hour)
	require.NoError(t, repo.Insert(ctx, testutil.NewTestInterval(a.ID, yesterday, 20*time.Minute)))
	require.NoError(t, repo.Insert(ctx, testutil.NewTestInterval(a.ID, t0, 10*time.Minute, testutil.WithSessionID("s1"))))
	require.NoError(t, repo.Insert(ctx, testutil.NewTestInterval(a.ID, t0.Add(time.Hour), 5*time.Minute, testutil.WithSessionID("s1"))))
	require.NoError(t, repo.Insert(ctx, testutil.NewTestInterval(b.ID, t0, 7*time.Minute)))
	require.NoError(t, repo.Insert(ctx, testutil.NewTestInterval(a.ID, t0.Add(2*time.Hour), 0, testutil.Open())))

	all, err := repo.ListByWorkItem(ctx, a.ID, domain.IntervalFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.True(t, all[0].StartedAt.Equal(yesterday), "ordered by start")
	assert.True(t, all[3].IsOpen())

	lifetime, err := repo.SumClosed(ctx, a.ID, domain.IntervalFilter{})
	require.NoError(t, err)
	assert.Equal(t, 35*time.Minute, lifetime, "open interval excluded")

	dayStart := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	today, err := repo.SumClosed(ctx, a.ID, domain.IntervalFilter{From: dayStart, To: dayStart.Add(24 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, today)

	session, err := repo.SumClosed(ctx, a.ID, domain.IntervalFilter{SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, session)

	none, err := repo.SumClosed(ctx, "unknown", domain.IntervalFilter{})
	require.NoError(t, err)
	assert.Zero(t, none)
}

func TestIntervalRepo_DeleteClosedKeepsOpenAndOthers(t *testing.T) {
	repo, a, b := setupIntervalRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, testutil.NewTestInterval(a.ID, t0.Add(-48*time.Hour), 20*time.Minute)))
	require.NoError(t, repo.Insert(ctx, testutil.NewTestInterval(a.ID, t0, 10*time.Minute)))
	require.NoError(t, repo.Insert(ctx, testutil.NewTestInterval(b.ID, t0, 7*time.Minute)))
	open := testutil.NewTestInterval(a.ID, t0.Add(time.Hour), 0, testutil.Open())
	require.NoError(t, repo.Insert(ctx, open))

	dayStart := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	n, err := repo.DeleteClosed(ctx, a.ID, domain.IntervalFilter{From: dayStart, To: dayStart.Add(24 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.DeleteClosed(ctx, a.ID, domain.IntervalFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	left, err := repo.ListByWorkItem(ctx, a.ID, domain.IntervalFilter{})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, open.ID, left[0].ID)

	other, err := repo.SumClosed(ctx, b.ID, domain.IntervalFilter{})
	require.NoError(t, err)
	assert.Equal(t, 7*time.Minute, other)
}
