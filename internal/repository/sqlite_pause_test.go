package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/testutil"
)

func TestPauseRepo_PutGetDelete(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	item := testutil.NewTestWorkItem("Write")
	require.NoError(t, NewSQLiteWorkItemRepo(database).Create(ctx, item))
	repo := NewSQLitePauseRepo(database)

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	at := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Put(ctx, &domain.PausedSession{SessionID: "s1", WorkItemID: item.ID, PausedAt: at}))
	require.NoError(t, repo.Put(ctx, &domain.PausedSession{SessionID: "s1", WorkItemID: item.ID, PausedAt: at.Add(time.Minute)}))

	got, err = repo.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "s1", got.SessionID)
	assert.Equal(t, item.ID, got.WorkItemID)
	assert.True(t, got.PausedAt.Equal(at.Add(time.Minute)))

	n, err := repo.Delete(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.Delete(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestPauseRepo_SinglePausedSession(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	item := testutil.NewTestWorkItem("Write")
	require.NoError(t, NewSQLiteWorkItemRepo(database).Create(ctx, item))
	repo := NewSQLitePauseRepo(database)

	at := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Put(ctx, &domain.PausedSession{SessionID: "s1", WorkItemID: item.ID, PausedAt: at}))
	err := repo.Put(ctx, &domain.PausedSession{SessionID: "s2", WorkItemID: item.ID, PausedAt: at})
	assert.ErrorIs(t, err, domain.ErrAlreadyOpenElsewhere)
}

func TestPauseRepo_CascadesWithWorkItem(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	items := NewSQLiteWorkItemRepo(database)
	item := testutil.NewTestWorkItem("Write")
	require.NoError(t, items.Create(ctx, item))
	repo := NewSQLitePauseRepo(database)
	require.NoError(t, repo.Put(ctx, &domain.PausedSession{SessionID: "s1", WorkItemID: item.ID, PausedAt: time.Now()}))

	require.NoError(t, items.Delete(ctx, item.ID))

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}
