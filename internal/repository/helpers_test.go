package repository

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestMillisRoundTrip(t *testing.T) {
	at := time.Date(2025, 6, 15, 23, 59, 59, 999_000_000, time.FixedZone("JST", 9*3600))
	back := fromMillis(toMillis(at))
	assert.True(t, back.Equal(at))
	assert.Equal(t, time.UTC, back.Location())

	assert.Nil(t, nullableMillis(nil))
	assert.Nil(t, parseNullableMillis(sql.NullInt64{}))
}

func TestRangeClause(t *testing.T) {
	clause, args := rangeClause("started_at", time.Time{}, time.Time{}, nil)
	assert.Empty(t, clause)
	assert.Empty(t, args)

	from := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	clause, args = rangeClause("started_at", from, from.Add(time.Hour), []any{"w"})
	assert.Equal(t, " AND started_at >= ? AND started_at < ?", clause)
	assert.Equal(t, []any{"w", toMillis(from), toMillis(from.Add(time.Hour))}, args)
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify("op", nil))

	err := classify("op", sql.ErrConnDone)
	assert.ErrorIs(t, err, domain.ErrPersistenceUnavailable)
	assert.ErrorIs(t, err, sql.ErrConnDone)

	err = classify("op", errors.New("constraint failed: UNIQUE constraint failed: index 'idx_intervals_single_open'"))
	assert.ErrorIs(t, err, domain.ErrAlreadyOpenElsewhere)

	err = classify("op", errors.New("FOREIGN KEY constraint failed"))
	assert.NotErrorIs(t, err, domain.ErrPersistenceUnavailable)
	assert.Contains(t, err.Error(), "op: ")
}
