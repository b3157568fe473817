package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/cadence/internal/db"
	"github.com/alexanderramin/cadence/internal/domain"
)

// SQLiteIntervalRepo implements IntervalRepo using a SQLite database.
type SQLiteIntervalRepo struct {
	db db.DBTX
}

// NewSQLiteIntervalRepo creates a new SQLiteIntervalRepo.
func NewSQLiteIntervalRepo(conn db.DBTX) *SQLiteIntervalRepo {
	return &SQLiteIntervalRepo{db: conn}
}

const intervalColumns = `id, work_item_id, session_id, started_at, ended_at`

func (r *SQLiteIntervalRepo) Insert(ctx context.Context, iv *domain.ExecutionInterval) error {
	query := `INSERT INTO execution_intervals (` + intervalColumns + `) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		iv.ID,
		iv.WorkItemID,
		iv.SessionID,
		toMillis(iv.StartedAt),
		nullableMillis(iv.EndedAt),
	)
	if err != nil {
		return classify("inserting interval", err)
	}
	return nil
}

// Close stamps ended_at on an open interval. Closing an already closed
// interval fails with ErrNotOpen and leaves the row untouched.
func (r *SQLiteIntervalRepo) Close(ctx context.Context, id string, endedAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE execution_intervals SET ended_at = ? WHERE id = ? AND ended_at IS NULL`,
		toMillis(endedAt), id)
	if err != nil {
		return classify("closing interval", err)
	}
	n, _ := res.RowsAffected()
	if n == 1 {
		return nil
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("interval %s: %w", id, domain.ErrNotOpen)
}

func (r *SQLiteIntervalRepo) GetByID(ctx context.Context, id string) (*domain.ExecutionInterval, error) {
	query := `SELECT ` + intervalColumns + ` FROM execution_intervals WHERE id = ?`
	iv, err := scanInterval(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("interval %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, classify("getting interval", err)
	}
	return iv, nil
}

func (r *SQLiteIntervalRepo) GetOpen(ctx context.Context) (*domain.ExecutionInterval, error) {
	query := `SELECT ` + intervalColumns + ` FROM execution_intervals WHERE ended_at IS NULL LIMIT 1`
	iv, err := scanInterval(r.db.QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("getting open interval", err)
	}
	return iv, nil
}

// ListByWorkItem returns matching intervals ordered by start, open ones
// included.
func (r *SQLiteIntervalRepo) ListByWorkItem(ctx context.Context, workItemID string, f domain.IntervalFilter) ([]*domain.ExecutionInterval, error) {
	where, args := intervalWhere(workItemID, f)
	query := `SELECT ` + intervalColumns + ` FROM execution_intervals WHERE ` + where + ` ORDER BY started_at, id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("listing intervals", err)
	}
	defer rows.Close()

	var out []*domain.ExecutionInterval
	for rows.Next() {
		iv, err := scanInterval(rows)
		if err != nil {
			return nil, classify("scanning interval", err)
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

func (r *SQLiteIntervalRepo) SumClosed(ctx context.Context, workItemID string, f domain.IntervalFilter) (time.Duration, error) {
	where, args := intervalWhere(workItemID, f)
	query := `SELECT COALESCE(SUM(ended_at - started_at), 0) FROM execution_intervals
		WHERE ended_at IS NOT NULL AND ` + where
	var ms int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&ms); err != nil {
		return 0, classify("summing intervals", err)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func (r *SQLiteIntervalRepo) DeleteClosed(ctx context.Context, workItemID string, f domain.IntervalFilter) (int64, error) {
	where, args := intervalWhere(workItemID, f)
	query := `DELETE FROM execution_intervals WHERE ended_at IS NOT NULL AND ` + where
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, classify("deleting intervals", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func intervalWhere(workItemID string, f domain.IntervalFilter) (string, []any) {
	where := `work_item_id = ?`
	args := []any{workItemID}
	if f.SessionID != "" {
		where += ` AND session_id = ?`
		args = append(args, f.SessionID)
	}
	clause, args := rangeClause("started_at", f.From, f.To, args)
	return where + clause, args
}

func scanInterval(s rowScanner) (*domain.ExecutionInterval, error) {
	var (
		iv        domain.ExecutionInterval
		startedAt int64
		endedAt   sql.NullInt64
	)
	if err := s.Scan(&iv.ID, &iv.WorkItemID, &iv.SessionID, &startedAt, &endedAt); err != nil {
		return nil, err
	}
	iv.StartedAt = fromMillis(startedAt)
	iv.EndedAt = parseNullableMillis(endedAt)
	return &iv, nil
}
