package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/cadence/internal/db"
	"github.com/alexanderramin/cadence/internal/domain"
)

// SQLiteCompletionRepo implements CompletionRepo using a SQLite database.
type SQLiteCompletionRepo struct {
	db db.DBTX
}

// NewSQLiteCompletionRepo creates a new SQLiteCompletionRepo.
func NewSQLiteCompletionRepo(conn db.DBTX) *SQLiteCompletionRepo {
	return &SQLiteCompletionRepo{db: conn}
}

func (r *SQLiteCompletionRepo) Create(ctx context.Context, c *domain.HabitCompletion) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO habit_completions (id, work_item_id, completed_at, created_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.WorkItemID, toMillis(c.CompletedAt), toMillis(c.CreatedAt))
	if err != nil {
		return classify("inserting habit completion", err)
	}
	return nil
}

func (r *SQLiteCompletionRepo) ListByWorkItem(ctx context.Context, workItemID string) ([]*domain.HabitCompletion, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, work_item_id, completed_at, created_at FROM habit_completions
		WHERE work_item_id = ? ORDER BY completed_at, id`, workItemID)
	if err != nil {
		return nil, classify("listing habit completions", err)
	}
	defer rows.Close()

	var out []*domain.HabitCompletion
	for rows.Next() {
		var (
			c                      domain.HabitCompletion
			completedAt, createdAt int64
		)
		if err := rows.Scan(&c.ID, &c.WorkItemID, &completedAt, &createdAt); err != nil {
			return nil, classify("scanning habit completion", err)
		}
		c.CompletedAt = fromMillis(completedAt)
		c.CreatedAt = fromMillis(createdAt)
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *SQLiteCompletionRepo) DeleteByWorkItem(ctx context.Context, workItemID string, from, to time.Time) (int64, error) {
	clause, args := rangeClause("completed_at", from, to, []any{workItemID})
	res, err := r.db.ExecContext(ctx, `DELETE FROM habit_completions WHERE work_item_id = ?`+clause, args...)
	if err != nil {
		return 0, classify("deleting habit completions", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
