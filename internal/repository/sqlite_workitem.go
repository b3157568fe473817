package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/cadence/internal/db"
	"github.com/alexanderramin/cadence/internal/domain"
)

// SQLiteWorkItemRepo implements WorkItemRepo using a SQLite database.
type SQLiteWorkItemRepo struct {
	db db.DBTX
}

// NewSQLiteWorkItemRepo creates a new SQLiteWorkItemRepo.
func NewSQLiteWorkItemRepo(conn db.DBTX) *SQLiteWorkItemRepo {
	return &SQLiteWorkItemRepo{db: conn}
}

const workItemColumns = `id, title, kind, frequency, created_at, updated_at`

func (r *SQLiteWorkItemRepo) Create(ctx context.Context, w *domain.WorkItem) error {
	query := `INSERT INTO work_items (` + workItemColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		w.ID,
		w.Title,
		string(w.Kind),
		string(w.Frequency),
		toMillis(w.CreatedAt),
		toMillis(w.UpdatedAt),
	)
	if err != nil {
		return classify("inserting work item", err)
	}
	return nil
}

func (r *SQLiteWorkItemRepo) GetByID(ctx context.Context, id string) (*domain.WorkItem, error) {
	query := `SELECT ` + workItemColumns + ` FROM work_items WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	w, err := scanWorkItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("work item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, classify("getting work item", err)
	}
	return w, nil
}

// List returns work items ordered by creation. An empty kind lists every item.
func (r *SQLiteWorkItemRepo) List(ctx context.Context, kind domain.WorkItemKind) ([]*domain.WorkItem, error) {
	query := `SELECT ` + workItemColumns + ` FROM work_items`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("listing work items", err)
	}
	defer rows.Close()

	var items []*domain.WorkItem
	for rows.Next() {
		w, err := scanWorkItem(rows)
		if err != nil {
			return nil, classify("scanning work item", err)
		}
		items = append(items, w)
	}
	return items, rows.Err()
}

// Delete removes a work item; its intervals and completions cascade.
func (r *SQLiteWorkItemRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM work_items WHERE id = ?`, id)
	if err != nil {
		return classify("deleting work item", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("work item %s: %w", id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkItem(s rowScanner) (*domain.WorkItem, error) {
	var (
		w                    domain.WorkItem
		kind, freq           string
		createdAt, updatedAt int64
	)
	if err := s.Scan(&w.ID, &w.Title, &kind, &freq, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	w.Kind = domain.WorkItemKind(kind)
	w.Frequency = domain.Frequency(freq)
	w.CreatedAt = fromMillis(createdAt)
	w.UpdatedAt = fromMillis(updatedAt)
	return &w, nil
}
