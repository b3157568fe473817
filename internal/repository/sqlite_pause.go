package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/cadence/internal/db"
	"github.com/alexanderramin/cadence/internal/domain"
)

const singlePausedIndex = "idx_paused_single"

// SQLitePauseRepo implements PauseRepo using a SQLite database.
type SQLitePauseRepo struct {
	db db.DBTX
}

// NewSQLitePauseRepo creates a new SQLitePauseRepo.
func NewSQLitePauseRepo(conn db.DBTX) *SQLitePauseRepo {
	return &SQLitePauseRepo{db: conn}
}

// Put records p. Re-recording the same session moves its pause instant;
// a marker for a different session fails with ErrAlreadyOpenElsewhere.
func (r *SQLitePauseRepo) Put(ctx context.Context, p *domain.PausedSession) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO paused_sessions (session_id, work_item_id, paused_at) VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET paused_at = excluded.paused_at`,
		p.SessionID, p.WorkItemID, toMillis(p.PausedAt))
	if err != nil {
		if strings.Contains(err.Error(), singlePausedIndex) || strings.Contains(err.Error(), "paused_sessions.singleton") {
			return fmt.Errorf("recording paused session %s: %w", p.SessionID, domain.ErrAlreadyOpenElsewhere)
		}
		return classify("recording paused session", err)
	}
	return nil
}

func (r *SQLitePauseRepo) Get(ctx context.Context) (*domain.PausedSession, error) {
	var (
		p        domain.PausedSession
		pausedAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT session_id, work_item_id, paused_at FROM paused_sessions LIMIT 1`).
		Scan(&p.SessionID, &p.WorkItemID, &pausedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("getting paused session", err)
	}
	p.PausedAt = fromMillis(pausedAt)
	return &p, nil
}

func (r *SQLitePauseRepo) Delete(ctx context.Context, sessionID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM paused_sessions WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, classify("deleting paused session", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
