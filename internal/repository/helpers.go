package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/alexanderramin/cadence/internal/domain"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = domain.ErrNotFound

const singleOpenIndex = "idx_intervals_single_open"

// toMillis converts a time to unix milliseconds for storage.
func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// fromMillis converts stored unix milliseconds back to a UTC time.
func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// nullableMillis converts a *time.Time to a value suitable for SQLite storage.
// Returns nil (SQL NULL) if the pointer is nil.
func nullableMillis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return toMillis(*t)
}

// parseNullableMillis converts a sql.NullInt64 into a *time.Time.
func parseNullableMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMillis(v.Int64)
	return &t
}

// rangeClause appends started/completed-at bounds for a filter. Zero bounds
// are skipped.
func rangeClause(column string, from, to time.Time, args []any) (string, []any) {
	var b strings.Builder
	if !from.IsZero() {
		b.WriteString(" AND " + column + " >= ?")
		args = append(args, toMillis(from))
	}
	if !to.IsZero() {
		b.WriteString(" AND " + column + " < ?")
		args = append(args, toMillis(to))
	}
	return b.String(), args
}

// classify maps driver failures onto domain errors. Busy, locked and I/O
// failures are transient; a violation of the single-open index means another
// interval is already open.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), singleOpenIndex) {
		return fmt.Errorf("%s: %w", op, domain.ErrAlreadyOpenElsewhere)
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_IOERR,
			sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_FULL, sqlite3.SQLITE_PROTOCOL:
			return fmt.Errorf("%s: %w: %w", op, domain.ErrPersistenceUnavailable, err)
		}
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrPersistenceUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
