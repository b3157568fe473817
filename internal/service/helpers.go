package service

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// newTimeID returns a ULID stamped with at, so interval and session IDs sort
// in the order they were opened.
func newTimeID(at time.Time) string {
	return ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String()
}

// storedInstant drops what the log cannot persist, so in-memory clocks agree
// with the stored rows.
func storedInstant(t time.Time) time.Time {
	return t.Truncate(time.Millisecond)
}

// observe reports a finished use case. Call it deferred with a pointer to the
// named error result.
func observe(ctx context.Context, obs UseCaseObserver, name string, startedAt time.Time, fields map[string]any, err *error) {
	var e error
	if err != nil {
		e = *err
	}
	obs.ObserveUseCase(ctx, UseCaseEvent{
		Name:      name,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
		Success:   e == nil,
		Err:       e,
		Fields:    fields,
	})
}
