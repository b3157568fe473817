package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/cadence/internal/domain"
)

// pauseDuringRead fires a pause from another goroutine the first time the
// aggregator reads the log, then gives that pause time to land.
type pauseDuringRead struct {
	ExecutionLog
	once  sync.Once
	pause func()
	done  chan struct{}
}

func (l *pauseDuringRead) SumDuration(ctx context.Context, workItemID string, f domain.IntervalFilter) (time.Duration, error) {
	l.once.Do(func() {
		go func() {
			defer close(l.done)
			l.pause()
		}()
		time.Sleep(20 * time.Millisecond)
	})
	return l.ExecutionLog.SumDuration(ctx, workItemID, f)
}

func TestTimer_AggregateNeverSeesHalfAPause(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.task(t, "A")

	_, err := h.timer.Start(ctx, a.ID)
	require.NoError(t, err)
	h.clock.Advance(10 * time.Minute)

	ts := h.timer.(*timerService)
	execLog := &pauseDuringRead{
		ExecutionLog: ts.log,
		done:         make(chan struct{}),
		pause: func() {
			_, err := h.timer.Pause(ctx)
			assert.NoError(t, err)
		},
	}
	ts.aggregator = NewTimeAggregator(execLog, ts.manager, ts.boundary)

	agg, err := h.timer.GetAggregate(ctx, a.ID)
	require.NoError(t, err)
	<-execLog.done

	assert.Equal(t, 10*time.Minute, agg.LifetimeTotal)
	assert.Equal(t, 10*time.Minute, agg.TodayTotal)

	agg, err = h.timer.GetAggregate(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, agg.LifetimeTotal)
	assert.Equal(t, 10*time.Minute, agg.TodayTotal)
	assert.True(t, h.timer.Active().IsPaused())
}

func TestTimer_ConcurrentReadsStayConsistent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.task(t, "A")

	_, err := h.timer.Start(ctx, a.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(stop)
		for i := 0; i < 25; i++ {
			h.clock.Advance(time.Second)
			_, err := h.timer.Pause(ctx)
			assert.NoError(t, err)
			h.clock.Advance(time.Second)
			_, err = h.timer.Resume(ctx)
			assert.NoError(t, err)
		}
	}()

	reads := 0
	for done := false; !done; {
		select {
		case <-stop:
			done = true
		default:
		}
		agg, err := h.timer.GetAggregate(ctx, a.ID)
		require.NoError(t, err)
		assert.LessOrEqual(t, agg.TodayTotal, agg.LifetimeTotal)
		assert.LessOrEqual(t, agg.SessionElapsed, agg.LifetimeTotal)
		reads++
	}
	wg.Wait()
	assert.Positive(t, reads)
}
