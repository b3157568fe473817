package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func TestValidate_Task(t *testing.T) {
	w := &WorkItem{Title: "Write report", Kind: KindTask}
	assert.NoError(t, w.Validate())
	assert.False(t, w.IsHabit())
}

func TestValidate_TaskWithFrequency(t *testing.T) {
	w := &WorkItem{Title: "Write report", Kind: KindTask, Frequency: FrequencyDaily}
	err := w.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidWorkItem)
}

func TestValidate_HabitFrequencies(t *testing.T) {
	cases := []struct {
		freq  Frequency
		valid bool
	}{
		{FrequencyDaily, true},
		{FrequencyWeekly, true},
		{FrequencyMonthly, true},
		{FrequencyNone, false},
		{Frequency("hourly"), false},
	}
	for _, tc := range cases {
		w := &WorkItem{Title: "Meditate", Kind: KindHabit, Frequency: tc.freq}
		err := w.Validate()
		if tc.valid {
			assert.NoError(t, err, "freq=%s", tc.freq)
		} else {
			assert.ErrorIs(t, err, ErrInvalidWorkItem, "freq=%s", tc.freq)
		}
	}
}

func TestValidate_EmptyTitle(t *testing.T) {
	w := &WorkItem{Title: "  ", Kind: KindTask}
	err := w.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title")
}

func TestValidate_UnknownKind(t *testing.T) {
	w := &WorkItem{Title: "x", Kind: "chore"}
	assert.ErrorIs(t, w.Validate(), ErrInvalidWorkItem)
}

func TestInterval_DurationOpenAndClosed(t *testing.T) {
	iv := &ExecutionInterval{StartedAt: testNow}
	assert.True(t, iv.IsOpen())
	assert.Equal(t, 5*time.Minute, iv.Duration(testNow.Add(5*time.Minute)))

	end := testNow.Add(2 * time.Minute)
	iv.EndedAt = &end
	assert.False(t, iv.IsOpen())
	assert.Equal(t, 2*time.Minute, iv.Duration(testNow.Add(time.Hour)), "closed interval ignores now")
}

func TestInterval_DurationClampsNegative(t *testing.T) {
	iv := &ExecutionInterval{StartedAt: testNow}
	assert.Equal(t, time.Duration(0), iv.Duration(testNow.Add(-time.Second)))
}

func TestInterval_ValidateClose(t *testing.T) {
	iv := &ExecutionInterval{StartedAt: testNow}
	assert.NoError(t, iv.ValidateClose(testNow))
	assert.ErrorIs(t, iv.ValidateClose(testNow.Add(-time.Millisecond)), ErrInvalidRange)

	end := testNow.Add(time.Minute)
	iv.EndedAt = &end
	assert.ErrorIs(t, iv.ValidateClose(testNow.Add(time.Hour)), ErrNotOpen)
}

func TestActiveExecution_Elapsed(t *testing.T) {
	running := ActiveExecution{
		State:                  StateRunning,
		WorkItemID:             "w1",
		StartedAt:              testNow,
		AccumulatedBeforePause: 30 * time.Second,
	}
	assert.Equal(t, 90*time.Second, running.Elapsed(testNow.Add(time.Minute)))

	paused := ActiveExecution{State: StatePaused, WorkItemID: "w1", AccumulatedBeforePause: 30 * time.Second}
	assert.Equal(t, 30*time.Second, paused.Elapsed(testNow.Add(time.Hour)), "paused clock is frozen")

	assert.Equal(t, time.Duration(0), IdleExecution.Elapsed(testNow))
}

func TestActiveExecution_Owns(t *testing.T) {
	a := ActiveExecution{State: StatePaused, WorkItemID: "w1"}
	assert.True(t, a.Owns("w1"))
	assert.False(t, a.Owns("w2"))
	assert.False(t, IdleExecution.Owns(""))
}

func TestStreakRecord_TimeRemaining(t *testing.T) {
	end := testNow.Add(3 * time.Hour)
	atRisk := StreakRecord{Status: StreakAtRisk, PeriodEnd: end}
	left, ok := atRisk.TimeRemaining(testNow)
	require.True(t, ok)
	assert.Equal(t, 3*time.Hour, left)

	active := StreakRecord{Status: StreakActive, PeriodEnd: end}
	_, ok = active.TimeRemaining(testNow)
	assert.False(t, ok)

	expired := StreakRecord{Status: StreakExpired, PeriodEnd: end}
	_, ok = expired.TimeRemaining(testNow)
	assert.False(t, ok)
}
