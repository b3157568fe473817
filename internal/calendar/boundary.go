// Package calendar buckets instants into local days, weeks and months.
//
// Every "today", "this week" and streak-period computation in the engine goes
// through a single Boundary so that all of them agree on where midnight is.
// The boundary uses one fixed UTC offset, never the caller's local zone.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
)

const (
	dayKeyLayout   = "2006-01-02"
	monthKeyLayout = "2006-01"
)

// Boundary converts instants to calendar buckets in a fixed-offset zone.
type Boundary struct {
	loc    *time.Location
	offset time.Duration
}

// NewBoundary returns a Boundary for the given offset east of UTC.
func NewBoundary(offset time.Duration) *Boundary {
	return &Boundary{
		loc:    time.FixedZone(FormatOffset(offset), int(offset/time.Second)),
		offset: offset,
	}
}

// UTC is the boundary used when no offset is configured.
func UTC() *Boundary {
	return NewBoundary(0)
}

// ParseOffset parses "+09:00", "-0530", "+9", "Z" or "UTC".
func ParseOffset(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "z") || strings.EqualFold(s, "utc") {
		return 0, nil
	}

	sign := time.Duration(1)
	switch s[0] {
	case '+':
		s = s[1:]
	case '-':
		sign = -1
		s = s[1:]
	default:
		return 0, fmt.Errorf("utc offset %q must start with + or -", s)
	}

	var hh, mm string
	switch {
	case strings.Contains(s, ":"):
		parts := strings.SplitN(s, ":", 2)
		hh, mm = parts[0], parts[1]
	case len(s) == 4:
		hh, mm = s[:2], s[2:]
	default:
		hh, mm = s, "0"
	}

	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 14 {
		return 0, fmt.Errorf("invalid utc offset hours %q", hh)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid utc offset minutes %q", mm)
	}
	return sign * (time.Duration(h)*time.Hour + time.Duration(m)*time.Minute), nil
}

// FormatOffset renders an offset as "+09:00".
func FormatOffset(offset time.Duration) string {
	sign := '+'
	if offset < 0 {
		sign = '-'
		offset = -offset
	}
	h := int(offset / time.Hour)
	m := int((offset % time.Hour) / time.Minute)
	return fmt.Sprintf("%c%02d:%02d", sign, h, m)
}

func (b *Boundary) Location() *time.Location {
	return b.loc
}

func (b *Boundary) Offset() time.Duration {
	return b.offset
}

// In converts t to the boundary's zone.
func (b *Boundary) In(t time.Time) time.Time {
	return t.In(b.loc)
}

func (b *Boundary) DayKey(t time.Time) string {
	return b.In(t).Format(dayKeyLayout)
}

// WeekKey returns the ISO week, e.g. "2025-W24".
func (b *Boundary) WeekKey(t time.Time) string {
	year, week := b.In(t).ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

func (b *Boundary) MonthKey(t time.Time) string {
	return b.In(t).Format(monthKeyLayout)
}

// Key returns the bucket key for the given frequency. Anything that is not
// weekly or monthly buckets by day.
func (b *Boundary) Key(freq domain.Frequency, t time.Time) string {
	switch freq {
	case domain.FrequencyWeekly:
		return b.WeekKey(t)
	case domain.FrequencyMonthly:
		return b.MonthKey(t)
	default:
		return b.DayKey(t)
	}
}

func (b *Boundary) IsSameDay(x, y time.Time) bool {
	return b.DayKey(x) == b.DayKey(y)
}

func (b *Boundary) IsSameWeek(x, y time.Time) bool {
	return b.WeekKey(x) == b.WeekKey(y)
}

func (b *Boundary) IsSameMonth(x, y time.Time) bool {
	return b.MonthKey(x) == b.MonthKey(y)
}

// StartOfDay returns local midnight of the day containing t.
func (b *Boundary) StartOfDay(t time.Time) time.Time {
	lt := b.In(t)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, b.loc)
}

// DayRange returns [start, end) of the local day containing t.
func (b *Boundary) DayRange(t time.Time) (time.Time, time.Time) {
	start := b.StartOfDay(t)
	return start, start.AddDate(0, 0, 1)
}

// PeriodStart returns the start of the day, ISO week (Monday) or month
// containing t.
func (b *Boundary) PeriodStart(freq domain.Frequency, t time.Time) time.Time {
	day := b.StartOfDay(t)
	switch freq {
	case domain.FrequencyWeekly:
		// time.Weekday has Sunday=0; ISO weeks start on Monday.
		back := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -back)
	case domain.FrequencyMonthly:
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, b.loc)
	default:
		return day
	}
}

// NextPeriodStart returns the start of the period following the one that
// contains t. It is also the exclusive end of t's period.
func (b *Boundary) NextPeriodStart(freq domain.Frequency, t time.Time) time.Time {
	return shift(freq, b.PeriodStart(freq, t), 1)
}

// PrevPeriodStart returns the start of the period preceding the one that
// contains t.
func (b *Boundary) PrevPeriodStart(freq domain.Frequency, t time.Time) time.Time {
	return shift(freq, b.PeriodStart(freq, t), -1)
}

// PeriodEnd is an alias of NextPeriodStart that reads better at call sites
// computing deadlines.
func (b *Boundary) PeriodEnd(freq domain.Frequency, t time.Time) time.Time {
	return b.NextPeriodStart(freq, t)
}

// shift moves a period start by n periods. The zone has no DST, so AddDate
// on a period start always lands on another period start.
func shift(freq domain.Frequency, start time.Time, n int) time.Time {
	switch freq {
	case domain.FrequencyWeekly:
		return start.AddDate(0, 0, 7*n)
	case domain.FrequencyMonthly:
		return start.AddDate(0, n, 0)
	default:
		return start.AddDate(0, 0, n)
	}
}
