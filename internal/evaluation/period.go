package evaluation

import (
	"time"

	goaldomain "github.com/homewatt/homewatt/internal/goal/domain"
)

// PeriodRange is the half-open interval [Start, End) a goal is evaluated
// over.
type PeriodRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the interval. The start instant
// is included, the end instant excluded.
func (p PeriodRange) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// ComputePeriodRange resolves the calendar interval containing at for the
// given period kind. Days start at midnight UTC, weeks on Monday, months on
// the first. Unrecognized kinds fall back to daily. Two instants on the
// same calendar day always produce identical boundaries.
func ComputePeriodRange(at time.Time, period string) PeriodRange {
	t := at.UTC()
	year, month, day := t.Date()

	switch period {
	case goaldomain.PeriodWeekly:
		// ISO week: Monday is day zero.
		offset := (int(t.Weekday()) + 6) % 7
		start := time.Date(year, month, day-offset, 0, 0, 0, 0, time.UTC)
		return PeriodRange{Start: start, End: start.AddDate(0, 0, 7)}
	case goaldomain.PeriodMonthly:
		start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		return PeriodRange{Start: start, End: start.AddDate(0, 1, 0)}
	default:
		start := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		return PeriodRange{Start: start, End: start.AddDate(0, 0, 1)}
	}
}
