package evaluation

import (
	"testing"
	"time"

	goaldomain "github.com/homewatt/homewatt/internal/goal/domain"
)

func date(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestComputePeriodRangeDaily(t *testing.T) {
	r := ComputePeriodRange(date(2026, time.March, 14, 15, 30), goaldomain.PeriodDaily)

	wantStart := date(2026, time.March, 14, 0, 0)
	wantEnd := date(2026, time.March, 15, 0, 0)
	if !r.Start.Equal(wantStart) || !r.End.Equal(wantEnd) {
		t.Fatalf("daily range = [%v, %v), want [%v, %v)", r.Start, r.End, wantStart, wantEnd)
	}
}

func TestComputePeriodRangeWeeklyStartsMonday(t *testing.T) {
	// 2026-03-12 is a Thursday; its week starts Monday 2026-03-09.
	r := ComputePeriodRange(date(2026, time.March, 12, 9, 0), goaldomain.PeriodWeekly)

	wantStart := date(2026, time.March, 9, 0, 0)
	wantEnd := date(2026, time.March, 16, 0, 0)
	if !r.Start.Equal(wantStart) || !r.End.Equal(wantEnd) {
		t.Fatalf("weekly range = [%v, %v), want [%v, %v)", r.Start, r.End, wantStart, wantEnd)
	}
}

func TestComputePeriodRangeWeeklySunday(t *testing.T) {
	// A Sunday belongs to the week that began the previous Monday.
	r := ComputePeriodRange(date(2026, time.March, 15, 23, 59), goaldomain.PeriodWeekly)

	wantStart := date(2026, time.March, 9, 0, 0)
	if !r.Start.Equal(wantStart) {
		t.Fatalf("weekly start for Sunday = %v, want %v", r.Start, wantStart)
	}
}

func TestComputePeriodRangeMonthly(t *testing.T) {
	r := ComputePeriodRange(date(2026, time.February, 10, 12, 0), goaldomain.PeriodMonthly)

	wantStart := date(2026, time.February, 1, 0, 0)
	wantEnd := date(2026, time.March, 1, 0, 0)
	if !r.Start.Equal(wantStart) || !r.End.Equal(wantEnd) {
		t.Fatalf("monthly range = [%v, %v), want [%v, %v)", r.Start, r.End, wantStart, wantEnd)
	}
}

func TestComputePeriodRangeMonthlyBoundaries(t *testing.T) {
	cases := []struct {
		name      string
		ref       time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "last day of month",
			ref:       date(2026, time.January, 31, 23, 59),
			wantStart: date(2026, time.January, 1, 0, 0),
			wantEnd:   date(2026, time.February, 1, 0, 0),
		},
		{
			name:      "leap year february",
			ref:       date(2024, time.February, 29, 8, 0),
			wantStart: date(2024, time.February, 1, 0, 0),
			wantEnd:   date(2024, time.March, 1, 0, 0),
		},
		{
			name:      "december rolls into next year",
			ref:       date(2026, time.December, 31, 18, 45),
			wantStart: date(2026, time.December, 1, 0, 0),
			wantEnd:   date(2027, time.January, 1, 0, 0),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := ComputePeriodRange(tc.ref, goaldomain.PeriodMonthly)
			if !r.Start.Equal(tc.wantStart) || !r.End.Equal(tc.wantEnd) {
				t.Fatalf("monthly range = [%v, %v), want [%v, %v)", r.Start, r.End, tc.wantStart, tc.wantEnd)
			}
		})
	}
}

func TestComputePeriodRangeUnknownFallsBackToDaily(t *testing.T) {
	at := date(2026, time.March, 14, 15, 30)
	got := ComputePeriodRange(at, "quarterly")
	want := ComputePeriodRange(at, goaldomain.PeriodDaily)
	if !got.Start.Equal(want.Start) || !got.End.Equal(want.End) {
		t.Fatalf("unknown period range = [%v, %v), want daily [%v, %v)", got.Start, got.End, want.Start, want.End)
	}
}

func TestComputePeriodRangeSameDayInstantsMatch(t *testing.T) {
	a := ComputePeriodRange(date(2026, time.March, 14, 0, 5), goaldomain.PeriodDaily)
	b := ComputePeriodRange(date(2026, time.March, 14, 23, 55), goaldomain.PeriodDaily)
	if !a.Start.Equal(b.Start) || !a.End.Equal(b.End) {
		t.Fatalf("same-day instants produced different ranges: [%v, %v) vs [%v, %v)", a.Start, a.End, b.Start, b.End)
	}
}

func TestPeriodRangeContainsHalfOpen(t *testing.T) {
	r := ComputePeriodRange(date(2026, time.March, 14, 12, 0), goaldomain.PeriodDaily)

	if !r.Contains(r.Start) {
		t.Fatal("start instant should be inside the range")
	}
	if r.Contains(r.End) {
		t.Fatal("end instant should be outside the range")
	}
	if !r.Contains(r.End.Add(-time.Nanosecond)) {
		t.Fatal("instant just before the end should be inside the range")
	}
}
