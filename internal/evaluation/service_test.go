package evaluation_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	alertdomain "github.com/homewatt/homewatt/internal/alert/domain"
	alertrepo "github.com/homewatt/homewatt/internal/alert/repository"
	"github.com/homewatt/homewatt/internal/clock"
	"github.com/homewatt/homewatt/internal/evaluation"
	goaldomain "github.com/homewatt/homewatt/internal/goal/domain"
	goalrepo "github.com/homewatt/homewatt/internal/goal/repository"
	meterdomain "github.com/homewatt/homewatt/internal/meter/domain"
	meterrepo "github.com/homewatt/homewatt/internal/meter/repository"
	readingdomain "github.com/homewatt/homewatt/internal/reading/domain"
	readingrepo "github.com/homewatt/homewatt/internal/reading/repository"
	"github.com/homewatt/homewatt/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	db    *gorm.DB
	node  *snowflake.Node
	svc   evaluation.Service
	clk   *clock.FakeClock
	admin context.Context
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb, err := db.NewTest()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := gdb.AutoMigrate(
		&meterdomain.Meter{},
		&goaldomain.Goal{},
		&readingdomain.Reading{},
		&alertdomain.Alert{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	clk := clock.NewFake(time.Date(2026, time.March, 12, 9, 0, 0, 0, time.UTC))
	svc := evaluation.New(evaluation.Params{
		DB:       gdb,
		Log:      zap.NewNop(),
		GenID:    node,
		Meters:   meterrepo.Provide(),
		Goals:    goalrepo.Provide(),
		Readings: readingrepo.Provide(),
		Alerts:   alertrepo.Provide(),
		Clock:    clk,
	})

	return &testEnv{db: gdb, node: node, svc: svc, clk: clk, admin: context.Background()}
}

func (e *testEnv) createMeter(t *testing.T, householdID snowflake.ID, meterType string) *meterdomain.Meter {
	t.Helper()
	unit, _ := meterdomain.UnitForType(meterType)
	m := &meterdomain.Meter{
		ID:          e.node.Generate(),
		HouseholdID: householdID,
		Label:       "meter-" + e.node.Generate().String(),
		Type:        meterType,
		Unit:        unit,
		Active:      true,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := e.db.Create(m).Error; err != nil {
		t.Fatalf("create meter: %v", err)
	}
	return m
}

func (e *testEnv) createGoal(t *testing.T, householdID snowflake.ID, meterType, period string, limit float64) *goaldomain.Goal {
	t.Helper()
	g := &goaldomain.Goal{
		ID:          e.node.Generate(),
		HouseholdID: householdID,
		MeterType:   meterType,
		Period:      period,
		LimitValue:  limit,
		Active:      true,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := e.db.Create(g).Error; err != nil {
		t.Fatalf("create goal: %v", err)
	}
	return g
}

func (e *testEnv) createReading(t *testing.T, meterID snowflake.ID, value float64, recordedAt time.Time) *readingdomain.Reading {
	t.Helper()
	r := &readingdomain.Reading{
		ID:         e.node.Generate(),
		MeterID:    meterID,
		Value:      value,
		RecordedAt: recordedAt.UTC(),
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	if err := e.db.Create(r).Error; err != nil {
		t.Fatalf("create reading: %v", err)
	}
	return r
}

func (e *testEnv) alerts(t *testing.T) []alertdomain.Alert {
	t.Helper()
	var alerts []alertdomain.Alert
	if err := e.db.Order("created_at").Find(&alerts).Error; err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	return alerts
}

func TestEvaluationOpensAlertWhenLimitExceeded(t *testing.T) {
	env := newTestEnv(t)
	householdID := env.node.Generate()
	meter := env.createMeter(t, householdID, meterdomain.TypeElectricity)
	goal := env.createGoal(t, householdID, meterdomain.TypeElectricity, goaldomain.PeriodDaily, 10)

	at := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)
	env.createReading(t, meter.ID, 12, at)
	env.svc.OnReadingWritten(env.admin, meter.ID, at)

	alerts := env.alerts(t)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	a := alerts[0]
	if a.GoalID != goal.ID {
		t.Fatalf("alert goal = %s, want %s", a.GoalID, goal.ID)
	}
	if a.Status != alertdomain.StatusOpen {
		t.Fatalf("alert status = %q, want %q", a.Status, alertdomain.StatusOpen)
	}
	if !strings.Contains(a.Message, "12.00") || !strings.Contains(a.Message, "kWh") {
		t.Fatalf("unexpected alert message %q", a.Message)
	}
	wantStart := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)
	if !a.PeriodStart.UTC().Equal(wantStart) {
		t.Fatalf("alert period start = %v, want %v", a.PeriodStart, wantStart)
	}
}

func TestEvaluationStampsAlertsFromClock(t *testing.T) {
	env := newTestEnv(t)
	householdID := env.node.Generate()
	meter := env.createMeter(t, householdID, meterdomain.TypeElectricity)
	env.createGoal(t, householdID, meterdomain.TypeElectricity, goaldomain.PeriodDaily, 10)

	at := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)
	env.createReading(t, meter.ID, 12, at)
	env.svc.OnReadingWritten(env.admin, meter.ID, at)

	opened := env.clk.Now()
	alerts := env.alerts(t)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if !alerts[0].UpdatedAt.UTC().Equal(opened) {
		t.Fatalf("alert updated_at = %v, want %v", alerts[0].UpdatedAt, opened)
	}

	env.clk.Advance(45 * time.Minute)
	env.createReading(t, meter.ID, 1, at.Add(time.Hour))
	env.svc.OnReadingWritten(env.admin, meter.ID, at)

	alerts = env.alerts(t)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert after re-run, got %d", len(alerts))
	}
	if !alerts[0].UpdatedAt.UTC().Equal(env.clk.Now()) {
		t.Fatalf("alert updated_at = %v, want %v", alerts[0].UpdatedAt, env.clk.Now())
	}
}

func TestEvaluationUpdatesExistingAlertInPlace(t *testing.T) {
	env := newTestEnv(t)
	householdID := env.node.Generate()
	meter := env.createMeter(t, householdID, meterdomain.TypeElectricity)
	env.createGoal(t, householdID, meterdomain.TypeElectricity, goaldomain.PeriodDaily, 10)

	at := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)
	env.createReading(t, meter.ID, 12, at)
	env.svc.OnReadingWritten(env.admin, meter.ID, at)

	env.createReading(t, meter.ID, 1, at.Add(time.Hour))
	env.svc.OnReadingWritten(env.admin, meter.ID, at.Add(time.Hour))

	alerts := env.alerts(t)
	if len(alerts) != 1 {
		t.Fatalf("expected alert to be updated in place, got %d rows", len(alerts))
	}
	if !strings.Contains(alerts[0].Message, "13.00") {
		t.Fatalf("alert message not refreshed: %q", alerts[0].Message)
	}
}

func TestEvaluationWithinLimitOpensNothing(t *testing.T) {
	env := newTestEnv(t)
	householdID := env.node.Generate()
	meter := env.createMeter(t, householdID, meterdomain.TypeElectricity)
	env.createGoal(t, householdID, meterdomain.TypeElectricity, goaldomain.PeriodDaily, 10)

	at := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)
	env.createReading(t, meter.ID, 5, at)
	env.svc.OnReadingWritten(env.admin, meter.ID, at)

	if alerts := env.alerts(t); len(alerts) != 0 {
		t.Fatalf("expected no alerts, got %d", len(alerts))
	}
}

func TestEvaluationTotalEqualToLimitOpensNothing(t *testing.T) {
	env := newTestEnv(t)
	householdID := env.node.Generate()
	meter := env.createMeter(t, householdID, meterdomain.TypeWater)
	env.createGoal(t, householdID, meterdomain.TypeWater, goaldomain.PeriodDaily, 10)

	at := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)
	env.createReading(t, meter.ID, 10, at)
	env.svc.OnReadingWritten(env.admin, meter.ID, at)

	if alerts := env.alerts(t); len(alerts) != 0 {
		t.Fatalf("limit must be exceeded strictly, got %d alerts", len(alerts))
	}
}

func TestEvaluationMultiplePeriodsOpenSeparateAlerts(t *testing.T) {
	env := newTestEnv(t)
	householdID := env.node.Generate()
	meter := env.createMeter(t, householdID, meterdomain.TypeElectricity)
	env.createGoal(t, householdID, meterdomain.TypeElectricity, goaldomain.PeriodDaily, 10)
	env.createGoal(t, householdID, meterdomain.TypeElectricity, goaldomain.PeriodWeekly, 10)

	at := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)
	env.createReading(t, meter.ID, 12, at)
	env.svc.OnReadingWritten(env.admin, meter.ID, at)

	alerts := env.alerts(t)
	if len(alerts) != 2 {
		t.Fatalf("expected one alert per goal, got %d", len(alerts))
	}
	if alerts[0].GoalID == alerts[1].GoalID {
		t.Fatal("alerts should belong to distinct goals")
	}
}

func TestEvaluationSumsAcrossMetersOfSameType(t *testing.T) {
	env := newTestEnv(t)
	householdID := env.node.Generate()
	kitchen := env.createMeter(t, householdID, meterdomain.TypeElectricity)
	garage := env.createMeter(t, householdID, meterdomain.TypeElectricity)
	env.createGoal(t, householdID, meterdomain.TypeElectricity, goaldomain.PeriodDaily, 10)

	at := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)
	env.createReading(t, kitchen.ID, 6, at)
	env.createReading(t, garage.ID, 6, at)
	env.svc.OnReadingWritten(env.admin, garage.ID, at)

	alerts := env.alerts(t)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert for the combined total, got %d", len(alerts))
	}
	if !strings.Contains(alerts[0].Message, "12.00") {
		t.Fatalf("expected combined total in message, got %q", alerts[0].Message)
	}
}

func TestEvaluationIgnoresReadingsOutsidePeriod(t *testing.T) {
	env := newTestEnv(t)
	householdID := env.node.Generate()
	meter := env.createMeter(t, householdID, meterdomain.TypeElectricity)
	env.createGoal(t, householdID, meterdomain.TypeElectricity, goaldomain.PeriodDaily, 10)

	at := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)
	// Exactly at the next day's midnight: outside the half-open window.
	env.createReading(t, meter.ID, 12, time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC))
	env.createReading(t, meter.ID, 5, at)
	env.svc.OnReadingWritten(env.admin, meter.ID, at)

	if alerts := env.alerts(t); len(alerts) != 0 {
		t.Fatalf("reading at the period end must not count, got %d alerts", len(alerts))
	}
}

func TestEvaluationCountsReadingAtPeriodStart(t *testing.T) {
	env := newTestEnv(t)
	householdID := env.node.Generate()
	meter := env.createMeter(t, householdID, meterdomain.TypeElectricity)
	env.createGoal(t, householdID, meterdomain.TypeElectricity, goaldomain.PeriodDaily, 10)

	start := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)
	env.createReading(t, meter.ID, 11, start)
	env.svc.OnReadingWritten(env.admin, meter.ID, start)

	if alerts := env.alerts(t); len(alerts) != 1 {
		t.Fatalf("reading at the period start must count, got %d alerts", len(alerts))
	}
}

func TestEvaluationSkipsInactiveGoals(t *testing.T) {
	env := newTestEnv(t)
	householdID := env.node.Generate()
	meter := env.createMeter(t, householdID, meterdomain.TypeElectricity)
	goal := env.createGoal(t, householdID, meterdomain.TypeElectricity, goaldomain.PeriodDaily, 10)
	if err := env.db.Model(&goaldomain.Goal{}).Where("id = ?", goal.ID).Update("active", false).Error; err != nil {
		t.Fatalf("deactivate goal: %v", err)
	}

	at := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)
	env.createReading(t, meter.ID, 12, at)
	env.svc.OnReadingWritten(env.admin, meter.ID, at)

	if alerts := env.alerts(t); len(alerts) != 0 {
		t.Fatalf("inactive goal must not produce alerts, got %d", len(alerts))
	}
}

func TestEvaluationReopensAcknowledgedAlert(t *testing.T) {
	env := newTestEnv(t)
	householdID := env.node.Generate()
	meter := env.createMeter(t, householdID, meterdomain.TypeElectricity)
	env.createGoal(t, householdID, meterdomain.TypeElectricity, goaldomain.PeriodDaily, 10)

	at := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)
	env.createReading(t, meter.ID, 12, at)
	env.svc.OnReadingWritten(env.admin, meter.ID, at)

	if err := env.db.Model(&alertdomain.Alert{}).
		Where("status = ?", alertdomain.StatusOpen).
		Update("status", alertdomain.StatusAcknowledged).Error; err != nil {
		t.Fatalf("acknowledge alert: %v", err)
	}

	env.createReading(t, meter.ID, 1, at.Add(time.Hour))
	env.svc.OnReadingWritten(env.admin, meter.ID, at.Add(time.Hour))

	alerts := env.alerts(t)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].Status != alertdomain.StatusOpen {
		t.Fatalf("re-evaluation must reopen the alert, status = %q", alerts[0].Status)
	}
}

func TestEvaluationIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	householdID := env.node.Generate()
	meter := env.createMeter(t, householdID, meterdomain.TypeElectricity)
	env.createGoal(t, householdID, meterdomain.TypeElectricity, goaldomain.PeriodDaily, 10)

	at := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)
	env.createReading(t, meter.ID, 12, at)

	for i := 0; i < 5; i++ {
		env.svc.OnReadingWritten(env.admin, meter.ID, at)
	}

	if alerts := env.alerts(t); len(alerts) != 1 {
		t.Fatalf("repeated evaluation must keep one row, got %d", len(alerts))
	}
}

func TestEvaluationConcurrentRunsKeepOneAlert(t *testing.T) {
	env := newTestEnv(t)
	householdID := env.node.Generate()
	meter := env.createMeter(t, householdID, meterdomain.TypeElectricity)
	env.createGoal(t, householdID, meterdomain.TypeElectricity, goaldomain.PeriodDaily, 10)

	at := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)
	env.createReading(t, meter.ID, 12, at)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env.svc.OnReadingWritten(env.admin, meter.ID, at)
		}()
	}
	wg.Wait()

	if alerts := env.alerts(t); len(alerts) != 1 {
		t.Fatalf("concurrent evaluation must converge on one row, got %d", len(alerts))
	}
}

func TestEvaluationUnknownMeterIsSwallowed(t *testing.T) {
	env := newTestEnv(t)
	// Must not panic or error out; failures are logged and dropped.
	env.svc.OnReadingWritten(env.admin, env.node.Generate(), time.Now().UTC())

	if alerts := env.alerts(t); len(alerts) != 0 {
		t.Fatalf("expected no alerts, got %d", len(alerts))
	}
}
