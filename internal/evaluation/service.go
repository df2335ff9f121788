package evaluation

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	alertdomain "github.com/homewatt/homewatt/internal/alert/domain"
	"github.com/homewatt/homewatt/internal/clock"
	goaldomain "github.com/homewatt/homewatt/internal/goal/domain"
	meterdomain "github.com/homewatt/homewatt/internal/meter/domain"
	obsmetrics "github.com/homewatt/homewatt/internal/observability/metrics"
	readingdomain "github.com/homewatt/homewatt/internal/reading/domain"
	"github.com/homewatt/homewatt/internal/sanitize"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service re-evaluates a household's goals whenever a reading lands on one
// of its meters.
type Service interface {
	// OnReadingWritten runs goal evaluation for the meter the reading
	// belongs to. It never returns an error: the reading write has
	// already been committed, so evaluation failures are logged and
	// swallowed.
	OnReadingWritten(ctx context.Context, meterID snowflake.ID, recordedAt time.Time)
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Meters   meterdomain.Repository
	Goals    goaldomain.Repository
	Readings readingdomain.Repository
	Alerts   alertdomain.Repository
	Clock    clock.Clock         `optional:"true"`
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

type service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	meters   meterdomain.Repository
	goals    goaldomain.Repository
	readings readingdomain.Repository
	alerts   alertdomain.Repository
	clock    clock.Clock
	metrics  *obsmetrics.Metrics
}

func New(p Params) Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &service{
		db:       p.DB,
		log:      p.Log.Named("evaluation.service"),
		genID:    p.GenID,
		meters:   p.Meters,
		goals:    p.Goals,
		readings: p.Readings,
		alerts:   p.Alerts,
		clock:    clk,
		metrics:  p.Metrics,
	}
}

func (s *service) OnReadingWritten(ctx context.Context, meterID snowflake.ID, recordedAt time.Time) {
	if err := s.evaluate(ctx, meterID, recordedAt); err != nil {
		s.log.Warn("goal evaluation failed",
			zap.String("meter_id", meterID.String()),
			zap.Time("recorded_at", recordedAt),
			zap.Error(err),
		)
	}
}

func (s *service) evaluate(ctx context.Context, meterID snowflake.ID, recordedAt time.Time) error {
	meter, err := s.meters.FindByID(ctx, s.db, meterID)
	if err != nil {
		return err
	}
	if meter == nil {
		return fmt.Errorf("meter %s not found", meterID)
	}

	goals, err := s.goals.ListByHouseholdType(ctx, s.db, meter.HouseholdID, meter.Type)
	if err != nil {
		return err
	}
	if len(goals) == 0 {
		return nil
	}

	meterIDs, err := s.meters.IDsByHouseholdType(ctx, s.db, meter.HouseholdID, meter.Type)
	if err != nil {
		return err
	}

	// Goals are evaluated independently so one failure cannot starve the
	// rest.
	var firstErr error
	for i := range goals {
		if err := s.evaluateGoal(ctx, meter, &goals[i], meterIDs, recordedAt); err != nil {
			s.log.Warn("goal evaluation failed",
				zap.String("goal_id", goals[i].ID.String()),
				zap.Error(err),
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *service) evaluateGoal(ctx context.Context, meter *meterdomain.Meter, goal *goaldomain.Goal, meterIDs []snowflake.ID, recordedAt time.Time) error {
	window := ComputePeriodRange(recordedAt, goal.Period)

	total, err := s.readings.SumForMeters(ctx, s.db, meterIDs, window.Start, window.End)
	if err != nil {
		return err
	}

	if total <= goal.LimitValue {
		s.metrics.RecordGoalEvaluation(ctx, meter.Type, "within_limit")
		return nil
	}

	message := sanitize.Text(fmt.Sprintf("Usage %.2f %s exceeded %v for %s (%s).",
		total,
		meter.Unit,
		goal.LimitValue,
		goal.Period,
		goal.MeterType,
	))

	now := s.clock.Now()
	alert := &alertdomain.Alert{
		ID:          s.genID.Generate(),
		HouseholdID: goal.HouseholdID,
		GoalID:      goal.ID,
		PeriodStart: window.Start,
		PeriodEnd:   window.End,
		Status:      alertdomain.StatusOpen,
		Message:     message,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.alerts.Upsert(ctx, s.db, alert); err != nil {
		return err
	}

	s.metrics.RecordGoalEvaluation(ctx, meter.Type, "exceeded")
	s.metrics.RecordAlertOpened(ctx, meter.Type, goal.Period)
	return nil
}
