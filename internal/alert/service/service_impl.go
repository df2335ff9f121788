package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	alertdomain "github.com/homewatt/homewatt/internal/alert/domain"
	"github.com/homewatt/homewatt/internal/authctx"
	"github.com/homewatt/homewatt/internal/clock"
	householddomain "github.com/homewatt/homewatt/internal/household/domain"
	obsmetrics "github.com/homewatt/homewatt/internal/observability/metrics"
	"github.com/homewatt/homewatt/internal/providers/email"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Repo       alertdomain.Repository
	Households householddomain.Service
	Email      email.Provider
	Clock      clock.Clock         `optional:"true"`
	Metrics    *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	repo       alertdomain.Repository
	households householddomain.Service
	email      email.Provider
	clock      clock.Clock
	metrics    *obsmetrics.Metrics
}

func New(p Params) alertdomain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("alert.service"),
		repo:       p.Repo,
		households: p.Households,
		email:      p.Email,
		clock:      clk,
		metrics:    p.Metrics,
	}
}

func (s *Service) List(ctx context.Context, req alertdomain.ListRequest) ([]alertdomain.Response, error) {
	householdID, err := alertdomain.ParseID(strings.TrimSpace(req.HouseholdID))
	if err != nil || householdID == 0 {
		return nil, alertdomain.ErrInvalidHousehold
	}

	if ok, err := s.households.HasAccess(ctx, householdID); err != nil {
		return nil, err
	} else if !ok {
		return nil, alertdomain.ErrForbidden
	}

	status := strings.ToLower(strings.TrimSpace(req.Status))
	if status != "" && status != alertdomain.StatusOpen && status != alertdomain.StatusAcknowledged {
		return nil, alertdomain.ErrInvalidStatus
	}

	filter := alertdomain.ListFilter{
		HouseholdID: householdID,
		Status:      status,
		// Residents only see alerts an admin has already acknowledged.
		OnlyAcknowledged: !authctx.IsAdmin(ctx),
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]alertdomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*alertdomain.Response, error) {
	alertID, err := alertdomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return nil, alertdomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, alertID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, alertdomain.ErrNotFound
	}

	if ok, err := s.households.HasAccess(ctx, item.HouseholdID); err != nil {
		return nil, err
	} else if !ok {
		return nil, alertdomain.ErrForbidden
	}

	return toResponse(item), nil
}

func (s *Service) Acknowledge(ctx context.Context, id string) (*alertdomain.Response, error) {
	alertID, err := alertdomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return nil, alertdomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, alertID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, alertdomain.ErrNotFound
	}

	if ok, err := s.households.HasAccess(ctx, item.HouseholdID); err != nil {
		return nil, err
	} else if !ok {
		return nil, alertdomain.ErrForbidden
	}

	userID, ok := authctx.UserID(ctx)
	if !ok {
		return nil, alertdomain.ErrForbidden
	}

	now := s.clock.Now()
	by := snowflake.ID(userID)
	if err := s.repo.Acknowledge(ctx, s.db, alertID, by, now); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, alertdomain.ErrNotFound
		}
		return nil, err
	}

	item.Status = alertdomain.StatusAcknowledged
	item.AcknowledgedAt = &now
	item.AcknowledgedBy = &by
	item.UpdatedAt = now

	s.metrics.RecordAlertAcknowledged(ctx)
	s.notifyAcknowledged(ctx, item)

	return toResponse(item), nil
}

// notifyAcknowledged emails household members. Delivery failures never fail
// the acknowledgment.
func (s *Service) notifyAcknowledged(ctx context.Context, a *alertdomain.Alert) {
	emails, err := s.repo.HouseholdMemberEmails(ctx, s.db, a.HouseholdID)
	if err != nil {
		s.log.Warn("failed to resolve member emails",
			zap.String("alert_id", a.ID.String()),
			zap.Error(err),
		)
		return
	}
	if len(emails) == 0 {
		return
	}

	subject := "Usage alert acknowledged"
	body := fmt.Sprintf("<p>%s</p><p>This alert has been acknowledged.</p>", a.Message)
	if err := s.email.Send(ctx, emails, subject, body); err != nil {
		s.log.Warn("failed to send acknowledgment email",
			zap.String("alert_id", a.ID.String()),
			zap.Error(err),
		)
	}
}

func toResponse(a *alertdomain.Alert) *alertdomain.Response {
	resp := &alertdomain.Response{
		ID:             a.ID.String(),
		HouseholdID:    a.HouseholdID.String(),
		GoalID:         a.GoalID.String(),
		PeriodStart:    a.PeriodStart,
		PeriodEnd:      a.PeriodEnd,
		Status:         a.Status,
		Message:        a.Message,
		AcknowledgedAt: a.AcknowledgedAt,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
	if a.AcknowledgedBy != nil {
		by := a.AcknowledgedBy.String()
		resp.AcknowledgedBy = &by
	}
	return resp
}
