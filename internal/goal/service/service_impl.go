package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	goaldomain "github.com/homewatt/homewatt/internal/goal/domain"
	householddomain "github.com/homewatt/homewatt/internal/household/domain"
	meterdomain "github.com/homewatt/homewatt/internal/meter/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       goaldomain.Repository
	Meters     meterdomain.Repository
	Households householddomain.Service
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	repo       goaldomain.Repository
	meters     meterdomain.Repository
	genID      *snowflake.Node
	households householddomain.Service
}

func New(p Params) goaldomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("goal.service"),
		repo:       p.Repo,
		meters:     p.Meters,
		genID:      p.GenID,
		households: p.Households,
	}
}

func (s *Service) Create(ctx context.Context, req goaldomain.CreateRequest) (*goaldomain.Response, error) {
	householdID, err := goaldomain.ParseID(strings.TrimSpace(req.HouseholdID))
	if err != nil || householdID == 0 {
		return nil, goaldomain.ErrInvalidHousehold
	}

	if ok, err := s.households.HasAccess(ctx, householdID); err != nil {
		return nil, err
	} else if !ok {
		return nil, goaldomain.ErrForbidden
	}

	meterType := strings.ToLower(strings.TrimSpace(req.MeterType))
	if _, ok := meterdomain.UnitForType(meterType); !ok {
		return nil, goaldomain.ErrInvalidMeterType
	}

	period := strings.ToLower(strings.TrimSpace(req.Period))
	if !goaldomain.ValidPeriod(period) {
		return nil, goaldomain.ErrInvalidPeriod
	}

	if req.Limit <= 0 || math.IsNaN(req.Limit) || math.IsInf(req.Limit, 0) {
		return nil, goaldomain.ErrInvalidLimit
	}

	count, err := s.meters.CountByHouseholdType(ctx, s.db, householdID, meterType)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, goaldomain.ErrNoMeterOfType
	}

	now := time.Now().UTC()
	g := &goaldomain.Goal{
		ID:          s.genID.Generate(),
		HouseholdID: householdID,
		MeterType:   meterType,
		Period:      period,
		LimitValue:  req.Limit,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Insert(ctx, s.db, g); err != nil {
		return nil, err
	}

	return s.toResponse(g), nil
}

func (s *Service) List(ctx context.Context, householdID string) ([]goaldomain.Response, error) {
	hid, err := goaldomain.ParseID(strings.TrimSpace(householdID))
	if err != nil || hid == 0 {
		return nil, goaldomain.ErrInvalidHousehold
	}

	if ok, err := s.households.HasAccess(ctx, hid); err != nil {
		return nil, err
	} else if !ok {
		return nil, goaldomain.ErrForbidden
	}

	items, err := s.repo.List(ctx, s.db, hid)
	if err != nil {
		return nil, err
	}

	resp := make([]goaldomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *s.toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*goaldomain.Response, error) {
	goalID, err := goaldomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return nil, goaldomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, goalID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, goaldomain.ErrNotFound
	}

	if ok, err := s.households.HasAccess(ctx, item.HouseholdID); err != nil {
		return nil, err
	} else if !ok {
		return nil, goaldomain.ErrForbidden
	}

	return s.toResponse(item), nil
}

func (s *Service) Update(ctx context.Context, req goaldomain.UpdateRequest) (*goaldomain.Response, error) {
	goalID, err := goaldomain.ParseID(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, goaldomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, goalID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, goaldomain.ErrNotFound
	}

	if ok, err := s.households.HasAccess(ctx, item.HouseholdID); err != nil {
		return nil, err
	} else if !ok {
		return nil, goaldomain.ErrForbidden
	}

	if req.Period != nil {
		period := strings.ToLower(strings.TrimSpace(*req.Period))
		if !goaldomain.ValidPeriod(period) {
			return nil, goaldomain.ErrInvalidPeriod
		}
		item.Period = period
	}
	if req.Limit != nil {
		if *req.Limit <= 0 || math.IsNaN(*req.Limit) || math.IsInf(*req.Limit, 0) {
			return nil, goaldomain.ErrInvalidLimit
		}
		item.LimitValue = *req.Limit
	}
	if req.Active != nil {
		item.Active = *req.Active
	}

	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}

	return s.toResponse(item), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	goalID, err := goaldomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return goaldomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, goalID)
	if err != nil {
		return err
	}
	if item == nil {
		return goaldomain.ErrNotFound
	}

	return s.repo.Delete(ctx, s.db, item.HouseholdID, goalID)
}

func (s *Service) toResponse(g *goaldomain.Goal) *goaldomain.Response {
	return &goaldomain.Response{
		ID:          g.ID.String(),
		HouseholdID: g.HouseholdID.String(),
		MeterType:   g.MeterType,
		Period:      g.Period,
		Limit:       g.LimitValue,
		Active:      g.Active,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}
