package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	householddomain "github.com/homewatt/homewatt/internal/household/domain"
	meterdomain "github.com/homewatt/homewatt/internal/meter/domain"
	"github.com/homewatt/homewatt/internal/sanitize"
	"github.com/homewatt/homewatt/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       meterdomain.Repository
	Households householddomain.Service
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	repo       meterdomain.Repository
	genID      *snowflake.Node
	households householddomain.Service
}

func New(p Params) meterdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("meter.service"),
		repo:       p.Repo,
		genID:      p.GenID,
		households: p.Households,
	}
}

func (s *Service) Create(ctx context.Context, req meterdomain.CreateRequest) (*meterdomain.Response, error) {
	householdID, err := meterdomain.ParseID(strings.TrimSpace(req.HouseholdID))
	if err != nil || householdID == 0 {
		return nil, meterdomain.ErrInvalidHousehold
	}

	if ok, err := s.households.HasAccess(ctx, householdID); err != nil {
		return nil, err
	} else if !ok {
		return nil, meterdomain.ErrForbidden
	}

	label := sanitize.Text(req.Label)
	if label == "" {
		return nil, meterdomain.ErrInvalidLabel
	}

	meterType := strings.ToLower(strings.TrimSpace(req.Type))
	unit, ok := meterdomain.UnitForType(meterType)
	if !ok {
		return nil, meterdomain.ErrInvalidType
	}

	now := time.Now().UTC()
	m := &meterdomain.Meter{
		ID:          s.genID.Generate(),
		HouseholdID: householdID,
		Label:       label,
		Type:        meterType,
		Unit:        unit,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Insert(ctx, s.db, m); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, meterdomain.ErrDuplicateLabel
		}
		return nil, err
	}

	return s.toResponse(m), nil
}

func (s *Service) List(ctx context.Context, householdID string) ([]meterdomain.Response, error) {
	hid, err := meterdomain.ParseID(strings.TrimSpace(householdID))
	if err != nil || hid == 0 {
		return nil, meterdomain.ErrInvalidHousehold
	}

	if ok, err := s.households.HasAccess(ctx, hid); err != nil {
		return nil, err
	} else if !ok {
		return nil, meterdomain.ErrForbidden
	}

	items, err := s.repo.List(ctx, s.db, hid)
	if err != nil {
		return nil, err
	}

	resp := make([]meterdomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *s.toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*meterdomain.Response, error) {
	meterID, err := meterdomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return nil, meterdomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, meterID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, meterdomain.ErrNotFound
	}

	if ok, err := s.households.HasAccess(ctx, item.HouseholdID); err != nil {
		return nil, err
	} else if !ok {
		return nil, meterdomain.ErrForbidden
	}

	return s.toResponse(item), nil
}

func (s *Service) Update(ctx context.Context, req meterdomain.UpdateRequest) (*meterdomain.Response, error) {
	meterID, err := meterdomain.ParseID(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, meterdomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, meterID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, meterdomain.ErrNotFound
	}

	if ok, err := s.households.HasAccess(ctx, item.HouseholdID); err != nil {
		return nil, err
	} else if !ok {
		return nil, meterdomain.ErrForbidden
	}

	if req.Label != nil {
		label := sanitize.Text(*req.Label)
		if label == "" {
			return nil, meterdomain.ErrInvalidLabel
		}
		item.Label = label
	}
	if req.Active != nil {
		item.Active = *req.Active
	}

	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, meterdomain.ErrDuplicateLabel
		}
		return nil, err
	}

	return s.toResponse(item), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	meterID, err := meterdomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return meterdomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, meterID)
	if err != nil {
		return err
	}
	if item == nil {
		return meterdomain.ErrNotFound
	}

	return s.repo.Delete(ctx, s.db, item.HouseholdID, meterID)
}

func (s *Service) toResponse(m *meterdomain.Meter) *meterdomain.Response {
	return &meterdomain.Response{
		ID:          m.ID.String(),
		HouseholdID: m.HouseholdID.String(),
		Label:       m.Label,
		Type:        m.Type,
		Unit:        m.Unit,
		Active:      m.Active,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
