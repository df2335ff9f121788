package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/homewatt/homewatt/internal/authctx"
	householddomain "github.com/homewatt/homewatt/internal/household/domain"
	"github.com/homewatt/homewatt/internal/sanitize"
	"github.com/homewatt/homewatt/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  householddomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  householddomain.Repository
	genID *snowflake.Node
}

func New(p Params) householddomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("household.service"),
		repo:  p.Repo,
		genID: p.GenID,
	}
}

func (s *Service) Create(ctx context.Context, req householddomain.CreateRequest) (*householddomain.Response, error) {
	name := sanitize.Text(req.Name)
	if name == "" {
		return nil, householddomain.ErrInvalidName
	}

	now := time.Now().UTC()
	h := &householddomain.Household{
		ID:        s.genID.Generate(),
		Name:      name,
		Address:   sanitize.Text(req.Address),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, h); err != nil {
		return nil, err
	}

	return s.toResponse(h), nil
}

func (s *Service) List(ctx context.Context) ([]householddomain.Response, error) {
	var (
		items []householddomain.Household
		err   error
	)
	if authctx.IsAdmin(ctx) {
		items, err = s.repo.List(ctx, s.db)
	} else {
		userID, ok := authctx.UserID(ctx)
		if !ok {
			return nil, householddomain.ErrForbidden
		}
		items, err = s.repo.ListForUser(ctx, s.db, snowflake.ID(userID))
	}
	if err != nil {
		return nil, err
	}

	resp := make([]householddomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *s.toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*householddomain.Response, error) {
	householdID, err := householddomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return nil, householddomain.ErrInvalidID
	}

	if ok, err := s.HasAccess(ctx, householdID); err != nil {
		return nil, err
	} else if !ok {
		return nil, householddomain.ErrForbidden
	}

	item, err := s.repo.FindByID(ctx, s.db, householdID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, householddomain.ErrNotFound
	}

	return s.toResponse(item), nil
}

func (s *Service) Update(ctx context.Context, req householddomain.UpdateRequest) (*householddomain.Response, error) {
	householdID, err := householddomain.ParseID(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, householddomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, householdID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, householddomain.ErrNotFound
	}

	if req.Name != nil {
		name := sanitize.Text(*req.Name)
		if name == "" {
			return nil, householddomain.ErrInvalidName
		}
		item.Name = name
	}
	if req.Address != nil {
		item.Address = sanitize.Text(*req.Address)
	}

	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}

	return s.toResponse(item), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	householdID, err := householddomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return householddomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, householdID)
	if err != nil {
		return err
	}
	if item == nil {
		return householddomain.ErrNotFound
	}

	return s.repo.Delete(ctx, s.db, householdID)
}

func (s *Service) AddMember(ctx context.Context, householdID string, userID string) error {
	hid, err := householddomain.ParseID(strings.TrimSpace(householdID))
	if err != nil {
		return householddomain.ErrInvalidID
	}
	uid, err := householddomain.ParseID(strings.TrimSpace(userID))
	if err != nil {
		return householddomain.ErrInvalidUser
	}

	item, err := s.repo.FindByID(ctx, s.db, hid)
	if err != nil {
		return err
	}
	if item == nil {
		return householddomain.ErrNotFound
	}

	member := &householddomain.Member{
		HouseholdID: hid,
		UserID:      uid,
		JoinedAt:    time.Now().UTC(),
	}
	if err := s.repo.AddMember(ctx, s.db, member); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return householddomain.ErrAlreadyMember
		}
		return err
	}
	return nil
}

func (s *Service) RemoveMember(ctx context.Context, householdID string, userID string) error {
	hid, err := householddomain.ParseID(strings.TrimSpace(householdID))
	if err != nil {
		return householddomain.ErrInvalidID
	}
	uid, err := householddomain.ParseID(strings.TrimSpace(userID))
	if err != nil {
		return householddomain.ErrInvalidUser
	}

	isMember, err := s.repo.IsMember(ctx, s.db, hid, uid)
	if err != nil {
		return err
	}
	if !isMember {
		return householddomain.ErrNotMember
	}

	return s.repo.RemoveMember(ctx, s.db, hid, uid)
}

func (s *Service) ListMembers(ctx context.Context, householdID string) ([]householddomain.MemberResponse, error) {
	hid, err := householddomain.ParseID(strings.TrimSpace(householdID))
	if err != nil {
		return nil, householddomain.ErrInvalidID
	}

	if ok, err := s.HasAccess(ctx, hid); err != nil {
		return nil, err
	} else if !ok {
		return nil, householddomain.ErrForbidden
	}

	members, err := s.repo.ListMembers(ctx, s.db, hid)
	if err != nil {
		return nil, err
	}

	resp := make([]householddomain.MemberResponse, 0, len(members))
	for _, m := range members {
		resp = append(resp, householddomain.MemberResponse{
			HouseholdID: m.HouseholdID.String(),
			UserID:      m.UserID.String(),
			JoinedAt:    m.JoinedAt,
		})
	}
	return resp, nil
}

func (s *Service) toResponse(h *householddomain.Household) *householddomain.Response {
	return &householddomain.Response{
		ID:        h.ID.String(),
		Name:      h.Name,
		Address:   h.Address,
		CreatedAt: h.CreatedAt,
		UpdatedAt: h.UpdatedAt,
	}
}

// HasAccess reports whether the calling identity may act on the household.
// Admins bypass membership.
func (s *Service) HasAccess(ctx context.Context, householdID snowflake.ID) (bool, error) {
	if authctx.IsAdmin(ctx) {
		return true, nil
	}
	userID, ok := authctx.UserID(ctx)
	if !ok {
		return false, nil
	}
	return s.repo.IsMember(ctx, s.db, householdID, snowflake.ID(userID))
}
