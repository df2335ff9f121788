package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	householddomain "github.com/homewatt/homewatt/internal/household/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() householddomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, h *householddomain.Household) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO households (id, name, address, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		h.ID,
		h.Name,
		h.Address,
		h.CreatedAt,
		h.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, h *householddomain.Household) error {
	return db.WithContext(ctx).Exec(
		`UPDATE households
		 SET name = ?, address = ?, updated_at = ?
		 WHERE id = ?`,
		h.Name,
		h.Address,
		h.UpdatedAt,
		h.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM households WHERE id = ?`,
		id,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*householddomain.Household, error) {
	var household householddomain.Household
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, address, created_at, updated_at
		 FROM households WHERE id = ?`,
		id,
	).Scan(&household).Error
	if err != nil {
		return nil, err
	}
	if household.ID == 0 {
		return nil, nil
	}
	return &household, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]householddomain.Household, error) {
	var households []householddomain.Household
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, address, created_at, updated_at
		 FROM households ORDER BY created_at ASC`,
	).Scan(&households).Error
	if err != nil {
		return nil, err
	}
	return households, nil
}

func (r *repo) ListForUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]householddomain.Household, error) {
	var households []householddomain.Household
	err := db.WithContext(ctx).Raw(
		`SELECT h.id, h.name, h.address, h.created_at, h.updated_at
		 FROM households h
		 JOIN household_members m ON m.household_id = h.id
		 WHERE m.user_id = ?
		 ORDER BY h.created_at ASC`,
		userID,
	).Scan(&households).Error
	if err != nil {
		return nil, err
	}
	return households, nil
}

func (r *repo) AddMember(ctx context.Context, db *gorm.DB, member *householddomain.Member) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO household_members (household_id, user_id, joined_at)
		 VALUES (?, ?, ?)`,
		member.HouseholdID,
		member.UserID,
		member.JoinedAt,
	).Error
}

func (r *repo) RemoveMember(ctx context.Context, db *gorm.DB, householdID, userID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM household_members WHERE household_id = ? AND user_id = ?`,
		householdID,
		userID,
	).Error
}

func (r *repo) IsMember(ctx context.Context, db *gorm.DB, householdID, userID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM household_members WHERE household_id = ? AND user_id = ?`,
		householdID,
		userID,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) ListMembers(ctx context.Context, db *gorm.DB, householdID snowflake.ID) ([]householddomain.Member, error) {
	var members []householddomain.Member
	err := db.WithContext(ctx).Raw(
		`SELECT household_id, user_id, joined_at
		 FROM household_members WHERE household_id = ?
		 ORDER BY joined_at ASC`,
		householdID,
	).Scan(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}
