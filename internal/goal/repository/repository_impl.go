package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	goaldomain "github.com/homewatt/homewatt/internal/goal/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() goaldomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, g *goaldomain.Goal) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO goals (id, household_id, meter_type, period, limit_value, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID,
		g.HouseholdID,
		g.MeterType,
		g.Period,
		g.LimitValue,
		g.Active,
		g.CreatedAt,
		g.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, g *goaldomain.Goal) error {
	return db.WithContext(ctx).Exec(
		`UPDATE goals
		 SET period = ?, limit_value = ?, active = ?, updated_at = ?
		 WHERE household_id = ? AND id = ?`,
		g.Period,
		g.LimitValue,
		g.Active,
		g.UpdatedAt,
		g.HouseholdID,
		g.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, householdID, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM goals WHERE household_id = ? AND id = ?`,
		householdID,
		id,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*goaldomain.Goal, error) {
	var goal goaldomain.Goal
	err := db.WithContext(ctx).Raw(
		`SELECT id, household_id, meter_type, period, limit_value, active, created_at, updated_at
		 FROM goals WHERE id = ?`,
		id,
	).Scan(&goal).Error
	if err != nil {
		return nil, err
	}
	if goal.ID == 0 {
		return nil, nil
	}
	return &goal, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, householdID snowflake.ID) ([]goaldomain.Goal, error) {
	var goals []goaldomain.Goal
	err := db.WithContext(ctx).Raw(
		`SELECT id, household_id, meter_type, period, limit_value, active, created_at, updated_at
		 FROM goals WHERE household_id = ? ORDER BY created_at ASC`,
		householdID,
	).Scan(&goals).Error
	if err != nil {
		return nil, err
	}
	return goals, nil
}

func (r *repo) ListByHouseholdType(ctx context.Context, db *gorm.DB, householdID snowflake.ID, meterType string) ([]goaldomain.Goal, error) {
	var goals []goaldomain.Goal
	err := db.WithContext(ctx).Raw(
		`SELECT id, household_id, meter_type, period, limit_value, active, created_at, updated_at
		 FROM goals WHERE household_id = ? AND meter_type = ? AND active = ?
		 ORDER BY created_at ASC`,
		householdID,
		meterType,
		true,
	).Scan(&goals).Error
	if err != nil {
		return nil, err
	}
	return goals, nil
}
