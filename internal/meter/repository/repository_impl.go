package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	meterdomain "github.com/homewatt/homewatt/internal/meter/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() meterdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, m *meterdomain.Meter) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO meters (id, household_id, label, type, unit, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID,
		m.HouseholdID,
		m.Label,
		m.Type,
		m.Unit,
		m.Active,
		m.CreatedAt,
		m.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, m *meterdomain.Meter) error {
	return db.WithContext(ctx).Exec(
		`UPDATE meters
		 SET label = ?, active = ?, updated_at = ?
		 WHERE household_id = ? AND id = ?`,
		m.Label,
		m.Active,
		m.UpdatedAt,
		m.HouseholdID,
		m.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, householdID, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM meters WHERE household_id = ? AND id = ?`,
		householdID,
		id,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*meterdomain.Meter, error) {
	var meter meterdomain.Meter
	err := db.WithContext(ctx).Raw(
		`SELECT id, household_id, label, type, unit, active, created_at, updated_at
		 FROM meters WHERE id = ?`,
		id,
	).Scan(&meter).Error
	if err != nil {
		return nil, err
	}
	if meter.ID == 0 {
		return nil, nil
	}
	return &meter, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, householdID snowflake.ID) ([]meterdomain.Meter, error) {
	var meters []meterdomain.Meter
	err := db.WithContext(ctx).Raw(
		`SELECT id, household_id, label, type, unit, active, created_at, updated_at
		 FROM meters WHERE household_id = ? ORDER BY created_at ASC`,
		householdID,
	).Scan(&meters).Error
	if err != nil {
		return nil, err
	}
	return meters, nil
}

func (r *repo) IDsByHouseholdType(ctx context.Context, db *gorm.DB, householdID snowflake.ID, meterType string) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).Raw(
		`SELECT id FROM meters WHERE household_id = ? AND type = ?`,
		householdID,
		meterType,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repo) CountByHouseholdType(ctx context.Context, db *gorm.DB, householdID snowflake.ID, meterType string) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM meters WHERE household_id = ? AND type = ?`,
		householdID,
		meterType,
	).Scan(&count).Error
	return count, err
}
