package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, meter *Meter) error
	Update(ctx context.Context, db *gorm.DB, meter *Meter) error
	Delete(ctx context.Context, db *gorm.DB, householdID, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Meter, error)
	List(ctx context.Context, db *gorm.DB, householdID snowflake.ID) ([]Meter, error)
	IDsByHouseholdType(ctx context.Context, db *gorm.DB, householdID snowflake.ID, meterType string) ([]snowflake.ID, error)
	CountByHouseholdType(ctx context.Context, db *gorm.DB, householdID snowflake.ID, meterType string) (int64, error)
}
