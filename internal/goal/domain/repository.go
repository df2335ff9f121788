package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, goal *Goal) error
	Update(ctx context.Context, db *gorm.DB, goal *Goal) error
	Delete(ctx context.Context, db *gorm.DB, householdID, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Goal, error)
	List(ctx context.Context, db *gorm.DB, householdID snowflake.ID) ([]Goal, error)
	ListByHouseholdType(ctx context.Context, db *gorm.DB, householdID snowflake.ID, meterType string) ([]Goal, error)
}
