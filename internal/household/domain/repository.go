package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, household *Household) error
	Update(ctx context.Context, db *gorm.DB, household *Household) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Household, error)
	List(ctx context.Context, db *gorm.DB) ([]Household, error)
	ListForUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]Household, error)

	AddMember(ctx context.Context, db *gorm.DB, member *Member) error
	RemoveMember(ctx context.Context, db *gorm.DB, householdID, userID snowflake.ID) error
	IsMember(ctx context.Context, db *gorm.DB, householdID, userID snowflake.ID) (bool, error)
	ListMembers(ctx context.Context, db *gorm.DB, householdID snowflake.ID) ([]Member, error)
}
