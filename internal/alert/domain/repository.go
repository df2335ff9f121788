package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ListFilter narrows alert listings.
type ListFilter struct {
	HouseholdID      snowflake.ID
	Status           string
	OnlyAcknowledged bool
}

type Repository interface {
	// Upsert atomically creates the alert for its (goal, period) tuple or,
	// when it already exists, overwrites message and forces status back to
	// open.
	Upsert(ctx context.Context, db *gorm.DB, alert *Alert) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Alert, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Alert, error)
	Acknowledge(ctx context.Context, db *gorm.DB, id snowflake.ID, by snowflake.ID, at time.Time) error
	// HouseholdMemberEmails returns the addresses notified when one of the
	// household's alerts changes state.
	HouseholdMemberEmails(ctx context.Context, db *gorm.DB, householdID snowflake.ID) ([]string, error)
}
