package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Household groups meters, goals and alerts for one home.
type Household struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Name      string       `json:"name" gorm:"type:text;not null"`
	Address   string       `json:"address" gorm:"type:text"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Household) TableName() string { return "households" }

// Member links a user to a household.
type Member struct {
	HouseholdID snowflake.ID `json:"household_id" gorm:"column:household_id;primaryKey"`
	UserID      snowflake.ID `json:"user_id" gorm:"column:user_id;primaryKey"`
	JoinedAt    time.Time    `json:"joined_at" gorm:"column:joined_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Member) TableName() string { return "household_members" }
