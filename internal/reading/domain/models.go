package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Reading is a single consumption sample reported for a meter.
type Reading struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	MeterID    snowflake.ID `json:"meter_id" gorm:"column:meter_id;not null;index"`
	Value      float64      `json:"value" gorm:"not null"`
	RecordedAt time.Time    `json:"recorded_at" gorm:"column:recorded_at;not null;index"`
	Notes      string       `json:"notes" gorm:"type:text"`
	CreatedAt  time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Reading) TableName() string { return "readings" }
