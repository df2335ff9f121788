package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Goal periods.
const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

// ValidPeriod reports whether p names a supported evaluation period.
func ValidPeriod(p string) bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	default:
		return false
	}
}

// Goal sets a usage ceiling for one meter type within a household.
type Goal struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	HouseholdID snowflake.ID `json:"household_id" gorm:"column:household_id;not null;index"`
	MeterType   string       `json:"meter_type" gorm:"column:meter_type;type:text;not null"`
	Period      string       `json:"period" gorm:"type:text;not null"`
	LimitValue  float64      `json:"limit" gorm:"column:limit_value;not null"`
	Active      bool         `json:"active" gorm:"not null;default:true"`
	CreatedAt   time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Goal) TableName() string { return "goals" }
