package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Meter types and the units they report in.
const (
	TypeElectricity = "electricity"
	TypeWater       = "water"

	UnitKilowattHour = "kWh"
	UnitLiter        = "L"
)

// UnitForType maps a meter type to its measurement unit.
func UnitForType(meterType string) (string, bool) {
	switch meterType {
	case TypeElectricity:
		return UnitKilowattHour, true
	case TypeWater:
		return UnitLiter, true
	default:
		return "", false
	}
}

// Meter is a physical measurement device attached to a household.
type Meter struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	HouseholdID snowflake.ID `json:"household_id" gorm:"column:household_id;not null;index:ux_meters_household_label,unique,priority:1"`
	Label       string       `json:"label" gorm:"type:text;not null;index:ux_meters_household_label,unique,priority:2"`
	Type        string       `json:"type" gorm:"type:text;not null"`
	Unit        string       `json:"unit" gorm:"type:text;not null"`
	Active      bool         `json:"active" gorm:"not null;default:true"`
	CreatedAt   time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Meter) TableName() string { return "meters" }
