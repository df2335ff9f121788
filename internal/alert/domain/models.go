package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Alert statuses.
const (
	StatusOpen         = "open"
	StatusAcknowledged = "acknowledged"
)

// Alert records that usage exceeded a goal's limit for one evaluation
// period. At most one alert exists per (goal_id, period_start, period_end).
type Alert struct {
	ID             snowflake.ID  `json:"id" gorm:"primaryKey"`
	HouseholdID    snowflake.ID  `json:"household_id" gorm:"column:household_id;not null;index"`
	GoalID         snowflake.ID  `json:"goal_id" gorm:"column:goal_id;not null;index:ux_alerts_goal_period,unique,priority:1"`
	PeriodStart    time.Time     `json:"period_start" gorm:"column:period_start;not null;index:ux_alerts_goal_period,unique,priority:2"`
	PeriodEnd      time.Time     `json:"period_end" gorm:"column:period_end;not null;index:ux_alerts_goal_period,unique,priority:3"`
	Status         string        `json:"status" gorm:"type:text;not null;default:open"`
	Message        string        `json:"message" gorm:"type:text;not null"`
	AcknowledgedAt *time.Time    `json:"acknowledged_at,omitempty" gorm:"column:acknowledged_at"`
	AcknowledgedBy *snowflake.ID `json:"acknowledged_by,omitempty" gorm:"column:acknowledged_by"`
	CreatedAt      time.Time     `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time     `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Alert) TableName() string { return "alerts" }
