package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	List(ctx context.Context, req ListRequest) ([]Response, error)
	GetByID(ctx context.Context, id string) (*Response, error)
	Acknowledge(ctx context.Context, id string) (*Response, error)
}

type ListRequest struct {
	HouseholdID string `form:"household_id"`
	Status      string `form:"status"`
}

type Response struct {
	ID             string     `json:"id"`
	HouseholdID    string     `json:"household_id"`
	GoalID         string     `json:"goal_id"`
	PeriodStart    time.Time  `json:"period_start"`
	PeriodEnd      time.Time  `json:"period_end"`
	Status         string     `json:"status"`
	Message        string     `json:"message"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	AcknowledgedBy *string    `json:"acknowledged_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

var (
	ErrInvalidHousehold = errors.New("invalid_household")
	ErrInvalidStatus    = errors.New("invalid_status")
	ErrNotFound         = errors.New("not_found")
	ErrInvalidID        = errors.New("invalid_id")
	ErrForbidden        = errors.New("forbidden")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
