package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, householdID string) ([]Response, error)
	GetByID(ctx context.Context, id string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
}

type CreateRequest struct {
	HouseholdID string `json:"household_id"`
	Label       string `json:"label"`
	Type        string `json:"type"`
}

type UpdateRequest struct {
	ID     string  `json:"id"`
	Label  *string `json:"label,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

type Response struct {
	ID          string    `json:"id"`
	HouseholdID string    `json:"household_id"`
	Label       string    `json:"label"`
	Type        string    `json:"type"`
	Unit        string    `json:"unit"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

var (
	ErrInvalidHousehold = errors.New("invalid_household")
	ErrInvalidLabel     = errors.New("invalid_label")
	ErrInvalidType      = errors.New("invalid_meter_type")
	ErrDuplicateLabel   = errors.New("duplicate_label")
	ErrNotFound         = errors.New("not_found")
	ErrInvalidID        = errors.New("invalid_id")
	ErrForbidden        = errors.New("forbidden")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
