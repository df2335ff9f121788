package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/homewatt/homewatt/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	ListByMeter(ctx context.Context, req ListRequest) (*ListResponse, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
}

type CreateRequest struct {
	MeterID    string    `json:"meter_id"`
	Value      float64   `json:"value"`
	RecordedAt time.Time `json:"recorded_at"`
	Notes      string    `json:"notes"`
}

type ListRequest struct {
	MeterID   string
	From      *time.Time
	To        *time.Time
	PageToken string
	PageSize  int
}

type ListResponse struct {
	Readings []Response           `json:"readings"`
	PageInfo *pagination.PageInfo `json:"page_info"`
}

type UpdateRequest struct {
	ID         string     `json:"id"`
	Value      *float64   `json:"value,omitempty"`
	RecordedAt *time.Time `json:"recorded_at,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
}

type Response struct {
	ID         string    `json:"id"`
	MeterID    string    `json:"meter_id"`
	Value      float64   `json:"value"`
	RecordedAt time.Time `json:"recorded_at"`
	Notes      string    `json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

var (
	ErrInvalidMeter      = errors.New("invalid_meter")
	ErrInvalidValue      = errors.New("invalid_value")
	ErrInvalidRecordedAt = errors.New("invalid_recorded_at")
	ErrInvalidPageToken  = errors.New("invalid_page_token")
	ErrMeterNotFound     = errors.New("meter_not_found")
	ErrNotFound          = errors.New("not_found")
	ErrInvalidID         = errors.New("invalid_id")
	ErrForbidden         = errors.New("forbidden")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
