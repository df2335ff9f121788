package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context) ([]Response, error)
	GetByID(ctx context.Context, id string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error

	AddMember(ctx context.Context, householdID string, userID string) error
	RemoveMember(ctx context.Context, householdID string, userID string) error
	ListMembers(ctx context.Context, householdID string) ([]MemberResponse, error)
	HasAccess(ctx context.Context, householdID snowflake.ID) (bool, error)
}

type CreateRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type UpdateRequest struct {
	ID      string  `json:"id"`
	Name    *string `json:"name,omitempty"`
	Address *string `json:"address,omitempty"`
}

type Response struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type MemberResponse struct {
	HouseholdID string    `json:"household_id"`
	UserID      string    `json:"user_id"`
	JoinedAt    time.Time `json:"joined_at"`
}

var (
	ErrInvalidName   = errors.New("invalid_name")
	ErrInvalidID     = errors.New("invalid_id")
	ErrInvalidUser   = errors.New("invalid_user")
	ErrNotFound      = errors.New("not_found")
	ErrAlreadyMember = errors.New("already_member")
	ErrNotMember     = errors.New("not_member")
	ErrForbidden     = errors.New("forbidden")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
