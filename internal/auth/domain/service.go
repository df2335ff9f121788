package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*User, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	Authenticate(ctx context.Context, rawToken string) (*Session, error)
	ChangePassword(ctx context.Context, userID snowflake.ID, newPassword string) error
	UserByID(ctx context.Context, userID snowflake.ID) (*User, error)
}

type CreateUserRequest struct {
	Email       string
	Password    string
	DisplayName string
	Role        string
}

type LoginRequest struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

type LoginResult struct {
	Session   *SessionView
	RawToken  string
	ExpiresAt time.Time
	SessionID snowflake.ID
}
