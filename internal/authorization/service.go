package authorization

import (
	"context"
	"errors"
)

var (
	ErrInvalidActor  = errors.New("invalid actor")
	ErrInvalidObject = errors.New("invalid object")
	ErrInvalidAction = errors.New("invalid action")
	ErrForbidden     = errors.New("forbidden")
)

// Service answers capability questions for authenticated users.
type Service interface {
	Authorize(ctx context.Context, actor string, role string, object string, action string) error
}
