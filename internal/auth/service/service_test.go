package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/homewatt/homewatt/internal/auth/domain"
	"github.com/homewatt/homewatt/internal/auth/repository"
	"github.com/homewatt/homewatt/internal/clock"
	"github.com/homewatt/homewatt/pkg/db"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (authdomain.Service, *clock.FakeClock) {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&authdomain.User{}, &authdomain.Session{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	repo, sessionRepo := repository.New(dbConn)
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	clk := clock.NewFake(time.Date(2026, time.March, 12, 9, 0, 0, 0, time.UTC))
	return New(zap.NewNop(), repo, sessionRepo, node, clk), clk
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)

	user, err := svc.CreateUser(context.Background(), authdomain.CreateUserRequest{
		Email:    "alice@example.com",
		Password: "correct-password",
	})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	if user == nil {
		t.Fatal("expected user")
	}

	_, err = svc.Login(context.Background(), authdomain.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-password",
	})
	if err != authdomain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestCreateUserDefaultsToResident(t *testing.T) {
	svc, _ := newTestService(t)

	user, err := svc.CreateUser(context.Background(), authdomain.CreateUserRequest{
		Email:    "bob@example.com",
		Password: "strong-password",
	})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	if user.Role != authdomain.RoleResident {
		t.Fatalf("expected resident role, got %s", user.Role)
	}
	if user.DisplayName != "bob" {
		t.Fatalf("expected display name bob, got %s", user.DisplayName)
	}
}

func TestCreateUserRejectsUnknownRole(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateUser(context.Background(), authdomain.CreateUserRequest{
		Email:    "carol@example.com",
		Password: "strong-password",
		Role:     "landlord",
	})
	if err != authdomain.ErrInvalidRole {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestAuthenticateRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.CreateUser(context.Background(), authdomain.CreateUserRequest{
		Email:    "dave@example.com",
		Password: "strong-password",
	}); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	result, err := svc.Login(context.Background(), authdomain.LoginRequest{
		Email:    "dave@example.com",
		Password: "strong-password",
	})
	if err != nil {
		t.Fatalf("failed to login: %v", err)
	}

	session, err := svc.Authenticate(context.Background(), result.RawToken)
	if err != nil {
		t.Fatalf("failed to authenticate: %v", err)
	}
	if session.ID != result.SessionID {
		t.Fatalf("expected session %v, got %v", result.SessionID, session.ID)
	}

	if err := svc.Logout(context.Background(), result.RawToken); err != nil {
		t.Fatalf("failed to logout: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), result.RawToken); err != authdomain.ErrSessionRevoked {
		t.Fatalf("expected ErrSessionRevoked, got %v", err)
	}
}

func TestAuthenticateExpiredSession(t *testing.T) {
	svc, clk := newTestService(t)

	if _, err := svc.CreateUser(context.Background(), authdomain.CreateUserRequest{
		Email:    "erin@example.com",
		Password: "strong-password",
	}); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	result, err := svc.Login(context.Background(), authdomain.LoginRequest{
		Email:    "erin@example.com",
		Password: "strong-password",
	})
	if err != nil {
		t.Fatalf("failed to login: %v", err)
	}

	// Still valid one minute before the TTL elapses.
	clk.Advance(sessionTTL - time.Minute)
	if _, err := svc.Authenticate(context.Background(), result.RawToken); err != nil {
		t.Fatalf("failed to authenticate before expiry: %v", err)
	}

	clk.Advance(2 * time.Minute)
	if _, err := svc.Authenticate(context.Background(), result.RawToken); err != authdomain.ErrSessionExpired {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}
