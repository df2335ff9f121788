package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/homewatt/homewatt/internal/auth/domain"
	"github.com/homewatt/homewatt/internal/auth/password"
	"github.com/homewatt/homewatt/internal/clock"
	"go.uber.org/zap"
)

const (
	sessionTokenBytes = 32
	sessionTTL        = 7 * 24 * time.Hour

	minPasswordLength = 8
)

type Service struct {
	log         *zap.Logger
	repo        domain.Repository
	sessionRepo domain.SessionRepository
	genID       *snowflake.Node
	clock       clock.Clock
}

func New(log *zap.Logger, repo domain.Repository, sessionRepo domain.SessionRepository, genID *snowflake.Node, clk clock.Clock) domain.Service {
	return &Service{
		log:         log.Named("auth.service"),
		repo:        repo,
		sessionRepo: sessionRepo,
		genID:       genID,
		clock:       clk,
	}
}

func (s *Service) CreateUser(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if len(strings.TrimSpace(req.Password)) < minPasswordLength {
		return nil, domain.ErrInvalidCredentials
	}

	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = domain.RoleResident
	}
	if role != domain.RoleAdmin && role != domain.RoleResident {
		return nil, domain.ErrInvalidRole
	}

	if _, err := s.repo.FindOne(ctx, domain.User{Email: email}); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = defaultDisplayName(email)
	}
	user := &domain.User{
		ID:                  s.genID.Generate(),
		Email:               email,
		DisplayName:         displayName,
		PasswordHash:        &hashed,
		Role:                role,
		IsDefault:           false,
		LastPasswordChanged: &now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if strings.TrimSpace(req.Password) == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindOne(ctx, domain.User{Email: email})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if user.PasswordHash == nil || !password.Verify(req.Password, *user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	rawToken, err := newSessionToken()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	session := &domain.Session{
		ID:               s.genID.Generate(),
		UserID:           user.ID,
		SessionTokenHash: hashToken(rawToken),
		UserAgent:        strings.TrimSpace(req.UserAgent),
		IPAddress:        strings.TrimSpace(req.IPAddress),
		ExpiresAt:        now.Add(sessionTTL),
		CreatedAt:        now,
		LastSeenAt:       now,
	}
	if err := s.sessionRepo.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	passwordState := "rotated"
	if user.IsDefault || user.LastPasswordChanged == nil {
		passwordState = "default"
	}

	return &domain.LoginResult{
		Session: &domain.SessionView{
			Metadata: map[string]any{
				"user_id":        user.ID.String(),
				"display_name":   user.DisplayName,
				"email":          user.Email,
				"role":           user.Role,
				"is_default":     user.IsDefault,
				"password_state": passwordState,
			},
		},
		RawToken:  rawToken,
		ExpiresAt: session.ExpiresAt,
		SessionID: session.ID,
	}, nil
}

func (s *Service) Logout(ctx context.Context, rawToken string) error {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return domain.ErrInvalidSession
	}

	session, err := s.sessionRepo.GetSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.ErrInvalidSession
		}
		return err
	}

	now := s.clock.Now()
	return s.sessionRepo.RevokeSession(ctx, session.ID, now)
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (*domain.Session, error) {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return nil, domain.ErrInvalidSession
	}

	session, err := s.sessionRepo.GetSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrInvalidSession
		}
		return nil, err
	}

	now := s.clock.Now()
	if session.RevokedAt != nil {
		return nil, domain.ErrSessionRevoked
	}
	if now.After(session.ExpiresAt) {
		return nil, domain.ErrSessionExpired
	}

	if err := s.sessionRepo.UpdateLastSeen(ctx, session.ID, now); err != nil {
		return nil, err
	}

	return session, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID snowflake.ID, newPassword string) error {
	if len(strings.TrimSpace(newPassword)) < minPasswordLength {
		return domain.ErrInvalidCredentials
	}

	if _, err := s.repo.FindByID(ctx, userID); err != nil {
		return err
	}

	hashed, err := password.Hash(newPassword)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	fields := map[string]any{
		"password_hash":         hashed,
		"last_password_changed": &now,
		"is_default":            false,
		"updated_at":            now,
	}

	return s.repo.UpdateFields(ctx, userID, fields)
}

func (s *Service) UserByID(ctx context.Context, userID snowflake.ID) (*domain.User, error) {
	return s.repo.FindByID(ctx, userID)
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(addr.Address)), nil
}

func defaultDisplayName(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) > 0 && strings.TrimSpace(parts[0]) != "" {
		return strings.TrimSpace(parts[0])
	}
	return email
}

func newSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
