package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/homewatt/homewatt/internal/auth/domain"
	"github.com/homewatt/homewatt/internal/auth/password"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type CreateUserRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

func (s *Server) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.authsvc.Login(c.Request.Context(), authdomain.LoginRequest{
		Email:     strings.TrimSpace(req.Email),
		Password:  req.Password,
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, result.RawToken, result.ExpiresAt)
	c.JSON(http.StatusOK, result.Session)
}

func (s *Server) Logout(c *gin.Context) {
	token, ok := s.sessions.ReadToken(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.authsvc.Logout(c.Request.Context(), token); err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Clear(c)
	c.Status(http.StatusNoContent)
}

func (s *Server) Me(c *gin.Context) {
	token, ok := s.sessions.ReadToken(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	session, err := s.authsvc.Authenticate(c.Request.Context(), token)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	user, err := s.authsvc.UserByID(c.Request.Context(), session.UserID)
	if err != nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	mustChangePassword := user.IsDefault && user.LastPasswordChanged == nil

	c.JSON(http.StatusOK, &authdomain.SessionView{Metadata: map[string]any{
		"user_id":              user.ID.String(),
		"email":                user.Email,
		"display_name":         user.DisplayName,
		"role":                 user.Role,
		"is_default":           user.IsDefault,
		"must_change_password": mustChangePassword,
	}})
}

func (s *Server) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	currentPassword := strings.TrimSpace(req.CurrentPassword)
	newPassword := strings.TrimSpace(req.NewPassword)
	if currentPassword == "" {
		AbortWithError(c, newValidationError("current_password", "required", "current password is required"))
		return
	}
	if newPassword == "" {
		AbortWithError(c, newValidationError("new_password", "required", "new password is required"))
		return
	}
	if currentPassword == newPassword {
		AbortWithError(c, newValidationError("new_password", "must_differ", "new password must be different"))
		return
	}
	if len(newPassword) < 8 {
		AbortWithError(c, newValidationError("new_password", "weak_password", "password must be at least 8 characters"))
		return
	}

	token, ok := s.sessions.ReadToken(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	session, err := s.authsvc.Authenticate(c.Request.Context(), token)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	user, err := s.authsvc.UserByID(c.Request.Context(), session.UserID)
	if err != nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	if user.PasswordHash == nil || !password.Verify(currentPassword, *user.PasswordHash) {
		AbortWithError(c, authdomain.ErrInvalidCredentials)
		return
	}

	if err := s.authsvc.ChangePassword(c.Request.Context(), user.ID, newPassword); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	user, err := s.authsvc.CreateUser(c.Request.Context(), authdomain.CreateUserRequest{
		Email:       strings.TrimSpace(req.Email),
		Password:    req.Password,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Role:        strings.TrimSpace(req.Role),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":           user.ID.String(),
		"email":        user.Email,
		"display_name": user.DisplayName,
		"role":         user.Role,
	})
}
