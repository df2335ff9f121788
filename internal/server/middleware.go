package server

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/homewatt/homewatt/internal/authctx"
	obscontext "github.com/homewatt/homewatt/internal/observability/context"
)

func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
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

		ctx := authctx.WithUser(c.Request.Context(), int64(user.ID), user.Role)
		ctx = obscontext.WithActor(ctx, "user", user.ID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// authorizeAction checks the policy engine for the session user.
func (s *Server) authorizeAction(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		userID, ok := authctx.UserID(ctx)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		role, _ := authctx.Role(ctx)

		if err := s.authzSvc.Authorize(ctx, strconv.FormatInt(userID, 10), role, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}
