package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/homewatt/homewatt/internal/authctx"
	"github.com/homewatt/homewatt/internal/observability/logger"
	obsmetrics "github.com/homewatt/homewatt/internal/observability/metrics"
	"go.uber.org/zap"
)

const (
	rateLimitReasonUserRate      = "user-rate"
	rateLimitReasonHouseholdRate = "household-rate"
)

type readingIngestRateLimitKey struct {
	MeterID string `json:"meter_id"`
}

func (s *Server) ReadingIngestRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.readingLimiter == nil || !s.readingLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		userID, ok := authctx.UserID(ctx)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		userKey := strconv.FormatInt(userID, 10)
		endpoint := normalizeRateLimitEndpoint(c)

		result, err := s.readingLimiter.AllowUser(ctx, userKey)
		if err != nil {
			logger.FromContext(ctx).Warn("reading ingest user rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !result.Allowed {
			denyReadingIngestRateLimit(c, endpoint, userKey, rateLimitReasonUserRate, s.obsMetrics)
			return
		}

		householdKey := s.resolveReadingHousehold(c)
		if householdKey != "" {
			result, err = s.readingLimiter.AllowHousehold(ctx, householdKey)
			if err != nil {
				logger.FromContext(ctx).Warn("reading ingest household rate limit check failed", zap.Error(err))
				AbortWithError(c, ErrServiceUnavailable)
				return
			}
			if !result.Allowed {
				denyReadingIngestRateLimit(c, endpoint, householdKey, rateLimitReasonHouseholdRate, s.obsMetrics)
				return
			}
		}

		recordRateLimitAllowed(ctx, endpoint, userKey, s.obsMetrics)
		c.Next()
	}
}

// resolveReadingHousehold peeks at the request body for the target meter
// and maps it to its household. Failures fall back to the user limit only.
func (s *Server) resolveReadingHousehold(c *gin.Context) string {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
	if len(body) == 0 {
		return ""
	}

	var payload readingIngestRateLimitKey
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	meterID, err := snowflake.ParseString(strings.TrimSpace(payload.MeterID))
	if err != nil || meterID == 0 {
		return ""
	}

	meter, err := s.meterRepo.FindByID(c.Request.Context(), s.db, meterID)
	if err != nil || meter == nil {
		return ""
	}
	return meter.HouseholdID.String()
}

func denyReadingIngestRateLimit(c *gin.Context, endpoint, key, reason string, metrics *obsmetrics.Metrics) {
	ctx := c.Request.Context()
	logger.FromContext(ctx).Warn("reading ingest rate limit exceeded",
		zap.String("reason", reason),
		zap.String("endpoint", endpoint),
	)
	recordRateLimitDenied(ctx, endpoint, key, reason, metrics)

	c.Header("Retry-After", "1")
	c.Header("X-Rate-Limited-Reason", reason)
	AbortWithError(c, ErrRateLimited)
}

func recordRateLimitAllowed(ctx context.Context, endpoint, key string, metrics *obsmetrics.Metrics) {
	if metrics == nil {
		return
	}
	metrics.RecordRateLimitAllowed(ctx, key, endpoint)
}

func recordRateLimitDenied(ctx context.Context, endpoint, key, reason string, metrics *obsmetrics.Metrics) {
	if metrics == nil {
		return
	}
	metrics.RecordRateLimitDenied(ctx, key, endpoint, reason)
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
