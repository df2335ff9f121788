package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/homewatt/homewatt/internal/config"
	redis "github.com/redis/go-redis/v9"
)

const (
	keyReadingIngestUser      = "reading:ingest:user:%s"
	keyReadingIngestHousehold = "reading:ingest:household:%s"
)

// ReadingIngestLimiter throttles reading submissions per user and per
// household. A nil limiter allows everything.
type ReadingIngestLimiter struct {
	enabled bool

	bucket *TokenBucket

	userRate       float64
	userBurst      int
	householdRate  float64
	householdBurst int
}

func NewReadingIngestLimiter(cfg config.Config) (*ReadingIngestLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.ReadingIngestUserRate <= 0 || limitCfg.ReadingIngestUserBurst <= 0 {
		return nil, errors.New("reading ingest user rate limit must be positive")
	}
	if limitCfg.ReadingIngestHouseholdRate <= 0 || limitCfg.ReadingIngestHouseholdBurst <= 0 {
		return nil, errors.New("reading ingest household rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	return &ReadingIngestLimiter{
		enabled:        true,
		bucket:         NewTokenBucket(client),
		userRate:       limitCfg.ReadingIngestUserRate,
		userBurst:      limitCfg.ReadingIngestUserBurst,
		householdRate:  limitCfg.ReadingIngestHouseholdRate,
		householdBurst: limitCfg.ReadingIngestHouseholdBurst,
	}, nil
}

func (l *ReadingIngestLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *ReadingIngestLimiter) AllowUser(ctx context.Context, userID string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyReadingIngestUser, strings.TrimSpace(userID)), l.userRate, l.userBurst)
}

func (l *ReadingIngestLimiter) AllowHousehold(ctx context.Context, householdID string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyReadingIngestHousehold, strings.TrimSpace(householdID)), l.householdRate, l.householdBurst)
}
