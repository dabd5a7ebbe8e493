package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/bk001juma/api-matengenezo/internal/cache"
)

// Action names
const (
	ActionReportSubmit = "report_submit"
	ActionLogin        = "login"
	ActionRegister     = "register"
)

type ActionConfig struct {
	Limit  int64
	Window time.Duration
}

var DefaultLimits = map[string]ActionConfig{
	ActionReportSubmit: {Limit: 10, Window: time.Minute},
	ActionLogin:        {Limit: 10, Window: time.Minute},
	ActionRegister:     {Limit: 5, Window: time.Minute},
}

// Counter is a windowed counter store, implemented by cache.RedisCache.
type Counter interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
}

type Limiter struct {
	counter Counter
	limits  map[string]ActionConfig
}

type CheckResult struct {
	Allowed   bool  `json:"allowed"`
	Remaining int64 `json:"remaining"`
	ResetAt   int64 `json:"reset_at"`
	Limit     int64 `json:"limit"`
}

// NewLimiter uses DefaultLimits overlaid with overrides.
func NewLimiter(counter Counter, overrides map[string]ActionConfig) *Limiter {
	limits := make(map[string]ActionConfig, len(DefaultLimits)+len(overrides))
	for action, cfg := range DefaultLimits {
		limits[action] = cfg
	}
	for action, cfg := range overrides {
		limits[action] = cfg
	}
	return &Limiter{counter: counter, limits: limits}
}

func (l *Limiter) Check(ctx context.Context, clientID, action string) (*CheckResult, error) {
	config, ok := l.limits[action]
	if !ok {
		// Default limit for unknown actions
		config = ActionConfig{Limit: 100, Window: time.Minute}
	}

	key := cache.RateKey(clientID, action)

	count, err := l.counter.Incr(ctx, key, config.Window)
	if err != nil {
		return nil, fmt.Errorf("failed to increment counter: %w", err)
	}

	ttl, err := l.counter.TTL(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get TTL: %w", err)
	}
	if ttl < 0 {
		ttl = config.Window
	}

	resetAt := time.Now().Add(ttl).Unix()
	remaining := config.Limit - count
	if remaining < 0 {
		remaining = 0
	}

	return &CheckResult{
		Allowed:   count <= config.Limit,
		Remaining: remaining,
		ResetAt:   resetAt,
		Limit:     config.Limit,
	}, nil
}
