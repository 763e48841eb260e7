package limiter

import (
	"fmt"
	"strings"
	"time"

	"github.com/evyataryagoni/cepcache/internal/logger"
	"github.com/redis/go-redis/v9"
)

// LimiterConfig holds configuration for creating a rate limiter
type LimiterConfig struct {
	Type     string        // "memory" or "redis"
	Requests int           // requests allowed per window
	Window   time.Duration // window size

	// Redis-specific config
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Logger *logger.Logger
}

// NewLimiter creates a rate limiter based on the configuration (factory pattern)
func NewLimiter(cfg LimiterConfig) (Limiter, error) {
	limiterType := strings.ToLower(strings.TrimSpace(cfg.Type))

	switch limiterType {
	case "memory", "":
		// In-memory rate limiter (good for single-server deployments)
		return NewMemoryLimiter(cfg.Requests, cfg.Window), nil

	case "redis":
		// Redis-based rate limiter (required for multi-server deployments)
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		limiter, err := NewRedisLimiter(client, cfg.Requests, cfg.Window, cfg.Logger)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to create Redis limiter: %w", err)
		}
		return limiter, nil

	default:
		return nil, fmt.Errorf("unknown rate limiter type: %s (supported: 'memory', 'redis')", cfg.Type)
	}
}
