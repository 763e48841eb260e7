package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/evyataryagoni/cepcache/internal/logger"
	"github.com/redis/go-redis/v9"
)

const redisCallTimeout = 500 * time.Millisecond

// incrWithExpiry increments the window counter and sets its TTL on first use
// Runs atomically on the Redis server
var incrWithExpiry = redis.NewScript(`
	local current = redis.call('INCR', KEYS[1])
	if current == 1 then
		redis.call('EXPIRE', KEYS[1], ARGV[1])
	end
	return current
`)

// RedisLimiter implements distributed rate limiting using Redis
// This is suitable for multi-server deployments where rate limits need to be
// shared across all instances
//
// Algorithm: fixed window counter
// - Key format: "ratelimit:{ip}:{window}"
// - Keys expire after two windows
type RedisLimiter struct {
	client   *redis.Client
	requests int64
	window   time.Duration
	now      func() time.Time
	logger   *logger.Logger
}

// NewRedisLimiter creates a new Redis-based rate limiter
//
// Parameters:
//   - client: connected Redis client, closed by Close
//   - requests: allowed requests per window per IP
//   - window: window size, rounded up to whole seconds
func NewRedisLimiter(client *redis.Client, requests int, window time.Duration, log *logger.Logger) (*RedisLimiter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis for rate limiting: %w", err)
	}

	if requests < 1 {
		requests = 1
	}
	window = window.Round(time.Second)
	if window < time.Second {
		window = time.Second
	}
	if log == nil {
		log = logger.Nop()
	}

	return &RedisLimiter{
		client:   client,
		requests: int64(requests),
		window:   window,
		now:      time.Now,
		logger:   log.WithComponent("RedisLimiter"),
	}, nil
}

// Allow counts the request in the current window
// Redis errors fail open so an outage does not block legitimate traffic
func (rl *RedisLimiter) Allow(ip string) bool {
	windowSeconds := int64(rl.window.Seconds())
	key := fmt.Sprintf("ratelimit:%s:%d", ip, rl.now().Unix()/windowSeconds)

	ctx, cancel := context.WithTimeout(context.Background(), redisCallTimeout)
	defer cancel()

	count, err := incrWithExpiry.Run(ctx, rl.client, []string{key}, windowSeconds*2).Int64()
	if err != nil {
		rl.logger.Warn().Err(err).Str("ip", ip).Msg("Rate limit check failed, allowing request")
		return true
	}

	return count <= rl.requests
}

// Close closes the Redis connection
func (rl *RedisLimiter) Close() error {
	if rl.client != nil {
		return rl.client.Close()
	}
	return nil
}
