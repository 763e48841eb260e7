package limiter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is the interface that all rate limiters must implement
// This allows us to easily swap between in-memory and Redis implementations
type Limiter interface {
	// Allow checks if a request from the given IP should be allowed
	// Returns true if allowed, false if rate limited
	Allow(ip string) bool

	// Close cleans up any resources (Redis connections, goroutines, etc.)
	Close() error
}

const (
	defaultIdleTTL      = 5 * time.Minute
	defaultCleanupEvery = time.Minute
)

// MemoryLimiter keeps one token bucket (x/time/rate) per client IP
// Buckets idle for longer than the idle TTL are dropped by a background janitor
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*bucketEntry
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type bucketEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// MemoryOption customizes a MemoryLimiter
type MemoryOption func(*MemoryLimiter)

// WithIdleTTL sets how long an unused bucket is kept
func WithIdleTTL(d time.Duration) MemoryOption {
	return func(rl *MemoryLimiter) { rl.idleTTL = d }
}

// WithMemoryClock sets the time source, used by tests to avoid sleeping
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(rl *MemoryLimiter) { rl.now = now }
}

// NewMemoryLimiter creates a limiter that allows `requests` per `window` per IP
// The bucket starts full, so a client can burst up to `requests` at once
func NewMemoryLimiter(requests int, window time.Duration, opts ...MemoryOption) *MemoryLimiter {
	if requests < 1 {
		requests = 1
	}
	if window <= 0 {
		window = time.Second
	}

	rl := &MemoryLimiter{
		entries: make(map[string]*bucketEntry),
		limit:   rate.Limit(float64(requests) / window.Seconds()),
		burst:   requests,
		idleTTL: defaultIdleTTL,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(rl)
	}

	go rl.janitor(defaultCleanupEvery)
	return rl
}

// Allow consumes one token from the IP's bucket
func (rl *MemoryLimiter) Allow(ip string) bool {
	now := rl.now()
	return rl.bucket(ip, now).AllowN(now, 1)
}

func (rl *MemoryLimiter) bucket(ip string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if ent, ok := rl.entries[ip]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	lim := rate.NewLimiter(rl.limit, rl.burst)
	rl.entries[ip] = &bucketEntry{lim: lim, lastSeen: now}
	return lim
}

// Cleanup removes buckets that have not been used within the idle TTL
func (rl *MemoryLimiter) Cleanup() {
	cutoff := rl.now().Add(-rl.idleTTL)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, ent := range rl.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(rl.entries, ip)
		}
	}
}

// Len returns the number of tracked clients
func (rl *MemoryLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.entries)
}

func (rl *MemoryLimiter) janitor(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-t.C:
			rl.Cleanup()
		}
	}
}

// Close stops the janitor goroutine
func (rl *MemoryLimiter) Close() error {
	rl.stopOnce.Do(func() { close(rl.stop) })
	return nil
}
