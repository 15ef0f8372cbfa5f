package auth

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter limits the number of requests per client IP using a fixed
// window.
type RateLimiter struct {
	mu              sync.Mutex
	windows         map[string]*window
	limit           int
	windowDuration  time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

type window struct {
	count int
	start time.Time
}

// RateLimitConfig contains configuration for the rate limiter.
type RateLimitConfig struct {
	Limit           int           // Requests allowed per window (default: 100)
	WindowDuration  time.Duration // Window length (default: 1m)
	CleanupInterval time.Duration // How often to clean up expired windows (default: 5m)
}

// DefaultRateLimitConfig returns sensible defaults for rate limiting.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:           100,
		WindowDuration:  time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

// NewRateLimiter creates a new rate limiter with the given configuration.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Limit <= 0 {
		cfg.Limit = 100
	}
	if cfg.WindowDuration <= 0 {
		cfg.WindowDuration = time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}

	rl := &RateLimiter{
		windows:         make(map[string]*window),
		limit:           cfg.Limit,
		windowDuration:  cfg.WindowDuration,
		cleanupInterval: cfg.CleanupInterval,
		now:             time.Now,
		stopCleanup:     make(chan struct{}),
	}

	// Start background cleanup
	go rl.cleanupLoop()

	return rl
}

// Stop stops the background cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCleanup) })
}

// Allow counts a request from ip. When the window is exhausted it returns
// false and the time until the window resets.
func (rl *RateLimiter) Allow(ip string) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, exists := rl.windows[ip]
	if !exists || now.Sub(w.start) >= rl.windowDuration {
		rl.windows[ip] = &window{count: 1, start: now}
		return true, 0
	}

	if w.count >= rl.limit {
		return false, w.start.Add(rl.windowDuration).Sub(now)
	}
	w.count++
	return true, 0
}

// cleanupLoop periodically removes expired windows.
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, w := range rl.windows {
		if now.Sub(w.start) >= rl.windowDuration {
			delete(rl.windows, ip)
		}
	}
}

// Middleware rejects requests over the limit with 429.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, retryAfter := rl.Allow(c.ClientIP())
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Round(time.Second).Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests, please try again later",
			})
			return
		}

		c.Next()
	}
}
