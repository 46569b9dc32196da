package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/logger"
	"golang.org/x/time/rate"
)

// Rate limit defaults.
const (
	DefaultRequestsPerSecond = 10.0
	DefaultBurst             = 20
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter manages rate limiters per client IP.
type IPRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
	now      func() time.Time
}

// NewIPRateLimiter creates a new IP-based rate limiter. Non-positive values
// fall back to the defaults.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	if r <= 0 {
		r = rate.Limit(DefaultRequestsPerSecond)
	}
	if b <= 0 {
		b = DefaultBurst
	}
	return &IPRateLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     r,
		burst:    b,
		now:      time.Now,
	}
}

// GetLimiter returns the rate limiter for the given IP.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	e, ok := i.limiters[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(i.rate, i.burst)}
		i.limiters[ip] = e
	}
	e.lastSeen = i.now()
	return e.limiter
}

// Evict drops limiters not used for idle and reports how many went.
func (i *IPRateLimiter) Evict(idle time.Duration) int {
	i.mu.Lock()
	defer i.mu.Unlock()

	cutoff := i.now().Add(-idle)
	n := 0
	for ip, e := range i.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(i.limiters, ip)
			n++
		}
	}
	return n
}

// Len returns the number of tracked clients.
func (i *IPRateLimiter) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.limiters)
}

// Middleware rejects clients that exceed their allowance with 429.
// Refusals are recorded on security, which may be nil.
func (i *IPRateLimiter) Middleware(security *logger.SecurityLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if i.GetLimiter(ip).Allow() {
				return next(c)
			}

			security.RateLimitExceeded(ip, c.Path())
			c.Response().Header().Set("Retry-After", "60")
			return echo.NewHTTPError(http.StatusTooManyRequests, map[string]string{
				"error":       "rate limit exceeded",
				"code":        "RATE_LIMITED",
				"retry_after": "60",
			})
		}
	}
}

// RateLimiterWithConfig returns rate limiting middleware backed by a fresh
// IPRateLimiter.
func RateLimiterWithConfig(requestsPerSecond float64, burst int, security *logger.SecurityLogger) echo.MiddlewareFunc {
	return NewIPRateLimiter(rate.Limit(requestsPerSecond), burst).Middleware(security)
}
