package middleware

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RateLimiter throttles requests per client IP with a token bucket. This is
// the transport-level limit; per-participant action limits live in the
// usecases.
type RateLimiter struct {
	visitors map[string]*visitor
	mu       sync.Mutex
	rate     int
	window   time.Duration
}

type visitor struct {
	tokens     int
	lastSeen   time.Time
	blockUntil time.Time
}

func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
	}

	go rl.cleanup()

	return rl
}

func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			if blocked, resetTime := rl.take(ip); blocked {
				log.Printf("RATE LIMIT: blocked request from IP %s (reset in %v)", ip, time.Until(resetTime))

				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"error":       "Rate limit exceeded",
					"retry_after": int(time.Until(resetTime).Seconds()),
				})
			}

			return next(c)
		}
	}
}

func (rl *RateLimiter) take(ip string) (bool, time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	v, exists := rl.visitors[ip]
	if !exists {
		rl.visitors[ip] = &visitor{tokens: rl.rate - 1, lastSeen: now}
		return false, time.Time{}
	}

	if now.Before(v.blockUntil) {
		return true, v.blockUntil
	}

	refill := int(now.Sub(v.lastSeen) / rl.window * time.Duration(rl.rate))
	v.tokens += refill
	if v.tokens > rl.rate {
		v.tokens = rl.rate
	}
	v.lastSeen = now

	if v.tokens <= 0 {
		v.blockUntil = now.Add(rl.window)
		return true, v.blockUntil
	}

	v.tokens--
	return false, time.Time{}
}

func (rl *RateLimiter) cleanup() {
	for {
		time.Sleep(time.Hour)

		rl.mu.Lock()
		now := time.Now()
		for ip, v := range rl.visitors {
			if now.Sub(v.lastSeen) > 2*time.Hour {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

var (
	// General API limit: 60 requests per minute per IP.
	GeneralLimiter = NewRateLimiter(60, time.Minute)

	// Send endpoints carry media payloads, so they get a tighter budget.
	SendLimiter = NewRateLimiter(30, time.Minute)
)

func GeneralRateLimit() echo.MiddlewareFunc {
	return GeneralLimiter.Middleware()
}

func SendRateLimit() echo.MiddlewareFunc {
	return SendLimiter.Middleware()
}
