package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"partystream/internal/pkg/response"
)

// RateLimiter is a fixed-window counter per identity and route. Excess
// requests are rejected outright; there is no queueing or shedding
// beyond the 429.
type RateLimiter struct {
	limit  int
	window time.Duration

	mu        sync.Mutex
	windows   map[string]*rateWindow
	lastSweep time.Time
	now       func() time.Time
}

type rateWindow struct {
	start time.Time
	count int
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		windows: make(map[string]*rateWindow),
		now:     time.Now,
	}
}

// Allow records a hit for key and reports whether it is within budget.
func (rl *RateLimiter) Allow(key string) bool {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.sweep(now)

	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= rl.window {
		rl.windows[key] = &rateWindow{start: now, count: 1}
		return true
	}

	w.count++
	return w.count <= rl.limit
}

// sweep drops expired windows so keys that never return (one-off IPs)
// do not accumulate. Runs at most once per window; caller holds mu.
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.window {
		return
	}
	rl.lastSweep = now
	for key, w := range rl.windows {
		if now.Sub(w.start) >= rl.window {
			delete(rl.windows, key)
		}
	}
}

// Middleware keys the counter by authenticated user id when present,
// falling back to client IP for public routes, plus the route path.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if userID := c.GetInt64("user_id"); userID != 0 {
			key = "u" + strconv.FormatInt(userID, 10)
		}
		key += " " + c.FullPath()

		if !rl.Allow(key) {
			response.Error(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, slow down")
			c.Abort()
			return
		}

		c.Next()
	}
}
