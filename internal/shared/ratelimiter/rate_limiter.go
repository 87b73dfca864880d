// Package ratelimiter throttles abusive clients on the public auth endpoints.
package ratelimiter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Limiter counts requests per key in fixed windows backed by Redis.
// A nil *Limiter or a nil client disables limiting entirely, so the server
// keeps working when Redis is unavailable.
type Limiter struct {
	rdb    *redis.Client
	limit  int64
	window time.Duration
}

// New creates a Limiter allowing limit requests per window.
func New(rdb *redis.Client, limit int, window time.Duration) *Limiter {
	return &Limiter{rdb: rdb, limit: int64(limit), window: window}
}

// Allow reports whether the caller identified by key may proceed.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	if l == nil || l.rdb == nil {
		return true, nil
	}

	n, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	// First hit in the window owns the expiry.
	if n == 1 {
		if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
			return false, err
		}
	}
	return n <= l.limit, nil
}

// Middleware returns a Gin middleware limiting requests per client IP and route.
// Redis errors fail open: a broken limiter must not take down login.
func Middleware(l *Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("ratelimit:%s:%s", c.FullPath(), c.ClientIP())
		ok, err := l.Allow(c.Request.Context(), key)
		if err != nil {
			slog.Warn("rate limiter unavailable", "key", key, "error", err)
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
