package security

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"mentorhub/monitoring"

	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

var suspiciousAgents = []string{"bot", "crawler", "spider", "scraper"}

// RateLimiter is a fixed one-minute window per caller, counted in Redis.
type RateLimiter struct {
	redis   redis.Cmdable
	limit   int64
	window  time.Duration
	monitor *monitoring.Monitor
}

func NewRateLimiter(redisClient redis.Cmdable, perMinute int, monitor *monitoring.Monitor) *RateLimiter {
	return &RateLimiter{
		redis:   redisClient,
		limit:   int64(perMinute),
		window:  time.Minute,
		monitor: monitor,
	}
}

// Allow counts one request for identity. Redis failures let the request
// through.
func (r *RateLimiter) Allow(ctx context.Context, identity string) bool {
	if r.limit <= 0 {
		return true
	}
	key := fmt.Sprintf("ratelimit:%s", identity)

	count, err := r.redis.Incr(ctx, key).Result()
	if err != nil {
		slog.Warn("Rate limiter unavailable", "error", err, "key", key)
		return true
	}
	if count == 1 {
		if err := r.redis.Expire(ctx, key, r.window).Err(); err != nil {
			slog.Warn("Failed to set rate limit window", "error", err, "key", key)
		}
	}
	return count <= r.limit
}

// Middleware rejects crawlers and callers over the limit. Authenticated
// callers are counted per user, anonymous ones per IP.
func (r *RateLimiter) Middleware() func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if isSuspiciousUserAgent(e.Request.UserAgent()) {
			return e.JSON(http.StatusForbidden, map[string]string{"error": "Access denied"})
		}

		var identity string
		if e.Auth != nil {
			identity = "user:" + e.Auth.Id
		} else {
			identity = "ip:" + e.RealIP()
		}
		if !r.Allow(e.Request.Context(), identity) {
			r.monitor.TrackRateLimited()
			return e.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "Rate limit exceeded. Please try again later.",
			})
		}
		return e.Next()
	}
}

func isSuspiciousUserAgent(ua string) bool {
	ua = strings.ToLower(ua)
	for _, pattern := range suspiciousAgents {
		if strings.Contains(ua, pattern) {
			return true
		}
	}
	return false
}
