package security

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

type RateLimiter struct {
	redis *redis.Client
}

func NewRateLimiter(redisClient *redis.Client) *RateLimiter {
	return &RateLimiter{redis: redisClient}
}

// CheckoutRateLimit caps checkout attempts per caller per minute. The
// counter lives in Redis so the limit holds across restarts.
func (r *RateLimiter) CheckoutRateLimit(limit int) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		key := fmt.Sprintf("ratelimit:checkout:%s", callerIdentity(e.Request, e.RealIP()))

		ok, err := r.allow(e.Request.Context(), key, int64(limit))
		if err != nil {
			// Redis trouble should not block checkouts.
			return e.Next()
		}
		if !ok {
			return apis.NewApiError(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", nil)
		}

		return e.Next()
	}
}

// callerIdentity keys the counter by the presented session token when
// there is one, so a logged-in caller cannot dodge the limit by rotating
// IPs, and by client IP otherwise. The token does not need to be resolved
// to a user: one token is one session.
func callerIdentity(req *http.Request, realIP string) string {
	if cookie, err := req.Cookie("session_token"); err == nil && cookie.Value != "" {
		return "token:" + cookie.Value
	}
	if auth := req.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if token := strings.TrimPrefix(auth, "Bearer "); token != "" {
			return "token:" + token
		}
	}
	return "ip:" + realIP
}

// allow counts one attempt against the key and reports whether it is
// still within the limit. The window is a minute, set on the first hit.
func (r *RateLimiter) allow(ctx context.Context, key string, limit int64) (bool, error) {
	count, err := r.redis.Incr(ctx, key).Result()
	if err != nil {
		return true, err
	}
	if count == 1 {
		r.redis.Expire(ctx, key, time.Minute)
	}
	return count <= limit, nil
}

// AntiBotMiddleware rejects obvious scraper traffic and throttles bursts
// per IP.
func (r *RateLimiter) AntiBotMiddleware() func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		userAgent := e.Request.Header.Get("User-Agent")
		if r.isSuspiciousUserAgent(userAgent) {
			return apis.NewForbiddenError("Access denied", nil)
		}

		key := fmt.Sprintf("antibot:%s", e.RealIP())

		ok, err := r.allow(e.Request.Context(), key, 120)
		if err == nil && !ok {
			return apis.NewApiError(http.StatusTooManyRequests, "Too many requests", nil)
		}

		return e.Next()
	}
}

func (r *RateLimiter) isSuspiciousUserAgent(ua string) bool {
	suspicious := []string{"bot", "crawler", "spider", "scraper"}
	for _, pattern := range suspicious {
		if strings.Contains(strings.ToLower(ua), pattern) {
			return true
		}
	}
	return false
}
