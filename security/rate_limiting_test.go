package security

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallerIdentity_PrefersSessionToken(t *testing.T) {
	req, _ := http.NewRequest(http.MethodPost, "/api/checkout/create", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: "tok-1"})
	assert.Equal(t, "token:tok-1", callerIdentity(req, "10.0.0.1"))

	req, _ = http.NewRequest(http.MethodPost, "/api/checkout/create", nil)
	req.Header.Set("Authorization", "Bearer tok-2")
	assert.Equal(t, "token:tok-2", callerIdentity(req, "10.0.0.1"))

	// Same session, different IP: the key stays the caller's.
	assert.Equal(t, "token:tok-2", callerIdentity(req, "10.0.0.2"))

	req, _ = http.NewRequest(http.MethodPost, "/api/checkout/create", nil)
	assert.Equal(t, "ip:10.0.0.1", callerIdentity(req, "10.0.0.1"))
}

func TestAllow_WithinLimit(t *testing.T) {
	db, rmock := redismock.NewClientMock()
	limiter := NewRateLimiter(db)

	rmock.ExpectIncr("ratelimit:checkout:token:tok-1").SetVal(1)
	rmock.ExpectExpire("ratelimit:checkout:token:tok-1", time.Minute).SetVal(true)

	ok, err := limiter.allow(context.Background(), "ratelimit:checkout:token:tok-1", 10)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestAllow_OverLimit(t *testing.T) {
	db, rmock := redismock.NewClientMock()
	limiter := NewRateLimiter(db)

	rmock.ExpectIncr("ratelimit:checkout:token:tok-1").SetVal(11)

	ok, err := limiter.allow(context.Background(), "ratelimit:checkout:token:tok-1", 10)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAllow_RedisDownFailsOpen(t *testing.T) {
	db, rmock := redismock.NewClientMock()
	limiter := NewRateLimiter(db)

	rmock.ExpectIncr("ratelimit:checkout:ip:10.0.0.1").SetErr(assert.AnError)

	ok, err := limiter.allow(context.Background(), "ratelimit:checkout:ip:10.0.0.1", 10)
	assert.Error(t, err)
	assert.True(t, ok)
}

func TestIsSuspiciousUserAgent(t *testing.T) {
	limiter := NewRateLimiter(nil)

	assert.True(t, limiter.isSuspiciousUserAgent("Googlebot/2.1"))
	assert.True(t, limiter.isSuspiciousUserAgent("my-scraper/1.0"))
	assert.False(t, limiter.isSuspiciousUserAgent("Mozilla/5.0 (Macintosh)"))
}
