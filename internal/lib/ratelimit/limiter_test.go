package ratelimit_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linemk/grocery-shop/internal/lib/logger"
	"github.com/linemk/grocery-shop/internal/lib/ratelimit"
)

func newLimiter(t *testing.T, limit int, window time.Duration) (*ratelimit.Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return ratelimit.New(rdb, limit, window), mr
}

func TestLimiter_AllowsUpToLimit(t *testing.T) {
	limiter, mr := newLimiter(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should pass", i+1)
	}

	allowed, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, allowed, "4th request should be limited")

	// другой клиент считается отдельно
	allowed, err = limiter.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, allowed)

	assert.Equal(t, time.Minute, mr.TTL("ratelimit:10.0.0.1"))
}

func TestLimiter_WindowResets(t *testing.T) {
	limiter, mr := newLimiter(t, 1, time.Minute)
	ctx := context.Background()

	allowed, _ := limiter.Allow(ctx, "10.0.0.1")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow(ctx, "10.0.0.1")
	assert.False(t, allowed)

	mr.FastForward(time.Minute + time.Second)

	allowed, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed, "new window should allow again")
}

func TestLimiter_RedisDownFailsOpen(t *testing.T) {
	limiter, mr := newLimiter(t, 1, time.Minute)
	mr.Close()

	allowed, err := limiter.Allow(context.Background(), "10.0.0.1")
	assert.Error(t, err)
	assert.True(t, allowed)
}

func TestMiddleware_Returns429(t *testing.T) {
	limiter, _ := newLimiter(t, 1, time.Minute)
	handler := ratelimit.Middleware(logger.NewDiscard(), limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// подмена X-Forwarded-For не даёт нового окна
	do := func(forwarded string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req.RemoteAddr = "203.0.113.7:40000"
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do("198.51.100.1").Code)

	rec := do("198.51.100.2")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"Too many requests. Please try again later."}`, rec.Body.String())
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:54321"
	assert.Equal(t, "192.0.2.10", ratelimit.ClientIP(req))

	req.Header.Set("X-Forwarded-For", "198.51.100.3")
	assert.Equal(t, "192.0.2.10", ratelimit.ClientIP(req))
}

func TestClientIP_BehindRealIP(t *testing.T) {
	var got string
	handler := middleware.RealIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ratelimit.ClientIP(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:8080"
	req.Header.Set("X-Forwarded-For", "198.51.100.3, 10.0.0.1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "198.51.100.3", got)
}
