package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goattech/giftflow/pkg/config"
)

func testConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:       true,
		WindowSeconds: 60,
		Limit:         3,
		RedisPrefix:   "rl",
	}
}

func fixedClock() func() time.Time {
	fixed := time.Date(2025, 6, 15, 12, 0, 30, 0, time.UTC)
	return func() time.Time { return fixed }
}

func windowKey(cfg config.RateLimitConfig, identity string, now time.Time) string {
	return fmt.Sprintf("%s:%s:%d", cfg.RedisPrefix, identity, now.Unix()/int64(cfg.WindowSeconds))
}

func TestAllow_FirstRequestSetsExpiry(t *testing.T) {
	client, mockRedis := redismock.NewClientMock()
	cfg := testConfig()
	limiter := NewLimiter(client, cfg).WithNow(fixedClock())
	key := windowKey(cfg, "1.2.3.4:/verify", fixedClock()())

	mockRedis.ExpectIncr(key).SetVal(1)
	mockRedis.ExpectExpire(key, cfg.Window()).SetVal(true)

	allowed, retryAfter, err := limiter.Allow(context.Background(), "1.2.3.4:/verify")

	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Zero(t, retryAfter)
	assert.NoError(t, mockRedis.ExpectationsWereMet())
}

func TestAllow_WithinLimit(t *testing.T) {
	client, mockRedis := redismock.NewClientMock()
	cfg := testConfig()
	limiter := NewLimiter(client, cfg).WithNow(fixedClock())
	key := windowKey(cfg, "id", fixedClock()())

	mockRedis.ExpectIncr(key).SetVal(3)

	allowed, _, err := limiter.Allow(context.Background(), "id")

	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestAllow_OverLimit(t *testing.T) {
	client, mockRedis := redismock.NewClientMock()
	cfg := testConfig()
	limiter := NewLimiter(client, cfg).WithNow(fixedClock())
	key := windowKey(cfg, "id", fixedClock()())

	mockRedis.ExpectIncr(key).SetVal(4)

	allowed, retryAfter, err := limiter.Allow(context.Background(), "id")

	require.NoError(t, err)
	assert.False(t, allowed)
	// The fixed clock sits 30s into a 60s window
	assert.Equal(t, 30*time.Second, retryAfter)
}

func TestAllow_RedisErrorFailsOpen(t *testing.T) {
	client, mockRedis := redismock.NewClientMock()
	cfg := testConfig()
	limiter := NewLimiter(client, cfg).WithNow(fixedClock())
	key := windowKey(cfg, "id", fixedClock()())

	mockRedis.ExpectIncr(key).SetErr(errors.New("connection refused"))

	allowed, _, err := limiter.Allow(context.Background(), "id")

	require.Error(t, err)
	assert.True(t, allowed)
}

func TestAllow_Disabled(t *testing.T) {
	client, _ := redismock.NewClientMock()
	cfg := testConfig()
	cfg.Enabled = false
	limiter := NewLimiter(client, cfg)

	allowed, _, err := limiter.Allow(context.Background(), "id")

	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestMiddleware_RejectsWithRetryAfter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	client, mockRedis := redismock.NewClientMock()
	cfg := testConfig()
	limiter := NewLimiter(client, cfg).WithNow(fixedClock())

	mockRedis.Regexp().ExpectIncr(`rl:.*`).SetVal(int64(cfg.Limit + 1))

	router := gin.New()
	router.POST("/verify", limiter.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/verify", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))
}

func TestMiddleware_AllowsUnderLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	client, mockRedis := redismock.NewClientMock()
	limiter := NewLimiter(client, testConfig()).WithNow(fixedClock())

	mockRedis.Regexp().ExpectIncr(`rl:.*`).SetVal(1)
	mockRedis.Regexp().ExpectExpire(`rl:.*`, 60*time.Second).SetVal(true)

	router := gin.New()
	router.POST("/verify", limiter.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/verify", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
