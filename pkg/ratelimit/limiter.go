package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/goattech/giftflow/pkg/common"
	"github.com/goattech/giftflow/pkg/config"
	"github.com/goattech/giftflow/pkg/logger"
)

// Limiter is a Redis-backed fixed-window request limiter. It protects
// high-abuse endpoints (code verification) on top of the persisted
// per-gift attempt budget.
type Limiter struct {
	client redis.Cmdable
	cfg    config.RateLimitConfig
	now    func() time.Time
}

// NewLimiter creates a limiter from configuration
func NewLimiter(client redis.Cmdable, cfg config.RateLimitConfig) *Limiter {
	return &Limiter{
		client: client,
		cfg:    cfg,
		now:    time.Now,
	}
}

// WithNow overrides the clock, for tests
func (l *Limiter) WithNow(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// key buckets requests into fixed windows per caller identity
func (l *Limiter) key(identity string) string {
	window := l.now().Unix() / int64(l.cfg.WindowSeconds)
	return fmt.Sprintf("%s:%s:%d", l.cfg.RedisPrefix, identity, window)
}

// Allow reports whether the identity may proceed in the current window.
// Redis failures fail open: the persisted attempt budget still bounds abuse.
func (l *Limiter) Allow(ctx context.Context, identity string) (bool, time.Duration, error) {
	if !l.cfg.Enabled || l.cfg.Limit <= 0 {
		return true, 0, nil
	}

	key := l.key(identity)
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return true, 0, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.cfg.Window()).Err(); err != nil {
			return true, 0, err
		}
	}

	if count > int64(l.cfg.Limit) {
		windowEnd := (l.now().Unix()/int64(l.cfg.WindowSeconds) + 1) * int64(l.cfg.WindowSeconds)
		retryAfter := time.Duration(windowEnd-l.now().Unix()) * time.Second
		return false, retryAfter, nil
	}

	return true, 0, nil
}

// Middleware returns a gin middleware keyed on client IP and route
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := c.ClientIP() + ":" + c.FullPath()

		allowed, retryAfter, err := l.Allow(c.Request.Context(), identity)
		if err != nil {
			logger.WithContext(c.Request.Context()).Warn("Rate limiter unavailable, allowing request",
				zap.Error(err))
		}
		if !allowed {
			c.Writer.Header().Set("Retry-After", fmt.Sprintf("%d", int(retryAfter.Seconds())))
			common.ErrorResponse(c, http.StatusTooManyRequests, "too many requests")
			c.Abort()
			return
		}

		c.Next()
	}
}
