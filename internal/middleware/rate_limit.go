package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiter counts requests per client IP in fixed windows kept in Redis.
// With a nil client every request passes.
type RateLimiter struct {
	client *redis.Client
	prefix string
	limit  int64
	period time.Duration
	log    *slog.Logger
}

func NewRateLimiter(client *redis.Client, prefix string, limit int, period time.Duration, log *slog.Logger) *RateLimiter {
	return &RateLimiter{client: client, prefix: prefix, limit: int64(limit), period: period, log: log}
}

func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.client == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := "rate_limit:" + rl.prefix + ":" + c.ClientIP()

		count, err := rl.client.Incr(ctx, key).Result()
		if err != nil {
			// Fail open: Redis trouble must not lock users out.
			rl.log.Warn("rate limiter unavailable", slog.Any("err", err))
			c.Next()
			return
		}

		// First hit in the window starts the clock.
		if count == 1 {
			if err := rl.client.Expire(ctx, key, rl.period).Err(); err != nil {
				rl.log.Warn("rate limiter expire failed", slog.Any("err", err))
			}
		}

		if count > rl.limit {
			c.Header("Retry-After", strconv.Itoa(int(rl.period.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}

		c.Next()
	}
}
