package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/ignatzorin/household-backend/internal/http/response"
)

const rateLimitPrefix = "household:limiter"

// NewRateLimitStore возвращает redis-хранилище счётчиков, если клиент задан, иначе in-memory.
func NewRateLimitStore(rdb *redis.Client) (limiter.Store, error) {
	if rdb == nil {
		return memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          rateLimitPrefix,
			CleanUpInterval: limiter.DefaultCleanUpInterval,
		}), nil
	}
	store, err := sredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: rateLimitPrefix})
	if err != nil {
		return nil, fmt.Errorf("rate limit: redis store: %w", err)
	}
	return store, nil
}

// RateLimitMiddleware создаёт middleware для ограничения количества запросов.
// По умолчанию: 10 запросов в минуту с одного IP.
func RateLimitMiddleware(store limiter.Store, limit int64, period time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		limit = 10
	}
	if period <= 0 {
		period = 1 * time.Minute
	}
	if store == nil {
		store = memory.NewStore()
	}

	instance := limiter.New(store, limiter.Rate{
		Period: period,
		Limit:  limit,
	})

	return func(c *gin.Context) {
		key := c.ClientIP()
		lctx, err := instance.Get(c, key)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", lctx.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", lctx.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", lctx.Reset))

		if lctx.Reached {
			response.TooManyRequests(c, "слишком много запросов, попробуйте позже")
			return
		}

		c.Next()
	}
}
