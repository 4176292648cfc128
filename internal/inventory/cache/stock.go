package cache

import (
	"context"
	"strconv"
	"time"

	rd "github.com/redis/go-redis/v9"

	"github.com/tair/order-fulfillment/pkg/logger"
	rediskey "github.com/tair/order-fulfillment/pkg/redis"
)

// RedisStockCache caches current-stock values behind a short TTL. The cache
// is advisory: misses and redis failures fall through to the ledger, and
// every movement invalidates the product's entry.
type RedisStockCache struct {
	client *rd.Client
	ttl    time.Duration
}

func NewRedisStockCache(client *rd.Client, ttl time.Duration) *RedisStockCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisStockCache{client: client, ttl: ttl}
}

func (c *RedisStockCache) Get(ctx context.Context, productID uint) (int64, bool) {
	val, err := c.client.Get(ctx, rediskey.StockKey(productID)).Result()
	if err != nil {
		if err != rd.Nil {
			logger.Warn(ctx).Err(err).Uint("product_id", productID).Msg("Stock cache read failed")
		}
		return 0, false
	}
	stock, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return stock, true
}

func (c *RedisStockCache) Set(ctx context.Context, productID uint, stock int64) {
	pipe := c.client.Pipeline()
	pipe.Set(ctx, rediskey.StockKey(productID), stock, c.ttl)
	pipe.Set(ctx, rediskey.AvailabilityKey(productID), stock > 0, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warn(ctx).Err(err).Uint("product_id", productID).Msg("Stock cache write failed")
	}
}

func (c *RedisStockCache) Invalidate(ctx context.Context, productID uint) {
	keys := []string{rediskey.StockKey(productID), rediskey.AvailabilityKey(productID)}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logger.Warn(ctx).Err(err).Uint("product_id", productID).Msg("Stock cache invalidation failed")
	}
}
