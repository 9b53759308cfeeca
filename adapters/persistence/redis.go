package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lareyna/reyna-api/internal/application/service"
	"github.com/lareyna/reyna-api/internal/config"
	"github.com/lareyna/reyna-api/internal/domain/product"
	"github.com/lareyna/reyna-api/pkg/logger"
)

func NewRedisClient(ctx context.Context, cfg config.Config, log logger.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("can not connect Redis: %w", err)
	}

	log.Info("Connect Redis successfully.", zap.String("addr", cfg.Redis.Addr))
	return rdb, nil
}

const productGenerationKey = "products:gen"

// redisProductCache keys every listing by a generation number. Invalidate
// bumps the generation so all earlier entries become unreachable and expire
// on their own TTL.
type redisProductCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisProductCache(rdb *redis.Client, ttl time.Duration) service.ProductCache {
	return &redisProductCache{rdb: rdb, ttl: ttl}
}

func (c *redisProductCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, productGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func entryKey(gen int64, listKey string) string {
	return fmt.Sprintf("products:%d:%s", gen, listKey)
}

func (c *redisProductCache) GetList(ctx context.Context, gen int64, listKey string) ([]*product.Product, bool, error) {
	raw, err := c.rdb.Get(ctx, entryKey(gen, listKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var products []*product.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, false, fmt.Errorf("decode cached products: %w", err)
	}
	return products, true, nil
}

// SetList stores under the generation the caller read before querying, so
// a listing computed before an Invalidate is never visible afterwards.
func (c *redisProductCache) SetList(ctx context.Context, gen int64, listKey string, products []*product.Product) error {
	raw, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("encode products for cache: %w", err)
	}
	return c.rdb.Set(ctx, entryKey(gen, listKey), raw, c.ttl).Err()
}

func (c *redisProductCache) Invalidate(ctx context.Context) error {
	return c.rdb.Incr(ctx, productGenerationKey).Err()
}
