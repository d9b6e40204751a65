package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/andresuchdata/stockforecast/internal/config"
	"github.com/andresuchdata/stockforecast/internal/domain"
	"github.com/redis/go-redis/v9"
)

const forecastKeyPrefix = "forecast:product"

// ForecastCache memoizes computed forecasts per product. A forecast is
// keyed by product id plus a stock/price fingerprint so catalog edits and
// accepted orders naturally miss instead of serving stale estimates.
type ForecastCache interface {
	Get(ctx context.Context, product domain.Product) (*domain.Forecast, bool, error)
	Set(ctx context.Context, product domain.Product, forecast *domain.Forecast) error
	Invalidate(ctx context.Context, productID int64) error
}

type redisForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopForecastCache struct{}

func NewForecastCache(cfg config.CacheConfig) (ForecastCache, error) {
	if !cfg.Enabled {
		return &noopForecastCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisForecastCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

func (c *redisForecastCache) Get(ctx context.Context, product domain.Product) (*domain.Forecast, bool, error) {
	payload, err := c.client.Get(ctx, forecastKey(product)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var forecast domain.Forecast
	if err := json.Unmarshal(payload, &forecast); err != nil {
		return nil, false, fmt.Errorf("decode forecast cache: %w", err)
	}

	return &forecast, true, nil
}

func (c *redisForecastCache) Set(ctx context.Context, product domain.Product, forecast *domain.Forecast) error {
	payload, err := json.Marshal(forecast)
	if err != nil {
		return fmt.Errorf("encode forecast cache: %w", err)
	}

	if err := c.client.Set(ctx, forecastKey(product), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisForecastCache) Invalidate(ctx context.Context, productID int64) error {
	pattern := fmt.Sprintf("%s:%d:*", forecastKeyPrefix, productID)

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("redis scan failed: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis delete failed: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return nil
}

func (n *noopForecastCache) Get(ctx context.Context, product domain.Product) (*domain.Forecast, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) Set(ctx context.Context, product domain.Product, forecast *domain.Forecast) error {
	return nil
}

func (n *noopForecastCache) Invalidate(ctx context.Context, productID int64) error {
	return nil
}

func forecastKey(product domain.Product) string {
	return fmt.Sprintf("%s:%d:%d:%.2f", forecastKeyPrefix, product.ID, product.Stock, product.Price)
}
