package cache

import (
	"context"
	"testing"

	"github.com/andresuchdata/stockforecast/internal/config"
	"github.com/andresuchdata/stockforecast/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForecastKeyFingerprint(t *testing.T) {
	a := domain.Product{ID: 7, Stock: 129, Price: 6.5}
	assert.Equal(t, "forecast:product:7:129:6.50", forecastKey(a))

	// Stock and price changes produce different keys, so stale entries
	// miss instead of being served.
	b := a
	b.Stock = 100
	assert.NotEqual(t, forecastKey(a), forecastKey(b))

	c := a
	c.Price = 7.0
	assert.NotEqual(t, forecastKey(a), forecastKey(c))
}

func TestNoopCache(t *testing.T) {
	c := NewNoopForecastCache()
	product := domain.Product{ID: 1, Stock: 10, Price: 5}

	_, ok, err := c.Get(context.Background(), product)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(context.Background(), product, &domain.Forecast{Days: 24}))
	require.NoError(t, c.Invalidate(context.Background(), 1))

	// Still a miss after Set: the noop cache never stores anything.
	_, ok, err = c.Get(context.Background(), product)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewForecastCacheDisabled(t *testing.T) {
	c, err := NewForecastCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)

	_, ok, err := c.Get(context.Background(), domain.Product{ID: 1})
	require.NoError(t, err)
	assert.False(t, ok, "disabled cache degrades to the noop implementation")
}

func TestBuildRedisOptions(t *testing.T) {
	t.Run("from url", func(t *testing.T) {
		opts, err := buildRedisOptions(config.CacheConfig{RedisURL: "redis://:secret@cache.internal:6380/2"})
		require.NoError(t, err)
		assert.Equal(t, "cache.internal:6380", opts.Addr)
		assert.Equal(t, "secret", opts.Password)
		assert.Equal(t, 2, opts.DB)
	})

	t.Run("from host and port", func(t *testing.T) {
		opts, err := buildRedisOptions(config.CacheConfig{RedisHost: "10.0.0.5", RedisPort: "6379", RedisDB: 1})
		require.NoError(t, err)
		assert.Equal(t, "10.0.0.5:6379", opts.Addr)
		assert.Equal(t, 1, opts.DB)
	})

	t.Run("defaults", func(t *testing.T) {
		opts, err := buildRedisOptions(config.CacheConfig{})
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:6379", opts.Addr)
	})

	t.Run("bad url", func(t *testing.T) {
		_, err := buildRedisOptions(config.CacheConfig{RedisURL: "::not-a-url"})
		assert.Error(t, err)
	})
}
