// Package cache provides a Redis-backed cache of computed feature vectors.
// Keys are derived from the model name and the full input sequence, so a
// cached vector is returned only for a bit-identical request. A singleflight
// group collapses concurrent identical computations.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/lhnows1/textvec/pkg/config"
	"github.com/lhnows1/textvec/pkg/logger"
	"github.com/lhnows1/textvec/pkg/metrics"
	pkgredis "github.com/lhnows1/textvec/pkg/redis"
)

const keyPrefix = "vector:"

// VectorCache caches feature vectors in Redis.
type VectorCache struct {
	client  *pkgredis.Client
	cfg     config.RedisConfig
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New creates a VectorCache backed by the given Redis client. m may be nil;
// hit/miss counts are then kept only in the local Stats counters.
func New(client *pkgredis.Client, cfg config.RedisConfig, m *metrics.Metrics) *VectorCache {
	return &VectorCache{
		client:  client,
		cfg:     cfg,
		metrics: m,
		logger:  logger.WithComponent("vector-cache"),
	}
}

// KeyInt64s builds the cache key for an integer token sequence.
func KeyInt64s(model string, tokens []int64) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	var b [8]byte
	for _, t := range tokens {
		binary.LittleEndian.PutUint64(b[:], uint64(t))
		h.Write(b[:])
	}
	return fmt.Sprintf("%s%x", keyPrefix, h.Sum(nil)[:16])
}

// KeyStrings builds the cache key for a text token sequence.
func KeyStrings(model string, tokens []string) string {
	h := sha256.New()
	h.Write([]byte(model))
	for _, t := range tokens {
		h.Write([]byte{0})
		h.Write([]byte(t))
	}
	return fmt.Sprintf("%s%x", keyPrefix, h.Sum(nil)[:16])
}

// Get returns the cached vector for key, if present.
func (c *VectorCache) Get(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return nil, false
	}
	var vector []float32
	if err := json.Unmarshal([]byte(data), &vector); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hit()
	return vector, true
}

func (c *VectorCache) hit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *VectorCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// Set stores a vector under key with the configured TTL.
func (c *VectorCache) Set(ctx context.Context, key string, vector []float32) {
	data, err := json.Marshal(vector)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached vector for key, computing and storing it
// on a miss. The second return reports whether the value came from the
// cache.
func (c *VectorCache) GetOrCompute(
	ctx context.Context,
	key string,
	computeFn func() ([]float32, error),
) ([]float32, bool, error) {
	if vector, ok := c.Get(ctx, key); ok {
		return vector, true, nil
	}
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if vector, ok := c.Get(ctx, key); ok {
			return vector, nil
		}
		vector, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, key, vector)
		return vector, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]float32), false, nil
}

// Invalidate deletes every cached vector.
func (c *VectorCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating vector cache: %w", err)
	}
	c.logger.Info("cache invalidate", "keys_deleted", deleted)
	return nil
}

// Stats returns the hit and miss counters.
func (c *VectorCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
