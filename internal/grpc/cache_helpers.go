package grpc

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/godilite/feedback-insights/internal/metrics"
)

type FetchFunc[T any] func(ctx context.Context) (T, error)

// CachePolicy decides what gets stored and when a hit is refreshed ahead of
// expiry. Nil funcs mean "always cache" and "never refresh".
type CachePolicy[T any] struct {
	Cacheable func(T) bool
	Stale     func(T) bool
}

func (p CachePolicy[T]) cacheable(v T) bool {
	return p.Cacheable == nil || p.Cacheable(v)
}

func (p CachePolicy[T]) stale(v T) bool {
	return p.Stale != nil && p.Stale(v)
}

const (
	defaultFetchTimeout = 45 * time.Second
	defaultSetTimeout   = 5 * time.Second
)

// addTTLJitter adds up to ±15s random jitter to TTL to avoid mass expiration.
func addTTLJitter(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return ttl
	}
	jitter := time.Duration(rand.Intn(30)-15) * time.Second
	if ttl+jitter <= 0 {
		return ttl
	}
	return ttl + jitter
}

// Generations counts invalidations per cache key. A value fetched under one
// generation is never left in the cache once the key has moved past it. The
// zero value is ready to use and a nil *Generations tracks nothing.
type Generations struct {
	mu sync.Mutex
	m  map[string]uint64
}

func (g *Generations) current(key string) uint64 {
	if g == nil {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.m[key]
}

// Invalidate advances the generation of every key. Call it before deleting
// the keys from the cache.
func (g *Generations) Invalidate(keys ...string) {
	if g == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.m == nil {
		g.m = make(map[string]uint64)
	}
	for _, k := range keys {
		g.m[k]++
	}
}

func storeInBackground[T any](c Cacher, gens *Generations, gen uint64, key string, value T, ttl time.Duration, logger *zap.Logger, reason string) {
	go func() {
		setCtx, cancel := context.WithTimeout(context.Background(), defaultSetTimeout)
		defer cancel()

		if gens.current(key) != gen {
			logger.Debug("discarding result fetched before invalidation", zap.String("key", key), zap.String("reason", reason))
			return
		}

		ttlWithJitter := addTTLJitter(ttl)
		if err := c.Set(setCtx, key, value, ttlWithJitter); err != nil {
			logger.Warn("failed to set cache", zap.String("key", key), zap.String("reason", reason), zap.Error(err))
			return
		}
		// An invalidation that landed while Set was in flight may have run its
		// Delete first.
		if gens.current(key) != gen {
			if err := c.Delete(setCtx, key); err != nil {
				logger.Warn("failed to drop stale cache entry", zap.String("key", key), zap.Error(err))
			}
			return
		}
		logger.Debug("cache populated",
			zap.String("key", key),
			zap.String("reason", reason),
			zap.Duration("ttl", ttlWithJitter))
	}()
}

func triggerBackgroundRefresh[T any](
	c Cacher,
	sf *singleflight.Group,
	gens *Generations,
	key string,
	ttl time.Duration,
	policy CachePolicy[T],
	logger *zap.Logger,
	fn FetchFunc[T],
) {
	go func() {
		time.Sleep(time.Duration(rand.Intn(1000)) * time.Millisecond)

		_, _, _ = sf.Do(key+":refresh", func() (any, error) {
			ctx, cancel := context.WithTimeout(context.Background(), defaultFetchTimeout)
			defer cancel()

			gen := gens.current(key)
			value, err := fn(ctx)
			if err != nil {
				logger.Warn("background refresh failed",
					zap.String("key", key),
					zap.Error(err))
				return nil, err
			}
			if policy.cacheable(value) {
				storeInBackground(c, gens, gen, key, value, ttl, logger, "refresh")
			}
			return value, nil
		})
	}()
}

// FindAndCache implements read-through caching with singleflight. A hit the
// policy reports as stale is served immediately and refreshed in the
// background; values the policy rejects are returned but never stored. A
// value whose key is invalidated through gens while it is being fetched is
// returned to the caller but not stored.
func FindAndCache[T any](
	ctx context.Context,
	c Cacher,
	sf *singleflight.Group,
	gens *Generations,
	key string,
	ttl time.Duration,
	policy CachePolicy[T],
	logger *zap.Logger,
	fn FetchFunc[T],
) (T, error) {
	var zero T
	if logger == nil {
		logger = zap.NewNop()
	}

	var cached T
	err := c.Get(ctx, key, &cached)
	switch {
	case err == nil:
		metrics.RecordCacheLookup("hit")
		logger.Debug("cache hit", zap.String("key", key))
		if policy.stale(cached) {
			triggerBackgroundRefresh(c, sf, gens, key, ttl, policy, logger, fn)
		}
		return cached, nil

	case errors.Is(err, redis.Nil):
		metrics.RecordCacheLookup("miss")
		logger.Debug("cache miss", zap.String("key", key))

	default:
		metrics.RecordCacheLookup("error")
		logger.Warn("cache get error (treating as miss)", zap.String("key", key), zap.Error(err))
	}

	v, err, shared := sf.Do(key, func() (any, error) {
		gen := gens.current(key)
		value, err := fn(ctx)
		if err != nil {
			logger.Error("fetch failed", zap.String("key", key), zap.Error(err))
			return zero, err
		}
		if policy.cacheable(value) {
			storeInBackground(c, gens, gen, key, value, ttl, logger, "miss")
		} else {
			logger.Debug("result not cached", zap.String("key", key))
		}
		return value, nil
	})
	if err != nil {
		return zero, err
	}

	value, ok := v.(T)
	if !ok {
		logger.Error("singleflight type mismatch", zap.String("key", key))
		return zero, fmt.Errorf("type mismatch for key %q", key)
	}

	if shared {
		logger.Debug("singleflight shared result", zap.String("key", key))
	}

	return value, nil
}
