package mocks

import (
	"context"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// NoopCache never holds anything.
type NoopCache struct{}

func (c *NoopCache) Get(ctx context.Context, key string, dest any) error {
	return redis.Nil
}

func (c *NoopCache) Set(ctx context.Context, key string, value any, exp time.Duration) error {
	return nil
}

func (c *NoopCache) Delete(ctx context.Context, keys ...string) error {
	return nil
}

func (c *NoopCache) Close() error {
	return nil
}

// TrackingCache stores JSON like the Redis cache does and counts calls.
type TrackingCache struct {
	mu          sync.Mutex
	getCalls    int
	setCalls    int
	deleteCalls int
	data        map[string]CacheEntry
}

type CacheEntry struct {
	Value  []byte
	Expiry time.Time
}

func NewTrackingCache() *TrackingCache {
	return &TrackingCache{
		data: make(map[string]CacheEntry),
	}
}

func (c *TrackingCache) Get(ctx context.Context, key string, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.getCalls++
	entry, exists := c.data[key]
	if !exists || !time.Now().Before(entry.Expiry) {
		return redis.Nil
	}
	return json.Unmarshal(entry.Value, dest)
}

func (c *TrackingCache) Set(ctx context.Context, key string, value any, exp time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.setCalls++
	c.data[key] = CacheEntry{
		Value:  data,
		Expiry: time.Now().Add(exp),
	}
	return nil
}

func (c *TrackingCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.deleteCalls++
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *TrackingCache) Close() error {
	return nil
}

// Has reports whether key is cached and unexpired.
func (c *TrackingCache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.data[key]
	return ok && time.Now().Before(entry.Expiry)
}

func (c *TrackingCache) Calls() (gets, sets, deletes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getCalls, c.setCalls, c.deleteCalls
}
