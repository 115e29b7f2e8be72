package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Invoice reprint cache keys
const (
	InvoiceKeyFmt       = "invoice:%d"
	InvoicePeriodKeyFmt = "invoices:%s:%s"
)

// Cache is a thin Redis wrapper. A nil *Cache or one without a live client
// degrades to a permanent miss so callers never depend on Redis being up.
type Cache struct {
	client *redis.Client
}

// Options configures the Redis connection
type Options struct {
	Addr     string
	Password string
	DB       int
}

// New connects to Redis and pings it. On failure it returns a disabled cache
// together with the error, so the caller can log and keep going.
func New(ctx context.Context, opts Options) (*Cache, error) {
	if opts.Addr == "" {
		return &Cache{}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return &Cache{}, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return &Cache{client: client}, nil
}

// NewWithClient wraps an existing client
func NewWithClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Enabled reports whether a Redis client is attached
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// Get returns cached data for a key
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if !c.Enabled() {
		return nil, false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores data with a TTL
func (c *Cache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	c.client.Set(ctx, key, data, ttl)
}

// Delete removes specific cache keys
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	c.client.Del(ctx, keys...)
}

// InvalidatePattern removes all keys matching a glob pattern
func (c *Cache) InvalidatePattern(ctx context.Context, pattern string) {
	if !c.Enabled() {
		return
	}
	keys, err := c.client.Keys(ctx, pattern).Result()
	if err == nil && len(keys) > 0 {
		c.client.Del(ctx, keys...)
	}
}

// IsHealthy returns true if the Redis connection is working
func (c *Cache) IsHealthy(ctx context.Context) bool {
	if !c.Enabled() {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.client.Ping(ctx).Err() == nil
}

func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
