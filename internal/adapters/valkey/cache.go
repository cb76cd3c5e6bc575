package valkey

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// ErrCacheMiss is returned by Get when the key does not exist.
var ErrCacheMiss = errors.New("cache miss")

const defaultKeyPrefix = "sketchroute:"

// Cache implements ports.CacheService using Valkey (Redis-compatible).
type Cache struct {
	client valkey.Client
	prefix string
}

// Option tweaks the client options before connecting.
type Option func(*valkey.ClientOption)

// WithoutClientCache disables server-assisted client side caching, for
// servers that do not speak RESP3 tracking.
func WithoutClientCache() Option {
	return func(o *valkey.ClientOption) { o.DisableCache = true }
}

// New creates a new Valkey cache client.
func New(addr string, opts ...Option) (*Cache, error) {
	co := valkey.ClientOption{
		InitAddress: []string{addr},
	}
	for _, opt := range opts {
		opt(&co)
	}
	client, err := valkey.NewClient(co)
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &Cache{client: client, prefix: defaultKeyPrefix}, nil
}

func (c *Cache) key(k string) string { return c.prefix + k }

// Get retrieves a value by key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := c.client.Do(ctx, c.client.B().Get().Key(c.key(key)).Build())
	if err := cmd.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	return cmd.AsBytes()
}

// Set stores a value with a TTL in seconds. A non-positive TTL stores the
// value without expiry.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	if ttlSeconds <= 0 {
		return c.client.Do(ctx, c.client.B().Set().Key(c.key(key)).Value(string(value)).Build()).Error()
	}
	cmd := c.client.Do(ctx,
		c.client.B().Set().Key(c.key(key)).Value(string(value)).Ex(time.Duration(ttlSeconds)*time.Second).Build(),
	)
	return cmd.Error()
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	cmd := c.client.Do(ctx, c.client.B().Del().Key(c.key(key)).Build())
	return cmd.Error()
}

// Ping checks the connection for readiness probes.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}

// Close releases the client.
func (c *Cache) Close() {
	c.client.Close()
}
