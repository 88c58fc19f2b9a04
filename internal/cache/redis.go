package cache

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig captures the connection parameters for the Redis cache.
type RedisConfig struct {
	Address   string
	Username  string
	Password  string
	DB        int
	TLS       bool
	Timeout   time.Duration
	KeyPrefix string
}

const defaultRedisTimeout = 5 * time.Second

// RedisClient implements Store on top of go-redis. The underlying client
// maintains its own connection pool and is safe for concurrent callers.
type RedisClient struct {
	client *redis.Client
	prefix string
}

// NewRedisClient creates a new Redis client. It eagerly pings the server so that
// misconfiguration is surfaced during application startup; ctx bounds that ping
// together with cfg.Timeout.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*RedisClient, error) {
	cfg.Address = strings.TrimSpace(cfg.Address)
	if cfg.Address == "" {
		return nil, errors.New("redis: address is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRedisTimeout
	}

	opts := &redis.Options{
		Addr:         cfg.Address,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ensureContext(ctx), cfg.Timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Address, err)
	}

	prefix := strings.TrimSuffix(normalizeKey(strings.TrimSpace(cfg.KeyPrefix)), ":")
	return &RedisClient{client: client, prefix: prefix}, nil
}

// Close releases the connection pool.
func (c *RedisClient) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Ping checks the server is reachable.
func (c *RedisClient) Ping(ctx context.Context) error {
	return c.client.Ping(ensureContext(ctx)).Err()
}

// Set stores a value with millisecond expiry semantics. A non-positive ttl stores without expiry.
func (c *RedisClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return c.client.Set(ensureContext(ctx), c.prefixed(key), value, ttl).Err()
}

// Get retrieves the value associated with a key.
func (c *RedisClient) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.client.Get(ensureContext(ctx), c.prefixed(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// TTL reports the remaining lifetime of key. Missing keys report zero.
func (c *RedisClient) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := c.client.PTTL(ensureContext(ctx), c.prefixed(key)).Result()
	if err != nil {
		return 0, err
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

// Delete removes one or more keys, ignoring missing keys.
func (c *RedisClient) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, 0, len(keys))
	for _, key := range keys {
		prefixed = append(prefixed, c.prefixed(key))
	}
	return c.client.Del(ensureContext(ctx), prefixed...).Err()
}

func (c *RedisClient) prefixed(key string) string {
	normalized := normalizeKey(key)
	if c.prefix == "" || strings.HasPrefix(normalized, c.prefix+":") {
		return normalized
	}
	return normalizeKey(c.prefix + ":" + normalized)
}

// normalizeKey collapses runs of ':' so "a::b" and "a:b" address the same entry.
func normalizeKey(key string) string {
	if key == "" {
		return key
	}
	var builder strings.Builder
	builder.Grow(len(key))
	prevColon := false
	for i := 0; i < len(key); i++ {
		ch := key[i]
		if ch == ':' {
			if prevColon {
				continue
			}
			prevColon = true
		} else {
			prevColon = false
		}
		builder.WriteByte(ch)
	}
	return builder.String()
}
