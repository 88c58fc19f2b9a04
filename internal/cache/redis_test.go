package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T, prefix string) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), RedisConfig{Address: srv.Addr(), KeyPrefix: prefix, Timeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, srv
}

func TestNewRedisClientRequiresAddress(t *testing.T) {
	_, err := NewRedisClient(context.Background(), RedisConfig{Address: "  "})
	require.EqualError(t, err, "redis: address is required")
}

func TestNewRedisClientFailsWhenUnreachable(t *testing.T) {
	srv := miniredis.RunT(t)
	addr := srv.Addr()
	srv.Close()

	_, err := NewRedisClient(context.Background(), RedisConfig{Address: addr, Timeout: 200 * time.Millisecond})
	require.Error(t, err)
	require.Contains(t, err.Error(), "redis: ping")
}

func TestNewRedisClientHonoursContext(t *testing.T) {
	srv := miniredis.RunT(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRedisClient(ctx, RedisConfig{Address: srv.Addr(), Timeout: time.Second})
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewRedisClientAuthenticates(t *testing.T) {
	srv := miniredis.RunT(t)
	srv.RequireAuth("s3cret")

	_, err := NewRedisClient(context.Background(), RedisConfig{Address: srv.Addr(), Password: "wrong", Timeout: time.Second})
	require.Error(t, err)

	client, err := NewRedisClient(context.Background(), RedisConfig{Address: srv.Addr(), Password: "s3cret", Timeout: time.Second})
	require.NoError(t, err)
	require.NoError(t, client.Close())
}

func TestRedisSetGetWithExpiry(t *testing.T) {
	ctx := context.Background()
	client, srv := newTestRedis(t, "")

	require.NoError(t, client.Set(ctx, "user:1", []byte(`{"id":1}`), time.Minute))

	value, ok, err := client.Get(ctx, "user:1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"id":1}`, string(value))

	raw, err := srv.Get("user:1")
	require.NoError(t, err)
	require.Equal(t, `{"id":1}`, raw)
	require.Equal(t, time.Minute, srv.TTL("user:1"))

	ttl, err := client.TTL(ctx, "user:1")
	require.NoError(t, err)
	require.Equal(t, time.Minute, ttl)

	srv.FastForward(61 * time.Second)

	_, ok, err = client.Get(ctx, "user:1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisGetMissingKey(t *testing.T) {
	client, _ := newTestRedis(t, "")

	value, ok, err := client.Get(context.Background(), "all_users")
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, value)
}

func TestRedisKeyPrefixAndNormalisation(t *testing.T) {
	ctx := context.Background()
	client, srv := newTestRedis(t, "lookup:")

	require.NoError(t, client.Set(ctx, "user::7", []byte("x"), time.Minute))
	require.True(t, srv.Exists("lookup:user:7"))

	// Already-prefixed keys are not prefixed twice.
	value, ok, err := client.Get(ctx, "lookup:user:7")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "x", string(value))

	require.NoError(t, client.Delete(ctx, "user:7", "missing"))
	require.False(t, srv.Exists("lookup:user:7"))
}

func TestRedisGetErrorWhenServerDown(t *testing.T) {
	client, srv := newTestRedis(t, "")
	srv.Close()

	_, _, err := client.Get(context.Background(), "user:1")
	require.Error(t, err)
	require.Error(t, client.Ping(context.Background()))
}

func TestNormalizeKey(t *testing.T) {
	require.Equal(t, "", normalizeKey(""))
	require.Equal(t, "a:b:c", normalizeKey("a::b:::c"))
	require.Equal(t, "all_users", normalizeKey("all_users"))
}
