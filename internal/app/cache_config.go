package app

import (
	"net"
	"strconv"
	"strings"

	"github.com/charlesng35/userlookup/internal/cache"
)

// Address joins the configured Redis host and port.
func (c RedisCacheConfig) Address() string {
	host := strings.TrimSpace(c.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := c.Port
	if port == 0 {
		port = 6379
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// RedisClientConfig converts the application cache configuration into the cache package representation.
func (c CacheConfig) RedisClientConfig() cache.RedisConfig {
	return cache.RedisConfig{
		Address:   c.Redis.Address(),
		Username:  strings.TrimSpace(c.Redis.Username),
		Password:  c.Redis.Password,
		DB:        c.Redis.DB,
		TLS:       c.Redis.TLS,
		Timeout:   c.Redis.Timeout,
		KeyPrefix: strings.TrimSpace(c.Redis.KeyPrefix),
	}
}
