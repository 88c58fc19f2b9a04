package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 5000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)

	require.Equal(t, "mysql", cfg.Database.Driver)
	require.Equal(t, 100, cfg.Database.SeedCount)
	require.Equal(t, "127.0.0.1", cfg.Database.MySQL.Host)
	require.Equal(t, 5*time.Second, cfg.Database.ConnectTimeout)
	require.Equal(t, 3306, cfg.Database.MySQL.Port)

	require.Equal(t, 60*time.Second, cfg.Cache.TTL)
	require.True(t, cfg.Cache.Redis.Enabled)
	require.Equal(t, "127.0.0.1:6379", cfg.Cache.Redis.Address())
	require.Equal(t, 5*time.Second, cfg.Cache.Redis.Timeout)

	require.False(t, cfg.API.LegacyNotFoundStatus)
	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
	require.True(t, cfg.Monitoring.Health.Enabled)
	require.Equal(t, "@every 5m", cfg.Maintenance.CachePurgeSchedule)
}

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata"))
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, "console", cfg.Server.LogFormat)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, 25, cfg.Database.SeedCount)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 6543, cfg.Database.Postgres.Port)

	require.Equal(t, 90*time.Second, cfg.Cache.TTL)
	require.False(t, cfg.Cache.Redis.Enabled)
	require.Equal(t, "cache.example.com:6380", cfg.Cache.Redis.Address())
	require.Equal(t, "lookup", cfg.Cache.RedisClientConfig().KeyPrefix)

	require.True(t, cfg.API.LegacyNotFoundStatus)
	require.False(t, cfg.Monitoring.Health.Enabled)
	require.Equal(t, "@every 1m", cfg.Maintenance.CachePurgeSchedule)
}

func TestLoadConfigLegacyEnvironment(t *testing.T) {
	t.Setenv("MYSQL_HOST", "mysql.internal")
	t.Setenv("MYSQL_USER", "app")
	t.Setenv("MYSQL_PASSWORD", "pw")
	t.Setenv("MYSQL_DATABASE", "userdb")
	t.Setenv("REDIS_HOST", "redis.internal")
	t.Setenv("REDIS_PORT", "6390")
	t.Setenv("REDIS_PASSWORD", "redis-pw")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, "mysql.internal", cfg.Database.MySQL.Host)
	require.Equal(t, "app", cfg.Database.MySQL.Username)
	require.Equal(t, "pw", cfg.Database.MySQL.Password)
	require.Equal(t, "userdb", cfg.Database.MySQL.Database)

	redisCfg := cfg.Cache.RedisClientConfig()
	require.Equal(t, "redis.internal:6390", redisCfg.Address)
	require.Equal(t, "redis-pw", redisCfg.Password)
}

func TestLoadConfigPrefixedEnvironmentWins(t *testing.T) {
	t.Setenv("MYSQL_HOST", "legacy.internal")
	t.Setenv("USERLOOKUP_DATABASE_MYSQL_HOST", "prefixed.internal")
	t.Setenv("USERLOOKUP_CACHE_TTL", "2m")
	t.Setenv("USERLOOKUP_API_LEGACY_NOT_FOUND_STATUS", "true")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, "prefixed.internal", cfg.Database.MySQL.Host)
	require.Equal(t, 2*time.Minute, cfg.Cache.TTL)
	require.True(t, cfg.API.LegacyNotFoundStatus)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	content := []byte("server:\n  port: 70000\n  log_level: loud\ncache:\n  ttl: 0s\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))

	_, err := LoadConfig(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "config: invalid")
	require.Contains(t, err.Error(), "port")
	require.Contains(t, err.Error(), "log_level")
	require.Contains(t, err.Error(), "ttl")
}

func TestDatabaseClientConfig(t *testing.T) {
	cfg := DatabaseConfig{
		Driver:             "MySQL",
		SlowQueryThreshold: time.Second,
		ConnectTimeout:     3 * time.Second,
		MySQL: DBAuthConfig{
			Host:     " mysql.internal ",
			Port:     3307,
			Database: "userdb",
			Username: "app",
			Password: "pw",
		},
	}

	out := cfg.DatabaseClientConfig()
	require.Equal(t, "mysql", out.Driver)
	require.Equal(t, "mysql.internal", out.Host)
	require.Equal(t, 3307, out.Port)
	require.Equal(t, "userdb", out.Name)
	require.Equal(t, "app", out.User)
	require.Equal(t, "pw", out.Password)
	require.Equal(t, time.Second, out.SlowThreshold)
	require.Equal(t, 3*time.Second, out.Timeout)

	sqliteCfg := DatabaseConfig{Driver: "", Path: " ./data/x.sqlite "}.DatabaseClientConfig()
	require.Equal(t, "sqlite", sqliteCfg.Driver)
	require.Equal(t, "./data/x.sqlite", sqliteCfg.Path)
	require.Empty(t, sqliteCfg.Host)
}
