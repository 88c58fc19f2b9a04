package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/charlesng35/userlookup/pkg/validator"
)

// Config represents the runtime configuration for the lookup service.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Cache       CacheConfig       `mapstructure:"cache"`
	API         APIConfig         `mapstructure:"api"`
	Monitoring  MonitoringConfig  `mapstructure:"monitoring"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	LogLevel        string        `mapstructure:"log_level" validate:"loglevel"`
	LogFormat       string        `mapstructure:"log_format" validate:"omitempty,oneof=json console"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver             string        `mapstructure:"driver" validate:"oneof=mysql postgres sqlite"`
	Path               string        `mapstructure:"path"`
	DSN                string        `mapstructure:"dsn"`
	SeedCount          int           `mapstructure:"seed_count" validate:"gte=0"`
	SlowQueryThreshold time.Duration `mapstructure:"slow_query_threshold" validate:"gte=0"`
	ConnectTimeout     time.Duration `mapstructure:"connect_timeout" validate:"gte=0"`
	MySQL              DBAuthConfig  `mapstructure:"mysql"`
	Postgres           DBAuthConfig  `mapstructure:"postgres"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port" validate:"gte=0,lte=65535"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// CacheConfig describes the cache-aside layer.
type CacheConfig struct {
	TTL   time.Duration    `mapstructure:"ttl" validate:"gt=0"`
	Redis RedisCacheConfig `mapstructure:"redis"`
}

// RedisCacheConfig holds Redis connection options.
type RedisCacheConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Host      string        `mapstructure:"host"`
	Port      int           `mapstructure:"port" validate:"gte=0,lte=65535"`
	Username  string        `mapstructure:"username"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db" validate:"gte=0"`
	TLS       bool          `mapstructure:"tls"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gte=0"`
	KeyPrefix string        `mapstructure:"key_prefix"`
}

// APIConfig tunes the HTTP payload contract.
type APIConfig struct {
	// LegacyNotFoundStatus answers misses with 200 instead of 404 for clients
	// that only inspect the error field.
	LegacyNotFoundStatus bool `mapstructure:"legacy_not_found_status"`
}

// MonitoringConfig enables health checks and metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Health     HealthConfig     `mapstructure:"health"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,startswith=/"`
}

// HealthConfig toggles health endpoints.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// MaintenanceConfig schedules background housekeeping.
type MaintenanceConfig struct {
	CachePurgeSchedule string `mapstructure:"cache_purge_schedule"`
}

// legacyEnv maps config keys to the bare environment variables the service
// has always been deployed with.
var legacyEnv = map[string]string{
	"database.mysql.host":     "MYSQL_HOST",
	"database.mysql.username": "MYSQL_USER",
	"database.mysql.password": "MYSQL_PASSWORD",
	"database.mysql.database": "MYSQL_DATABASE",
	"cache.redis.host":        "REDIS_HOST",
	"cache.redis.port":        "REDIS_PORT",
	"cache.redis.password":    "REDIS_PASSWORD",
}

const envPrefix = "USERLOOKUP"

// LoadConfig initialises application configuration using Viper with sensible defaults.
// Prefixed variables (USERLOOKUP_DATABASE_MYSQL_HOST) win over the legacy names (MYSQL_HOST).
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("config: bind env %s: %w", legacy, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	config.normalise()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the configuration against its declared constraints.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config: nil")
	}
	if err := validator.ValidateStruct(c); err != nil {
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}

func (c *Config) normalise() {
	driver := strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if driver == "postgresql" {
		driver = "postgres"
	}
	c.Database.Driver = driver
	c.Database.Path = strings.TrimSpace(c.Database.Path)
	c.Database.DSN = strings.TrimSpace(c.Database.DSN)
	c.Server.LogLevel = strings.ToLower(strings.TrimSpace(c.Server.LogLevel))
	c.Server.LogFormat = strings.ToLower(strings.TrimSpace(c.Server.LogFormat))
	c.Monitoring.Prometheus.Endpoint = strings.TrimSpace(c.Monitoring.Prometheus.Endpoint)
	if c.Monitoring.Prometheus.Endpoint == "" {
		c.Monitoring.Prometheus.Endpoint = "/metrics"
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "json")
	v.SetDefault("server.shutdown_timeout", "15s")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.path", "./data/userlookup.sqlite")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.seed_count", 100)
	v.SetDefault("database.slow_query_threshold", "200ms")
	v.SetDefault("database.connect_timeout", "5s")
	v.SetDefault("database.mysql.host", "127.0.0.1")
	v.SetDefault("database.mysql.port", 3306)
	v.SetDefault("database.mysql.database", "")
	v.SetDefault("database.mysql.username", "")
	v.SetDefault("database.mysql.password", "")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.database", "")
	v.SetDefault("database.postgres.username", "")
	v.SetDefault("database.postgres.password", "")

	v.SetDefault("cache.ttl", "60s")
	v.SetDefault("cache.redis.enabled", true)
	v.SetDefault("cache.redis.host", "127.0.0.1")
	v.SetDefault("cache.redis.port", 6379)
	v.SetDefault("cache.redis.username", "")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.tls", false)
	v.SetDefault("cache.redis.timeout", "5s")
	v.SetDefault("cache.redis.key_prefix", "")

	v.SetDefault("api.legacy_not_found_status", false)

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")
	v.SetDefault("monitoring.health.enabled", true)

	v.SetDefault("maintenance.cache_purge_schedule", "@every 5m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
