package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/userlookup/internal/api"
	"github.com/charlesng35/userlookup/internal/app"
	"github.com/charlesng35/userlookup/internal/app/maintenance"
	"github.com/charlesng35/userlookup/internal/cache"
	"github.com/charlesng35/userlookup/internal/database"
	"github.com/charlesng35/userlookup/internal/monitoring"
	"github.com/charlesng35/userlookup/internal/monitoring/checks"
	"github.com/charlesng35/userlookup/internal/services"
	"github.com/charlesng35/userlookup/pkg/logger"
)

const (
	cacheBackendRedis    = "redis"
	cacheBackendDatabase = "database"

	probeTimeout = 2 * time.Second
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB           *gorm.DB
	Redis        *cache.RedisClient
	Cache        cache.Store
	CacheBackend string
	Monitoring   *monitoring.Module
	Cleaner      *maintenance.Cleaner
	Router       *gin.Engine
}

// bootstrapRuntime initialises the database, cache, monitoring, and the HTTP router.
// An unreachable database aborts startup; an unreachable Redis does not.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			_ = stack.Shutdown(context.Background(), log)
		}
	}()

	// enable gin debug mod
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Monitoring.Prometheus.Enabled || cfg.Monitoring.Health.Enabled {
		stack.Monitoring, err = monitoring.NewModule(monitoring.Options{})
		if err != nil {
			return nil, fmt.Errorf("initialise monitoring: %w", err)
		}
		monitoring.SetModule(stack.Monitoring)
	}

	dbStore := cache.NewDatabaseStore(stack.DB)
	stack.Cache, stack.CacheBackend = dbStore, cacheBackendDatabase

	if cfg.Cache.Redis.Enabled {
		client, redisErr := cache.NewRedisClient(ctx, cfg.Cache.RedisClientConfig())
		if redisErr != nil {
			log.Warn("redis unavailable; falling back to database-backed cache", zap.Error(redisErr))
		} else {
			stack.Redis = client
			stack.Cache, stack.CacheBackend = client, cacheBackendRedis
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address()))
		}
	}

	var cleanerOpts []maintenance.Option
	if stack.CacheBackend == cacheBackendDatabase {
		cleanerOpts = append(cleanerOpts, maintenance.WithCachePurge(dbStore, cfg.Maintenance.CachePurgeSchedule))
	}
	stack.Cleaner = maintenance.NewCleaner(cleanerOpts...)
	if err := stack.Cleaner.Start(); err != nil {
		return nil, fmt.Errorf("start maintenance jobs: %w", err)
	}

	registerHealthChecks(stack)

	stack.Router, err = api.NewRouter(stack.DB, stack.Cache, cfg, stack.Monitoring)
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	log.Info("runtime ready",
		zap.String("cache_backend", stack.CacheBackend),
		zap.Duration("cache_ttl", cfg.Cache.TTL),
	)

	success = true
	return stack, nil
}

func registerHealthChecks(stack *runtimeStack) {
	if stack.Monitoring == nil {
		return
	}
	health := stack.Monitoring.Health()
	health.RegisterReadiness(checks.Database(stack.DB, probeTimeout))
	health.RegisterReadiness(checks.Cache(stack.Cache, stack.CacheBackend, probeTimeout))
	if stack.Cleaner.Enabled() {
		health.RegisterReadiness(checks.Maintenance(0))
	}
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) error {
	if s == nil {
		return nil
	}

	var errs error

	if s.Cleaner != nil {
		stopCtx := s.Cleaner.Stop()
		if stopCtx != nil {
			<-stopCtx.Done()
		}
		if err := s.Cleaner.RunOnce(ctx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
		s.Cleaner = nil
	}

	if s.Redis != nil {
		errs = multierr.Append(errs, s.Redis.Close())
		s.Redis = nil
	}

	if s.DB != nil {
		errs = multierr.Append(errs, closeDatabase(s.DB))
		s.DB = nil
	}

	if s.Monitoring != nil && monitoring.CurrentModule() == s.Monitoring {
		monitoring.SetModule(nil)
	}

	return errs
}

func initialiseDatabase(ctx context.Context, cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.DatabaseClientConfig()
	db, err := database.Open(dbCfg)
	if err != nil {
		if database.IsUnavailable(err) {
			err = services.ErrStoreUnavailable.WithInternal(err)
		}
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db.WithContext(ctx), cfg.Database.SeedCount); err != nil {
		_ = closeDatabase(db)
		return nil, fmt.Errorf("bootstrap database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected",
		zap.String("driver", dbCfg.Driver),
		zap.Int("seed_count", cfg.Database.SeedCount),
	)

	return db, nil
}

func closeDatabase(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("obtain sql db: %w", err)
	}
	return sqlDB.Close()
}
