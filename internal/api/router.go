package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/userlookup/internal/app"
	"github.com/charlesng35/userlookup/internal/cache"
	"github.com/charlesng35/userlookup/internal/handlers"
	"github.com/charlesng35/userlookup/internal/middleware"
	"github.com/charlesng35/userlookup/internal/monitoring"
	"github.com/charlesng35/userlookup/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers the read
// endpoints. A nil cacheStore sends every read to the database.
func NewRouter(db *gorm.DB, cacheStore cache.Store, cfg *app.Config, mon *monitoring.Module) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())

	registerHealthRoutes(r, cfg, mon)

	store, err := services.NewGormUserStore(db)
	if err != nil {
		return nil, err
	}
	lookup, err := services.NewUserLookupService(store, cacheStore, services.WithCacheTTL(cfg.Cache.TTL))
	if err != nil {
		return nil, err
	}
	userHandler, err := handlers.NewUserHandler(lookup, handlers.WithLegacyNotFoundStatus(cfg.API.LegacyNotFoundStatus))
	if err != nil {
		return nil, err
	}
	registerUserRoutes(r, userHandler)

	registerMonitoringRoutes(r, handlers.NewMonitoringHandler(mon, cfg))

	// Metrics endpoint
	if cfg.Monitoring.Prometheus.Enabled && mon != nil {
		r.GET(cfg.Monitoring.Prometheus.Endpoint, gin.WrapH(mon.Handler()))
	}

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
