package testutil

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/userlookup/internal/api"
	"github.com/charlesng35/userlookup/internal/app"
	"github.com/charlesng35/userlookup/internal/cache"
	sharedtestutil "github.com/charlesng35/userlookup/internal/database/testutil"
	"github.com/charlesng35/userlookup/internal/monitoring"
	"github.com/charlesng35/userlookup/internal/monitoring/checks"
)

// Env encapsulates a fully-wired API instance backed by an in-memory database
// and a miniredis cache for handler tests.
type Env struct {
	T          *testing.T
	DB         *gorm.DB
	Redis      *miniredis.Miniredis
	Cache      *cache.RedisClient
	Monitoring *monitoring.Module
	Config     *app.Config
	Router     *gin.Engine
}

// EnvOption customises the environment before the router is built.
type EnvOption func(*envConfig)

type envConfig struct {
	seed int
	cfg  func(*app.Config)
}

// WithSeed overrides the number of seeded users (default 100).
func WithSeed(n int) EnvOption {
	return func(c *envConfig) { c.seed = n }
}

// WithConfig mutates the application config used to build the router.
func WithConfig(fn func(*app.Config)) EnvOption {
	return func(c *envConfig) { c.cfg = fn }
}

// NewEnv provisions a fresh handler test environment with migrations and seed data applied.
func NewEnv(t *testing.T, opts ...EnvOption) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	ec := envConfig{seed: 100}
	for _, opt := range opts {
		opt(&ec)
	}

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithSeedUsers(ec.seed))

	srv := miniredis.RunT(t)
	client, err := cache.NewRedisClient(context.Background(), cache.RedisConfig{Address: srv.Addr(), Timeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	cfg := &app.Config{
		Cache: app.CacheConfig{TTL: 60 * time.Second},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
			Health:     app.HealthConfig{Enabled: true},
		},
	}
	if ec.cfg != nil {
		ec.cfg(cfg)
	}

	mod, err := monitoring.NewModule(monitoring.Options{DisableGoCollector: true, DisableProcessCollector: true})
	require.NoError(t, err)
	mod.Health().RegisterReadiness(checks.Database(db, time.Second))
	mod.Health().RegisterReadiness(checks.Cache(client, "redis", time.Second))

	router, err := api.NewRouter(db, client, cfg, mod)
	require.NoError(t, err)

	return &Env{
		T:          t,
		DB:         db,
		Redis:      srv,
		Cache:      client,
		Monitoring: mod,
		Config:     cfg,
		Router:     router,
	}
}

// LookupResponse mirrors the payload written by the read endpoints.
type LookupResponse struct {
	Source    string          `json:"source"`
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error"`
	Code      string          `json:"code"`
	LatencyMS *float64        `json:"latency_ms"`
}

// DecodeResponse parses the lookup payload from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) LookupResponse {
	t.Helper()
	var resp LookupResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes a request against the test router.
func (e *Env) Request(method, path string) *httptest.ResponseRecorder {
	e.T.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	e.Router.ServeHTTP(w, req)
	return w
}
