package monitoring_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/userlookup/internal/monitoring"
	"github.com/charlesng35/userlookup/internal/monitoring/checks"
)

func setupModule(t *testing.T) *monitoring.Module {
	t.Helper()

	mod, err := monitoring.NewModule(monitoring.Options{DisableProcessCollector: true})
	require.NoError(t, err)
	monitoring.SetModule(mod)
	t.Cleanup(func() { monitoring.SetModule(nil) })
	return mod
}

func TestSummaryAggregatesCacheLookups(t *testing.T) {
	setupModule(t)

	monitoring.RecordCacheLookup("user", monitoring.CacheHit)
	monitoring.RecordCacheLookup("user", monitoring.CacheHit)
	monitoring.RecordCacheLookup("user", monitoring.CacheHit)
	monitoring.RecordCacheLookup("all_users", monitoring.CacheMiss)
	monitoring.RecordCacheLookup("user", monitoring.CacheError)
	monitoring.RecordCacheWriteFailure("user")
	monitoring.RecordMaintenanceRun("cache_purge", "success", "", time.Second)

	summary := monitoring.Snapshot()
	require.Equal(t, uint64(3), summary.Cache.Hits)
	require.Equal(t, uint64(1), summary.Cache.Misses)
	require.Equal(t, uint64(1), summary.Cache.Errors)
	require.Equal(t, uint64(1), summary.Cache.WriteFailures)
	require.InDelta(t, 0.75, summary.Cache.HitRatio, 0.0001)
	require.Len(t, summary.Maintenance.Jobs, 1)
	require.Equal(t, "cache_purge", summary.Maintenance.Jobs[0].Job)
	require.Equal(t, uint64(1), summary.Maintenance.Jobs[0].TotalRuns)
}

func TestInstrumentationWithoutModuleIsNoop(t *testing.T) {
	monitoring.SetModule(nil)

	require.NotPanics(t, func() {
		monitoring.RecordCacheLookup("user", monitoring.CacheHit)
		monitoring.RecordCacheWriteFailure("user")
		monitoring.ObserveAPILatency("GET", "/user/:id", "200", time.Millisecond)
		monitoring.ObserveStoreRead("user", "found", time.Millisecond)
		monitoring.RecordMaintenanceRun("cache_purge", "success", "", time.Millisecond)
	})
	require.Equal(t, monitoring.Summary{}, monitoring.Snapshot())
}

func TestHandlerExposesNamespacedMetrics(t *testing.T) {
	mod := setupModule(t)

	monitoring.ObserveAPILatency("get", "/user/:id", "200", 3*time.Millisecond)
	monitoring.RecordCacheLookup("user", monitoring.CacheMiss)

	rec := httptest.NewRecorder()
	mod.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "userlookup_api_latency_seconds")
	require.Contains(t, body, `path="user/:id"`)
	require.Contains(t, body, `userlookup_cache_lookups_total{kind="user",result="miss"} 1`)

	count, err := testutil.GatherAndCount(mod.Registry(), "userlookup_cache_lookups_total")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestNilModuleHandlerUnavailable(t *testing.T) {
	var mod *monitoring.Module
	rec := httptest.NewRecorder()
	mod.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthManagerEvaluate(t *testing.T) {
	t.Parallel()

	manager := monitoring.NewHealthManager()
	manager.RegisterReadiness(monitoring.NewCheck("database", func(ctx context.Context) monitoring.ProbeResult {
		time.Sleep(5 * time.Millisecond)
		return monitoring.ProbeResult{Status: monitoring.StatusUp}
	}))
	manager.RegisterReadiness(monitoring.NewCheck("cache", func(ctx context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusDegraded, Details: "connection refused"}
	}))

	report := manager.EvaluateReadiness(context.Background())
	require.False(t, report.Success)
	require.Equal(t, monitoring.StatusDegraded, report.Status)
	require.Len(t, report.Checks, 2)
	require.Equal(t, "database", report.Checks[0].Component)
	require.Equal(t, "cache", report.Checks[1].Component)
}

func TestHealthManagerRecoversPanics(t *testing.T) {
	t.Parallel()

	manager := monitoring.NewHealthManager()
	manager.RegisterLiveness(monitoring.NewCheck("boom", func(ctx context.Context) monitoring.ProbeResult {
		panic("probe exploded")
	}))

	report := manager.EvaluateLiveness(context.Background())
	require.Equal(t, monitoring.StatusDown, report.Status)
	require.Equal(t, "boom", report.Checks[0].Component)
	require.Equal(t, "probe exploded", report.Checks[0].Details)
}

func TestMergeReports(t *testing.T) {
	t.Parallel()

	live := monitoring.HealthReport{Success: true, Status: monitoring.StatusUp, Checks: []monitoring.ProbeResult{{Component: "process", Status: monitoring.StatusUp}}}
	ready := monitoring.HealthReport{Checks: []monitoring.ProbeResult{{Component: "database", Status: monitoring.StatusDown}}}

	merged := monitoring.MergeReports(live, ready)
	require.False(t, merged.Success)
	require.Equal(t, monitoring.StatusDown, merged.Status)
	require.Len(t, merged.Checks, 2)
}

func TestResultFromError(t *testing.T) {
	t.Parallel()

	require.Equal(t, monitoring.StatusUp, monitoring.ResultFromError("x", nil, 0).Status)
	require.Equal(t, monitoring.StatusDown, monitoring.ResultFromError("x", errors.New("refused"), 0).Status)
	require.Equal(t, monitoring.StatusDegraded, monitoring.ResultFromError("x", context.DeadlineExceeded, 0).Status)
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestCacheCheckDegradesOnFailure(t *testing.T) {
	t.Parallel()

	ok := checks.Cache(pinger{}, "redis", time.Second).Run(context.Background())
	require.Equal(t, monitoring.StatusUp, ok.Status)

	fallback := checks.Cache(pinger{}, "database", time.Second).Run(context.Background())
	require.Equal(t, monitoring.StatusUp, fallback.Status)
	require.Contains(t, fallback.Details, "fallback")

	failed := checks.Cache(pinger{err: errors.New("connection refused")}, "redis", time.Second).Run(context.Background())
	require.Equal(t, monitoring.StatusDegraded, failed.Status)
	require.Contains(t, failed.Details, "redis: connection refused")

	missing := checks.Cache(nil, "", time.Second).Run(context.Background())
	require.Equal(t, monitoring.StatusDegraded, missing.Status)
}

func TestDatabaseCheckWithoutHandle(t *testing.T) {
	t.Parallel()

	result := checks.Database(nil, time.Second).Run(context.Background())
	require.Equal(t, monitoring.StatusDown, result.Status)
}

func TestMaintenanceCheck(t *testing.T) {
	setupModule(t)

	monitoring.RecordMaintenanceRun("cache_purge", "success", "", time.Second)
	monitoring.RecordMaintenanceRun("cache_purge_secondary", "failure", "timeout", time.Second)

	result := checks.Maintenance(0).Run(context.Background())
	require.Equal(t, monitoring.StatusDegraded, result.Status)
	require.Contains(t, result.Details, "cache_purge_secondary: timeout")
}
