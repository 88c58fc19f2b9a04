package checks

import (
	"context"
	"time"

	"github.com/charlesng35/userlookup/internal/monitoring"
)

const defaultCacheTimeout = 2 * time.Second

// CachePinger is the slice of cache.Store needed to probe the cache backend.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// Cache returns a readiness probe for the cache tier. Reads fall through to
// the record store when the cache fails, so problems here only degrade.
// backend names the active store ("redis" or "database") for operators.
func Cache(store CachePinger, backend string, timeout time.Duration) monitoring.Check {
	return monitoring.NewCheck("cache", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if store == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusDegraded, Details: "cache unavailable"}
		}

		probeCtx, cancel := context.WithTimeout(ctx, chooseTimeout(timeout, defaultCacheTimeout))
		defer cancel()

		if err := store.Ping(probeCtx); err != nil {
			result := monitoring.ResultFromError("cache", err, time.Since(start))
			result.Status = monitoring.StatusDegraded
			result.Details = backend + ": " + result.Details
			return result
		}

		details := ""
		if backend != "" && backend != "redis" {
			details = "serving from " + backend + " fallback"
		}
		return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: details, Duration: time.Since(start)}
	})
}
