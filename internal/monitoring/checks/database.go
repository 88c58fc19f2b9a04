package checks

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/userlookup/internal/monitoring"
)

const defaultDatabaseTimeout = 2 * time.Second

// Database returns a readiness probe that pings the record store. The service
// cannot answer any read without it, so a failed ping reports down.
func Database(db *gorm.DB, timeout time.Duration) monitoring.Check {
	return monitoring.NewCheck("database", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if db == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusDown, Details: "database not configured"}
		}

		sqlDB, err := db.DB()
		if err != nil {
			return monitoring.ResultFromError("database", err, time.Since(start))
		}

		probeCtx, cancel := context.WithTimeout(ctx, chooseTimeout(timeout, defaultDatabaseTimeout))
		defer cancel()

		err = sqlDB.PingContext(probeCtx)
		result := monitoring.ResultFromError("database", err, time.Since(start))
		if err != nil && result.Status == monitoring.StatusDegraded {
			result.Status = monitoring.StatusDown
		}
		return result
	})
}

func chooseTimeout(provided, fallback time.Duration) time.Duration {
	if provided <= 0 {
		return fallback
	}
	return provided
}
