package checks

import (
	"context"
	"strings"
	"time"

	"github.com/charlesng35/userlookup/internal/monitoring"
)

const defaultMaintenanceMaxAge = 6 * time.Hour

// Maintenance verifies that background jobs run successfully within maxAge.
// A zero maxAge uses a 6h window.
func Maintenance(maxAge time.Duration) monitoring.Check {
	if maxAge <= 0 {
		maxAge = defaultMaintenanceMaxAge
	}

	return monitoring.NewCheck("maintenance", func(ctx context.Context) monitoring.ProbeResult {
		summary := monitoring.Snapshot()
		now := time.Now()

		if len(summary.Maintenance.Jobs) == 0 {
			return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: "no maintenance jobs recorded"}
		}

		status := monitoring.StatusUp
		var notes []string
		for _, job := range summary.Maintenance.Jobs {
			if job.ConsecutiveFailures > 0 {
				// Expired cache rows only cost disk space; never take the service out of rotation.
				status = monitoring.Worst(status, monitoring.StatusDegraded)
				notes = append(notes, job.Job+": "+job.LastError)
			}
			if !job.LastRunAt.IsZero() && now.Sub(job.LastRunAt) > maxAge {
				status = monitoring.Worst(status, monitoring.StatusDegraded)
				notes = append(notes, job.Job+": stale run "+job.LastRunAt.UTC().Format(time.RFC3339))
			}
		}

		return monitoring.ProbeResult{Status: status, Details: strings.Join(notes, "; ")}
	})
}
