package monitoring

import (
	"strings"
	"time"
)

// Cache lookup results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// ObserveAPILatency captures the HTTP request latency for the supplied route.
func ObserveAPILatency(method, path, status string, duration time.Duration) {
	module := CurrentModule()
	if module == nil {
		return
	}
	if duration < 0 {
		duration = 0
	}
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = "UNKNOWN"
	}
	path = sanitizePath(path)
	if path == "" {
		path = "unknown"
	}
	status = strings.TrimSpace(status)
	if status == "" {
		status = "unknown"
	}
	module.metrics.apiLatency.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordCacheLookup counts one cache read for a key kind ("user", "all_users").
func RecordCacheLookup(kind, result string) {
	module := CurrentModule()
	if module == nil {
		return
	}
	kind = normalizeLabel(kind)
	result = normalizeLabel(result)
	module.metrics.cacheLookups.WithLabelValues(kind, result).Inc()
	module.stats.recordLookup(result)
}

// RecordCacheWriteFailure counts a cache population that was skipped after an error.
func RecordCacheWriteFailure(kind string) {
	module := CurrentModule()
	if module == nil {
		return
	}
	module.metrics.cacheWriteFailures.WithLabelValues(normalizeLabel(kind)).Inc()
	module.stats.recordWriteFailure()
}

// ObserveStoreRead records the latency of a record store read.
func ObserveStoreRead(kind, result string, duration time.Duration) {
	module := CurrentModule()
	if module == nil {
		return
	}
	observeDuration(module.metrics.storeReads.WithLabelValues(normalizeLabel(kind), normalizeLabel(result)), duration)
}

// RecordMaintenanceRun records the completion of a maintenance job.
func RecordMaintenanceRun(job, result, message string, duration time.Duration) {
	module := CurrentModule()
	if module == nil {
		return
	}
	jobID := normalizeLabel(job)
	result = normalizeLabel(result)
	module.metrics.maintenanceRuns.WithLabelValues(jobID, result).Inc()
	observeDuration(module.metrics.maintenanceDuration.WithLabelValues(jobID), duration)
	if result == "success" {
		module.metrics.maintenanceLastRun.WithLabelValues(jobID).Set(float64(time.Now().Unix()))
	}
	module.stats.maintenanceEntry(jobID).record(result, strings.TrimSpace(message), duration)
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}
	return value
}

func sanitizePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	path = strings.Trim(path, "/")
	path = strings.ReplaceAll(path, " ", "_")
	if path == "" {
		return "root"
	}
	return path
}
