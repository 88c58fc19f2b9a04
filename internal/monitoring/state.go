package monitoring

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type statStore struct {
	hits          atomic.Uint64
	misses        atomic.Uint64
	errors        atomic.Uint64
	writeFailures atomic.Uint64

	mu          sync.Mutex
	maintenance map[string]*maintenanceStats
}

type maintenanceStats struct {
	mu                  sync.Mutex
	lastStatus          string
	lastRunAt           time.Time
	lastDuration        time.Duration
	lastError           string
	lastSuccessAt       time.Time
	consecutiveFailures uint64
	totalRuns           uint64
}

func newStatStore() *statStore {
	return &statStore{maintenance: make(map[string]*maintenanceStats)}
}

func (s *statStore) recordLookup(result string) {
	switch result {
	case CacheHit:
		s.hits.Add(1)
	case CacheMiss:
		s.misses.Add(1)
	case CacheError:
		s.errors.Add(1)
	}
}

func (s *statStore) recordWriteFailure() {
	s.writeFailures.Add(1)
}

func (s *statStore) maintenanceEntry(job string) *maintenanceStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.maintenance[job]
	if !ok {
		entry = &maintenanceStats{}
		s.maintenance[job] = entry
	}
	return entry
}

func (m *maintenanceStats) record(result, message string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.totalRuns++
	m.lastStatus = result
	m.lastRunAt = now
	m.lastDuration = duration
	if result == "success" {
		m.consecutiveFailures = 0
		m.lastSuccessAt = now
		m.lastError = ""
		return
	}
	m.consecutiveFailures++
	m.lastError = message
}

func (m *maintenanceStats) snapshot(job string) MaintenanceJobSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MaintenanceJobSummary{
		Job:                 job,
		LastStatus:          m.lastStatus,
		LastRunAt:           m.lastRunAt,
		LastDuration:        m.lastDuration,
		LastError:           m.lastError,
		LastSuccessAt:       m.lastSuccessAt,
		ConsecutiveFailures: m.consecutiveFailures,
		TotalRuns:           m.totalRuns,
	}
}

func (s *statStore) summary() Summary {
	out := Summary{
		GeneratedAt: time.Now().UTC(),
		Cache: CacheSummary{
			Hits:          s.hits.Load(),
			Misses:        s.misses.Load(),
			Errors:        s.errors.Load(),
			WriteFailures: s.writeFailures.Load(),
		},
	}
	if lookups := out.Cache.Hits + out.Cache.Misses; lookups > 0 {
		out.Cache.HitRatio = float64(out.Cache.Hits) / float64(lookups)
	}

	s.mu.Lock()
	jobs := make([]string, 0, len(s.maintenance))
	for job := range s.maintenance {
		jobs = append(jobs, job)
	}
	entries := make(map[string]*maintenanceStats, len(s.maintenance))
	for job, entry := range s.maintenance {
		entries[job] = entry
	}
	s.mu.Unlock()

	sort.Strings(jobs)
	out.Maintenance.Jobs = make([]MaintenanceJobSummary, 0, len(jobs))
	for _, job := range jobs {
		out.Maintenance.Jobs = append(out.Maintenance.Jobs, entries[job].snapshot(job))
	}
	return out
}
