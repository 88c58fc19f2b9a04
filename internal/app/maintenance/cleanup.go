package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/userlookup/internal/monitoring"
	"github.com/charlesng35/userlookup/pkg/logger"
)

const (
	// CachePurgeJob names the job removing expired rows from the database-backed cache.
	CachePurgeJob = "cache_purge"

	defaultCachePurgeSpec = "@every 5m"
)

// ExpiredPurger deletes expired entries and reports how many were removed.
type ExpiredPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type job struct {
	name     string
	schedule string
	run      func(ctx context.Context) (int64, error)
}

// Cleaner coordinates background maintenance tasks. Redis expires keys on its
// own, so the only job today purges the database-backed cache fallback.
type Cleaner struct {
	cron *cron.Cron
	log  *zap.Logger
	jobs []job
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithCachePurge schedules purger under spec. A nil purger is ignored; an
// empty spec uses "@every 5m".
func WithCachePurge(purger ExpiredPurger, spec string) Option {
	return func(cleaner *Cleaner) {
		if purger == nil {
			return
		}
		if spec == "" {
			spec = defaultCachePurgeSpec
		}
		cleaner.jobs = append(cleaner.jobs, job{
			name:     CachePurgeJob,
			schedule: spec,
			run:      purger.PurgeExpired,
		})
	}
}

// NewCleaner constructs a Cleaner. Without jobs Start and RunOnce are no-ops.
func NewCleaner(opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		log: logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Enabled reports whether any job is configured.
func (c *Cleaner) Enabled() bool {
	return c != nil && len(c.jobs) > 0
}

// Start registers jobs with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if !c.Enabled() {
		return nil
	}

	for _, j := range c.jobs {
		j := j
		if _, err := c.cron.AddFunc(j.schedule, func() {
			if err := c.execute(context.Background(), j); err != nil {
				c.log.Warn("maintenance job failed", zap.String("job", j.name), zap.Error(err))
			}
		}); err != nil {
			return fmt.Errorf("schedule %s: %w", j.name, err)
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c == nil || c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured jobs sequentially. Used during graceful
// shutdown and in tests.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	for _, j := range c.jobs {
		errs = multierr.Append(errs, c.execute(ctx, j))
	}
	return errs
}

func (c *Cleaner) execute(ctx context.Context, j job) error {
	if j.run == nil {
		return errors.New(j.name + ": no runner")
	}

	start := time.Now()
	removed, err := j.run(ctx)
	duration := time.Since(start)

	if err != nil {
		monitoring.RecordMaintenanceRun(j.name, "failure", err.Error(), duration)
		return fmt.Errorf("%s: %w", j.name, err)
	}

	monitoring.RecordMaintenanceRun(j.name, "success", "", duration)
	if removed > 0 {
		c.log.Debug("maintenance job completed",
			zap.String("job", j.name),
			zap.Int64("removed", removed),
			zap.Duration("duration", duration),
		)
	}
	return nil
}
