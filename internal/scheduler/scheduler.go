// Package scheduler runs recurring maintenance jobs for tapedeck on cron
// schedules: cache pruning, orphaned temp cleanup.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// JobFunc is one schedulable unit of maintenance work.
type JobFunc func(ctx context.Context) error

// job pairs a cron expression with the work it triggers.
type job struct {
	name     string
	schedule string
	run      JobFunc
}

// Scheduler fires registered jobs when their cron schedule comes due.
// It polls on a sync interval rather than arming timers, so a missed tick
// (laptop sleep, clock jump) costs at most one interval of delay.
type Scheduler struct {
	mu sync.RWMutex

	jobs   []job
	logger *slog.Logger

	// cron parser for validating/parsing cron expressions
	parser cron.Parser

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	syncInterval time.Duration
}

// Config holds configuration for the scheduler.
type Config struct {
	// SyncInterval is how often to check for due schedules. Default: 1 minute.
	SyncInterval time.Duration
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() Config {
	return Config{SyncInterval: time.Minute}
}

// New creates a new scheduler.
func New() *Scheduler {
	cfg := DefaultConfig()
	return &Scheduler{
		logger:       slog.Default(),
		parser:       cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		syncInterval: cfg.SyncInterval,
	}
}

// WithLogger sets a custom logger.
func (s *Scheduler) WithLogger(logger *slog.Logger) *Scheduler {
	s.logger = logger
	return s
}

// WithConfig applies configuration to the scheduler.
func (s *Scheduler) WithConfig(cfg Config) *Scheduler {
	if cfg.SyncInterval > 0 {
		s.syncInterval = cfg.SyncInterval
	}
	return s
}

// Register adds a named job on the given cron schedule. The expression is
// validated up front so a typo in config fails at startup, not at 3 AM.
func (s *Scheduler) Register(name, schedule string, fn JobFunc) error {
	if _, err := s.parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression for %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job{name: name, schedule: schedule, run: fn})
	return nil
}

// Start begins the scheduler's background sync loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx != nil {
		return fmt.Errorf("scheduler already started")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.syncLoop()

	s.logger.Info("scheduler started",
		slog.Duration("sync_interval", s.syncInterval),
		slog.Int("jobs", len(s.jobs)))

	return nil
}

// Stop stops the scheduler and waits for the loop to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.wg.Wait()

	s.mu.Lock()
	s.ctx = nil
	s.cancel = nil
	s.mu.Unlock()

	s.logger.Info("scheduler stopped")
}

// syncLoop periodically fires due jobs.
func (s *Scheduler) syncLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.runDue(s.ctx)
		}
	}
}

// runDue executes every job whose schedule falls inside the current window.
func (s *Scheduler) runDue(ctx context.Context) {
	s.mu.RLock()
	jobs := make([]job, len(s.jobs))
	copy(jobs, s.jobs)
	s.mu.RUnlock()

	for _, j := range jobs {
		if !s.isDue(j.schedule) {
			continue
		}

		start := time.Now()
		if err := j.run(ctx); err != nil {
			s.logger.Error("scheduled job failed",
				slog.String("job", j.name),
				slog.Any("error", err))
			continue
		}
		s.logger.Info("scheduled job complete",
			slog.String("job", j.name),
			slog.Duration("took", time.Since(start)))
	}
}

// isDue checks if a cron schedule is due for execution.
// A schedule is due if its next run from one interval ago lands at or before
// now, which catches fires between ticks.
func (s *Scheduler) isDue(cronExpr string) bool {
	schedule, err := s.parser.Parse(cronExpr)
	if err != nil {
		s.logger.Warn("invalid cron expression", slog.String("cron", cronExpr), slog.Any("error", err))
		return false
	}

	now := time.Now()
	next := schedule.Next(now.Add(-s.syncInterval))
	return !next.After(now)
}

// ParseCron validates a cron expression and returns the next run time.
func (s *Scheduler) ParseCron(expr string) (time.Time, error) {
	schedule, err := s.parser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression: %w", err)
	}
	return schedule.Next(time.Now()), nil
}

// ValidateCron validates a cron expression.
func (s *Scheduler) ValidateCron(expr string) error {
	_, err := s.parser.Parse(expr)
	return err
}
