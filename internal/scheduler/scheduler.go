package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/freedmens-bureau/bureau/internal/metrics"
)

const StatsRefreshJob = "stats-refresh"

// JobFunc is one run of a periodic job.
type JobFunc func(ctx context.Context) error

// Refresher recomputes cached snapshots.
type Refresher interface {
	Refresh(ctx context.Context) error
}

type Scheduler struct {
	jobs   map[string]*Job // job name -> job
	mu     sync.RWMutex
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	clock  clockwork.Clock
	logger *zap.Logger
}

type Job struct {
	name     string
	interval time.Duration
	run      JobFunc
	ticker   clockwork.Ticker
	cancel   context.CancelFunc
}

// NewScheduler initializes a new Scheduler instance
func NewScheduler(clock clockwork.Clock, logger *zap.Logger) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		jobs:   make(map[string]*Job),
		ctx:    ctx,
		cancel: cancel,
		clock:  clock,
		logger: logger.Named("scheduler"),
	}
}

// Stop gracefully shuts down all jobs and waits for running ones to return
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cancel()

	s.mu.Lock()
	for _, job := range s.jobs {
		job.ticker.Stop()
		job.cancel()
	}
	s.jobs = make(map[string]*Job)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

// AddJob runs fn immediately and then every interval, replacing any job with the same name
func (s *Scheduler) AddJob(name string, interval time.Duration, fn JobFunc) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return fmt.Errorf("job %s: scheduler is stopped", name)
	}

	if existing, ok := s.jobs[name]; ok {
		existing.ticker.Stop()
		existing.cancel()
	}

	jobCtx, jobCancel := context.WithCancel(s.ctx)
	job := &Job{
		name:     name,
		interval: interval,
		run:      fn,
		ticker:   s.clock.NewTicker(interval),
		cancel:   jobCancel,
	}
	s.jobs[name] = job

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.execute(jobCtx, job)
		s.runJob(jobCtx, job)
	}()

	s.logger.Info("Added job", zap.String("job", name), zap.Duration("interval", interval))
	return nil
}

// RemoveJob stops a job by name
func (s *Scheduler) RemoveJob(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job, ok := s.jobs[name]; ok {
		job.ticker.Stop()
		job.cancel()
		delete(s.jobs, name)
		s.logger.Info("Removed job", zap.String("job", name))
	}
}

// RunNow executes a registered job synchronously, outside its schedule
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.RLock()
	job, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown job %s", name)
	}
	return s.execute(ctx, job)
}

func (s *Scheduler) runJob(ctx context.Context, job *Job) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-job.ticker.Chan():
			s.execute(ctx, job)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, job *Job) error {
	start := s.clock.Now()
	err := job.run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		metrics.SchedulerJobRuns.WithLabelValues(job.name, "failure").Inc()
		s.logger.Error("Job failed", zap.String("job", job.name), zap.Error(err))
		return err
	}

	metrics.SchedulerJobRuns.WithLabelValues(job.name, "success").Inc()
	s.logger.Debug("Job succeeded", zap.String("job", job.name), zap.Duration("duration", s.clock.Since(start)))
	return nil
}

// Status returns current scheduler status
func (s *Scheduler) Status() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}

	return map[string]interface{}{
		"active_jobs": len(s.jobs),
		"jobs":        names,
		"running":     s.ctx.Err() == nil,
	}
}

// ErrNotRunning is returned by RefreshNow before Initialize or after Shutdown.
var ErrNotRunning = errors.New("scheduler is not running")

// Global scheduler instance
var globalScheduler *Scheduler

// Initialize creates the global scheduler and registers the stats refresh job
func Initialize(refresher Refresher, interval time.Duration, logger *zap.Logger) error {
	globalScheduler = NewScheduler(clockwork.NewRealClock(), logger)
	return globalScheduler.AddJob(StatsRefreshJob, interval, refresher.Refresh)
}

// Shutdown stops the global scheduler
func Shutdown() {
	if globalScheduler != nil {
		globalScheduler.Stop()
		globalScheduler = nil
	}
}

// RefreshNow recomputes the stats snapshots through the global scheduler
func RefreshNow(ctx context.Context) error {
	if globalScheduler == nil {
		return ErrNotRunning
	}
	return globalScheduler.RunNow(ctx, StatsRefreshJob)
}

// Status reports the global scheduler, or nil when it is not running
func Status() map[string]interface{} {
	if globalScheduler == nil {
		return nil
	}
	return globalScheduler.Status()
}
