// Package scheduler runs periodic background jobs.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper triggers one missing-locations run. Implemented by tasks.Client,
// which enqueues the work instead of running it inline.
type Sweeper interface {
	EnqueueSweep(ctx context.Context) error
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule validates a five-field cron expression.
func ValidateCronSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// NextRunTime calculates the next run time for a cron schedule
func NextRunTime(schedule string, from time.Time) (time.Time, error) {
	sched, err := parser.Parse(schedule)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from), nil
}

// LocationSweepScheduler periodically generates location indexes that are
// still missing, for example after a failed upload-time generation.
type LocationSweepScheduler struct {
	sweeper  Sweeper
	schedule string
	log      *zap.Logger

	cron      *cron.Cron
	mu        sync.RWMutex
	isRunning bool
	lastRun   time.Time
	lastErr   error
}

// NewLocationSweepScheduler creates a new scheduler instance
func NewLocationSweepScheduler(sweeper Sweeper, schedule string, log *zap.Logger) *LocationSweepScheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &LocationSweepScheduler{
		sweeper:  sweeper,
		schedule: schedule,
		log:      log.Named("scheduler"),
		cron:     cron.New(cron.WithParser(parser)),
	}
}

// Start schedules the sweep. The scheduler stops when ctx is cancelled.
func (s *LocationSweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if err := ValidateCronSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, func() { s.RunNow(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule location sweep: %w", err)
	}

	s.cron.Start()
	s.isRunning = true

	next, _ := NextRunTime(s.schedule, time.Now())
	s.log.Info("location sweep scheduled",
		zap.String("schedule", s.schedule),
		zap.Time("next_run", next))

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop waits for a running sweep trigger and stops the scheduler.
func (s *LocationSweepScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.log.Info("location sweep stopped")
}

// RunNow triggers a sweep immediately.
func (s *LocationSweepScheduler) RunNow(ctx context.Context) {
	err := s.sweeper.EnqueueSweep(ctx)

	s.mu.Lock()
	s.lastRun, s.lastErr = time.Now(), err
	s.mu.Unlock()

	if err != nil {
		s.log.Warn("failed to enqueue location sweep", zap.Error(err))
		return
	}
	s.log.Debug("location sweep enqueued")
}

// IsRunning returns whether the scheduler is active
func (s *LocationSweepScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// LastRun returns when the sweep was last triggered and its error, if any.
func (s *LocationSweepScheduler) LastRun() (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun, s.lastErr
}
