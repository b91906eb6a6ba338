package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/alimgiray/prdash/pkg/logger"
	"github.com/go-co-op/gocron/v2"
)

// SchedulerService re-runs the dashboard refresh on a fixed interval and on
// demand. Manual triggers are not debounced.
type SchedulerService struct {
	refresh   func()
	scheduler gocron.Scheduler

	mu       sync.Mutex
	job      gocron.Job
	interval time.Duration
}

func NewSchedulerService(refresh func(), opts ...gocron.SchedulerOption) (*SchedulerService, error) {
	scheduler, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &SchedulerService{
		refresh:   refresh,
		scheduler: scheduler,
	}, nil
}

// Start schedules the refresh every seconds (never when 0) and runs one
// refresh right away
func (s *SchedulerService) Start(seconds int) error {
	s.scheduler.Start()
	if err := s.Reschedule(seconds); err != nil {
		return err
	}
	return s.Trigger()
}

// Trigger runs a refresh immediately
func (s *SchedulerService) Trigger() error {
	_, err := s.scheduler.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartImmediately()),
		gocron.NewTask(s.refresh),
		gocron.WithName("manual-refresh"),
	)
	if err != nil {
		return fmt.Errorf("failed to trigger refresh: %w", err)
	}
	return nil
}

// Reschedule replaces the periodic job with one running every seconds
func (s *SchedulerService) Reschedule(seconds int) error {
	interval := time.Duration(seconds) * time.Second

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.job != nil && interval == s.interval {
		return nil
	}

	if s.job != nil {
		if err := s.scheduler.RemoveJob(s.job.ID()); err != nil {
			logger.WithError(err).Warn("Failed to remove refresh job")
		}
		s.job = nil
	}
	s.interval = interval

	if interval <= 0 {
		logger.Info("Auto refresh disabled")
		return nil
	}

	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.refresh),
		gocron.WithName("auto-refresh"),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule refresh every %s: %w", interval, err)
	}
	s.job = job
	logger.Infof("Auto refresh every %s", interval)
	return nil
}

// Interval returns the current auto refresh interval, zero when disabled
func (s *SchedulerService) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job == nil {
		return 0
	}
	return s.interval
}

// NextRun returns when the periodic refresh runs next
func (s *SchedulerService) NextRun() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job == nil {
		return time.Time{}, false
	}
	next, err := s.job.NextRun()
	if err != nil {
		return time.Time{}, false
	}
	return next, true
}

// Shutdown stops the scheduler and waits for running refreshes
func (s *SchedulerService) Shutdown() error {
	return s.scheduler.Shutdown()
}
