// Package jobs runs periodic maintenance next to the HTTP server.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/abdabkim/webdevacademy/internal/infrastructure/logging"
)

// StreakRefresher recomputes the streak of every user with activity
type StreakRefresher interface {
	RecomputeAll(ctx context.Context) (int, error)
}

// Scheduler nightly jobs
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher StreakRefresher
	logger    *zap.Logger
	timeout   time.Duration
}

// NewScheduler each run of a job gets at most timeout
func NewScheduler(refresher StreakRefresher, logger *zap.Logger, timeout time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		refresher: refresher,
		logger:    logger,
		timeout:   timeout,
	}
}

// Start schedule the streak refresh daily at refreshAt ("HH:MM", UTC) and run the scheduler
// in the background
func (s *Scheduler) Start(refreshAt string) error {
	if _, err := s.scheduler.Every(1).Day().At(refreshAt).Do(s.refreshStreaks); err != nil {
		return fmt.Errorf("failed to schedule streak refresh at %q: %w", refreshAt, err)
	}
	s.scheduler.StartAsync()
	s.logger.Info("Scheduler started", zap.String("jobs.streak_refresh_at", refreshAt))
	return nil
}

// Stop waits for running jobs
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.logger.Info("Scheduler stopped")
}

// NextRun next scheduled run, zero when nothing is scheduled
func (s *Scheduler) NextRun() time.Time {
	_, next := s.scheduler.NextRun()
	return next
}

func (s *Scheduler) refreshStreaks() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	s.RefreshStreaks(logging.SetLoggerInContext(ctx, s.logger))
}

// RefreshStreaks one refresh run, returns how many users were refreshed
func (s *Scheduler) RefreshStreaks(ctx context.Context) int {
	start := time.Now()
	n, err := s.refresher.RecomputeAll(ctx)
	if err != nil {
		s.logger.Error("Streak refresh failed",
			zap.Int("streak.refreshed", n),
			zap.Duration("event.duration", time.Since(start)),
			zap.Error(err),
		)
		return n
	}
	s.logger.Info("Streak refresh done",
		zap.Int("streak.refreshed", n),
		zap.Duration("event.duration", time.Since(start)),
	)
	return n
}
