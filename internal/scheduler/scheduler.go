package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"tenant-portal-backend/internal/jobs"
	"tenant-portal-backend/internal/logger"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a new scheduler with the provided job runner. Jobs
// run in UTC with seconds precision; an invalid schedule is an error.
func NewScheduler(jobRunner *jobs.JobRunner) (*Scheduler, error) {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	if err := s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *Scheduler) registerJobs() error {
	cfg := s.jobs.Config().Scheduler

	// Nightly: keep pending/late current for admin listings
	if _, err := s.cron.AddFunc(cfg.AgeRentals, s.jobs.AgeRentals); err != nil {
		return fmt.Errorf("register AgeRentals job %q: %w", cfg.AgeRentals, err)
	}

	// Monthly: reopen paid rentals for the new period
	if _, err := s.cron.AddFunc(cfg.RolloverBillingCycle, s.jobs.RolloverBillingCycle); err != nil {
		return fmt.Errorf("register RolloverBillingCycle job %q: %w", cfg.RolloverBillingCycle, err)
	}

	logger.Info("All cron jobs registered successfully", "count", len(s.cron.Entries()))
	return nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// IsRunning returns true if the scheduler has jobs registered
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}

// Next reports when each registered job fires next, keyed by position.
func (s *Scheduler) Next() []time.Time {
	var next []time.Time
	for _, e := range s.cron.Entries() {
		next = append(next, e.Schedule.Next(time.Now()))
	}
	return next
}
