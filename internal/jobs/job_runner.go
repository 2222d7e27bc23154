package jobs

import (
	"context"
	"fmt"
	"sort"
	"time"

	"tenant-portal-backend/internal/config"
	"tenant-portal-backend/internal/logger"
	"tenant-portal-backend/internal/service"
)

const (
	JobAgeRentals           = "age-rentals"
	JobRolloverBillingCycle = "rollover-billing-cycle"
	JobAllNightly           = "all-nightly"
	JobAllMonthly           = "all-monthly"
)

// jobTimeout bounds a single run so a stuck query cannot pin the scheduler.
const jobTimeout = 10 * time.Minute

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	billing service.BillingService
	config  *config.Config
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(billing service.BillingService, cfg *config.Config) *JobRunner {
	return &JobRunner{
		billing: billing,
		config:  cfg,
	}
}

// Config returns the configuration the runner was built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	ctx = logger.WithContext(ctx, "job", jobName)

	start := time.Now()
	logger.Info("Starting job", "job", jobName)
	jobFunc(ctx)
	logger.Info("Job completed", "job", jobName, "duration_ms", time.Since(start).Milliseconds())
}

// RunAllNightlyJobs runs all nightly jobs (for manual execution)
func (jr *JobRunner) RunAllNightlyJobs() {
	jr.AgeRentals()
}

// RunAllMonthlyJobs runs all monthly jobs (for manual execution)
func (jr *JobRunner) RunAllMonthlyJobs() {
	jr.RolloverBillingCycle()
	jr.AgeRentals()
}

func (jr *JobRunner) registry() map[string]func() {
	return map[string]func(){
		JobAgeRentals:           jr.AgeRentals,
		JobRolloverBillingCycle: jr.RolloverBillingCycle,
		JobAllNightly:           jr.RunAllNightlyJobs,
		JobAllMonthly:           jr.RunAllMonthlyJobs,
	}
}

// Names lists the jobs accepted by Run, sorted.
func (jr *JobRunner) Names() []string {
	var names []string
	for name := range jr.registry() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes one job by name.
func (jr *JobRunner) Run(name string) error {
	job, ok := jr.registry()[name]
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	job()
	return nil
}
