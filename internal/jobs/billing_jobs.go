package jobs

import (
	"context"

	"tenant-portal-backend/internal/logger"
)

// AgeRentals recomputes pending/late on every unpaid active rental. Tenants
// refresh on read as well, so this only keeps admin listings current.
func (jr *JobRunner) AgeRentals() {
	jr.runWithRecovery("AgeRentals", func(ctx context.Context) {
		updated, err := jr.billing.AgeAllRentals(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to age rentals", "error", err)
			return
		}
		logger.InfoContext(ctx, "Aged rentals", "updated", updated)
	})
}

// RolloverBillingCycle reopens paid rentals once a new billing period
// starts.
func (jr *JobRunner) RolloverBillingCycle() {
	jr.runWithRecovery("RolloverBillingCycle", func(ctx context.Context) {
		reopened, err := jr.billing.RolloverBillingCycle(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to roll over billing cycle", "error", err)
			return
		}
		logger.InfoContext(ctx, "Rolled over billing cycle", "reopened", reopened)
	})
}
