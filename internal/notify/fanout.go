package notify

import (
	"context"
	"errors"

	"tenant-portal-backend/internal/domain"
)

// Fanout publishes to every configured channel. All channels are attempted
// even when one fails.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, tenantID int32, event domain.PaymentEvent) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, tenantID, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
