package watcher

import (
	"context"
	"fmt"
	"time"

	"tenant-portal-backend/internal/client"
	"tenant-portal-backend/internal/domain"
	"tenant-portal-backend/internal/logger"
)

const DefaultPollInterval = 5 * time.Second

type PaymentGetter interface {
	GetPayment(ctx context.Context, id int32) (*domain.Payment, error)
}

// PollStrategy reads the payment every Interval until it is terminal.
// MaxFailures bounds consecutive read failures; zero means unlimited.
type PollStrategy struct {
	Getter      PaymentGetter
	Interval    time.Duration
	MaxFailures int
}

func NewPollStrategy(getter PaymentGetter, interval time.Duration, maxFailures int) *PollStrategy {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &PollStrategy{Getter: getter, Interval: interval, MaxFailures: maxFailures}
}

func (s *PollStrategy) Name() string { return "poll" }

func (s *PollStrategy) Run(ctx context.Context, payment domain.Payment, out chan<- domain.Payment) error {
	if payment.Status.IsTerminal() {
		return nil
	}
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		got, err := s.Getter.GetPayment(ctx, payment.ID)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			failures++
			logger.Warn("Payment poll failed", "paymentID", payment.ID, "failures", failures, "error", err)
			if s.MaxFailures > 0 && failures >= s.MaxFailures {
				return fmt.Errorf("poll payment %d: %d consecutive failures: %w", payment.ID, failures, err)
			}
			continue
		}
		failures = 0

		if got.Status.IsTerminal() {
			emit(ctx, out, *got)
			return nil
		}
	}
}

// EventStream is an open push channel.
type EventStream interface {
	Next(ctx context.Context) (domain.PaymentEvent, error)
	Close() error
}

type SubscribeFunc func(ctx context.Context) (EventStream, error)

// PushStrategy listens on the tenant's push channel for events about the
// watched payment. Delivery is at-most-once, so a closed or unavailable
// channel ends this strategy quietly and leaves reconciliation to polling.
type PushStrategy struct {
	Subscribe SubscribeFunc
}

// NewPushStrategy listens through the API client's push channel.
func NewPushStrategy(c *client.Client) *PushStrategy {
	return &PushStrategy{Subscribe: func(ctx context.Context) (EventStream, error) {
		events, err := c.Subscribe(ctx)
		if err != nil {
			return nil, err
		}
		return events, nil
	}}
}

func (s *PushStrategy) Name() string { return "push" }

func (s *PushStrategy) Run(ctx context.Context, payment domain.Payment, out chan<- domain.Payment) error {
	stream, err := s.Subscribe(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("Push channel unavailable, relying on polling", "paymentID", payment.ID, "error", err)
		}
		return nil
	}
	defer stream.Close()

	for {
		event, err := stream.Next(ctx)
		if err != nil {
			if ctx.Err() == nil {
				logger.Warn("Push channel closed", "paymentID", payment.ID, "error", err)
			}
			return nil
		}
		if event.Payment.ID != payment.ID {
			continue
		}
		if !emit(ctx, out, event.Payment) || event.Payment.Status.IsTerminal() {
			return nil
		}
	}
}

// New builds the standard push-plus-poll watcher over an API client.
func New(c *client.Client, pollInterval time.Duration, maxPollFailures int) *SettlementWatcher {
	return NewSettlementWatcher(NewPushStrategy(c), NewPollStrategy(c, pollInterval, maxPollFailures))
}
