// Package watcher follows a submitted payment until it settles. A push
// strategy listens on the tenant's channel while a poll strategy
// reconciles against the API, and the first terminal observation wins.
package watcher

import (
	"context"
	"sync"

	"tenant-portal-backend/internal/domain"
	"tenant-portal-backend/internal/logger"
)

// Strategy observes a payment and sends what it sees to out. Run returns
// when ctx ends, when the strategy has nothing more to report, or with an
// error that should end the whole subscription.
type Strategy interface {
	Name() string
	Run(ctx context.Context, payment domain.Payment, out chan<- domain.Payment) error
}

type SettlementWatcher struct {
	strategies []Strategy
}

func NewSettlementWatcher(strategies ...Strategy) *SettlementWatcher {
	return &SettlementWatcher{strategies: strategies}
}

// Subscription delivers at most one terminal payment on Updates and then
// closes it.
type Subscription struct {
	updates chan domain.Payment
	done    chan struct{}
	cancel  context.CancelFunc

	mu  sync.Mutex
	err error
}

func (s *Subscription) Updates() <-chan domain.Payment { return s.updates }

// Done is closed once every strategy has stopped.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Err reports why the subscription ended without a terminal observation:
// the strategy failure, or the context error after Cancel. It is nil while
// running and after a delivery.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Cancel stops every strategy and waits for them to return.
func (s *Subscription) Cancel() {
	s.cancel()
	<-s.done
}

func (s *Subscription) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Watch starts following payment. An already terminal payment is delivered
// at once and no strategy is started.
func (w *SettlementWatcher) Watch(ctx context.Context, payment domain.Payment) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		updates: make(chan domain.Payment, 1),
		done:    make(chan struct{}),
		cancel:  cancel,
	}

	if payment.Status.IsTerminal() {
		cancel()
		sub.updates <- payment
		close(sub.updates)
		close(sub.done)
		return sub
	}

	log := logger.FromContext(ctx).With("paymentID", payment.ID)
	observed := make(chan domain.Payment)
	failed := make(chan error, len(w.strategies))
	stopped := make(chan struct{})

	var wg sync.WaitGroup
	for _, st := range w.strategies {
		wg.Add(1)
		go func(st Strategy) {
			defer wg.Done()
			if err := st.Run(ctx, payment, observed); err != nil && ctx.Err() == nil {
				log.Warn("Settlement strategy failed", "strategy", st.Name(), "error", err)
				failed <- err
			}
		}(st)
	}
	go func() {
		wg.Wait()
		close(stopped)
	}()

	go func() {
		defer close(sub.done)
		defer close(sub.updates)
		defer func() {
			cancel()
			wg.Wait()
		}()

		for {
			select {
			case p := <-observed:
				if p.ID != payment.ID || !p.Status.IsTerminal() {
					continue
				}
				log.Info("Payment settled", "status", p.Status)
				sub.updates <- p
				return
			case err := <-failed:
				sub.setErr(err)
				return
			case <-stopped:
				select {
				case err := <-failed:
					sub.setErr(err)
				default:
					sub.setErr(ctx.Err())
				}
				return
			case <-ctx.Done():
				sub.setErr(ctx.Err())
				return
			}
		}
	}()
	return sub
}

// emit hands an observation to the watcher unless it has stopped listening.
func emit(ctx context.Context, out chan<- domain.Payment, p domain.Payment) bool {
	select {
	case out <- p:
		return true
	case <-ctx.Done():
		return false
	}
}
