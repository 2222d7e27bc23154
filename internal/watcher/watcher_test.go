package watcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tenant-portal-backend/internal/domain"
)

type MockGetter struct {
	mock.Mock
}

func (m *MockGetter) GetPayment(ctx context.Context, id int32) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

// fakeStream replays events from a channel and blocks once it is drained.
type fakeStream struct {
	events chan domain.PaymentEvent
	closed chan struct{}
}

func newFakeStream(events ...domain.PaymentEvent) *fakeStream {
	s := &fakeStream{events: make(chan domain.PaymentEvent, len(events)+1), closed: make(chan struct{})}
	for _, e := range events {
		s.events <- e
	}
	return s
}

func (s *fakeStream) Next(ctx context.Context) (domain.PaymentEvent, error) {
	select {
	case e := <-s.events:
		return e, nil
	case <-ctx.Done():
		return domain.PaymentEvent{}, ctx.Err()
	}
}

func (s *fakeStream) Close() error {
	close(s.closed)
	return nil
}

func payment(id int32, status domain.PaymentStatus) domain.Payment {
	return domain.Payment{ID: id, RentalID: 1, TenantID: 3, Amount: decimal.NewFromInt(15000),
		Method: domain.PaymentMethodCash, Month: "2025-11", Status: status}
}

func ptr(p domain.Payment) *domain.Payment { return &p }

func receive(t *testing.T, sub *Subscription) (domain.Payment, bool) {
	t.Helper()
	select {
	case p, ok := <-sub.Updates():
		return p, ok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for subscription")
		return domain.Payment{}, false
	}
}

func TestWatch_TerminalPaymentDeliveredWithoutPolling(t *testing.T) {
	getter := new(MockGetter)
	w := NewSettlementWatcher(NewPollStrategy(getter, time.Millisecond, 0))

	sub := w.Watch(context.Background(), payment(5, domain.PaymentStatusSuccessful))
	p, ok := receive(t, sub)
	require.True(t, ok)
	assert.Equal(t, domain.PaymentStatusSuccessful, p.Status)

	_, ok = receive(t, sub)
	assert.False(t, ok)
	assert.NoError(t, sub.Err())
	getter.AssertNotCalled(t, "GetPayment", mock.Anything, mock.Anything)
}

func TestPollStrategy_StopsAfterTerminal(t *testing.T) {
	getter := new(MockGetter)
	getter.On("GetPayment", mock.Anything, int32(5)).Return(ptr(payment(5, domain.PaymentStatusPending)), nil).Once()
	getter.On("GetPayment", mock.Anything, int32(5)).Return(ptr(payment(5, domain.PaymentStatusSuccessful)), nil).Once()

	w := NewSettlementWatcher(NewPollStrategy(getter, 5*time.Millisecond, 0))
	sub := w.Watch(context.Background(), payment(5, domain.PaymentStatusPending))

	p, ok := receive(t, sub)
	require.True(t, ok)
	assert.Equal(t, domain.PaymentStatusSuccessful, p.Status)
	<-sub.Done()

	time.Sleep(20 * time.Millisecond)
	getter.AssertNumberOfCalls(t, "GetPayment", 2)
}

func TestPollStrategy_RetriesThenGivesUp(t *testing.T) {
	getter := new(MockGetter)
	boom := errors.New("connection refused")
	getter.On("GetPayment", mock.Anything, int32(5)).Return(nil, boom)

	w := NewSettlementWatcher(NewPollStrategy(getter, 2*time.Millisecond, 3))
	sub := w.Watch(context.Background(), payment(5, domain.PaymentStatusPending))

	_, ok := receive(t, sub)
	assert.False(t, ok)
	require.Error(t, sub.Err())
	assert.ErrorIs(t, sub.Err(), boom)
	getter.AssertNumberOfCalls(t, "GetPayment", 3)
}

func TestPollStrategy_FailureCountResetsOnSuccess(t *testing.T) {
	getter := new(MockGetter)
	boom := errors.New("timeout")
	getter.On("GetPayment", mock.Anything, int32(5)).Return(nil, boom).Once()
	getter.On("GetPayment", mock.Anything, int32(5)).Return(ptr(payment(5, domain.PaymentStatusPending)), nil).Once()
	getter.On("GetPayment", mock.Anything, int32(5)).Return(nil, boom).Once()
	getter.On("GetPayment", mock.Anything, int32(5)).Return(ptr(payment(5, domain.PaymentStatusFailed)), nil).Once()

	w := NewSettlementWatcher(NewPollStrategy(getter, 2*time.Millisecond, 2))
	sub := w.Watch(context.Background(), payment(5, domain.PaymentStatusPending))

	p, ok := receive(t, sub)
	require.True(t, ok)
	assert.Equal(t, domain.PaymentStatusFailed, p.Status)
	assert.NoError(t, sub.Err())
}

func TestPushStrategy_DeliversMatchingTerminalEvent(t *testing.T) {
	stream := newFakeStream(
		domain.EventForStatus(payment(9, domain.PaymentStatusSuccessful)),
		domain.EventForStatus(payment(5, domain.PaymentStatusSuccessful)),
	)
	push := &PushStrategy{Subscribe: func(context.Context) (EventStream, error) { return stream, nil }}
	getter := new(MockGetter)

	w := NewSettlementWatcher(push, NewPollStrategy(getter, time.Hour, 0))
	sub := w.Watch(context.Background(), payment(5, domain.PaymentStatusPending))

	p, ok := receive(t, sub)
	require.True(t, ok)
	assert.Equal(t, int32(5), p.ID)
	assert.Equal(t, domain.PaymentStatusSuccessful, p.Status)

	<-sub.Done()
	select {
	case <-stream.closed:
	default:
		t.Fatal("push stream left open")
	}
	getter.AssertNotCalled(t, "GetPayment", mock.Anything, mock.Anything)
}

func TestPushStrategy_UnavailableFallsBackToPolling(t *testing.T) {
	push := &PushStrategy{Subscribe: func(context.Context) (EventStream, error) {
		return nil, errors.New("dial failed")
	}}
	getter := new(MockGetter)
	getter.On("GetPayment", mock.Anything, int32(5)).Return(ptr(payment(5, domain.PaymentStatusSuccessful)), nil).Once()

	w := NewSettlementWatcher(push, NewPollStrategy(getter, 2*time.Millisecond, 0))
	sub := w.Watch(context.Background(), payment(5, domain.PaymentStatusPending))

	p, ok := receive(t, sub)
	require.True(t, ok)
	assert.Equal(t, domain.PaymentStatusSuccessful, p.Status)
}

func TestSubscription_Cancel(t *testing.T) {
	stream := newFakeStream()
	push := &PushStrategy{Subscribe: func(context.Context) (EventStream, error) { return stream, nil }}
	getter := new(MockGetter)
	getter.On("GetPayment", mock.Anything, int32(5)).Return(ptr(payment(5, domain.PaymentStatusPending)), nil)

	w := NewSettlementWatcher(push, NewPollStrategy(getter, time.Millisecond, 0))
	sub := w.Watch(context.Background(), payment(5, domain.PaymentStatusPending))
	time.Sleep(10 * time.Millisecond)
	sub.Cancel()

	_, ok := receive(t, sub)
	assert.False(t, ok)
	assert.ErrorIs(t, sub.Err(), context.Canceled)

	calls := len(getter.Calls)
	time.Sleep(10 * time.Millisecond)
	assert.Len(t, getter.Calls, calls)
}

func TestSubscription_ContextDeadline(t *testing.T) {
	getter := new(MockGetter)
	getter.On("GetPayment", mock.Anything, int32(5)).Return(ptr(payment(5, domain.PaymentStatusPending)), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	sub := NewSettlementWatcher(NewPollStrategy(getter, time.Millisecond, 0)).Watch(ctx, payment(5, domain.PaymentStatusPending))

	_, ok := receive(t, sub)
	assert.False(t, ok)
	assert.ErrorIs(t, sub.Err(), context.DeadlineExceeded)
}
