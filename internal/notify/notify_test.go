package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenant-portal-backend/internal/domain"
)

type recordingConn struct {
	mu      sync.Mutex
	written []any
	fail    error
	closed  bool
}

func (c *recordingConn) Write(_ context.Context, v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return c.fail
	}
	c.written = append(c.written, v)
	return nil
}

func (c *recordingConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *recordingConn) events() []domain.PaymentEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []domain.PaymentEvent
	for _, v := range c.written {
		if ev, ok := v.(domain.PaymentEvent); ok {
			out = append(out, ev)
		}
	}
	return out
}

func approved(tenantID int32) domain.PaymentEvent {
	return domain.EventForStatus(domain.Payment{ID: 42, TenantID: tenantID, Month: "2025-11", Status: domain.PaymentStatusSuccessful})
}

func TestHub_PublishOnlyToOwner(t *testing.T) {
	hub := NewHub(time.Second)
	mine, other := &recordingConn{}, &recordingConn{}
	hub.Register(3, "c1", mine)
	hub.Register(4, "c2", other)

	require.NoError(t, hub.Publish(context.Background(), 3, approved(3)))

	require.Len(t, mine.events(), 1)
	assert.Equal(t, domain.EventPaymentApproved, mine.events()[0].Type)
	assert.Empty(t, other.events())
}

func TestHub_RegisterIsIdempotent(t *testing.T) {
	hub := NewHub(time.Second)
	c := &recordingConn{}
	hub.Register(3, "c1", c)
	hub.Register(3, "c1", c)
	assert.Equal(t, 1, hub.Connections(3))

	require.NoError(t, hub.Publish(context.Background(), 3, approved(3)))
	assert.Len(t, c.events(), 1)
}

func TestHub_ReRegisterMovesConnection(t *testing.T) {
	hub := NewHub(time.Second)
	c := &recordingConn{}
	hub.Register(3, "c1", c)
	hub.Register(5, "c1", c)

	assert.Equal(t, 0, hub.Connections(3))
	assert.Equal(t, 1, hub.Connections(5))
}

func TestHub_NoConnectionDropsEvent(t *testing.T) {
	hub := NewHub(time.Second)
	assert.NoError(t, hub.Publish(context.Background(), 9, approved(9)))
}

func TestHub_WriteFailureRemovesConnection(t *testing.T) {
	hub := NewHub(time.Second)
	bad := &recordingConn{fail: errors.New("broken pipe")}
	good := &recordingConn{}
	hub.Register(3, "bad", bad)
	hub.Register(3, "good", good)

	err := hub.Publish(context.Background(), 3, approved(3))
	assert.ErrorIs(t, err, domain.ErrDelivery)
	assert.True(t, bad.closed)
	assert.Equal(t, 1, hub.Connections(3))
	assert.Len(t, good.events(), 1)
}

type stubPublisher struct {
	calls int
	err   error
}

func (s *stubPublisher) Publish(context.Context, int32, domain.PaymentEvent) error {
	s.calls++
	return s.err
}

func TestFanout(t *testing.T) {
	failing := &stubPublisher{err: domain.ErrDelivery}
	ok := &stubPublisher{}
	f := Fanout{failing, nil, ok}

	err := f.Publish(context.Background(), 3, approved(3))
	assert.ErrorIs(t, err, domain.ErrDelivery)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, ok.calls)
}

type fakeSender struct {
	got *messaging.Message
	err error
}

func (f *fakeSender) Send(_ context.Context, m *messaging.Message) (string, error) {
	f.got = m
	return "projects/x/messages/1", f.err
}

func TestFCMPublisher(t *testing.T) {
	sender := &fakeSender{}
	p := &FCMPublisher{sender: sender}

	require.NoError(t, p.Publish(context.Background(), 3, approved(3)))
	assert.Equal(t, "tenant-3", sender.got.Topic)
	assert.Equal(t, "paymentApproved", sender.got.Data["type"])
	assert.Equal(t, "42", sender.got.Data["paymentId"])
	assert.Contains(t, sender.got.Notification.Body, "November 2025")

	sender.err = errors.New("quota")
	assert.ErrorIs(t, p.Publish(context.Background(), 3, approved(3)), domain.ErrDelivery)
}

type fakeMail struct {
	sent   []*mail.SGMailV3
	status int
}

func (f *fakeMail) SendWithContext(_ context.Context, m *mail.SGMailV3) (*rest.Response, error) {
	f.sent = append(f.sent, m)
	return &rest.Response{StatusCode: f.status}, nil
}

// blockingMail never answers; it returns only when its context ends.
type blockingMail struct{}

func (blockingMail) SendWithContext(ctx context.Context, _ *mail.SGMailV3) (*rest.Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestMailer_SendPaymentDecision(t *testing.T) {
	user := &domain.User{ID: 3, Name: "Jane", Email: "jane@example.com"}
	p := &domain.Payment{ID: 42, Amount: decimal.NewFromInt(15000), Method: domain.PaymentMethodCash,
		Month: "2025-11", Status: domain.PaymentStatusSuccessful}

	t.Run("Sends through sendgrid", func(t *testing.T) {
		sender := &fakeMail{status: 202}
		m := &Mailer{sender: sender, fromEmail: "office@example.com", fromName: "Office", currency: "Ksh"}

		require.NoError(t, m.SendPaymentDecision(context.Background(), user, p))
		require.Len(t, sender.sent, 1)
		assert.Equal(t, "Rent payment for November 2025 approved", sender.sent[0].Subject)
	})

	t.Run("Reports sendgrid rejection", func(t *testing.T) {
		m := &Mailer{sender: &fakeMail{status: 401}, currency: "Ksh"}
		assert.Error(t, m.SendPaymentDecision(context.Background(), user, p))
	})

	t.Run("Stalled sendgrid call is cut off", func(t *testing.T) {
		m := &Mailer{sender: blockingMail{}, currency: "Ksh", timeout: 50 * time.Millisecond}

		start := time.Now()
		err := m.SendPaymentDecision(context.Background(), user, p)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("Caller deadline applies", func(t *testing.T) {
		m := &Mailer{sender: blockingMail{}, currency: "Ksh", timeout: time.Minute}
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		start := time.Now()
		assert.ErrorIs(t, m.SendPaymentDecision(ctx, user, p), context.DeadlineExceeded)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("Disabled mailer only logs", func(t *testing.T) {
		m := NewMailer("", "office@example.com", "Office", "Ksh")
		assert.NoError(t, m.SendPaymentDecision(context.Background(), user, p))
	})
}

func TestDecisionText(t *testing.T) {
	p := &domain.Payment{ID: 42, Amount: decimal.NewFromInt(15000), Method: domain.PaymentMethodCash,
		Month: "2025-11", Status: domain.PaymentStatusFailed, FailureReason: "cash not received"}

	subject, body := decisionText("Jane", p, "Ksh")
	assert.Equal(t, "Rent payment for November 2025 rejected", subject)
	assert.Contains(t, body, "Ksh 15,000")
	assert.Contains(t, body, "Reason: cash not received")
}
