package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"tenant-portal-backend/internal/domain"
	"tenant-portal-backend/internal/logger"
	"tenant-portal-backend/internal/receipt"
)

// DefaultMailTimeout bounds a single SendGrid call.
const DefaultMailTimeout = 10 * time.Second

type mailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// Mailer sends payment decision notices. Without an API key notices are
// only logged.
type Mailer struct {
	sender    mailSender
	fromEmail string
	fromName  string
	currency  string
	timeout   time.Duration
}

func NewMailer(apiKey, fromEmail, fromName, currency string) *Mailer {
	m := &Mailer{fromEmail: fromEmail, fromName: fromName, currency: currency, timeout: DefaultMailTimeout}
	if apiKey != "" {
		m.sender = sendgrid.NewSendClient(apiKey)
	}
	return m
}

// SendPaymentDecision tells a tenant their payment was approved or rejected.
func (m *Mailer) SendPaymentDecision(ctx context.Context, to *domain.User, p *domain.Payment) error {
	if to == nil || to.Email == "" {
		return nil
	}
	subject, body := decisionText(to.Name, p, m.currency)

	if m.sender == nil {
		logger.InfoContext(ctx, "E-mail notice (not sent, sendgrid disabled)", "to", to.Email, "subject", subject)
		return nil
	}

	message := mail.NewSingleEmail(mail.NewEmail(m.fromName, m.fromEmail), subject, mail.NewEmail(to.Name, to.Email), body, "")
	logger.ExternalServiceCall("sendgrid", "send", "to", to.Email, "paymentID", p.ID)
	timeout := m.timeout
	if timeout <= 0 {
		timeout = DefaultMailTimeout
	}
	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	resp, err := m.sender.SendWithContext(sendCtx, message)
	if err == nil && resp.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", resp.StatusCode, resp.Body)
	}
	logger.ExternalServiceResult("sendgrid", "send", err, "paymentID", p.ID)
	if err != nil {
		return fmt.Errorf("failed to send payment notice: %w", err)
	}
	return nil
}

func decisionText(name string, p *domain.Payment, currency string) (string, string) {
	month := domain.FormatBillingMonth(p.Month)
	amount := receipt.FormatAmount(currency, p.Amount)
	if p.Status == domain.PaymentStatusFailed {
		body := fmt.Sprintf("Hello %s,\n\nYour %s payment of %s for %s was not accepted.", name, p.Method, amount, month)
		if p.FailureReason != "" {
			body += fmt.Sprintf("\n\nReason: %s", p.FailureReason)
		}
		return fmt.Sprintf("Rent payment for %s rejected", month), body + "\n\nPlease contact the office or submit a new payment."
	}
	body := fmt.Sprintf("Hello %s,\n\nYour %s payment of %s for %s has been approved. Your receipt is available in the tenant portal (%s).",
		name, p.Method, amount, month, receipt.Number(p.ID))
	return fmt.Sprintf("Rent payment for %s approved", month), body
}
