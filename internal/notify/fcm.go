package notify

import (
	"context"
	"fmt"
	"strconv"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"tenant-portal-backend/internal/domain"
	"tenant-portal-backend/internal/logger"
)

type messageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMPublisher sends payment events to the tenant's FCM topic so mobile
// clients hear about settlements while no websocket is open.
type FCMPublisher struct {
	sender messageSender
}

func NewFCMPublisher(ctx context.Context, projectID, credentialsFile string) (*FCMPublisher, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase messaging: %w", err)
	}
	return &FCMPublisher{sender: client}, nil
}

// TenantTopic is the FCM topic a tenant's devices subscribe to.
func TenantTopic(tenantID int32) string {
	return fmt.Sprintf("tenant-%d", tenantID)
}

func (p *FCMPublisher) Publish(ctx context.Context, tenantID int32, event domain.PaymentEvent) error {
	msg := fcmMessage(tenantID, event)
	logger.ExternalServiceCall("fcm", "send", "topic", msg.Topic, "type", event.Type)
	id, err := p.sender.Send(ctx, msg)
	logger.ExternalServiceResult("fcm", "send", err, "messageID", id)
	if err != nil {
		return fmt.Errorf("%w: fcm: %w", domain.ErrDelivery, err)
	}
	return nil
}

func fcmMessage(tenantID int32, event domain.PaymentEvent) *messaging.Message {
	pay := event.Payment
	title := "Payment approved"
	body := fmt.Sprintf("Your rent payment for %s has been approved.", domain.FormatBillingMonth(pay.Month))
	if event.Type == domain.EventPaymentRejected {
		title = "Payment rejected"
		body = fmt.Sprintf("Your rent payment for %s was not accepted.", domain.FormatBillingMonth(pay.Month))
	}
	return &messaging.Message{
		Topic: TenantTopic(tenantID),
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: map[string]string{
			"type":      string(event.Type),
			"paymentId": strconv.Itoa(int(pay.ID)),
			"rentalId":  strconv.Itoa(int(pay.RentalID)),
			"month":     pay.Month,
			"status":    string(pay.Status),
		},
	}
}
