package domain

type EventType string

const (
	EventPaymentApproved EventType = "paymentApproved"
	EventPaymentRejected EventType = "paymentRejected"
)

// PaymentEvent is pushed to the owning tenant when a payment settles.
type PaymentEvent struct {
	Type    EventType `json:"type"`
	Payment Payment   `json:"payment"`
}

// EventForStatus returns the event announcing a terminal status.
func EventForStatus(p Payment) PaymentEvent {
	t := EventPaymentApproved
	if p.Status == PaymentStatusFailed {
		t = EventPaymentRejected
	}
	return PaymentEvent{Type: t, Payment: p}
}
