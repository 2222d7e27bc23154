package domain

// PaymentOutcome is the settlement path a new payment takes. It is a closed
// union: Settled or PendingApproval.
type PaymentOutcome interface {
	// InitialStatus is the status the payment is recorded with.
	InitialStatus() PaymentStatus
	outcome()
}

// Settled payments are confirmed at submission time.
type Settled struct{}

// PendingApproval payments wait for an admin (or a gateway callback).
type PendingApproval struct{}

func (Settled) InitialStatus() PaymentStatus         { return PaymentStatusSuccessful }
func (PendingApproval) InitialStatus() PaymentStatus { return PaymentStatusPending }

func (Settled) outcome()         {}
func (PendingApproval) outcome() {}

// OutcomeFor chooses the settlement path for a payment method. Cash needs a
// human to confirm receipt; mpesa is treated as confirmed by the gateway.
func OutcomeFor(method PaymentMethod) PaymentOutcome {
	switch method {
	case PaymentMethodMpesa:
		return Settled{}
	default:
		return PendingApproval{}
	}
}
