package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCash  PaymentMethod = "cash"
	PaymentMethodMpesa PaymentMethod = "mpesa"
)

func (m PaymentMethod) IsValid() bool {
	return m == PaymentMethodCash || m == PaymentMethodMpesa
}

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusSuccessful PaymentStatus = "successful"
	PaymentStatusFailed     PaymentStatus = "failed"
)

// IsTerminal reports whether no further transition is possible.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusSuccessful || s == PaymentStatusFailed
}

// CanTransitionTo encodes the payment state machine:
// pending -> successful, pending -> failed. Terminal states never move.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return s == PaymentStatusPending && next.IsTerminal()
}

type Payment struct {
	ID            int32           `json:"id"`
	RentalID      int32           `json:"rentalId"`
	TenantID      int32           `json:"tenantId"`
	HouseID       int32           `json:"houseId"`
	Amount        decimal.Decimal `json:"amount"`
	Method        PaymentMethod   `json:"method"`
	PhoneNumber   *string         `json:"phoneNumber,omitempty"`
	TransactionID *string         `json:"transactionId,omitempty"`
	Month         string          `json:"month"`
	Status        PaymentStatus   `json:"status"`
	PaymentDate   time.Time       `json:"paymentDate"`
	SettledAt     *time.Time      `json:"settledAt,omitempty"`
	FailureReason string          `json:"failureReason,omitempty"`
	// Joined from users and houses on listings.
	TenantName  string `json:"tenantName,omitempty"`
	TenantEmail string `json:"tenantEmail,omitempty"`
	HouseNo     string `json:"houseNo,omitempty"`
}

// PaymentFilter narrows admin payment listings.
type PaymentFilter struct {
	Status   PaymentStatus
	TenantID int32
	Limit    int32
	Offset   int32
}
