package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"tenant-portal-backend/internal/domain"
	"tenant-portal-backend/internal/receipt"
)

// Every operation takes the authenticated caller explicitly. Handlers
// resolve it from the access token; jobs run without one.

type RentalService interface {
	// RefreshTenantRentals ages the tenant's unpaid rentals against today's
	// date and returns them with house details.
	RefreshTenantRentals(ctx context.Context, principal domain.Principal, tenantID int32) ([]domain.Rental, error)
	AssignRental(ctx context.Context, principal domain.Principal, tenantID, houseID int32) (*domain.Rental, error)
	EndRental(ctx context.Context, principal domain.Principal, rentalID int32) (*domain.Rental, error)
	ListRentals(ctx context.Context, principal domain.Principal) ([]domain.Rental, error)
	GetRental(ctx context.Context, principal domain.Principal, rentalID int32) (*domain.Rental, error)
}

// BillingService holds the background billing sweeps.
type BillingService interface {
	AgeAllRentals(ctx context.Context) (int, error)
	RolloverBillingCycle(ctx context.Context) (int64, error)
}

type PaymentService interface {
	SubmitPayment(ctx context.Context, principal domain.Principal, in SubmitPaymentInput) (*PaymentResult, error)
	GetPayment(ctx context.Context, principal domain.Principal, paymentID int32) (*domain.Payment, error)
	ListMyPayments(ctx context.Context, principal domain.Principal) ([]domain.Payment, error)
	ListPayments(ctx context.Context, principal domain.Principal, filter domain.PaymentFilter) ([]domain.Payment, error)
	ApprovePayment(ctx context.Context, principal domain.Principal, paymentID int32) (*domain.Payment, error)
	RejectPayment(ctx context.Context, principal domain.Principal, paymentID int32, reason string) (*domain.Payment, error)
}

type HouseService interface {
	CreateHouse(ctx context.Context, principal domain.Principal, houseNo string, price decimal.Decimal) (*domain.House, error)
	ListHouses(ctx context.Context, principal domain.Principal, availability domain.HouseAvailability) ([]domain.House, error)
	GetHouse(ctx context.Context, principal domain.Principal, houseID int32) (*domain.House, error)
	// UpdateHouse renames or reprices a house. Availability only moves
	// with rental assignment and ending.
	UpdateHouse(ctx context.Context, principal domain.Principal, houseID int32, houseNo string, price decimal.Decimal) (*domain.House, error)
}

type ReceiptService interface {
	GetReceipt(ctx context.Context, principal domain.Principal, paymentID int32) (*receipt.Receipt, error)
	// RenderReceipt returns the archived PDF, rendering and archiving it on
	// first use.
	RenderReceipt(ctx context.Context, principal domain.Principal, paymentID int32) ([]byte, error)
}

type EmailService interface {
	SendPaymentDecision(ctx context.Context, to *domain.User, payment *domain.Payment) error
}

// SubmitPaymentInput is a tenant's payment request. It carries no amount:
// the amount always comes from the rental.
type SubmitPaymentInput struct {
	RentalID      int32                `json:"rentalId"`
	Method        domain.PaymentMethod `json:"method" validate:"required,oneof=cash mpesa"`
	Month         string               `json:"month" validate:"required,billing_month"`
	PhoneNumber   string               `json:"phoneNumber" validate:"required_if=Method mpesa"`
	TransactionID string               `json:"transactionId" validate:"omitempty,max=64"`
}

// PaymentResult is the persisted payment and the settlement path it took.
type PaymentResult struct {
	Payment domain.Payment
	Outcome domain.PaymentOutcome
}

// Clock returns the current time. Tests substitute a fixed one.
type Clock func() time.Time
