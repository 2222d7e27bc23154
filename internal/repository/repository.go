package repository

import (
	"context"
	"time"

	"tenant-portal-backend/internal/domain"
)

// Implementations return domain.ErrNotFound (wrapped) when a row is absent
// and domain.ErrDuplicatePayment on a (rental, month) conflict. Any other
// error is a storage failure.

type UserRepository interface {
	GetByID(ctx context.Context, id int32) (*domain.User, error)
}

type HouseRepository interface {
	Create(ctx context.Context, house *domain.House) error
	GetByID(ctx context.Context, id int32) (*domain.House, error)
	List(ctx context.Context, availability domain.HouseAvailability) ([]domain.House, error)
	// Update changes the number and price of a house, leaving availability
	// alone, and reloads the row into house.
	Update(ctx context.Context, house *domain.House) error
	// SetAvailability moves a house from one availability to another and
	// reports whether the row was in the expected state.
	SetAvailability(ctx context.Context, id int32, from, to domain.HouseAvailability) (bool, error)
}

type RentalRepository interface {
	Create(ctx context.Context, rental *domain.Rental) error
	GetByID(ctx context.Context, id int32) (*domain.Rental, error)
	ListByTenant(ctx context.Context, tenantID int32) ([]domain.Rental, error)
	ListAll(ctx context.Context) ([]domain.Rental, error)
	ListActiveTenantIDs(ctx context.Context) ([]int32, error)
	UpdatePaymentStatus(ctx context.Context, id int32, status domain.RentalPaymentStatus) error
	// MarkSettled records a settled month. paid_through and the next payment
	// date never move backwards.
	MarkSettled(ctx context.Context, id int32, paidThrough string, nextDue time.Time, status domain.RentalPaymentStatus) error
	End(ctx context.Context, id int32, endDate time.Time) error
	// RolloverPaid resets paid rentals not covering period back to pending.
	RolloverPaid(ctx context.Context, period string, nextDue time.Time) (int64, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByID(ctx context.Context, id int32) (*domain.Payment, error)
	ListByTenant(ctx context.Context, tenantID int32) ([]domain.Payment, error)
	List(ctx context.Context, filter domain.PaymentFilter) ([]domain.Payment, error)
	// Transition atomically moves a payment from one status to another and
	// reports whether this call performed the change.
	Transition(ctx context.Context, id int32, from, to domain.PaymentStatus, settledAt *time.Time, reason string) (bool, error)
}
