package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type RentalStatus string

const (
	RentalStatusActive RentalStatus = "active"
	RentalStatusEnded  RentalStatus = "ended"
)

// RentalPaymentStatus is the aged status of the rent owed on a rental.
type RentalPaymentStatus string

const (
	RentalPaymentPending RentalPaymentStatus = "pending"
	RentalPaymentPaid    RentalPaymentStatus = "paid"
	RentalPaymentLate    RentalPaymentStatus = "late"
)

type Rental struct {
	ID        int32      `json:"id"`
	TenantID  int32      `json:"tenantId"`
	HouseID   int32      `json:"houseId"`
	StartDate time.Time  `json:"startDate"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	// Amount is the monthly rent, copied from the house price at assignment.
	Amount          decimal.Decimal     `json:"amount"`
	NextPaymentDate time.Time           `json:"nextPaymentDate"`
	PaymentStatus   RentalPaymentStatus `json:"paymentStatus"`
	RentalStatus    RentalStatus        `json:"rentalStatus"`
	// PaidThrough is the latest billing month (YYYY-MM) with a settled payment.
	PaidThrough *string   `json:"paidThrough,omitempty"`
	House       *House    `json:"house,omitempty"` // joined on reads
	CreatedOn   time.Time `json:"createdOn"`
	UpdatedOn   time.Time `json:"updatedOn"`
}

func (r *Rental) IsActive() bool {
	return r.RentalStatus == RentalStatusActive
}

// BelongsTo reports whether the rental is owned by the given tenant.
func (r *Rental) BelongsTo(tenantID int32) bool {
	return r.TenantID == tenantID
}

// IsPaidFor reports whether rent has been settled for the given billing period.
func (r *Rental) IsPaidFor(period string) bool {
	return r.PaidThrough != nil && *r.PaidThrough >= period
}
