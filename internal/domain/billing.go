package domain

import (
	"fmt"
	"time"
)

const (
	// DueDay is the day of month rent falls due.
	DueDay = 5
	// GraceLastDay is the last day of the grace window; later days are late.
	GraceLastDay = 10

	BillingPeriodLayout = "2006-01"

	// MaxAdvancePeriods is how many billing periods past the current one
	// rent may be paid ahead.
	MaxAdvancePeriods = 12
)

// AgeStatus maps a calendar day of month to the aged payment status of an
// unpaid rental:
//
//	day < 5        pending (before due)
//	5 <= day <= 10 pending (grace period)
//	day > 10       late
func AgeStatus(dayOfMonth int) RentalPaymentStatus {
	switch {
	case dayOfMonth < DueDay:
		return RentalPaymentPending
	case dayOfMonth <= GraceLastDay:
		return RentalPaymentPending
	default:
		return RentalPaymentLate
	}
}

// BillingPeriod returns the YYYY-MM billing period containing t.
func BillingPeriod(t time.Time) string {
	return t.Format(BillingPeriodLayout)
}

// ParseBillingPeriod validates a YYYY-MM month and returns its first day (UTC).
func ParseBillingPeriod(month string) (time.Time, error) {
	t, err := time.Parse(BillingPeriodLayout, month)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid billing month %q: expected YYYY-MM", month)
	}
	return t, nil
}

// AddPeriods returns the billing period n months after month.
func AddPeriods(month string, n int) (string, error) {
	t, err := ParseBillingPeriod(month)
	if err != nil {
		return "", err
	}
	return BillingPeriod(t.AddDate(0, n, 0)), nil
}

// NextDueDate returns the due day of the month following t, in t's location.
func NextDueDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, DueDay, 0, 0, 0, 0, t.Location())
}

// FormatBillingMonth renders "2025-11" as "November 2025".
func FormatBillingMonth(month string) string {
	t, err := ParseBillingPeriod(month)
	if err != nil {
		return "N/A"
	}
	return t.Format("January 2006")
}

// DueDateAfter returns the due date of the billing period following month,
// in loc. Rent paid through "2025-11" is next due on 5 December 2025.
func DueDateAfter(month string, loc *time.Location) (time.Time, error) {
	t, err := ParseBillingPeriod(month)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month()+1, DueDay, 0, 0, 0, 0, loc), nil
}

// DueDateOf returns the due date of the billing period containing t.
func DueDateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), DueDay, 0, 0, 0, 0, t.Location())
}
