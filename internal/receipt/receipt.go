// Package receipt turns a settled payment into an immutable receipt and
// renders it as a PDF document.
package receipt

import (
	"fmt"
	"time"

	"tenant-portal-backend/internal/domain"
)

const notAvailable = "N/A"

// Receipt is the display snapshot of one settled payment. It is derived
// only from stored data so rebuilding it yields the same values.
type Receipt struct {
	Number        string    `json:"number"`
	Company       string    `json:"company"`
	TenantName    string    `json:"tenantName"`
	HouseNo       string    `json:"houseNo"`
	Month         string    `json:"month"`
	Method        string    `json:"method"`
	PhoneNumber   string    `json:"phoneNumber,omitempty"`
	TransactionID string    `json:"transactionId,omitempty"`
	Amount        string    `json:"amount"`
	Status        string    `json:"status"`
	IssueDate     time.Time `json:"issueDate"`
}

type Options struct {
	Currency string
	Company  string
}

// Build assembles the receipt for a successful payment. Payments in any
// other state return domain.ErrNotSettled.
func Build(p *domain.Payment, house *domain.House, tenant *domain.User, opts Options) (*Receipt, error) {
	if p == nil || p.Status != domain.PaymentStatusSuccessful {
		return nil, domain.ErrNotSettled
	}

	r := &Receipt{
		Number:     Number(p.ID),
		Company:    opts.Company,
		TenantName: notAvailable,
		HouseNo:    notAvailable,
		Month:      domain.FormatBillingMonth(p.Month),
		Method:     string(p.Method),
		Amount:     FormatAmount(opts.Currency, p.Amount),
		Status:     string(p.Status),
		IssueDate:  p.PaymentDate.UTC(),
	}
	if p.SettledAt != nil {
		r.IssueDate = p.SettledAt.UTC()
	}
	if tenant != nil && tenant.Name != "" {
		r.TenantName = tenant.Name
	}
	if house != nil && house.HouseNo != "" {
		r.HouseNo = house.HouseNo
	}
	if p.Method == domain.PaymentMethodMpesa && p.PhoneNumber != nil {
		r.PhoneNumber = *p.PhoneNumber
	}
	if p.Method != domain.PaymentMethodCash && p.TransactionID != nil {
		r.TransactionID = *p.TransactionID
	}
	return r, nil
}

// Number is the printed receipt number of a payment.
func Number(paymentID int32) string {
	return fmt.Sprintf("RCT-%06d", paymentID)
}

type Line struct {
	Label string
	Value string
}

// Lines lists the receipt fields in print order, omitting the ones that do
// not apply to the payment method.
func (r *Receipt) Lines() []Line {
	lines := []Line{
		{"Receipt No", r.Number},
		{"Tenant", r.TenantName},
		{"House No", r.HouseNo},
		{"Month", r.Month},
		{"Payment Method", r.Method},
	}
	if r.PhoneNumber != "" {
		lines = append(lines, Line{"Phone Number", r.PhoneNumber})
	}
	if r.TransactionID != "" {
		lines = append(lines, Line{"Transaction ID", r.TransactionID})
	}
	return append(lines,
		Line{"Amount", r.Amount},
		Line{"Status", r.Status},
		Line{"Date", r.IssueDate.Format("2 January 2006")},
	)
}
