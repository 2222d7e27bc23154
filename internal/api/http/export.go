package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"tenant-portal-backend/internal/domain"
	"tenant-portal-backend/internal/logger"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportSheet     = "Payments"
)

var exportHeadings = []string{"ID", "Tenant ID", "Tenant", "Email", "Rental ID", "House ID", "House No",
	"Month", "Method", "Amount", "Status", "Transaction ID", "Phone Number", "Payment Date", "Settled At", "Failure Reason"}

// ExportPayments writes the filtered admin payment list as a spreadsheet.
func (h *Handler) ExportPayments(w http.ResponseWriter, r *http.Request) {
	filter, err := paymentFilter(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	payments, err := h.payments.ListPayments(r.Context(), PrincipalFrom(r.Context()), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	f, err := paymentsWorkbook(payments)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to build payments export", "error", err)
		writeError(w, http.StatusInternalServerError, "EXPORT_FAILED", "failed to build export")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", contentTypeXLSX)
	w.Header().Set("Content-Disposition", "attachment; filename=payments.xlsx")
	if err := f.Write(w); err != nil {
		logger.ErrorContext(r.Context(), "Failed to write payments export", "error", err)
	}
}

func paymentsWorkbook(payments []domain.Payment) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}

	for i, heading := range exportHeadings {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(exportSheet, cell, heading); err != nil {
			return nil, err
		}
	}

	for i, p := range payments {
		amount, _ := p.Amount.Float64()
		row := []any{p.ID, p.TenantID, p.TenantName, p.TenantEmail, p.RentalID, p.HouseID, p.HouseNo, p.Month, string(p.Method),
			amount, string(p.Status), deref(p.TransactionID), deref(p.PhoneNumber),
			p.PaymentDate.UTC().Format(time.RFC3339), formatOptionalTime(p.SettledAt), p.FailureReason}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
