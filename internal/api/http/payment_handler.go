package http

import (
	"net/http"
	"strconv"

	"tenant-portal-backend/internal/domain"
	"tenant-portal-backend/internal/service"
)

type paymentResponse struct {
	Payment domain.Payment `json:"payment"`
}

type paymentsResponse struct {
	Payments []domain.Payment `json:"payments"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// SubmitPayment records a tenant's payment. Any amount in the body is
// ignored: the decoder only fills SubmitPaymentInput.
func (h *Handler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	var in service.SubmitPaymentInput
	if err := decodeJSON(r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	res, err := h.payments.SubmitPayment(r.Context(), PrincipalFrom(r.Context()), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, paymentResponse{Payment: res.Payment})
}

func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	p, err := h.payments.GetPayment(r.Context(), PrincipalFrom(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentResponse{Payment: *p})
}

func (h *Handler) ListMyPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.payments.ListMyPayments(r.Context(), PrincipalFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentsResponse{Payments: payments})
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusOK, paymentsResponse{Payments: payments})
}

func (h *Handler) ApprovePayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	p, err := h.payments.ApprovePayment(r.Context(), PrincipalFrom(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentResponse{Payment: *p})
}

func (h *Handler) RejectPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req rejectRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}
	p, err := h.payments.RejectPayment(r.Context(), PrincipalFrom(r.Context()), id, req.Reason)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentResponse{Payment: *p})
}

func (h *Handler) DownloadReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	doc, err := h.receipts.RenderReceipt(r.Context(), PrincipalFrom(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=receipt-"+strconv.Itoa(int(id))+".pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

// paymentFilter reads ?status=&tenantId=&limit=&offset=.
func paymentFilter(r *http.Request) (domain.PaymentFilter, error) {
	q := r.URL.Query()
	f := domain.PaymentFilter{Status: domain.PaymentStatus(q.Get("status"))}
	fields := map[string]string{}
	parse := func(name string, dst *int32) {
		v := q.Get(name)
		if v == "" {
			return
		}
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 0 {
			fields[name] = "must be a non-negative integer"
			return
		}
		*dst = int32(n)
	}
	parse("tenantId", &f.TenantID)
	parse("limit", &f.Limit)
	parse("offset", &f.Offset)
	if len(fields) > 0 {
		return f, domain.NewValidationError("invalid query parameters", fields)
	}
	if f.Limit > 500 {
		f.Limit = 500
	}
	return f, nil
}
