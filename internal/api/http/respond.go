package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"tenant-portal-backend/internal/domain"
	"tenant-portal-backend/internal/logger"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// writeServiceError maps a service error onto its HTTP status and code.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ve.Message, Code: "VALIDATION_ERROR", Fields: ve.Fields})
	case errors.Is(err, domain.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "you do not have access to this resource")
	case errors.Is(err, domain.ErrRentalNotFound):
		writeError(w, http.StatusNotFound, "RENTAL_NOT_FOUND", "no rentals found")
	case errors.Is(err, domain.ErrPaymentNotFound):
		writeError(w, http.StatusNotFound, "PAYMENT_NOT_FOUND", "payment not found")
	case errors.Is(err, domain.ErrHouseNotFound):
		writeError(w, http.StatusNotFound, "HOUSE_NOT_FOUND", "house not found")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "not found")
	case errors.Is(err, domain.ErrDuplicatePayment):
		writeError(w, http.StatusConflict, "DUPLICATE_PAYMENT", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, domain.ErrNotSettled):
		writeError(w, http.StatusConflict, "NOT_SETTLED", err.Error())
	case errors.Is(err, domain.ErrHouseUnavailable):
		writeError(w, http.StatusConflict, "HOUSE_UNAVAILABLE", err.Error())
	case errors.Is(err, domain.ErrRentalEnded):
		writeError(w, http.StatusConflict, "RENTAL_ENDED", err.Error())
	case errors.Is(err, domain.ErrPersistence):
		logger.ErrorContext(r.Context(), "Storage failure", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusServiceUnavailable, "PERSISTENCE_ERROR", "storage is temporarily unavailable")
	default:
		logger.ErrorContext(r.Context(), "Unhandled error", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// decodeJSON decodes the request body into v. Unknown fields are ignored.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.NewValidationError(fmt.Sprintf("malformed request body: %v", err), nil)
	}
	return nil
}

// pathID parses a numeric path variable. The routes only match digits, so
// a failure here means the value overflowed.
func pathID(r *http.Request, name string) (int32, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("invalid id", map[string]string{name: "must be a positive integer"})
	}
	return int32(id), nil
}
