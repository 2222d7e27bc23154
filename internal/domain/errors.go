package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnauthenticated   = errors.New("not authenticated")
	ErrForbidden         = errors.New("access denied")
	ErrNotFound          = errors.New("not found")
	ErrRentalNotFound    = fmt.Errorf("rental %w", ErrNotFound)
	ErrPaymentNotFound   = fmt.Errorf("payment %w", ErrNotFound)
	ErrHouseNotFound     = fmt.Errorf("house %w", ErrNotFound)
	ErrPersistence       = errors.New("storage unavailable")
	ErrDelivery          = errors.New("push delivery failed")
	ErrDuplicatePayment  = errors.New("a payment for this rental and month already exists")
	ErrInvalidTransition = errors.New("payment is already in a terminal state")
	ErrNotSettled        = errors.New("payment has not been settled")
	ErrHouseUnavailable  = errors.New("house is already rented")
	ErrRentalEnded       = errors.New("rental has ended")
)

// ValidationError is a user-correctable input problem. Message is shown to
// the caller verbatim.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + " (" + strings.Join(parts, ", ") + ")"
}

func NewValidationError(msg string, fields map[string]string) *ValidationError {
	return &ValidationError{Message: msg, Fields: fields}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Persistence wraps a storage failure so callers can tell it apart from
// domain errors.
func Persistence(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrPersistence, err)
}
