package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"

	"tenant-portal-backend/internal/domain"
)

// newValidator returns a validator that reports fields by their JSON name
// and understands the billing_month tag.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("billing_month", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseBillingPeriod(fl.Field().String())
		return err == nil
	})
	return v
}

var fieldMessages = map[string]string{
	"required":      "is required",
	"required_if":   "is required for M-Pesa payments",
	"oneof":         "must be cash or mpesa",
	"billing_month": "must be a month in YYYY-MM format",
	"max":           "is too long",
}

// validationError converts validator output into a domain ValidationError
// keyed by JSON field name.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.NewValidationError(err.Error(), nil)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Tag()]
		if !ok {
			msg = "is invalid"
		}
		fields[fe.Field()] = msg
	}
	return domain.NewValidationError("invalid payment details", fields)
}

// normalizePhone parses a phone number in the given default region and
// returns it in E.164 form.
func normalizePhone(raw, region string) (string, error) {
	num, err := libphonenumber.Parse(strings.TrimSpace(raw), region)
	if err != nil || !libphonenumber.IsValidNumber(num) {
		return "", domain.NewValidationError("invalid payment details", map[string]string{
			"phoneNumber": "is not a valid phone number",
		})
	}
	return libphonenumber.Format(num, libphonenumber.E164), nil
}
