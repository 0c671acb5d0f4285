package dto

import (
	"errors"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/tickitpro/ticket-service/pkg/util"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a request payload against its struct tags and maps
// violations onto a VALIDATION_FAILED error keyed by field name.
func Validate(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	var violations validator.ValidationErrors
	if errors.As(err, &violations) {
		details := make(map[string]any, len(violations))
		for _, violation := range violations {
			details[violation.Field()] = violation.Tag()
		}
		return apperrors.NewValidationError("request validation failed", details)
	}
	return apperrors.NewValidationError("request validation failed", nil)
}
