package apperror

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// FromValidator converts validator errors into field errors. Field names are the
// names registered with the validator, which are the JSON names in this API.
func FromValidator(err error) []FieldError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}
	out := make([]FieldError, 0, len(ve))
	for _, fe := range ve {
		out = append(out, FieldError{
			Field:  fe.Field(),
			Reason: fe.Tag(),
			Param:  fe.Param(),
		})
	}
	return out
}

// FromValidation wraps a validator error as a 400 AppError, passing other errors through.
func FromValidation(err error) error {
	if fields := FromValidator(err); fields != nil {
		return Validation("Validation failed", fields...)
	}
	return err
}
