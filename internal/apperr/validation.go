package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FromValidation turns a validator or JSON decoding failure into a
// Validation error with one detail per offending field. Other errors are
// wrapped as Validation with a generic message.
func FromValidation(err error) *Error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			field := lowerCamel(fieldError.Field())
			switch fieldError.Tag() {
			case "required":
				details = append(details, fmt.Sprintf("%s is required", field))
			default:
				details = append(details, fmt.Sprintf("%s is invalid", field))
			}
		}
		return &Error{Kind: Validation, Message: "validation failed", Details: details, Err: err}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &Error{
			Kind:    Validation,
			Message: "validation failed",
			Details: []string{fmt.Sprintf("%s is invalid", typeErr.Field)},
			Err:     err,
		}
	}

	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind == Validation {
		return appErr
	}
	return Wrap(Validation, "invalid body", err)
}

func lowerCamel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}
