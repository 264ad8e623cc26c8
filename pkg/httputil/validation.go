package httputil

import (
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/medflow/pharmacy-inventory/pkg/errors"
)

var validate = validator.New()

// Validate validates a request struct and renders failures as a VALIDATION_ERROR
// keyed by struct field name.
func Validate(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return errors.BadRequest("invalid request")
		}
		details := make(map[string]string, len(validationErrors))

		for _, e := range validationErrors {
			details[e.Field()] = formatValidationError(e)
		}

		return errors.Validation(details)
	}
	return nil
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "this field is required"
	case "min":
		if isString(e.Kind()) {
			return "must be at least " + e.Param() + " characters"
		}
		return "must be at least " + e.Param()
	case "max":
		if isString(e.Kind()) {
			return "must be at most " + e.Param() + " characters"
		}
		return "must be at most " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must be at least " + e.Param()
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return "invalid value"
	}
}

func isString(k reflect.Kind) bool {
	return k == reflect.String
}
