package validator

import (
	"errors"
	"strings"

	val "github.com/go-playground/validator/v10"
)

var messages = map[string]string{
	"required":    "{field} is required",
	"gte":         "{field} must be greater than or equal to {param}",
	"lte":         "{field} must be less than or equal to {param}",
	"gt":          "{field} must be greater than {param}",
	"oneof":       "{field} must be one of {param}",
	"max":         "{field} must be at most {param}",
	"min":         "{field} must be at least {param}",
	"email":       "{field} must be a valid email address",
	"isodate":     "{field} must be a date in YYYY-MM-DD format",
	"clock":       "{field} must be a time in HH:MM format",
	"phone":       "{field} must be a valid phone number",
	"uuid":        "{field} must be a valid UUID",
	"nefield":     "{field} must differ from {param}",
	"mimetypes":   "{field} must be one of {param}",
	"maxfilesize": "{field} must not exceed {param} MB",
}

// message describes the first failed rule. Rules without a template fall
// back to the validator's own text.
func message(err error) string {
	var valErrors val.ValidationErrors
	if !errors.As(err, &valErrors) || len(valErrors) == 0 {
		return err.Error()
	}

	first := valErrors[0]

	template, ok := messages[first.Tag()]
	if !ok {
		return first.Error()
	}

	field := first.Field()
	if field == "" {
		field = "value"
	}

	return strings.NewReplacer("{field}", field, "{param}", first.Param()).Replace(template)
}
