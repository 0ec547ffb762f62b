package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their JSON names so messages match the wire format.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateStruct runs struct-tag validation on v. Failures are wrapped
// with ErrValidation and list every offending field.
func ValidateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return validationError(err)
	}
	return nil
}

// ValidateVar validates a single value against a tag expression such as
// "required,url". The field name is used in the error message.
func ValidateVar(field string, value any, tag string) error {
	if err := validate.Var(value, tag); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s", ErrValidation, describe(field, verrs[0]))
		}
		return fmt.Errorf("%w: %s: %v", ErrValidation, field, err)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe.Field(), fe))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

func describe(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "url", "http_url":
		return field + " must be a valid URL"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed rule %q", field, fe.Tag())
	}
}
