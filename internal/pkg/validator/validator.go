// Package validator wraps go-playground/validator with a package-level
// instance and a single error shape: ErrValidationFailed joined with one
// message per violated rule.
package validator

import (
	"errors"
	"fmt"
	"regexp"

	gvalidator "github.com/go-playground/validator/v10"
)

// ErrValidationFailed heads every error chain returned by Validate and Var.
var ErrValidationFailed = errors.New("validation failed")

var validator = newValidator()

// recordIDPattern is the character set accepted by the "recordid" tag.
var recordIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

func newValidator() *gvalidator.Validate {
	v := gvalidator.New(gvalidator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("recordid", func(fl gvalidator.FieldLevel) bool {
		return recordIDPattern.MatchString(fl.Field().String())
	})
	return v
}

// Example: "'ID': value '' does not meet the requirements for the 'required' validation"
const errStringFormat = "'%s': value '%v' does not meet the requirements for the '%s' validation"

func formatError(err error) error {
	var validationErrors gvalidator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	errs := []error{ErrValidationFailed}
	for _, validationErr := range validationErrors {
		errs = append(errs, fmt.Errorf(errStringFormat,
			validationErr.Field(),
			validationErr.Value(),
			validationErr.Tag(),
		))
	}

	return errors.Join(errs...)
}

// Validate checks v against its `validate` struct tags.
func Validate(v any) error {
	if err := validator.Struct(v); err != nil {
		return formatError(err)
	}
	return nil
}

// Var checks a single value against tag, e.g. Var(addr, "required,hostname_port").
func Var(field any, tag string) error {
	if err := validator.Var(field, tag); err != nil {
		return formatError(err)
	}
	return nil
}
