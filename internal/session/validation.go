package session

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// knownRoles are the roles a user can register with
var knownRoles = map[string]bool{
	"driver":      true,
	"garage":      true,
	"assessor":    true,
	"insurer":     true,
	"third_party": true,
}

func newValidator() *validator.Validate {
	validate := validator.New()

	// Report fields by their JSON names
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	// Role names are compared case-insensitively
	validate.RegisterValidation("kandarole", func(fl validator.FieldLevel) bool {
		return knownRoles[strings.ToLower(strings.TrimSpace(fl.Field().String()))]
	})

	return validate
}

// validateStruct runs struct validation and wraps failures in ErrValidation
func validateStruct(validate *validator.Validate, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "kandarole":
		return fmt.Sprintf("%s must be one of: driver, garage, assessor, insurer, third_party", field)
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}
