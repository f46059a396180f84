package httpx

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/stockroom/stockroom/internal/shared"
)

var indexPattern = regexp.MustCompile(`\[(\d+)\]`)

// Validator wraps validator.Validate and renders failures as field messages
// keyed by JSON name ("items.0.quantity").
type Validator struct {
	validate *validator.Validate
}

// NewValidator constructs a Validator that reports JSON field names.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Struct validates s and returns a *shared.ValidationError on failure.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := shared.NewValidationError()
	for _, fe := range fieldErrs {
		field := fieldPath(fe.Namespace())
		out.Add(field, message(fe, field))
	}
	return out
}

func fieldPath(namespace string) string {
	// Drop the root struct name.
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		namespace = rest
	}
	return indexPattern.ReplaceAllString(namespace, ".$1")
}

func message(fe validator.FieldError, field string) string {
	label := strings.ReplaceAll(field, "_", " ")
	kind := fe.Kind()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", label)
	case "required_if":
		parts := strings.Fields(fe.Param())
		if len(parts) == 2 {
			return fmt.Sprintf("The %s field is required when %s is %s.", label, strings.ToLower(parts[0]), parts[1])
		}
		return fmt.Sprintf("The %s field is required.", label)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", label)
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", label)
	case "eqfield":
		return fmt.Sprintf("The %s field confirmation does not match.", label)
	case "max", "lte":
		switch kind {
		case reflect.String:
			return fmt.Sprintf("The %s field must not be greater than %s characters.", label, fe.Param())
		case reflect.Slice:
			return fmt.Sprintf("The %s field must not have more than %s items.", label, fe.Param())
		default:
			return fmt.Sprintf("The %s field must not be greater than %s.", label, fe.Param())
		}
	case "min", "gte":
		switch kind {
		case reflect.String:
			return fmt.Sprintf("The %s field must be at least %s characters.", label, fe.Param())
		case reflect.Slice:
			return fmt.Sprintf("The %s field must have at least %s items.", label, fe.Param())
		default:
			return fmt.Sprintf("The %s field must be at least %s.", label, fe.Param())
		}
	case "gt":
		return fmt.Sprintf("The %s field must be greater than %s.", label, fe.Param())
	default:
		return fmt.Sprintf("The %s field is invalid.", label)
	}
}
