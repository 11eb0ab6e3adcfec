package credential

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground/validator and reports field names by their
// json tag so messages match the request payload.
type Validator struct {
	v *validator.Validate
}

// NewValidator returns a Validator.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// Validate checks i against its `validate` tags and returns the first
// failing field as a human-readable error.
func (cv *Validator) Validate(i any) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return errors.New(fieldError(ve[0]))
	}
	return err
}

// fieldError converts a single FieldError into a human-readable message.
func fieldError(fe validator.FieldError) string {
	field := fe.Field()
	if fe.Tag() == "required" {
		return field + " is required"
	}
	return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
}
