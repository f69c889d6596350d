package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// FieldErrors is the validation detail sent under "errors".
// The shape matches {"formErrors":[...],"fieldErrors":{"field":[...]}}.
type FieldErrors struct {
	FormErrors  []string            `json:"formErrors"`
	FieldErrors map[string][]string `json:"fieldErrors"`
}

// NewFieldErrors returns an empty, JSON-ready FieldErrors.
func NewFieldErrors() *FieldErrors {
	return &FieldErrors{FormErrors: []string{}, FieldErrors: map[string][]string{}}
}

// Add records msg against field.
func (f *FieldErrors) Add(field, msg string) {
	f.FieldErrors[field] = append(f.FieldErrors[field], msg)
}

// AddForm records an error not tied to a single field.
func (f *FieldErrors) AddForm(msg string) {
	f.FormErrors = append(f.FormErrors, msg)
}

// Empty reports whether nothing was recorded.
func (f *FieldErrors) Empty() bool {
	return f == nil || (len(f.FormErrors) == 0 && len(f.FieldErrors) == 0)
}

// Err returns nil when empty, otherwise a 400 "Validation error".
func (f *FieldErrors) Err() error {
	if f.Empty() {
		return nil
	}
	return &Error{Status: http.StatusBadRequest, Message: "Validation error", Fields: f}
}

// Validator checks request structs via go-playground/validator tags.
// Field names in errors follow the json tag.
type Validator struct {
	v *validator.Validate
}

// NewValidator builds a Validator with the "notblank" tag registered.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("httpx: register notblank: %v", err))
	}
	return &Validator{v: v}
}

// Check validates s and returns the collected field errors (never nil).
func (v *Validator) Check(s any) *FieldErrors {
	out := NewFieldErrors()

	err := v.v.Struct(s)
	if err == nil {
		return out
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out.AddForm("Invalid input")
		return out
	}
	for _, fe := range verrs {
		out.Add(fe.Field(), message(fe))
	}
	return out
}

// Validate is Check(s).Err().
func (v *Validator) Validate(s any) error {
	return v.Check(s).Err()
}

func message(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required", "required_without", "required_with":
		return "Required"
	case "notblank":
		return "String must contain at least 1 character(s)"
	case "email":
		return "Invalid email"
	case "min":
		if isString {
			return fmt.Sprintf("String must contain at least %s character(s)", fe.Param())
		}
		return fmt.Sprintf("Number must be greater than or equal to %s", fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("String must contain at most %s character(s)", fe.Param())
		}
		return fmt.Sprintf("Number must be less than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("Number must be greater than %s", fe.Param())
	default:
		return "Invalid value"
	}
}
