package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Error is a field-scoped validation failure.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// FieldErrors maps a field's JSON name to the message shown next to it.
type FieldErrors map[string]string

// messages overrides the generic per-tag message for specific fields.
var messages = map[string]string{
	"name":        "Product name must be at least 2 characters.",
	"description": "Product description must be at least 2 characters.",
	"price":       "Price must a valid number",
	"stock":       "Stock must a valid number",
}

// Validator checks structs against their `validate` tags and reports
// failures keyed by JSON field name.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return strings.ToLower(f.Name)
		}
		return name
	})
	return &Validator{validate: v}
}

// First validates s and returns the first violated field, in declaration
// order, or nil when s is valid.
func (v *Validator) First(s any) *Error {
	fields := v.check(s)
	if len(fields) == 0 {
		return nil
	}
	return &fields[0]
}

// Fields validates s and returns every violated field.
func (v *Validator) Fields(s any) FieldErrors {
	out := FieldErrors{}
	for _, e := range v.check(s) {
		out[e.Field] = e.Message
	}
	return out
}

func (v *Validator) check(s any) []Error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []Error{{Field: "_", Message: "Invalid form data."}}
	}
	out := make([]Error, 0, len(ve))
	for _, fe := range ve {
		out = append(out, Error{Field: fe.Field(), Message: messageFor(fe)})
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	if msg, ok := messages[fe.Field()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "min":
		return "Must be at least " + fe.Param() + " characters."
	case "gte":
		return "Must be at least " + fe.Param() + "."
	default:
		return "Invalid value."
	}
}
