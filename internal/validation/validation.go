// Package validation collects per-field error messages for 422 responses.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Error maps a field name to its messages. The zero value is ready to use
// through Add.
type Error struct {
	Fields map[string][]string `json:"errors"`
}

func New() *Error {
	return &Error{Fields: make(map[string][]string)}
}

// Add appends a message for field.
func (e *Error) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// Empty reports whether no messages were recorded.
func (e *Error) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// OrNil returns e when it holds messages and nil otherwise, so callers can
// write `return v.OrNil()` without returning a typed nil error.
func (e *Error) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Required returns the message used for missing fields.
func Required(field string) string {
	return fmt.Sprintf("The %s field is required.", humanize(field))
}

// FromBinding converts validator errors produced by gin binding into field
// messages keyed by the JSON field name. Other errors (malformed JSON, type
// mismatches) are reported under "body".
func FromBinding(err error) *Error {
	out := New()

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out.Add("body", "The request body is invalid.")
		return out
	}

	for _, fe := range verrs {
		field := fe.Field()
		name := humanize(field)
		switch fe.Tag() {
		case "required", "notblank":
			out.Add(field, Required(field))
		case "email":
			out.Add(field, fmt.Sprintf("The %s field must be a valid email address.", name))
		case "min":
			out.Add(field, fmt.Sprintf("The %s field must be at least %s characters.", name, fe.Param()))
		case "max":
			out.Add(field, fmt.Sprintf("The %s field must not be greater than %s characters.", name, fe.Param()))
		case "oneof":
			out.Add(field, fmt.Sprintf("The selected %s is invalid.", name))
		case "gt":
			out.Add(field, fmt.Sprintf("The %s field must be greater than %s.", name, fe.Param()))
		case "latitude", "longitude":
			out.Add(field, fmt.Sprintf("The %s field must be a valid %s.", name, fe.Tag()))
		default:
			out.Add(field, fmt.Sprintf("The %s field is invalid.", name))
		}
	}
	return out
}

// UseJSONFieldNames makes v report fields by their json tag, so binding
// errors line up with the wire names.
func UseJSONFieldNames(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
}

func humanize(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}
