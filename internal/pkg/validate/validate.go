// Package validate checks request payloads and reports problems per field.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MsgRequired = "This field is required."
	MsgBlank    = "This field may not be blank."
)

var usernameRe = regexp.MustCompile(`^[\w.@+-]+$`)

// Error maps JSON field names to their problems.
type Error struct {
	Fields map[string][]string
}

func NewError(field, msg string) *Error {
	e := &Error{Fields: make(map[string][]string)}
	e.Add(field, msg)

	return e
}

func (e *Error) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}

	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *Error) Empty() bool {
	return len(e.Fields) == 0
}

func (e *Error) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}

	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e.Fields[f], " "))
	}

	return "validation error: " + strings.Join(parts, "; ")
}

// Fields returns the field problems carried by err, if any.
func Fields(err error) (map[string][]string, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Fields, true
	}

	return nil, false
}

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0] //nolint:gomnd
		if name == "-" {
			return ""
		}

		return name
	})

	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRe.MatchString(fl.Field().String())
	})

	return &Validator{v: v}
}

// Struct validates s by its `validate` tags and returns *Error on failure.
func (v *Validator) Struct(s interface{}) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate error: %w", err)
	}

	e := &Error{Fields: make(map[string][]string)}

	for _, fe := range verrs {
		e.Add(fe.Field(), message(fe))
	}

	return e
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return MsgRequired
	case "min":
		if fe.Param() == "1" {
			return MsgBlank
		}

		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "datetime":
		return "Date has wrong format. Use one of these formats instead: YYYY-MM-DD."
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	default:
		return "Invalid value."
	}
}
